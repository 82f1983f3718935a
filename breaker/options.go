package breaker

import (
	"context"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
)

// Option 组件初始化选项函数
type Option func(*options)

// FallbackFunc 熔断打开时的降级函数，err 为 ErrOpenState，返回值作为 Execute 的错误
type FallbackFunc func(ctx context.Context, key string, err error) error

type options struct {
	logger   clog.Logger
	meter    metrics.Meter
	fallback FallbackFunc
}

// WithLogger 设置 Logger，内部会添加 namespace "breaker"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("breaker")
		}
	}
}

// WithMeter 设置指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithFallback 设置降级函数
func WithFallback(fallback FallbackFunc) Option {
	return func(o *options) {
		o.fallback = fallback
	}
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = clog.Discard()
	}
	if o.meter == nil {
		o.meter = metrics.Discard()
	}
	return o
}
