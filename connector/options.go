package connector

import (
	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
}

// Option 配置连接器的选项
type Option func(*options)

// WithLogger 设置日志记录器
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("connector")
		}
	}
}

// WithMeter 设置指标收集器，用于记录连接尝试次数
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
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
