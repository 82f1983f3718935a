package ratelimit

import (
	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
)

// Option 限流器选项
type Option func(*options)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
}

// WithLogger 设置日志记录器
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("ratelimit")
		}
	}
}

// WithMeter 设置指标收集器
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
