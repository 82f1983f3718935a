package server

import (
	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/ratelimit"
)

// Option 服务选项
type Option func(*options)

type options struct {
	logger      clog.Logger
	meter       metrics.Meter
	serviceName string
	health      HealthChecker
	limiter     ratelimit.Limiter
	limit       ratelimit.Limit
}

// WithLogger 设置日志记录器，内部添加 namespace "http"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("http")
		}
	}
}

// WithMeter 设置指标收集器，/metrics 由它提供
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithServiceName 设置 trace 与 HTTP 指标中的服务名
func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

// WithHealthChecker 设置 /healthz 使用的探测
func WithHealthChecker(h HealthChecker) Option {
	return func(o *options) {
		o.health = h
	}
}

// WithAppKeyLimit 按 appKey 限流
func WithAppKeyLimit(limiter ratelimit.Limiter, limit ratelimit.Limit) Option {
	return func(o *options) {
		o.limiter = limiter
		o.limit = limit
	}
}

func applyOptions(opts ...Option) *options {
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
	if o.serviceName == "" {
		o.serviceName = "leaseflake"
	}
	return o
}
