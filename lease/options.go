package lease

import (
	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
)

// Option Manager 选项
type Option func(*options)

type options struct {
	logger  clog.Logger
	meter   metrics.Meter
	owner   string
	randInt func(n int64) int64
}

// WithLogger 设置日志记录器，内部添加 namespace "lease"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("lease")
		}
	}
}

// WithMeter 设置指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithOwner 覆盖写入租约 key 的持有者标识，默认 "<hostname>/<uuid>"
func WithOwner(owner string) Option {
	return func(o *options) {
		o.owner = owner
	}
}

// WithRand 替换随机数源，返回 [0, n) 内的值
func WithRand(fn func(n int64) int64) Option {
	return func(o *options) {
		o.randInt = fn
	}
}
