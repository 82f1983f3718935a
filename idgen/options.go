package idgen

import (
	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/lease"
	"github.com/ceyewan/leaseflake/metrics"
)

// Option 组件初始化选项函数
type Option func(*options)

type options struct {
	logger    clog.Logger
	meter     metrics.Meter
	clock     Clock
	randInt   func(n int64) int64
	leaseCfg  *lease.Config
	leaseOpts []lease.Option
	unleased  bool
}

// WithLogger 设置 Logger，内部添加 namespace "idgen"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("idgen")
		}
	}
}

// WithMeter 设置 Meter
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithClock 替换时钟，默认 SystemClock()
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithRand 替换随机数源，返回 [0, n) 内的值
func WithRand(fn func(n int64) int64) Option {
	return func(o *options) {
		o.randInt = fn
	}
}

// WithLeaseConfig Registry 创建 lease.Manager 使用的配置，WorkerBits 总是取自 idgen.Config
func WithLeaseConfig(cfg *lease.Config) Option {
	return func(o *options) {
		o.leaseCfg = cfg
	}
}

// WithLeaseOptions 追加传给 lease.NewManager 的选项
func WithLeaseOptions(opts ...lease.Option) Option {
	return func(o *options) {
		o.leaseOpts = append(o.leaseOpts, opts...)
	}
}

// withUnleased 标记初始 worker 号未经租用
func withUnleased() Option {
	return func(o *options) {
		o.unleased = true
	}
}
