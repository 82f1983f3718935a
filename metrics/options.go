package metrics

import "github.com/ceyewan/leaseflake/clog"

// Option Meter 创建选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 注入 Logger，自动追加 "metrics" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("metrics")
		}
	}
}

// MetricOption 单个指标的选项
type MetricOption func(*MetricOptions)

// MetricOptions 指标选项
type MetricOptions struct {
	Unit    string
	Buckets []float64 // 仅对 Histogram 生效
}

// WithUnit 设置单位，如 "s"、"ms"
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// WithBuckets 设置直方图桶边界
func WithBuckets(buckets []float64) MetricOption {
	return func(o *MetricOptions) {
		o.Buckets = append([]float64(nil), buckets...)
	}
}

func applyMetricOptions(opts []MetricOption) *MetricOptions {
	o := &MetricOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
