// Package metrics 基于 OpenTelemetry 提供 Counter/Gauge/Histogram 指标接口，
// 通过 Prometheus exporter 暴露。
//
//	meter, _ := metrics.New(&metrics.Config{Enabled: true, ServiceName: "leaseflake"})
//	defer meter.Shutdown(ctx)
//
//	degraded, _ := meter.Counter("idgen_degraded_total", "Degraded identifiers emitted")
//	degraded.Inc(ctx, metrics.L("reason", "lease_failed"))
//
// 未启用时 New 返回 noop Meter，组件无需判空。
package metrics

import (
	"context"
	"net/http"
)

// Counter 只增计数器
type Counter interface {
	Inc(ctx context.Context, labels ...Label)
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 可增减的瞬时值
type Gauge interface {
	Set(ctx context.Context, val float64, labels ...Label)
	Inc(ctx context.Context, labels ...Label)
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 值分布
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标工厂
type Meter interface {
	Counter(name string, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name string, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name string, desc string, opts ...MetricOption) (Histogram, error)

	// Handler 返回 Prometheus 抓取端点，可挂载到业务 HTTP 服务上
	Handler() http.Handler

	// Shutdown 刷新指标并关闭独立的 Prometheus 端口（如有）
	Shutdown(ctx context.Context) error
}
