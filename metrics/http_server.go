package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ceyewan/leaseflake/xerrors"
)

const (
	MetricHTTPServerRequestTotal    = "http_server_requests_total"
	MetricHTTPServerDurationSeconds = "http_server_request_duration_seconds"
)

// ID 生成接口耗时通常在亚毫秒级，桶从 0.5ms 起
var defaultHTTPDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}

// HTTPServerMetricsConfig HTTP 服务 RED 指标配置
type HTTPServerMetricsConfig struct {
	Service         string
	DurationBuckets []float64
	StaticLabels    []Label
}

// HTTPServerMetrics 请求数 + 耗时直方图，标签为 service/method/route/status_class/outcome
type HTTPServerMetrics struct {
	service      string
	requestTotal Counter
	duration     Histogram
	staticLabels []Label
}

// NewHTTPServerMetrics 在 m 上注册 HTTP 服务指标
func NewHTTPServerMetrics(m Meter, cfg *HTTPServerMetricsConfig) (*HTTPServerMetrics, error) {
	if m == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "metrics: meter is nil")
	}
	if cfg == nil {
		cfg = &HTTPServerMetricsConfig{}
	}

	service := strings.TrimSpace(cfg.Service)
	if service == "" {
		service = "unknown"
	}
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = defaultHTTPDurationBuckets
	}

	counter, err := m.Counter(MetricHTTPServerRequestTotal, "Total number of HTTP requests.")
	if err != nil {
		return nil, err
	}
	duration, err := m.Histogram(MetricHTTPServerDurationSeconds, "HTTP request duration in seconds.",
		WithUnit("s"), WithBuckets(buckets))
	if err != nil {
		return nil, err
	}

	return &HTTPServerMetrics{
		service:      service,
		requestTotal: counter,
		duration:     duration,
		staticLabels: append([]Label(nil), cfg.StaticLabels...),
	}, nil
}

// Observe 记录一次请求
func (m *HTTPServerMetrics) Observe(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if strings.TrimSpace(route) == "" {
		route = UnknownRoute
	}

	labels := make([]Label, 0, len(m.staticLabels)+6)
	labels = append(labels, m.staticLabels...)
	labels = append(labels,
		L(LabelService, m.service),
		L(LabelOperation, OperationHTTPServer),
		L(LabelMethod, method),
		L(LabelRoute, route),
		L(LabelStatusClass, HTTPStatusClass(status)),
		L(LabelOutcome, HTTPOutcome(status)),
	)

	m.requestTotal.Inc(ctx, labels...)
	m.duration.Record(ctx, elapsed.Seconds(), labels...)
}
