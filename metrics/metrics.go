package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/xerrors"
)

// ============================================================================
// 工厂函数
// ============================================================================

// New 创建 Meter。cfg.Enabled 为 false 时返回 noop Meter。
//
// 每个 Meter 使用独立的 prometheus.Registry，多个实例（如测试中）互不冲突。
func New(cfg *Config, opts ...Option) (Meter, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "metrics: config is required")
	}
	if !cfg.Enabled {
		return Discard(), nil
	}
	cfg.setDefaults()

	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, xerrors.Wrap(err, "metrics: create resource")
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, xerrors.Wrap(err, "metrics: create prometheus exporter")
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if cfg.EnableRuntime {
		if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
			_ = mp.Shutdown(context.Background())
			return nil, xerrors.Wrap(err, "metrics: start runtime instrumentation")
		}
	}

	m := &meterImpl{
		meter:    mp.Meter(cfg.ServiceName),
		provider: mp,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		logger:   o.logger,
	}

	if cfg.Port > 0 {
		m.startServer(cfg.Port, cfg.Path)
	}
	return m, nil
}

// Must 类似 New，出错时 panic，仅用于初始化阶段
func Must(cfg *Config, opts ...Option) Meter {
	m, err := New(cfg, opts...)
	if err != nil {
		panic(fmt.Sprintf("metrics: %v", err))
	}
	return m
}

// Discard 返回 noop Meter
func Discard() Meter {
	return noopMeter{}
}

// ============================================================================
// Meter 实现
// ============================================================================

type meterImpl struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
	handler  http.Handler
	logger   clog.Logger
	server   *http.Server
}

func (m *meterImpl) startServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m.handler)
	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		m.logger.Info("prometheus endpoint listening", clog.String("addr", m.server.Addr), clog.String("path", path))
		if err := m.server.ListenAndServe(); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
			m.logger.Error("prometheus endpoint stopped", clog.Error(err))
		}
	}()
}

func (m *meterImpl) Counter(name string, desc string, opts ...MetricOption) (Counter, error) {
	o := applyMetricOptions(opts)
	cOpts := []metric.Int64CounterOption{metric.WithDescription(desc)}
	if o.Unit != "" {
		cOpts = append(cOpts, metric.WithUnit(o.Unit))
	}
	c, err := m.meter.Int64Counter(name, cOpts...)
	if err != nil {
		return nil, xerrors.Wrapf(err, "metrics: create counter %s", name)
	}
	return &counterImpl{c: c}, nil
}

func (m *meterImpl) Gauge(name string, desc string, opts ...MetricOption) (Gauge, error) {
	o := applyMetricOptions(opts)
	gOpts := []metric.Float64GaugeOption{metric.WithDescription(desc)}
	if o.Unit != "" {
		gOpts = append(gOpts, metric.WithUnit(o.Unit))
	}
	g, err := m.meter.Float64Gauge(name, gOpts...)
	if err != nil {
		return nil, xerrors.Wrapf(err, "metrics: create gauge %s", name)
	}
	return &gaugeImpl{g: g, values: make(map[string]float64)}, nil
}

func (m *meterImpl) Histogram(name string, desc string, opts ...MetricOption) (Histogram, error) {
	o := applyMetricOptions(opts)
	hOpts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
	if o.Unit != "" {
		hOpts = append(hOpts, metric.WithUnit(o.Unit))
	}
	if len(o.Buckets) > 0 {
		hOpts = append(hOpts, metric.WithExplicitBucketBoundaries(o.Buckets...))
	}
	h, err := m.meter.Float64Histogram(name, hOpts...)
	if err != nil {
		return nil, xerrors.Wrapf(err, "metrics: create histogram %s", name)
	}
	return &histogramImpl{h: h}, nil
}

func (m *meterImpl) Handler() http.Handler {
	return m.handler
}

func (m *meterImpl) Shutdown(ctx context.Context) error {
	var serverErr error
	if m.server != nil {
		serverErr = m.server.Shutdown(ctx)
	}
	return xerrors.Combine(serverErr, m.provider.Shutdown(ctx))
}

type counterImpl struct {
	c metric.Int64Counter
}

func (c *counterImpl) Inc(ctx context.Context, labels ...Label) {
	c.c.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
}

func (c *counterImpl) Add(ctx context.Context, val float64, labels ...Label) {
	c.c.Add(ctx, int64(val), metric.WithAttributes(toAttributes(labels)...))
}

// gaugeImpl 同步 Gauge 只支持 Record，Inc/Dec 需要本地记住上一次的值
type gaugeImpl struct {
	g      metric.Float64Gauge
	mu     sync.Mutex
	values map[string]float64
}

func (g *gaugeImpl) Set(ctx context.Context, val float64, labels ...Label) {
	g.mu.Lock()
	g.values[labelKey(labels)] = val
	g.mu.Unlock()
	g.g.Record(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

func (g *gaugeImpl) Inc(ctx context.Context, labels ...Label) {
	g.add(ctx, 1, labels)
}

func (g *gaugeImpl) Dec(ctx context.Context, labels ...Label) {
	g.add(ctx, -1, labels)
}

func (g *gaugeImpl) add(ctx context.Context, delta float64, labels []Label) {
	key := labelKey(labels)
	g.mu.Lock()
	g.values[key] += delta
	val := g.values[key]
	g.mu.Unlock()
	g.g.Record(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

type histogramImpl struct {
	h metric.Float64Histogram
}

func (h *histogramImpl) Record(ctx context.Context, val float64, labels ...Label) {
	h.h.Record(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

// ============================================================================
// noop 实现
// ============================================================================

type noopMeter struct{}

func (noopMeter) Counter(string, string, ...MetricOption) (Counter, error) {
	return noopInstrument{}, nil
}

func (noopMeter) Gauge(string, string, ...MetricOption) (Gauge, error) {
	return noopInstrument{}, nil
}

func (noopMeter) Histogram(string, string, ...MetricOption) (Histogram, error) {
	return noopInstrument{}, nil
}

func (noopMeter) Handler() http.Handler          { return http.NotFoundHandler() }
func (noopMeter) Shutdown(context.Context) error { return nil }

type noopInstrument struct{}

func (noopInstrument) Inc(context.Context, ...Label)             {}
func (noopInstrument) Dec(context.Context, ...Label)             {}
func (noopInstrument) Add(context.Context, float64, ...Label)    {}
func (noopInstrument) Set(context.Context, float64, ...Label)    {}
func (noopInstrument) Record(context.Context, float64, ...Label) {}

// ============================================================================
// 辅助函数
// ============================================================================

func toAttributes(labels []Label) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, len(labels))
	for i, l := range labels {
		attrs[i] = attribute.String(l.Key, l.Value)
	}
	return attrs
}

func labelKey(labels []Label) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.Key + "=" + l.Value
	}
	return strings.Join(parts, "|")
}
