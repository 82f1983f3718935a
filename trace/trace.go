// Package trace 初始化 OpenTelemetry TracerProvider，并提供 Gin 中间件与 Tracer 获取。
package trace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/leaseflake/xerrors"
)

// Shutdown 刷新并关闭 TracerProvider
type Shutdown func(context.Context) error

// Init 初始化全局 TracerProvider
//
// cfg.Enabled 为 false 时等同于 Discard：只生成 TraceID 供日志关联，不导出。
func Init(cfg *Config) (Shutdown, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return Discard(cfg.ServiceName)
	}

	ctx := context.Background()

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(5 * time.Second),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, xerrors.Wrap(err, "trace: create otlp exporter")
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Sampler))),
	}
	if cfg.Batcher == "simple" {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	} else {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	return install(sdktrace.NewTracerProvider(tpOpts...)), nil
}

// Discard 安装一个不导出的 TracerProvider
func Discard(serviceName string) (Shutdown, error) {
	res, err := newResource(context.Background(), serviceName)
	if err != nil {
		return nil, err
	}
	return install(sdktrace.NewTracerProvider(sdktrace.WithResource(res))), nil
}

// Tracer 返回本项目的 Tracer，Provider 取全局设置
func Tracer() oteltrace.Tracer {
	return otel.Tracer(InstrumentationName)
}

func install(tp *sdktrace.TracerProvider) Shutdown {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	var attrs []resource.Option
	if serviceName != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, xerrors.Wrap(err, "trace: create resource")
	}
	return res, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "trace: config is required")
	}
	if cfg.ServiceName == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "trace: service_name is required")
	}
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "trace: endpoint is required")
	}
	if cfg.Sampler < 0 || cfg.Sampler > 1 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "trace: sampler must be between 0 and 1, got %v", cfg.Sampler)
	}
	if cfg.Batcher != "" && cfg.Batcher != "batch" && cfg.Batcher != "simple" {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "trace: batcher must be \"batch\" or \"simple\", got %q", cfg.Batcher)
	}
	return nil
}
