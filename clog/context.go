package clog

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// NamespaceKey 命名空间字段名
const NamespaceKey = "namespace"

// contextAttrs 提取 Context 字段与 TraceID
func contextAttrs(ctx context.Context, o *options, attrs []slog.Attr) []slog.Attr {
	if ctx == nil {
		return attrs
	}

	for _, cf := range o.contextFields {
		if val := ctx.Value(cf.Key); val != nil {
			attrs = append(attrs, slog.Any(cf.FieldName, val))
		}
	}

	if o.traceContext {
		sc := trace.SpanContextFromContext(ctx)
		if sc.HasTraceID() {
			attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
		}
		if sc.HasSpanID() {
			attrs = append(attrs, slog.String("span_id", sc.SpanID().String()))
		}
	}
	return attrs
}

func namespaceAttr(o *options) (slog.Attr, bool) {
	if len(o.namespaceParts) == 0 {
		return slog.Attr{}, false
	}
	return slog.String(NamespaceKey, strings.Join(o.namespaceParts, ".")), true
}
