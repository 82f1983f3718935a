package clog

import "io"

// ContextField 定义从 Context 中提取字段的规则
type ContextField struct {
	Key       any    // Context 中的键
	FieldName string // 日志中的字段名
}

// Option 函数式选项
type Option func(*options)

type options struct {
	namespaceParts []string
	contextFields  []ContextField
	traceContext   bool
	writer         io.Writer // 测试用，覆盖 Output
}

// WithNamespace 设置命名空间，多个部分以 "." 连接
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespaceParts = append(o.namespaceParts, parts...)
	}
}

// WithContextField 从 Context 中按 key 提取值，输出为 fieldName
//
//	clog.WithContextField(requestIDKey{}, "request_id")
func WithContextField(key any, fieldName string) Option {
	return func(o *options) {
		o.contextFields = append(o.contextFields, ContextField{Key: key, FieldName: fieldName})
	}
}

// WithTraceContext 开启 OpenTelemetry trace_id/span_id 自动提取
func WithTraceContext() Option {
	return func(o *options) {
		o.traceContext = true
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
