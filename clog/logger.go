package clog

import "context"

// Logger 结构化日志接口
//
// 每个级别都有带 Context 的版本，用于提取 Context 中配置的字段与 TraceID。
//
//	lg := logger.WithNamespace("lease").With(clog.String("namespace", "order"))
//	lg.InfoContext(ctx, "worker number leased", clog.Int64("worker", 3))
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
	FatalContext(ctx context.Context, msg string, fields ...Field)

	// With 返回带预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 追加命名空间，以 "." 连接，如 "leaseflake.lease"
	WithNamespace(parts ...string) Logger

	// SetLevel 动态调整级别，对同一 New 派生出的所有子 Logger 生效
	SetLevel(level Level) error

	// Flush 同步缓冲区，文件输出时调用 Sync
	Flush()
}
