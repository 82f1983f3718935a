// Package clog 为 leaseflake 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象 Logger 接口，不暴露底层 slog 实现
//   - 层级命名空间，组件通过 WithNamespace 派生子 Logger
//   - 从 Context 提取请求字段与 OpenTelemetry TraceID
//   - 运行时动态调整日志级别（配合 config.Watch 热更新）
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{Level: "info", Format: "json"},
//	    clog.WithNamespace("leaseflake"),
//	    clog.WithTraceContext(),
//	)
//	logger.Info("worker number leased", clog.Int64("worker", 12))
package clog

import "github.com/ceyewan/leaseflake/xerrors"

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认配置 (info/console/stdout)。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = &Config{}
	}

	if err := config.validate(); err != nil {
		return nil, xerrors.Wrap(err, "clog: invalid config")
	}

	return newLogger(config, applyOptions(opts...))
}
