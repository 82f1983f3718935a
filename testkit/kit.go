// Package testkit 提供测试共用的依赖：日志、指标、基于 testcontainers 的 Redis/Etcd。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
)

// Kit 包含通用的测试依赖
type Kit struct {
	Ctx    context.Context
	Logger clog.Logger
	Meter  metrics.Meter
}

// NewKit 返回一个包含默认依赖的测试工具包
func NewKit(t *testing.T) *Kit {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &Kit{
		Ctx:    ctx,
		Logger: NewLogger(),
		Meter:  NewMeter(),
	}
}

// NewLogger 返回测试用 logger，console 格式输出到 stderr
func NewLogger() clog.Logger {
	logger, err := clog.New(&clog.Config{Level: "debug", Format: "console", Output: "stderr"})
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewMeter 返回启用的 meter，便于断言 /metrics 输出
func NewMeter() metrics.Meter {
	meter, err := metrics.New(metrics.NewDevDefaultConfig("leaseflake-test"))
	if err != nil {
		return metrics.Discard()
	}
	return meter
}

// NewContext 返回一个带有超时的测试上下文
func NewContext(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// NewID 返回一个唯一的测试 ID (UUID v4 前 8 位)，用作命名空间或 key 前缀
func NewID() string {
	return uuid.New().String()[0:8]
}

// SkipIfShort 在 -short 模式下跳过依赖容器的测试
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
}
