package idgen

import (
	"context"
	"time"
)

// Clock 生成器使用的时钟，测试中可替换
type Clock interface {
	// NowMs 当前 Unix 毫秒
	NowMs() int64

	// Sleep 阻塞 d，ctx 结束时提前返回 ctx.Err()
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock 基于 time.Now 的时钟
func SystemClock() Clock { return systemClock{} }

func (systemClock) NowMs() int64 { return time.Now().UnixMilli() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
