package idgen

import (
	"context"
	"sync"
	"time"
)

// fakeClock 手动推进的时钟，Sleep 直接推进时间
type fakeClock struct {
	mu     sync.Mutex
	nowNs  int64
	sleeps []time.Duration
	frozen bool // 为 true 时 Sleep 不推进时间
}

func newFakeClock(ms int64) *fakeClock {
	return &fakeClock{nowNs: ms * int64(time.Millisecond)}
}

func (c *fakeClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowNs / int64(time.Millisecond)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if !c.frozen {
		c.nowNs += int64(d)
	}
	return nil
}

func (c *fakeClock) setMs(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowNs = ms * int64(time.Millisecond)
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowNs += int64(d)
}

func (c *fakeClock) freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// firstSleep 第一次 Sleep 的时长
func (c *fakeClock) firstSleep() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sleeps) == 0 {
		return 0
	}
	return c.sleeps[0]
}

// fakeLeaser 依次返回 numbers，用完后失败
type fakeLeaser struct {
	mu      sync.Mutex
	numbers []int64
	calls   int
	stops   int
}

func (l *fakeLeaser) ChangeWorkerNumber(context.Context) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if len(l.numbers) == 0 {
		return 0, false
	}
	n := l.numbers[0]
	l.numbers = l.numbers[1:]
	return n, true
}

func (l *fakeLeaser) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stops++
}

func (l *fakeLeaser) counts() (calls, stops int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls, l.stops
}

// fixedRand 总是返回 min(v, n-1)
func fixedRand(v int64) func(int64) int64 {
	return func(n int64) int64 {
		return min(v, n-1)
	}
}
