package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/xerrors"
)

type bucket struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

type standaloneLimiter struct {
	cfg      *StandaloneConfig
	logger   clog.Logger
	counters *counters
	buckets  sync.Map // map[string]*bucket，key 含规则，规则变化即换桶

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newStandalone(cfg *StandaloneConfig, logger clog.Logger, c *counters) *standaloneLimiter {
	l := &standaloneLimiter{
		cfg:      cfg,
		logger:   logger,
		counters: c,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

func (l *standaloneLimiter) Allow(ctx context.Context, key string, limit Limit) (bool, error) {
	return l.AllowN(ctx, key, limit, 1)
}

func (l *standaloneLimiter) AllowN(ctx context.Context, key string, limit Limit, n int) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}
	if !limit.valid() {
		return false, ErrInvalidLimit
	}
	if n <= 0 {
		return false, xerrors.Wrapf(ErrInvalidLimit, "n must be positive, got %d", n)
	}

	b := l.bucketFor(key, limit)
	now := time.Now()
	b.mu.Lock()
	allowed := b.limiter.AllowN(now, n)
	b.lastSeen = now
	b.mu.Unlock()

	l.counters.record(ctx, "standalone", allowed)
	if !allowed {
		l.logger.Debug("rate limited", clog.String("key", key), clog.Float64("rate", limit.Rate), clog.Int("burst", limit.Burst))
	}
	return allowed, nil
}

func (l *standaloneLimiter) bucketFor(key string, limit Limit) *bucket {
	id := key + "|" + strconv.FormatFloat(limit.Rate, 'g', -1, 64) + "|" + strconv.Itoa(limit.Burst)
	if v, ok := l.buckets.Load(id); ok {
		return v.(*bucket)
	}
	b := &bucket{
		limiter:  rate.NewLimiter(rate.Limit(limit.Rate), limit.Burst),
		lastSeen: time.Now(),
	}
	actual, _ := l.buckets.LoadOrStore(id, b)
	return actual.(*bucket)
}

// evictLoop 定期移除空闲超过 IdleTimeout 的桶
func (l *standaloneLimiter) evictLoop() {
	defer close(l.done)
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case now := <-ticker.C:
			evicted := 0
			l.buckets.Range(func(id, v any) bool {
				b := v.(*bucket)
				b.mu.Lock()
				idle := now.Sub(b.lastSeen)
				b.mu.Unlock()
				if idle > l.cfg.IdleTimeout {
					l.buckets.Delete(id)
					evicted++
				}
				return true
			})
			if evicted > 0 {
				l.logger.Debug("evicted idle buckets", clog.Int("count", evicted))
			}
		}
	}
}

// Close 停止清理协程，可重复调用
func (l *standaloneLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	<-l.done
	return nil
}
