package lease

import (
	"context"
	"time"

	"github.com/ceyewan/leaseflake/breaker"
)

// 熔断 key 按存储操作区分
const (
	opSetIfAbsent = "lease.set_if_absent"
	opExpire      = "lease.expire"
	opDelete      = "lease.delete"
)

type breakerStore struct {
	next Store
	brk  breaker.Breaker
}

// WithBreaker 为 Store 加上熔断保护，熔断打开时调用直接返回 breaker.ErrOpenState
func WithBreaker(store Store, brk breaker.Breaker) Store {
	if brk == nil {
		return store
	}
	return &breakerStore{next: store, brk: brk}
}

func (s *breakerStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return breaker.Do(ctx, s.brk, opSetIfAbsent, func() (bool, error) {
		return s.next.SetIfAbsent(ctx, key, value, ttl)
	})
}

func (s *breakerStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return breaker.Do(ctx, s.brk, opExpire, func() (bool, error) {
		return s.next.Expire(ctx, key, ttl)
	})
}

func (s *breakerStore) Delete(ctx context.Context, key string) (bool, error) {
	return breaker.Do(ctx, s.brk, opDelete, func() (bool, error) {
		return s.next.Delete(ctx, key)
	})
}
