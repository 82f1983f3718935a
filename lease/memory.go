package lease

import (
	"context"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/ceyewan/leaseflake/xerrors"
)

// defaultMemoryCapacity 足以容纳 22 bit worker 空间之外的多个命名空间
const defaultMemoryCapacity = 1 << 16

// MemoryStore 进程内租约存储
//
// 只在单进程内保证互斥，适合单机部署与测试。
type MemoryStore struct {
	mu    sync.Mutex
	cache *otter.Cache[string, string]
}

// NewMemoryStore 创建进程内租约存储，capacity <= 0 时使用默认容量
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	cache, err := otter.New(&otter.Options[string, string]{
		MaximumSize:      capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, string](time.Hour),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "lease: build memory store")
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.GetIfPresent(key); ok {
		return false, nil
	}
	s.cache.Set(key, value)
	s.cache.SetExpiresAfter(key, ttl)
	return true, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.GetIfPresent(key); !ok {
		return false, nil
	}
	s.cache.SetExpiresAfter(key, ttl)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.GetIfPresent(key); !ok {
		return false, nil
	}
	s.cache.Invalidate(key)
	return true, nil
}

// Value 返回 key 当前的持有者，用于诊断
func (s *MemoryStore) Value(key string) (string, bool) {
	return s.cache.GetIfPresent(key)
}
