package lease

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errFakeStore = errors.New("fake store down")

// fakeStore 记录调用的内存实现，可以让指定 key 或所有调用失败
type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failing map[string]bool
	down    bool

	setCalls    int
	expireCalls int
	deleteCalls int

	// expireMiss 为 true 时 Expire 报告 key 不存在
	expireMiss bool
	// expireVanish 为 true 时 Expire 先删除 key 再报告不存在
	expireVanish bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  make(map[string]string),
		ttls:    make(map[string]time.Duration),
		failing: make(map[string]bool),
	}
}

func (s *fakeStore) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.down || s.failing[key] {
		return false, errFakeStore
	}
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value
	s.ttls[key] = ttl
	return true, nil
}

func (s *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireCalls++
	if s.down || s.failing[key] {
		return false, errFakeStore
	}
	if s.expireVanish {
		delete(s.values, key)
		delete(s.ttls, key)
		return false, nil
	}
	if _, ok := s.values[key]; !ok || s.expireMiss {
		return false, nil
	}
	s.ttls[key] = ttl
	return true, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if s.down || s.failing[key] {
		return false, errFakeStore
	}
	if _, ok := s.values[key]; !ok {
		return false, nil
	}
	delete(s.values, key)
	delete(s.ttls, key)
	return true, nil
}

func (s *fakeStore) put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

func (s *fakeStore) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *fakeStore) ttl(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

func (s *fakeStore) setTTL(key string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttls[key] = ttl
}

func (s *fakeStore) fail(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[key] = true
}

func (s *fakeStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *fakeStore) calls() (set, expire, del int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls, s.expireCalls, s.deleteCalls
}

// sequenceRand 依次返回给定的值，用完后重复最后一个
func sequenceRand(values ...int64) func(int64) int64 {
	var mu sync.Mutex
	i := 0
	return func(n int64) int64 {
		mu.Lock()
		defer mu.Unlock()
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v % n
	}
}
