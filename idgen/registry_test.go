package idgen

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/lease"
	"github.com/ceyewan/leaseflake/xerrors"
)

func newMemoryStore(t *testing.T) *lease.MemoryStore {
	t.Helper()
	store, err := lease.NewMemoryStore(0)
	require.NoError(t, err)
	return store
}

func newTestRegistry(t *testing.T, store lease.Store, cfg *Config, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{WithLogger(clog.Discard())}, opts...)
	r, err := NewRegistry(context.Background(), store, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestNewRegistryValidation(t *testing.T) {
	_, err := NewRegistry(context.Background(), nil, nil)
	assert.ErrorIs(t, err, lease.ErrStoreNil)

	_, err = NewRegistry(context.Background(), newMemoryStore(t), &Config{WorkerBits: 23})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewRegistry(context.Background(), newMemoryStore(t), nil,
		WithLeaseConfig(&lease.Config{TTL: time.Second, RenewalPeriod: time.Minute}))
	assert.ErrorIs(t, err, lease.ErrInvalidConfig)
}

func TestNewRegistryConfiguredNamespaces(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Namespaces = []string{"orders", "users", "orders"}
	r := newTestRegistry(t, newMemoryStore(t), cfg)

	assert.Equal(t, []string{DefaultNamespace, "orders", "users"}, r.Namespaces())
	for _, ns := range []string{"orders", "users"} {
		gen, ok := r.Lookup(ns)
		require.True(t, ok)
		assert.True(t, gen.Leased())
	}

	cfg.Namespaces = []string{""}
	_, err := NewRegistry(context.Background(), newMemoryStore(t), cfg, WithLogger(clog.Discard()))
	assert.ErrorIs(t, err, ErrNamespaceEmpty)
}

func TestRegistryDefaultNamespace(t *testing.T) {
	store := newMemoryStore(t)
	r := newTestRegistry(t, store, nil)

	assert.Equal(t, []string{DefaultNamespace}, r.Namespaces())

	gen, ok := r.Lookup(DefaultNamespace)
	require.True(t, ok)
	assert.True(t, gen.Leased())

	// 默认命名空间的号已写入存储
	_, held := store.Value(lease.Key(lease.DefaultKeyPrefix, DefaultNamespace, gen.WorkerNumber()))
	assert.True(t, held)

	id := r.GetID()
	p := gen.Layout().Decode(id)
	assert.Equal(t, gen.WorkerNumber(), p.Worker)
	assert.Greater(t, r.GetID(), id)
}

func TestRegistryRegisterAndFallback(t *testing.T) {
	r := newTestRegistry(t, newMemoryStore(t), nil)
	ctx := context.Background()

	require.NoError(t, r.Register(ctx, "orders"))
	orders, ok := r.Lookup("orders")
	require.True(t, ok)

	// 重复注册不替换生成器
	require.NoError(t, r.Register(ctx, "orders"))
	again, _ := r.Lookup("orders")
	assert.Same(t, orders, again)

	id := r.GetIDFor("orders")
	assert.Equal(t, orders.WorkerNumber(), orders.Layout().Decode(id).Worker)

	// 未注册的命名空间使用默认生成器
	def, _ := r.Lookup(DefaultNamespace)
	unknown := r.GetIDFor("unknown")
	assert.Equal(t, def.WorkerNumber(), def.Layout().Decode(unknown).Worker)
	_, ok = r.Lookup("unknown")
	assert.False(t, ok)

	assert.ErrorIs(t, r.Register(ctx, ""), ErrNamespaceEmpty)
	assert.Equal(t, []string{DefaultNamespace, "orders"}, r.Namespaces())
}

func TestRegistryRemove(t *testing.T) {
	store := newMemoryStore(t)
	r := newTestRegistry(t, store, nil)
	ctx := context.Background()

	removed, err := r.Remove(DefaultNamespace)
	assert.False(t, removed)
	assert.ErrorIs(t, err, ErrDefaultNamespace)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	removed, err = r.Remove("missing")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, r.Register(ctx, "orders"))
	gen, _ := r.Lookup("orders")
	key := lease.Key(lease.DefaultKeyPrefix, "orders", gen.WorkerNumber())

	removed, err = r.Remove("orders")
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok := r.Lookup("orders")
	assert.False(t, ok)

	// 租约 key 保留到过期
	_, held := store.Value(key)
	assert.True(t, held)

	// 再次注册得到新的生成器
	require.NoError(t, r.Register(ctx, "orders"))
	again, _ := r.Lookup("orders")
	assert.NotSame(t, gen, again)
}

func TestRegistryLeaseExhausted(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	for n := int64(0); n < 2; n++ {
		_, err := store.SetIfAbsent(ctx, lease.Key(lease.DefaultKeyPrefix, DefaultNamespace, n), "other", time.Minute)
		require.NoError(t, err)
	}

	r := newTestRegistry(t, store, &Config{WorkerBits: 1})

	gen, ok := r.Lookup(DefaultNamespace)
	require.True(t, ok)
	assert.False(t, gen.Leased())
	assert.Less(t, gen.WorkerNumber(), int64(2))
	assert.Positive(t, r.GetID())

	infos := r.Workers()
	require.Len(t, infos, 1)
	assert.False(t, infos[0].Leased)
}

func TestRegistryNamespaceIsolation(t *testing.T) {
	r := newTestRegistry(t, newMemoryStore(t), nil)
	ctx := context.Background()

	const namespaces, callers = 20, 5
	var wg sync.WaitGroup
	errs := make(chan error, namespaces*callers)
	for i := 0; i < namespaces; i++ {
		for j := 0; j < callers; j++ {
			wg.Add(1)
			go func(ns string) {
				defer wg.Done()
				errs <- r.Register(ctx, ns)
			}(fmt.Sprintf("ns-%02d", i))
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, r.Namespaces(), namespaces+1)

	gens := make(map[*Generator]string)
	for _, ns := range r.Namespaces() {
		gen, ok := r.Lookup(ns)
		require.True(t, ok)
		_, dup := gens[gen]
		assert.False(t, dup)
		gens[gen] = ns
		assert.Equal(t, ns, gen.Namespace())

		id := r.GetIDFor(ns)
		assert.Equal(t, gen.WorkerNumber(), gen.Layout().Decode(id).Worker)
	}
}

func TestRegistryWorkers(t *testing.T) {
	r := newTestRegistry(t, newMemoryStore(t), nil, WithLeaseConfig(&lease.Config{
		KeyPrefix:     "wk",
		TTL:           time.Minute,
		RenewalPeriod: 10 * time.Second,
	}))
	require.NoError(t, r.Register(context.Background(), "b"))
	require.NoError(t, r.Register(context.Background(), "a"))

	infos := r.Workers()
	require.Len(t, infos, 3)
	assert.Equal(t, "a", infos[0].Namespace)
	assert.Equal(t, "b", infos[1].Namespace)
	assert.Equal(t, DefaultNamespace, infos[2].Namespace)
	for _, info := range infos {
		assert.True(t, info.Leased)
		assert.Equal(t, lease.Key("wk", info.Namespace, info.Worker), info.Key)
	}
}

func TestRegistryClose(t *testing.T) {
	r, err := NewRegistry(context.Background(), newMemoryStore(t), nil, WithLogger(clog.Discard()))
	require.NoError(t, err)

	r.Close()
	r.Close()

	assert.ErrorIs(t, r.Register(context.Background(), "late"), ErrRegistryClosed)
	assert.Positive(t, r.GetID())
}
