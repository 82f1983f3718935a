package lease

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/leaseflake/testkit"
)

func newIntegrationManager(t *testing.T, ns string, store Store, bits int) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WorkerBits = bits
	cfg.KeyPrefix = "it_" + testkit.NewID()
	m, err := NewManager(ns, store, cfg, WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m
}

func exerciseStore(t *testing.T, store Store) {
	ctx := testkit.NewContext(t, 30*time.Second)
	prefix := "it_" + testkit.NewID()

	cfg := DefaultConfig()
	cfg.WorkerBits = 2
	cfg.KeyPrefix = prefix

	var managers []*Manager
	seen := make(map[int64]bool)
	for i := 0; i < 4; i++ {
		m, err := NewManager("orders", store, cfg, WithLogger(testkit.NewLogger()))
		require.NoError(t, err)
		t.Cleanup(m.Stop)
		managers = append(managers, m)

		n, ok := m.Register(ctx)
		require.True(t, ok)
		assert.False(t, seen[n], "worker %d leased twice", n)
		seen[n] = true
	}

	extra, err := NewManager("orders", store, cfg, WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	t.Cleanup(extra.Stop)
	_, ok := extra.Register(ctx)
	assert.False(t, ok, "worker space of 4 is exhausted")

	// 命名空间之间互不影响
	other, err := NewManager("users", store, cfg, WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	t.Cleanup(other.Stop)
	_, ok = other.Register(ctx)
	assert.True(t, ok)

	assert.Equal(t, RenewExtended, managers[0].RenewOnce(ctx))

	n, _ := managers[0].WorkerNumber()
	deleted, err := managers[0].Release(ctx, n)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, RenewRecreated, managers[0].RenewOnce(ctx))
}

func TestRedisStore(t *testing.T) {
	store := NewRedisStore(testkit.GetRedisClient(t))
	runStoreContract(t, store, "redis_"+testkit.NewID())
	exerciseStore(t, store)
}

func TestEtcdStore(t *testing.T) {
	store := NewEtcdStore(testkit.GetEtcdClient(t))
	runStoreContract(t, store, "etcd_"+testkit.NewID())
	exerciseStore(t, store)
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := testkit.GetRedisClient(t)
	store := NewRedisStore(client)
	require.NoError(t, client.Close())

	_, err := store.SetIfAbsent(context.Background(), "k", "v", time.Second)
	assert.ErrorIs(t, err, ErrStore)

	m := newIntegrationManager(t, "closed", store, 1)
	_, ok := m.Register(context.Background())
	assert.False(t, ok)
}
