package lease

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract 所有 Store 实现都要满足的行为
func runStoreContract(t *testing.T, store Store, prefix string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := prefix + "_contract_1"

	ok, err := store.SetIfAbsent(ctx, key, "owner-a", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetIfAbsent(ctx, key, "owner-b", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second writer must not take an existing key")

	ok, err = store.Expire(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Expire(ctx, prefix+"_contract_missing", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.SetIfAbsent(ctx, key, "owner-b", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "deleted key can be taken again")

	// 过期后可以重新抢占
	short := prefix + "_contract_short"
	ok, err = store.SetIfAbsent(ctx, short, "owner-a", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		ok, err := store.SetIfAbsent(ctx, short, "owner-b", 5*time.Second)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)
}

func TestMemoryStore(t *testing.T) {
	store, err := NewMemoryStore(0)
	require.NoError(t, err)
	runStoreContract(t, store, "mem")
}

func TestMemoryStoreValue(t *testing.T) {
	store, err := NewMemoryStore(16)
	require.NoError(t, err)

	_, ok := store.Value("k")
	assert.False(t, ok)

	_, err = store.SetIfAbsent(context.Background(), "k", "owner", time.Minute)
	require.NoError(t, err)
	v, ok := store.Value("k")
	assert.True(t, ok)
	assert.Equal(t, "owner", v)
}

func TestMemoryStoreWithManager(t *testing.T) {
	store, err := NewMemoryStore(0)
	require.NoError(t, err)

	a := newTestManager(t, store, testConfig(1))
	b := newTestManager(t, store, testConfig(1))
	c := newTestManager(t, store, testConfig(1))

	na, ok := a.Register(context.Background())
	require.True(t, ok)
	nb, ok := b.Register(context.Background())
	require.True(t, ok)
	assert.NotEqual(t, na, nb)

	// 两个号都被占用
	_, ok = c.Register(context.Background())
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "snow_flake_worker_default_0", Key(DefaultKeyPrefix, "default", 0))
	assert.Equal(t, "p_orders_1023", Key("p", "orders", 1023))
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, int64(1), ttlSeconds(0))
	assert.Equal(t, int64(1), ttlSeconds(300*time.Millisecond))
	assert.Equal(t, int64(2), ttlSeconds(1500*time.Millisecond))
	assert.Equal(t, int64(180), ttlSeconds(DefaultTTL))
}
