package idgen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/leaseflake/lease"
	"github.com/ceyewan/leaseflake/testkit"
)

// 多个进程共享同一个存储时，同一命名空间拿到不同的 worker 号
func runSharedStore(t *testing.T, store lease.Store) {
	ctx := testkit.NewContext(t, time.Minute)
	leaseCfg := lease.DefaultConfig()
	leaseCfg.KeyPrefix = "it_" + testkit.NewID()

	const instances = 4
	seenWorkers := make(map[int64]bool)
	seenIDs := make(map[int64]bool)
	for i := 0; i < instances; i++ {
		r, err := NewRegistry(ctx, store, &Config{WorkerBits: 3},
			WithLogger(testkit.NewLogger()),
			WithMeter(testkit.NewMeter()),
			WithLeaseConfig(leaseCfg))
		require.NoError(t, err)
		t.Cleanup(r.Close)

		require.NoError(t, r.Register(ctx, "orders"))
		gen, ok := r.Lookup("orders")
		require.True(t, ok)
		require.True(t, gen.Leased())
		assert.False(t, seenWorkers[gen.WorkerNumber()], "worker %d leased twice", gen.WorkerNumber())
		seenWorkers[gen.WorkerNumber()] = true

		for j := 0; j < 1000; j++ {
			id := r.GetIDFor("orders")
			require.False(t, seenIDs[id], "duplicate id %d", id)
			seenIDs[id] = true
		}
	}
}

func TestRegistryRedis(t *testing.T) {
	runSharedStore(t, lease.NewRedisStore(testkit.GetRedisClient(t)))
}

func TestRegistryEtcd(t *testing.T) {
	runSharedStore(t, lease.NewEtcdStore(testkit.GetEtcdClient(t)))
}

func TestRegistryRedisRollbackReleases(t *testing.T) {
	client := testkit.GetRedisClient(t)
	store := lease.NewRedisStore(client)
	ctx := context.Background()

	leaseCfg := lease.DefaultConfig()
	leaseCfg.KeyPrefix = "it_" + testkit.NewID()
	leaseCfg.ReleaseOnChange = true

	clock := newFakeClock(baseMs)
	r, err := NewRegistry(ctx, store, nil,
		WithLogger(testkit.NewLogger()),
		WithClock(clock),
		WithLeaseConfig(leaseCfg))
	require.NoError(t, err)
	defer r.Close()

	gen, _ := r.Lookup(DefaultNamespace)
	before := gen.WorkerNumber()
	r.GetID()

	clock.setMs(baseMs - 50)
	id := r.GetID()
	after := gen.WorkerNumber()
	require.NotEqual(t, before, after)
	assert.Equal(t, after, gen.Layout().Decode(id).Worker)

	n, err := client.Exists(ctx, lease.Key(leaseCfg.KeyPrefix, DefaultNamespace, before)).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "old lease is deleted when ReleaseOnChange is set")
}
