package connector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/leaseflake/connector"
	"github.com/ceyewan/leaseflake/testkit"
)

func TestRedisConnectorIntegration(t *testing.T) {
	conn := testkit.GetRedisConnector(t)
	ctx := testkit.NewContext(t, 10*time.Second)

	assert.True(t, conn.IsHealthy())
	require.NoError(t, conn.HealthCheck(ctx))

	key := "connector:" + testkit.NewID()
	client := conn.GetClient()
	require.NoError(t, client.Set(ctx, key, "v", time.Minute).Err())
	got, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestRedisConnectorWithInstrumentation(t *testing.T) {
	cfg := testkit.StartRedis(t)
	cfg.EnableTracing = true
	cfg.EnableMetrics = true

	conn, err := connector.NewRedis(cfg, connector.WithLogger(testkit.NewLogger()), connector.WithMeter(testkit.NewMeter()))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Connect(context.Background()))
	assert.True(t, conn.IsHealthy())
}

func TestEtcdConnectorIntegration(t *testing.T) {
	conn := testkit.GetEtcdConnector(t)
	ctx := testkit.NewContext(t, 10*time.Second)

	assert.True(t, conn.IsHealthy())
	require.NoError(t, conn.HealthCheck(ctx))

	key := "/connector/" + testkit.NewID()
	client := conn.GetClient()
	_, err := client.Put(ctx, key, "v")
	require.NoError(t, err)

	resp, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 1)
	assert.Equal(t, "v", string(resp.Kvs[0].Value))

	require.NoError(t, conn.Close())
	assert.False(t, conn.IsHealthy())
}
