package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/idgen"
	"github.com/ceyewan/leaseflake/lease"
)

const testYAML = `
log:
  level: warn
  format: console
  output: stderr
metrics:
  enabled: true
  enable_runtime: false
server:
  mode: test
store:
  driver: memory
idgen:
  worker_bits: 8
  namespaces: [orders]
lease:
  key_prefix: test_worker
  renewal_period: 30s
ratelimit:
  enabled: true
  rate: 100
  burst: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaseflake.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, testYAML)
	t.Setenv("LEASEFLAKE_SERVER_ADDR", ":9999")

	cfg, loader, err := LoadConfig(context.Background(), "leaseflake", []string{dir}, clog.Discard())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "leaseflake.yaml"), loader.ConfigFileUsed())

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 8, cfg.IDGen.WorkerBits)
	assert.Equal(t, []string{"orders"}, cfg.IDGen.Namespaces)
	assert.Equal(t, ":9999", cfg.Server.Addr)

	// 未出现在文件中的字段取默认值
	assert.Equal(t, "test_worker", cfg.Lease.KeyPrefix)
	assert.Equal(t, 30*time.Second, cfg.Lease.RenewalPeriod)
	assert.Equal(t, lease.DefaultTTL, cfg.Lease.TTL)
	assert.True(t, cfg.Lease.SequentialFallback)
	assert.True(t, cfg.Breaker.Enabled)
	assert.InDelta(t, 0.6, cfg.Breaker.FailureRatio, 1e-9)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestNewAppMemoryStore(t *testing.T) {
	dir := writeConfig(t, testYAML)
	cfg, _, err := LoadConfig(context.Background(), "leaseflake", []string{dir}, clog.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	app, err := NewApp(ctx, cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close(ctx)) }()

	assert.Equal(t, 8, app.LeaseConfig().WorkerBits)
	assert.Nil(t, app.Health)

	w := httptest.NewRecorder()
	app.Server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/idGen/getIdByAppKey/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		ID     int64 `json:"id"`
		Status int   `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Zero(t, res.Status)

	gen, ok := app.Registry.Lookup("orders")
	require.True(t, ok)
	assert.Equal(t, 8, gen.Layout().WorkerBits)
	assert.Equal(t, gen.WorkerNumber(), gen.Layout().Decode(res.ID).Worker)
	assert.Equal(t, []string{idgen.DefaultNamespace, "orders"}, app.Registry.Namespaces())

	// 未配置的 appKey 不会注册新的命名空间
	w = httptest.NewRecorder()
	app.Server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/idGen/getIdByAppKey/unknown", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{idgen.DefaultNamespace, "orders"}, app.Registry.Namespaces())
}

func TestNewInfraUnknownDriver(t *testing.T) {
	cfg := &Config{
		Log:   clog.Config{Level: "error", Output: "stderr"},
		Store: StoreConfig{Driver: "zookeeper"},
	}
	cfg.Trace.ServiceName = "leaseflake"
	_, err := NewInfra(context.Background(), cfg)
	assert.Error(t, err)
}

func TestDistributedLimitRequiresRedis(t *testing.T) {
	dir := writeConfig(t, testYAML+"\n  mode: distributed\n")
	cfg, _, err := LoadConfig(context.Background(), "leaseflake", []string{dir}, clog.Discard())
	require.NoError(t, err)
	require.Equal(t, LimitDistributed, cfg.RateLimit.Mode)

	_, err = NewApp(context.Background(), cfg)
	assert.Error(t, err)
}
