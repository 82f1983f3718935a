package bootstrap

import (
	"context"
	"time"

	"github.com/ceyewan/leaseflake/breaker"
	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/config"
	"github.com/ceyewan/leaseflake/connector"
	"github.com/ceyewan/leaseflake/idgen"
	"github.com/ceyewan/leaseflake/internal/server"
	"github.com/ceyewan/leaseflake/lease"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/ratelimit"
	"github.com/ceyewan/leaseflake/trace"
	"github.com/ceyewan/leaseflake/xerrors"
)

// 租约存储类型
const (
	DriverRedis  = "redis"
	DriverEtcd   = "etcd"
	DriverMemory = "memory"
)

// 限流模式
const (
	LimitStandalone  = "standalone"
	LimitDistributed = "distributed"
)

// Config 进程配置，对应配置文件的顶层结构
type Config struct {
	Log       clog.Config           `mapstructure:"log"`
	Metrics   metrics.Config        `mapstructure:"metrics"`
	Trace     trace.Config          `mapstructure:"trace"`
	Server    server.Config         `mapstructure:"server"`
	Store     StoreConfig           `mapstructure:"store"`
	Redis     connector.RedisConfig `mapstructure:"redis"`
	Etcd      connector.EtcdConfig  `mapstructure:"etcd"`
	Breaker   BreakerConfig         `mapstructure:"breaker"`
	RateLimit RateLimitConfig       `mapstructure:"ratelimit"`
	IDGen     idgen.Config          `mapstructure:"idgen"`
	Lease     lease.Config          `mapstructure:"lease"`
}

// StoreConfig 租约存储选择
type StoreConfig struct {
	Driver         string `mapstructure:"driver"` // redis | etcd | memory
	MemoryCapacity int    `mapstructure:"memory_capacity"`
}

// BreakerConfig 租约存储熔断
type BreakerConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	breaker.Config `mapstructure:",squash"`
}

// RateLimitConfig 按 appKey 限流
type RateLimitConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Mode            string `mapstructure:"mode"` // standalone | distributed (需要 redis)
	ratelimit.Limit `mapstructure:",squash"`
}

// Defaults 注册到 viper 的默认值，同时让对应的环境变量可以覆盖
func Defaults() map[string]any {
	return map[string]any{
		"log.level":  "info",
		"log.format": "json",
		"log.output": "stdout",

		"metrics.enabled":        true,
		"metrics.service_name":   "leaseflake",
		"metrics.path":           "/metrics",
		"metrics.enable_runtime": true,

		"trace.enabled":      false,
		"trace.service_name": "leaseflake",
		"trace.endpoint":     "localhost:4317",
		"trace.sampler":      1.0,
		"trace.batcher":      "batch",
		"trace.insecure":     true,

		"server.addr":             ":8080",
		"server.mode":             "release",
		"server.shutdown_timeout": 10 * time.Second,

		"store.driver": DriverRedis,

		"redis.addr":           "127.0.0.1:6379",
		"redis.enable_tracing": false,
		"redis.enable_metrics": false,
		"etcd.endpoints":       []string{"127.0.0.1:2379"},

		"breaker.enabled":          true,
		"breaker.failure_ratio":    0.6,
		"breaker.minimum_requests": 20,
		"breaker.timeout":          10 * time.Second,

		"ratelimit.enabled": false,
		"ratelimit.mode":    LimitStandalone,
		"ratelimit.rate":    1000.0,
		"ratelimit.burst":   2000,

		"idgen.worker_bits": idgen.DefaultWorkerBits,
		"idgen.epoch_ms":    0,
		"idgen.namespaces":  []string{},

		"lease.worker_bits":           lease.DefaultWorkerBits,
		"lease.key_prefix":            lease.DefaultKeyPrefix,
		"lease.ttl":                   lease.DefaultTTL,
		"lease.renewal_period":        lease.DefaultRenewalPeriod,
		"lease.renewal_initial_delay": lease.DefaultRenewalInitialDelay,
		"lease.random_attempts":       lease.DefaultRandomAttempts,
		"lease.sequential_fallback":   true,
		"lease.call_timeout":          lease.DefaultCallTimeout,
		"lease.release_on_change":     false,
	}
}

// LoadConfig 读取配置文件、.env 与 LEASEFLAKE_ 前缀的环境变量
func LoadConfig(ctx context.Context, name string, paths []string, logger clog.Logger) (*Config, config.Loader, error) {
	loader, err := config.New(&config.Config{Name: name, Paths: paths, EnvPrefix: "LEASEFLAKE"},
		config.WithLogger(logger),
		config.WithDefaults(Defaults()))
	if err != nil {
		return nil, nil, err
	}
	if err := loader.Load(ctx); err != nil {
		return nil, nil, xerrors.Wrap(err, "bootstrap: load config")
	}

	var cfg Config
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, nil, xerrors.Wrap(err, "bootstrap: decode config")
	}
	return &cfg, loader, nil
}
