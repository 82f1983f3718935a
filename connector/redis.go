package connector

import (
	"context"
	"sync/atomic"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/xerrors"
)

type redisConnector struct {
	cfg      *RedisConfig
	client   *redis.Client
	logger   clog.Logger
	connects metrics.Counter
	healthy  atomic.Bool
	closed   atomic.Bool
}

// NewRedis 创建 Redis 连接器，不会立即建立连接
func NewRedis(cfg *RedisConfig, opts ...Option) (RedisConnector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opt := applyOptions(opts)

	connects, err := newConnectCounter(opt.meter)
	if err != nil {
		return nil, err
	}

	c := &redisConnector{
		cfg:      cfg,
		logger:   opt.logger.With(clog.String("connector", "redis"), clog.String("name", cfg.Name)),
		connects: connects,
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	if cfg.EnableTracing {
		if err := redisotel.InstrumentTracing(c.client); err != nil {
			_ = c.client.Close()
			return nil, xerrors.Wrapf(err, "redis connector[%s]: instrument tracing", cfg.Name)
		}
	}
	if cfg.EnableMetrics {
		if err := redisotel.InstrumentMetrics(c.client); err != nil {
			_ = c.client.Close()
			return nil, xerrors.Wrapf(err, "redis connector[%s]: instrument metrics", cfg.Name)
		}
	}

	return c, nil
}

// Connect 通过 PING 探测连通性
func (c *redisConnector) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrAlreadyClosed
	}
	c.logger.Info("connecting to redis", clog.String("addr", c.cfg.Addr))

	if err := c.client.Ping(ctx).Err(); err != nil {
		c.connects.Inc(ctx, connectLabels("redis", c.cfg.Name, false)...)
		c.logger.Error("failed to connect to redis", clog.Error(err), clog.String("addr", c.cfg.Addr))
		return xerrors.Wrapf(xerrors.Combine(ErrConnection, err), "redis connector[%s]", c.cfg.Name)
	}

	c.connects.Inc(ctx, connectLabels("redis", c.cfg.Name, true)...)
	c.healthy.Store(true)
	c.logger.Info("connected to redis", clog.String("addr", c.cfg.Addr))
	return nil
}

// Close 关闭连接
func (c *redisConnector) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.healthy.Store(false)

	if err := c.client.Close(); err != nil {
		c.logger.Error("failed to close redis connection", clog.Error(err))
		return err
	}
	c.logger.Info("redis connection closed")
	return nil
}

// HealthCheck 检查连接健康状态
func (c *redisConnector) HealthCheck(ctx context.Context) error {
	if c.closed.Load() {
		return ErrAlreadyClosed
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.healthy.Store(false)
		c.logger.Warn("redis health check failed", clog.Error(err))
		return xerrors.Wrapf(xerrors.Combine(ErrHealthCheck, err), "redis connector[%s]", c.cfg.Name)
	}
	c.healthy.Store(true)
	return nil
}

func (c *redisConnector) IsHealthy() bool { return c.healthy.Load() }

func (c *redisConnector) Name() string { return c.cfg.Name }

func (c *redisConnector) GetClient() *redis.Client { return c.client }

// =============================================================================
// 连接指标
// =============================================================================

const metricConnectTotal = "connector_connect_total"

func newConnectCounter(meter metrics.Meter) (metrics.Counter, error) {
	counter, err := meter.Counter(metricConnectTotal, "Number of connector connect attempts")
	if err != nil {
		return nil, xerrors.Wrap(err, "connector: create connect counter")
	}
	return counter, nil
}

func connectLabels(kind, name string, ok bool) []metrics.Label {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	return []metrics.Label{
		metrics.L("connector", kind),
		metrics.L("name", name),
		metrics.L("outcome", outcome),
	}
}
