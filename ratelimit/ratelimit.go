// Package ratelimit 按 key 限流的令牌桶，支持单机 (x/time/rate) 与 Redis 分布式两种实现。
//
// leaseflake 用它限制每个 appKey 的取号速率：
//
//	limiter, _ := ratelimit.NewStandalone(nil, ratelimit.WithLogger(logger))
//	r.GET("/idGen/getIdByAppKey/:appKey", ratelimit.GinMiddleware(limiter,
//		func(c *gin.Context) string { return c.Param("appKey") },
//		func(*gin.Context) ratelimit.Limit { return ratelimit.Limit{Rate: 1000, Burst: 2000} },
//		nil), handler)
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/leaseflake/clog"
)

// Limit 令牌桶规则
type Limit struct {
	Rate  float64 `mapstructure:"rate"`  // 每秒生成的令牌数
	Burst int     `mapstructure:"burst"` // 桶容量
}

func (l Limit) valid() bool {
	return l.Rate > 0 && l.Burst > 0
}

// Limiter 限流器
type Limiter interface {
	// Allow 尝试获取 1 个令牌，不阻塞
	Allow(ctx context.Context, key string, limit Limit) (bool, error)

	// AllowN 尝试获取 n 个令牌，不阻塞
	AllowN(ctx context.Context, key string, limit Limit, n int) (bool, error)

	Close() error
}

// StandaloneConfig 单机限流配置
type StandaloneConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // 默认 1m
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`     // 默认 5m
}

func (c *StandaloneConfig) setDefaults() {
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5 * time.Minute
	}
}

// DistributedConfig 分布式限流配置
type DistributedConfig struct {
	Prefix string `mapstructure:"prefix"` // 默认 "leaseflake:ratelimit:"
}

func (c *DistributedConfig) setDefaults() {
	if c.Prefix == "" {
		c.Prefix = "leaseflake:ratelimit:"
	}
}

// NewStandalone 创建单机限流器，cfg 为 nil 时使用默认配置
func NewStandalone(cfg *StandaloneConfig, opts ...Option) (Limiter, error) {
	if cfg == nil {
		cfg = &StandaloneConfig{}
	}
	cfg.setDefaults()

	o := applyOptions(opts)
	c, err := newCounters(o.meter)
	if err != nil {
		return nil, err
	}
	o.logger.Info("standalone rate limiter created",
		clog.Duration("cleanup_interval", cfg.CleanupInterval),
		clog.Duration("idle_timeout", cfg.IdleTimeout))
	return newStandalone(cfg, o.logger, c), nil
}

// NewDistributed 创建基于 Redis 的分布式限流器，连接由调用方管理
func NewDistributed(client redis.Scripter, cfg *DistributedConfig, opts ...Option) (Limiter, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if cfg == nil {
		cfg = &DistributedConfig{}
	}
	cfg.setDefaults()

	o := applyOptions(opts)
	c, err := newCounters(o.meter)
	if err != nil {
		return nil, err
	}
	o.logger.Info("distributed rate limiter created", clog.String("prefix", cfg.Prefix))
	return newDistributed(client, cfg, o.logger, c), nil
}
