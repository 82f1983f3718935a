// Package breaker 基于 sony/gobreaker 提供按 key 隔离的熔断器。
//
// leaseflake 用它保护租约存储：存储持续故障时快速失败，
// 避免每次分配都等满网络超时。每个 key（如存储操作名）拥有独立的熔断状态。
//
//	brk, _ := breaker.New(&breaker.Config{FailureRatio: 0.5, MinimumRequests: 5},
//		breaker.WithLogger(logger), breaker.WithMeter(meter))
//	ok, err := breaker.Do(ctx, brk, "set_if_absent", func() (bool, error) {
//		return store.SetIfAbsent(ctx, key, owner, ttl)
//	})
package breaker

import (
	"context"
	"time"

	"github.com/ceyewan/leaseflake/clog"
)

// Breaker 熔断器
type Breaker interface {
	// Execute 在 key 对应的熔断器保护下执行 fn，熔断打开时返回 ErrOpenState
	Execute(ctx context.Context, key string, fn func() (any, error)) (any, error)

	// State 返回 key 的当前状态，未使用过的 key 视为 closed
	State(key string) (State, error)
}

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态允许通过的请求数
	MaxRequests uint32 `mapstructure:"max_requests" json:"max_requests" yaml:"max_requests"`

	// Interval 关闭状态下清空计数的周期，0 表示不清空
	Interval time.Duration `mapstructure:"interval" json:"interval" yaml:"interval"`

	// Timeout 打开状态持续多久后进入半开
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`

	FailureRatio    float64 `mapstructure:"failure_ratio" json:"failure_ratio" yaml:"failure_ratio"`
	MinimumRequests uint32  `mapstructure:"minimum_requests" json:"minimum_requests" yaml:"minimum_requests"`
}

func (c *Config) setDefaults() {
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FailureRatio == 0 {
		c.FailureRatio = 0.6
	}
	if c.MinimumRequests == 0 {
		c.MinimumRequests = 10
	}
}

// New 创建熔断器
func New(cfg *Config, opts ...Option) (Breaker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.setDefaults()
	if cfg.FailureRatio < 0 || cfg.FailureRatio > 1 {
		return nil, ErrInvalidRatio
	}

	opt := applyOptions(opts)
	opt.logger.Info("circuit breaker created",
		clog.Int("max_requests", int(cfg.MaxRequests)),
		clog.Duration("timeout", cfg.Timeout),
		clog.Float64("failure_ratio", cfg.FailureRatio),
		clog.Int("minimum_requests", int(cfg.MinimumRequests)))

	return newBreaker(cfg, opt)
}

// Do Execute 的泛型封装
func Do[T any](ctx context.Context, b Breaker, key string, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.Execute(ctx, key, func() (any, error) {
		return fn()
	})
	if err != nil {
		if v, ok := result.(T); ok {
			return v, err
		}
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}
