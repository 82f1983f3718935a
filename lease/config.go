package lease

import (
	"fmt"
	"time"

	"github.com/ceyewan/leaseflake/xerrors"
)

const (
	// MaxWorkerBits worker 号与序列号共享 22 bit
	MaxWorkerBits = 22

	DefaultWorkerBits          = 10
	DefaultKeyPrefix           = "snow_flake_worker"
	DefaultTTL                 = 180 * time.Second
	DefaultRenewalPeriod       = 60 * time.Second
	DefaultRenewalInitialDelay = 3 * time.Second
	DefaultRandomAttempts      = 10
	DefaultCallTimeout         = time.Second
)

// Config 租约配置
//
//	lease:
//	  worker_bits: 10
//	  key_prefix: snow_flake_worker
//	  ttl: 180s
//	  renewal_period: 60s
//	  renewal_initial_delay: 3s
//	  sequential_fallback: true
//	  call_timeout: 1s
type Config struct {
	WorkerBits int    `mapstructure:"worker_bits" json:"worker_bits" yaml:"worker_bits"`
	KeyPrefix  string `mapstructure:"key_prefix" json:"key_prefix" yaml:"key_prefix"`

	TTL                 time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`
	RenewalPeriod       time.Duration `mapstructure:"renewal_period" json:"renewal_period" yaml:"renewal_period"`
	RenewalInitialDelay time.Duration `mapstructure:"renewal_initial_delay" json:"renewal_initial_delay" yaml:"renewal_initial_delay"`

	// RandomAttempts 随机抢占的次数
	RandomAttempts int `mapstructure:"random_attempts" json:"random_attempts" yaml:"random_attempts"`

	// SequentialFallback 随机抢占失败后是否按顺序遍历整个号段
	SequentialFallback bool `mapstructure:"sequential_fallback" json:"sequential_fallback" yaml:"sequential_fallback"`

	// CallTimeout 单次存储调用超时，0 表示只受存储客户端自身超时约束
	//
	// 续期与换号共用分配锁，严重回拨时生成器持锁等待换号，最长等待一次续期的存储调用。
	CallTimeout time.Duration `mapstructure:"call_timeout" json:"call_timeout" yaml:"call_timeout"`

	// ReleaseOnChange 重新租用成功后删除旧号的 key，默认让旧 key 自然过期
	ReleaseOnChange bool `mapstructure:"release_on_change" json:"release_on_change" yaml:"release_on_change"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		WorkerBits:          DefaultWorkerBits,
		KeyPrefix:           DefaultKeyPrefix,
		TTL:                 DefaultTTL,
		RenewalPeriod:       DefaultRenewalPeriod,
		RenewalInitialDelay: DefaultRenewalInitialDelay,
		RandomAttempts:      DefaultRandomAttempts,
		SequentialFallback:  true,
		CallTimeout:         DefaultCallTimeout,
	}
}

// setDefaults 补全零值时长与前缀，WorkerBits 与布尔开关不做推断
func (c *Config) setDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.RenewalPeriod == 0 {
		c.RenewalPeriod = DefaultRenewalPeriod
	}
	if c.RenewalInitialDelay == 0 {
		c.RenewalInitialDelay = DefaultRenewalInitialDelay
	}
	if c.RandomAttempts == 0 {
		c.RandomAttempts = DefaultRandomAttempts
	}
}

func (c *Config) validate() error {
	if c.WorkerBits < 0 || c.WorkerBits > MaxWorkerBits {
		return xerrors.Wrapf(xerrors.WithCode(ErrInvalidConfig, "worker_bits_out_of_range"),
			"worker_bits must be in [0, %d], got %d", MaxWorkerBits, c.WorkerBits)
	}
	if c.TTL < time.Second {
		return xerrors.Wrapf(xerrors.WithCode(ErrInvalidConfig, "ttl_too_short"), "ttl must be >= 1s, got %v", c.TTL)
	}
	if c.RenewalPeriod <= 0 || c.RenewalPeriod >= c.TTL {
		return xerrors.Wrapf(xerrors.WithCode(ErrInvalidConfig, "renewal_period_invalid"),
			"renewal_period must be in (0, ttl), got %v with ttl %v", c.RenewalPeriod, c.TTL)
	}
	if c.RenewalInitialDelay < 0 {
		return xerrors.Wrap(xerrors.WithCode(ErrInvalidConfig, "renewal_initial_delay_negative"), "renewal_initial_delay must be >= 0")
	}
	if c.RandomAttempts < 0 {
		return xerrors.Wrap(xerrors.WithCode(ErrInvalidConfig, "random_attempts_negative"), "random_attempts must be >= 0")
	}
	if c.CallTimeout < 0 {
		return xerrors.Wrap(xerrors.WithCode(ErrInvalidConfig, "call_timeout_negative"), "call_timeout must be >= 0")
	}
	return nil
}

// WorkerSpace worker 号的取值个数 2^WorkerBits
func (c *Config) WorkerSpace() int64 {
	return int64(1) << c.WorkerBits
}

// Key 返回 (namespace, n) 对应的存储 key
func Key(prefix, namespace string, n int64) string {
	return fmt.Sprintf("%s_%s_%d", prefix, namespace, n)
}
