package idgen

// Config 生成器配置
//
//	idgen:
//	  worker_bits: 10
//	  epoch_ms: 0
//	  namespaces: [orders, users]
type Config struct {
	// WorkerBits worker 号位宽 [0, 22]，序列号占剩余位
	WorkerBits int `mapstructure:"worker_bits" json:"worker_bits" yaml:"worker_bits"`

	// EpochMs 时间戳起点 (Unix 毫秒)，默认 0
	EpochMs int64 `mapstructure:"epoch_ms" json:"epoch_ms" yaml:"epoch_ms"`

	// Namespaces 启动时注册的命名空间，未列出的 appKey 使用默认命名空间
	Namespaces []string `mapstructure:"namespaces" json:"namespaces" yaml:"namespaces"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{WorkerBits: DefaultWorkerBits}
}

func (c *Config) layout() (Layout, error) {
	return NewLayout(c.WorkerBits, c.EpochMs)
}
