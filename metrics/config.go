package metrics

// Config 指标配置
//
//	metrics:
//	  enabled: true
//	  service_name: leaseflake
//	  version: v0.3.0
//	  port: 9090        # > 0 时单独启动 Prometheus 端口，否则只通过 Handler() 挂载
//	  path: /metrics
//	  enable_runtime: true
type Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServiceName   string `mapstructure:"service_name"`
	Version       string `mapstructure:"version"`
	Port          int    `mapstructure:"port"`
	Path          string `mapstructure:"path"`
	EnableRuntime bool   `mapstructure:"enable_runtime"` // Go runtime 指标 (GC, goroutines, memory)
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "leaseflake"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

// NewDevDefaultConfig 开发/测试用配置：启用指标，不监听独立端口
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     "dev",
		Path:        "/metrics",
	}
}
