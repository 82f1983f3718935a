package trace

// Config 链路追踪配置
//
//	trace:
//	  enabled: true
//	  service_name: leaseflake
//	  endpoint: localhost:4317
//	  sampler: 0.1
type Config struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"` // OTLP gRPC 地址
	Sampler     float64 `mapstructure:"sampler"`  // 0~1
	Batcher     string  `mapstructure:"batcher"`  // batch|simple
	Insecure    bool    `mapstructure:"insecure"`
}

// DefaultConfig 返回默认配置（未启用导出）
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Endpoint:    "localhost:4317",
		Sampler:     1.0,
		Batcher:     "batch",
		Insecure:    true,
	}
}
