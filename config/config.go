package config

import (
	"strings"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/xerrors"
)

// Config 加载器配置
type Config struct {
	Name      string   // 配置文件名称（不含扩展名），默认 "config"
	Paths     []string // 搜索路径，默认 [".", "./config"]
	FileType  string   // yaml|json|toml，默认 yaml
	EnvPrefix string   // 环境变量前缀，默认 "LEASEFLAKE"
}

func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = "config"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	switch c.FileType {
	case "yaml", "yml", "json", "toml":
	default:
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "config: unsupported file type %q", c.FileType)
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "LEASEFLAKE"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
	return nil
}

type options struct {
	logger   clog.Logger
	defaults map[string]any
}

// Option 加载器选项
type Option func(*options)

// WithLogger 设置日志记录器
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("config")
		}
	}
}

// WithDefaults 注册默认值
//
// 只有注册过的 key 才能在 Unmarshal 时被环境变量覆盖。
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		for k, v := range defaults {
			o.defaults[k] = v
		}
	}
}

// New 创建配置加载器，cfg 为 nil 时使用默认配置
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &options{logger: clog.Discard(), defaults: make(map[string]any)}
	for _, opt := range opts {
		opt(o)
	}
	return newLoader(cfg, o), nil
}
