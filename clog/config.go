package clog

import (
	"strings"

	"github.com/ceyewan/leaseflake/xerrors"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config 日志配置
//
// YAML 示例：
//
//	log:
//	  level: info
//	  format: json
//	  output: stdout
//	  add_source: true
type Config struct {
	Level      string `mapstructure:"level" json:"level" yaml:"level"`                  // debug|info|warn|error|fatal
	Format     string `mapstructure:"format" json:"format" yaml:"format"`               // json|console
	Output     string `mapstructure:"output" json:"output" yaml:"output"`               // stdout|stderr|<file path>
	AddSource  bool   `mapstructure:"add_source" json:"addSource" yaml:"add_source"`    // 输出 caller 字段
	SourceRoot string `mapstructure:"source_root" json:"sourceRoot" yaml:"source_root"` // 裁剪 caller 路径前缀
}

// validate 设置默认值并校验 Level/Format
func (c *Config) validate() error {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}

	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "json", "console":
	default:
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "format %q must be json or console", c.Format)
	}
	return nil
}
