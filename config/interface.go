// Package config 基于 Viper 加载 leaseflake 的配置，支持热更新。
//
// 配置优先级：环境变量 > .env > 环境特定配置 (<name>.<env>.yaml) > 基础配置 > 默认值
//
//	loader, err := config.New(&config.Config{Name: "leaseflake", EnvPrefix: "LEASEFLAKE"},
//		config.WithDefaults(map[string]any{"http.addr": ":8080"}))
//	if err != nil {
//		return err
//	}
//	if err := loader.Load(ctx); err != nil {
//		return err
//	}
//
//	ch, _ := loader.Watch(ctx, "log.level")
//	for event := range ch {
//		...
//	}
package config

import (
	"context"
	"time"
)

// Loader 加载、解析和监听配置
type Loader interface {
	// Load 加载配置并开始监听文件变化
	Load(ctx context.Context) error

	Get(key string) any

	Unmarshal(v any) error

	UnmarshalKey(key string, v any) error

	// Watch 监听 key 的变化，ctx 结束时通道关闭
	Watch(ctx context.Context, key string) (<-chan Event, error)

	// Validate 检查已加载的配置是否为空
	Validate() error

	// ConfigFileUsed 返回实际读取的配置文件路径，未找到时为空
	ConfigFileUsed() string
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Source    string // "file"
	Timestamp time.Time
}
