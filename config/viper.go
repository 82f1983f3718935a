package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/xerrors"
)

type loader struct {
	v      *viper.Viper
	cfg    *Config
	logger clog.Logger

	mu        sync.Mutex
	watches   map[string][]chan Event
	oldValues map[string]any
}

func newLoader(cfg *Config, o *options) *loader {
	v := viper.New()
	for k, val := range o.defaults {
		v.SetDefault(k, val)
	}
	return &loader{
		v:         v,
		cfg:       cfg,
		logger:    o.logger,
		watches:   make(map[string][]chan Event),
		oldValues: make(map[string]any),
	}
}

// Load 初始化并从所有来源加载配置
func (l *loader) Load(ctx context.Context) error {
	l.v.SetConfigName(l.cfg.Name)
	l.v.SetConfigType(l.cfg.FileType)
	for _, path := range l.cfg.Paths {
		l.v.AddConfigPath(path)
	}

	l.v.SetEnvPrefix(l.cfg.EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.loadDotEnv()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return xerrors.Wrapf(xerrors.Combine(xerrors.ErrInvalidInput, err), "config: read %s", l.cfg.Name)
		}
		l.logger.Warn("no configuration file found, using defaults and environment",
			clog.String("name", l.cfg.Name), clog.Any("paths", l.cfg.Paths))
	}

	if err := l.loadEnvironmentConfig(); err != nil {
		return err
	}

	if err := l.Validate(); err != nil {
		return err
	}

	l.captureCurrentValues()

	if l.v.ConfigFileUsed() != "" {
		l.v.OnConfigChange(func(e fsnotify.Event) {
			if err := l.loadEnvironmentConfig(); err != nil {
				l.logger.Error("failed to reload environment config", clog.Error(err))
			}
			l.logger.Info("configuration file changed", clog.String("file", e.Name), clog.String("op", e.Op.String()))
			l.notifyWatches()
		})
		l.v.WatchConfig()
	}

	l.logger.Info("configuration loaded", clog.String("file", l.v.ConfigFileUsed()))
	return nil
}

// loadDotEnv 从工作目录与搜索路径加载 .env，已存在的环境变量不会被覆盖
func (l *loader) loadDotEnv() {
	candidates := []string{".env"}
	for _, path := range l.cfg.Paths {
		candidates = append(candidates, filepath.Join(path, ".env"))
	}
	for _, file := range candidates {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			l.logger.Warn("failed to load .env file", clog.String("file", file), clog.Error(err))
		}
	}
}

// loadEnvironmentConfig 合并 <name>.<env> 配置，env 取自 <PREFIX>_ENV
func (l *loader) loadEnvironmentConfig() error {
	env := os.Getenv(fmt.Sprintf("%s_ENV", l.cfg.EnvPrefix))
	if env == "" {
		return nil
	}

	envConfigName := fmt.Sprintf("%s.%s", l.cfg.Name, env)
	l.v.SetConfigName(envConfigName)
	defer l.v.SetConfigName(l.cfg.Name)

	if err := l.v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return xerrors.Wrapf(err, "config: merge environment config %s", envConfigName)
		}
		l.logger.Debug("no environment configuration file", clog.String("env", env))
		return nil
	}
	l.logger.Info("loaded environment configuration", clog.String("env", env))
	return nil
}

func (l *loader) captureCurrentValues() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.watches {
		l.oldValues[key] = l.v.Get(key)
	}
}

func (l *loader) Get(key string) any {
	return l.v.Get(key)
}

func (l *loader) Unmarshal(v any) error {
	if err := l.v.Unmarshal(v); err != nil {
		return xerrors.Wrap(xerrors.Combine(xerrors.ErrInvalidInput, err), "config: unmarshal")
	}
	return nil
}

// UnmarshalKey 从 AllSettings 取子树解码，注册过默认值的 key 也能被环境变量覆盖
//
// viper.UnmarshalKey 直接读取嵌套的默认值，不经过 AutomaticEnv。
func (l *loader) UnmarshalKey(key string, v any) error {
	subtree, ok := lookupTree(l.v.AllSettings(), key)
	if !ok {
		if err := l.v.UnmarshalKey(key, v); err != nil {
			return xerrors.Wrapf(xerrors.Combine(xerrors.ErrInvalidInput, err), "config: unmarshal %s", key)
		}
		return nil
	}

	sub := viper.New()
	if err := sub.MergeConfigMap(subtree); err != nil {
		return xerrors.Wrapf(xerrors.Combine(xerrors.ErrInvalidInput, err), "config: unmarshal %s", key)
	}
	if err := sub.Unmarshal(v); err != nil {
		return xerrors.Wrapf(xerrors.Combine(xerrors.ErrInvalidInput, err), "config: unmarshal %s", key)
	}
	return nil
}

// lookupTree 按 a.b.c 路径取嵌套 map，路径不存在或不是 map 时返回 false
func lookupTree(settings map[string]any, key string) (map[string]any, bool) {
	node := settings
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		child, ok := node[part].(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

func (l *loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch 订阅 key 的变更
func (l *loader) Watch(ctx context.Context, key string) (<-chan Event, error) {
	if key == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "config: watch key is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan Event, 10)
	l.watches[key] = append(l.watches[key], ch)
	l.oldValues[key] = l.v.Get(key)

	go func() {
		<-ctx.Done()
		l.removeWatch(key, ch)
	}()

	return ch, nil
}

func (l *loader) removeWatch(key string, ch chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	chans := l.watches[key]
	for i, c := range chans {
		if c == ch {
			l.watches[key] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(l.watches[key]) == 0 {
		delete(l.watches, key)
		delete(l.oldValues, key)
	}
	close(ch)
}

func (l *loader) Validate() error {
	if len(l.v.AllSettings()) == 0 {
		return xerrors.Wrap(ErrValidationFailed, "configuration is empty")
	}
	return nil
}

func (l *loader) notifyWatches() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, channels := range l.watches {
		newValue := l.v.Get(key)
		oldValue := l.oldValues[key]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		l.oldValues[key] = newValue

		event := Event{
			Key:       key,
			Value:     newValue,
			OldValue:  oldValue,
			Source:    "file",
			Timestamp: time.Now(),
		}
		for _, ch := range channels {
			select {
			case ch <- event:
			default:
				l.logger.Warn("watch channel is full, event dropped", clog.String("key", key))
			}
		}
	}
}
