// Package bootstrap 按配置组装 leaseflake 进程所需的组件。
package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/leaseflake/breaker"
	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/config"
	"github.com/ceyewan/leaseflake/connector"
	"github.com/ceyewan/leaseflake/idgen"
	"github.com/ceyewan/leaseflake/internal/server"
	"github.com/ceyewan/leaseflake/lease"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/ratelimit"
	"github.com/ceyewan/leaseflake/trace"
	"github.com/ceyewan/leaseflake/xerrors"
)

// Infra 日志、指标、链路追踪与租约存储
type Infra struct {
	Config *Config
	Logger clog.Logger
	Meter  metrics.Meter
	Store  lease.Store

	// Health 存储连通性探测，memory 存储时为 nil
	Health server.HealthChecker

	redisClient *redis.Client
	closers     []func(context.Context) error
}

// NewInfra 创建基础组件并连接租约存储
func NewInfra(ctx context.Context, cfg *Config) (*Infra, error) {
	logger, err := clog.New(&cfg.Log, clog.WithTraceContext())
	if err != nil {
		return nil, xerrors.Wrap(err, "bootstrap: logger")
	}
	in := &Infra{Config: cfg, Logger: logger}

	in.Meter, err = metrics.New(&cfg.Metrics, metrics.WithLogger(logger))
	if err != nil {
		return nil, xerrors.Wrap(err, "bootstrap: metrics")
	}
	in.closers = append(in.closers, in.Meter.Shutdown)

	shutdownTrace, err := trace.Init(&cfg.Trace)
	if err != nil {
		_ = in.Close(ctx)
		return nil, xerrors.Wrap(err, "bootstrap: trace")
	}
	in.closers = append(in.closers, shutdownTrace)

	if err := in.openStore(ctx); err != nil {
		_ = in.Close(ctx)
		return nil, err
	}
	return in, nil
}

func (in *Infra) openStore(ctx context.Context) error {
	cfg := in.Config
	connOpts := []connector.Option{connector.WithLogger(in.Logger), connector.WithMeter(in.Meter)}

	var store lease.Store
	switch cfg.Store.Driver {
	case DriverRedis:
		conn, err := connector.NewRedis(&cfg.Redis, connOpts...)
		if err != nil {
			return err
		}
		in.closers = append(in.closers, func(context.Context) error { return conn.Close() })
		if err := conn.Connect(ctx); err != nil {
			return err
		}
		in.redisClient = conn.GetClient()
		in.Health = conn
		store = lease.NewRedisStore(conn.GetClient())
	case DriverEtcd:
		conn, err := connector.NewEtcd(&cfg.Etcd, connOpts...)
		if err != nil {
			return err
		}
		in.closers = append(in.closers, func(context.Context) error { return conn.Close() })
		if err := conn.Connect(ctx); err != nil {
			return err
		}
		in.Health = conn
		store = lease.NewEtcdStore(conn.GetClient())
	case DriverMemory:
		mem, err := lease.NewMemoryStore(cfg.Store.MemoryCapacity)
		if err != nil {
			return err
		}
		in.Logger.Warn("memory lease store only guarantees uniqueness within this process")
		store = mem
	default:
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "bootstrap: unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Breaker.Enabled {
		brk, err := breaker.New(&cfg.Breaker.Config, breaker.WithLogger(in.Logger), breaker.WithMeter(in.Meter))
		if err != nil {
			return xerrors.Wrap(err, "bootstrap: breaker")
		}
		store = lease.WithBreaker(store, brk)
	}
	in.Store = store
	in.Logger.Info("lease store ready",
		clog.String("driver", cfg.Store.Driver),
		clog.Bool("breaker", cfg.Breaker.Enabled))
	return nil
}

// LeaseConfig 租约配置，worker 位宽与 idgen 保持一致
func (in *Infra) LeaseConfig() *lease.Config {
	c := in.Config.Lease
	c.WorkerBits = in.Config.IDGen.WorkerBits
	return &c
}

// Close 逆序关闭所有组件
func (in *Infra) Close(ctx context.Context) error {
	var errs []error
	for i := len(in.closers) - 1; i >= 0; i-- {
		errs = append(errs, in.closers[i](ctx))
	}
	in.closers = nil
	in.Logger.Flush()
	return xerrors.Combine(errs...)
}

// App 取号服务
type App struct {
	*Infra
	Registry *idgen.Registry
	Server   *server.Server
}

// NewApp 创建 Registry 与 HTTP 服务
func NewApp(ctx context.Context, cfg *Config) (*App, error) {
	in, err := NewInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Infra: in}

	app.Registry, err = idgen.NewRegistry(ctx, in.Store, &cfg.IDGen,
		idgen.WithLogger(in.Logger),
		idgen.WithMeter(in.Meter),
		idgen.WithLeaseConfig(in.LeaseConfig()))
	if err != nil {
		_ = in.Close(ctx)
		return nil, err
	}
	in.closers = append(in.closers, func(context.Context) error {
		app.Registry.Close()
		return nil
	})

	serverOpts := []server.Option{
		server.WithLogger(in.Logger),
		server.WithMeter(in.Meter),
		server.WithServiceName(cfg.Metrics.ServiceName),
	}
	if in.Health != nil {
		serverOpts = append(serverOpts, server.WithHealthChecker(in.Health))
	}
	if cfg.RateLimit.Enabled {
		limiter, err := in.newLimiter()
		if err != nil {
			_ = in.Close(ctx)
			return nil, err
		}
		in.closers = append(in.closers, func(context.Context) error { return limiter.Close() })
		serverOpts = append(serverOpts, server.WithAppKeyLimit(limiter, cfg.RateLimit.Limit))
	}

	app.Server, err = server.New(&cfg.Server, app.Registry, serverOpts...)
	if err != nil {
		_ = in.Close(ctx)
		return nil, err
	}
	return app, nil
}

func (in *Infra) newLimiter() (ratelimit.Limiter, error) {
	opts := []ratelimit.Option{ratelimit.WithLogger(in.Logger), ratelimit.WithMeter(in.Meter)}
	switch in.Config.RateLimit.Mode {
	case LimitStandalone, "":
		return ratelimit.NewStandalone(nil, opts...)
	case LimitDistributed:
		if in.redisClient == nil {
			return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "bootstrap: distributed rate limit requires the redis store driver")
		}
		return ratelimit.NewDistributed(in.redisClient, nil, opts...)
	default:
		return nil, xerrors.Wrapf(xerrors.ErrInvalidInput, "bootstrap: unknown rate limit mode %q", in.Config.RateLimit.Mode)
	}
}

// Run 运行 HTTP 服务直到 ctx 结束
func (a *App) Run(ctx context.Context) error {
	return a.Server.Run(ctx)
}

// WatchLogLevel 配置文件中的 log.level 变化时调整日志级别
func WatchLogLevel(ctx context.Context, loader config.Loader, logger clog.Logger) error {
	ch, err := loader.Watch(ctx, "log.level")
	if err != nil {
		return err
	}
	go func() {
		for event := range ch {
			raw, _ := event.Value.(string)
			level, err := clog.ParseLevel(raw)
			if err != nil {
				logger.Warn("ignoring invalid log level", clog.String("level", raw), clog.Error(err))
				continue
			}
			if err := logger.SetLevel(level); err != nil {
				logger.Warn("set log level failed", clog.Error(err))
				continue
			}
			logger.Info("log level changed", clog.String("level", level.String()))
		}
	}()
	return nil
}
