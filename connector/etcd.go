package connector

import (
	"context"
	"sync/atomic"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/xerrors"
)

// healthKey 探测用的 key，不要求存在
const healthKey = "leaseflake/health-check"

type etcdConnector struct {
	cfg      *EtcdConfig
	client   *clientv3.Client
	logger   clog.Logger
	connects metrics.Counter
	healthy  atomic.Bool
	closed   atomic.Bool
}

// NewEtcd 创建 Etcd 连接器
//
// clientv3.New 不会阻塞等待连接建立，连通性在 Connect 中探测。
func NewEtcd(cfg *EtcdConfig, opts ...Option) (EtcdConnector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opt := applyOptions(opts)

	connects, err := newConnectCounter(opt.meter)
	if err != nil {
		return nil, err
	}

	clientConfig := clientv3.Config{
		Endpoints:            cfg.Endpoints,
		DialTimeout:          cfg.DialTimeout,
		DialKeepAliveTime:    cfg.KeepAliveTime,
		DialKeepAliveTimeout: cfg.KeepAliveTimeout,
	}
	if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := clientv3.New(clientConfig)
	if err != nil {
		return nil, xerrors.Wrapf(xerrors.Combine(ErrConnection, err), "etcd connector[%s]", cfg.Name)
	}

	return &etcdConnector{
		cfg:      cfg,
		client:   client,
		logger:   opt.logger.With(clog.String("connector", "etcd"), clog.String("name", cfg.Name)),
		connects: connects,
	}, nil
}

// Connect 通过一次读请求探测连通性
func (c *etcdConnector) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrAlreadyClosed
	}
	c.logger.Info("connecting to etcd", clog.Any("endpoints", c.cfg.Endpoints))

	if err := c.probe(ctx); err != nil {
		c.connects.Inc(ctx, connectLabels("etcd", c.cfg.Name, false)...)
		c.logger.Error("failed to connect to etcd", clog.Error(err))
		return xerrors.Wrapf(xerrors.Combine(ErrConnection, err), "etcd connector[%s]", c.cfg.Name)
	}

	c.connects.Inc(ctx, connectLabels("etcd", c.cfg.Name, true)...)
	c.healthy.Store(true)
	c.logger.Info("connected to etcd", clog.Any("endpoints", c.cfg.Endpoints))
	return nil
}

// Close 关闭连接
func (c *etcdConnector) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.healthy.Store(false)

	if err := c.client.Close(); err != nil {
		c.logger.Error("failed to close etcd connection", clog.Error(err))
		return err
	}
	c.logger.Info("etcd connection closed")
	return nil
}

// HealthCheck 检查连接健康状态
func (c *etcdConnector) HealthCheck(ctx context.Context) error {
	if c.closed.Load() {
		return ErrAlreadyClosed
	}
	if err := c.probe(ctx); err != nil {
		c.healthy.Store(false)
		c.logger.Warn("etcd health check failed", clog.Error(err))
		return xerrors.Wrapf(xerrors.Combine(ErrHealthCheck, err), "etcd connector[%s]", c.cfg.Name)
	}
	c.healthy.Store(true)
	return nil
}

func (c *etcdConnector) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	_, err := c.client.Get(probeCtx, healthKey)
	return err
}

func (c *etcdConnector) IsHealthy() bool { return c.healthy.Load() }

func (c *etcdConnector) Name() string { return c.cfg.Name }

func (c *etcdConnector) GetClient() *clientv3.Client { return c.client }
