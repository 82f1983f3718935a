// Package server 提供取号 HTTP 接口。
//
// 路由:
//
//	GET /idGen/getId                   默认命名空间取号
//	GET /idGen/getIdByAppKey/:appKey   指定命名空间取号，未注册时回落到默认命名空间
//	GET /idGen/workers                 各命名空间当前 worker 号
//	GET /healthz                       租约存储连通性
//	GET /metrics                       Prometheus 指标
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/idgen"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/ratelimit"
	"github.com/ceyewan/leaseflake/trace"
	"github.com/ceyewan/leaseflake/xerrors"
)

// Config HTTP 服务配置
//
//	server:
//	  addr: ":8080"
//	  mode: release
//	  shutdown_timeout: 10s
type Config struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // gin 模式: debug | release | test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Mode == "" {
		c.Mode = gin.ReleaseMode
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// IDSource 取号能力，由 *idgen.Registry 实现
type IDSource interface {
	GetIDForContext(ctx context.Context, namespace string) int64
	Workers() []idgen.WorkerInfo
}

// HealthChecker 存储连通性探测，connector.Connector 满足该接口
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server 取号 HTTP 服务
type Server struct {
	cfg     Config
	ids     IDSource
	opts    *options
	logger  clog.Logger
	engine  *gin.Engine
	httpSrv *http.Server
}

// New 创建服务并注册路由，不监听端口
func New(cfg *Config, ids IDSource, opts ...Option) (*Server, error) {
	if ids == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "server: id source is nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	c := *cfg
	c.setDefaults()

	o := applyOptions(opts...)
	gin.SetMode(c.Mode)

	s := &Server{
		cfg:    c,
		ids:    ids,
		opts:   o,
		logger: o.logger,
		engine: gin.New(),
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	s.httpSrv = &http.Server{
		Addr:              c.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: c.ReadTimeout,
		ReadTimeout:       c.ReadTimeout,
		WriteTimeout:      c.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes() error {
	httpMetrics, err := metrics.NewHTTPServerMetrics(s.opts.meter, &metrics.HTTPServerMetricsConfig{
		Service: s.opts.serviceName,
	})
	if err != nil {
		return xerrors.Wrap(err, "server: http metrics")
	}

	s.engine.Use(
		recoverEnvelope(s.logger),
		trace.GinMiddleware(s.opts.serviceName),
		metrics.GinHTTPMiddleware(httpMetrics),
	)

	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/metrics", gin.WrapH(s.opts.meter.Handler()))

	api := s.engine.Group("/idGen", methodLogger(s.logger))
	api.GET("/getId", s.getID)
	api.GET("/workers", s.workers)

	byAppKey := []gin.HandlerFunc{}
	if s.opts.limiter != nil {
		limit := s.opts.limit
		byAppKey = append(byAppKey, ratelimit.GinMiddleware(s.opts.limiter,
			func(c *gin.Context) string { return c.Param("appKey") },
			func(*gin.Context) ratelimit.Limit { return limit },
			rejectEnvelope))
	}
	byAppKey = append(byAppKey, s.getIDByAppKey)
	api.GET("/getIdByAppKey/:appKey", byAppKey...)
	return nil
}

// Handler 返回路由，用于测试或挂载到其他服务
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听端口直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", clog.String("addr", s.cfg.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return xerrors.Wrap(err, "server: listen")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return xerrors.Wrap(err, "server: shutdown")
	}
	return nil
}
