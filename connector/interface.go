// Package connector 管理 leaseflake 依赖的外部存储连接（Redis、Etcd）。
//
// 连接器只负责连接的生命周期与健康检查，租约逻辑在 lease 包中实现。
// NewXXX() 只创建客户端，Connect() 时才真正探测连通性；Close() 由创建者负责调用。
//
//	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: "127.0.0.1:6379"},
//		connector.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	if err := conn.Connect(ctx); err != nil {
//		return err
//	}
//	store := lease.NewRedisStore(conn.GetClient())
package connector

import (
	"context"

	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// =============================================================================
// 基础接口
// =============================================================================

// Connector 所有连接器的通用行为，方法均并发安全
type Connector interface {
	// Connect 探测连通性，可重复调用
	Connect(ctx context.Context) error
	// Close 关闭底层客户端，可重复调用
	Close() error
	// HealthCheck 发送探测请求并刷新健康状态缓存
	HealthCheck(ctx context.Context) error
	// IsHealthy 返回最近一次探测的结果
	IsHealthy() bool
	// Name 连接器实例名称，用于日志与指标
	Name() string
}

// TypedConnector 提供类型安全的客户端访问
type TypedConnector[T any] interface {
	Connector
	GetClient() T
}

// RedisConnector Redis 连接器
type RedisConnector interface {
	TypedConnector[*redis.Client]
}

// EtcdConnector Etcd 连接器
type EtcdConnector interface {
	TypedConnector[*clientv3.Client]
}
