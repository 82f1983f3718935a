package testkit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/ceyewan/leaseflake/connector"
)

const redisImage = "redis:7-alpine"

// StartRedis 启动一个 Redis 容器并返回指向它的连接配置，测试结束时自动销毁
func StartRedis(t *testing.T) *connector.RedisConfig {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, redisImage)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("failed to get redis port: %v", err)
	}

	return &connector.RedisConfig{
		Name:         "test-redis",
		Addr:         fmt.Sprintf("%s:%s", host, port.Port()),
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// GetRedisConnector 启动容器并返回已连接的 Redis 连接器
func GetRedisConnector(t *testing.T) connector.RedisConnector {
	t.Helper()
	cfg := StartRedis(t)

	conn, err := connector.NewRedis(cfg, connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create redis connector: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	return conn
}

// GetRedisClient 获取原生 Redis 客户端
func GetRedisClient(t *testing.T) *redis.Client {
	return GetRedisConnector(t).GetClient()
}
