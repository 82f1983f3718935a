package testkit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcetcd "github.com/testcontainers/testcontainers-go/modules/etcd"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/leaseflake/connector"
)

const etcdImage = "quay.io/coreos/etcd:v3.5.9"

// StartEtcd 启动一个单节点 Etcd 容器并返回连接配置
func StartEtcd(t *testing.T) *connector.EtcdConfig {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	container, err := tcetcd.Run(ctx, etcdImage)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start etcd container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get etcd host: %v", err)
	}
	port, err := container.MappedPort(ctx, "2379/tcp")
	if err != nil {
		t.Fatalf("failed to get etcd port: %v", err)
	}

	return &connector.EtcdConfig{
		Name:        "test-etcd",
		Endpoints:   []string{fmt.Sprintf("%s:%s", host, port.Port())},
		DialTimeout: 5 * time.Second,
	}
}

// GetEtcdConnector 启动容器并返回已连接的 Etcd 连接器
func GetEtcdConnector(t *testing.T) connector.EtcdConnector {
	t.Helper()
	cfg := StartEtcd(t)

	conn, err := connector.NewEtcd(cfg, connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create etcd connector: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to etcd: %v", err)
	}
	return conn
}

// GetEtcdClient 获取原生 Etcd 客户端
func GetEtcdClient(t *testing.T) *clientv3.Client {
	return GetEtcdConnector(t).GetClient()
}
