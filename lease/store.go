// Package lease 为每个命名空间租用一个 worker 号，并在后台续期。
//
// 租约存放在外部存储中，key 为 "<prefix>_<namespace>_<n>"，值为持有者标识。
// Manager 先随机抢占，失败后按 0,1,2... 顺序兜底；持有期间每个续期周期
// 执行一次 set-if-absent，若 key 仍存在则延长 TTL。
//
// 存储实现：
//   - RedisStore: SET NX PX / PEXPIRE / DEL
//   - EtcdStore: Lease + Txn(CreateRevision == 0)
//   - MemoryStore: otter 本地缓存，用于单机部署与测试
//
// 基本使用：
//
//	store := lease.NewRedisStore(redisConn.GetClient())
//	m, err := lease.NewManager("order", store, lease.DefaultConfig(), lease.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer m.Stop()
//
//	n, ok := m.Register(ctx)
package lease

import (
	"context"
	"time"
)

// Store 租约存储的原子操作
//
// 三个操作都只在存储本身故障时返回 error；"key 已存在"/"key 不存在"
// 通过 bool 返回值表达。
type Store interface {
	// SetIfAbsent key 不存在时写入 value 并设置 TTL，返回是否写入成功
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Expire 将已存在 key 的 TTL 重置为 ttl，key 不存在时返回 false
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Delete 删除 key，返回 key 是否曾存在
	Delete(ctx context.Context, key string) (bool, error)
}
