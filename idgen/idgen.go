// Package idgen 生成 Snowflake 风格的 64 位 ID，worker 号通过 lease 包动态租用。
//
// 每个命名空间 (appKey) 持有一个 Generator 与一个 lease.Manager。Generator
// 在本地完成时间戳、worker 号与序列号的拼装，只在严重时钟回拨时向
// lease.Manager 申请新号。Next 不返回错误：无法恢复的异常输出降级 ID，
// 即上一毫秒时间戳拼接 22 bit 随机数。
//
// 基本用法:
//
//	store := lease.NewRedisStore(redisConn.GetClient())
//	reg, err := idgen.NewRegistry(ctx, store, idgen.DefaultConfig(),
//	    idgen.WithLogger(logger),
//	    idgen.WithMeter(meter),
//	)
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//
//	id := reg.GetID()
//	_ = reg.Register(ctx, "orders")
//	orderID := reg.GetIDFor("orders")
package idgen

import "context"

// Leaser 生成器依赖的租约能力，由 *lease.Manager 实现
type Leaser interface {
	// ChangeWorkerNumber 放弃当前号并租用新号，失败返回 false
	ChangeWorkerNumber(ctx context.Context) (int64, bool)

	// Stop 停止续期
	Stop()
}
