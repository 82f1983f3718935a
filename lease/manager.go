package lease

import (
	"context"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/trace"
	"github.com/ceyewan/leaseflake/xerrors"
)

const noWorker int64 = -1

// RenewOutcome 一次续期的结果
type RenewOutcome string

const (
	RenewIdle      RenewOutcome = "idle"      // 未持有号
	RenewRecreated RenewOutcome = "recreated" // key 已过期，重新写入
	RenewExtended  RenewOutcome = "extended"
	RenewMissing   RenewOutcome = "missing" // expire 未命中且补写也未成功
	RenewFailed    RenewOutcome = "error"
)

// Manager 管理一个命名空间的 worker 号租约
//
// Register 在 Manager 内串行执行；WorkerNumber 可并发读取。
// 续期协程在 NewManager 时启动，Stop 后结束。Stop 不删除租约 key。
type Manager struct {
	namespace string
	cfg       Config
	store     Store
	owner     string
	logger    clog.Logger
	inst      *instruments
	randInt   func(n int64) int64

	// 候选失败日志限频，存储故障时每个候选都会失败
	candidateLog rate.Sometimes

	allocMu sync.Mutex
	current atomic.Int64

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewManager 创建租约管理器并启动续期协程，此时尚未持有任何号
//
// cfg 为 nil 时使用 DefaultConfig()。
func NewManager(namespace string, store Store, cfg *Config, opts ...Option) (*Manager, error) {
	if namespace == "" {
		return nil, ErrNamespaceEmpty
	}
	if store == nil {
		return nil, ErrStoreNil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = clog.Discard()
	}
	if o.meter == nil {
		o.meter = metrics.Discard()
	}
	if o.owner == "" {
		o.owner = defaultOwner()
	}
	if o.randInt == nil {
		o.randInt = rand.Int64N
	}

	inst, err := newInstruments(o.meter)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		namespace:    namespace,
		cfg:          c,
		store:        store,
		owner:        o.owner,
		logger:       o.logger.With(clog.String("namespace", namespace)),
		inst:         inst,
		randInt:      o.randInt,
		candidateLog: rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
	m.current.Store(noWorker)
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.wg.Add(1)
	go m.renewLoop()

	return m, nil
}

func defaultOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "/" + uuid.NewString()
}

// Namespace 返回命名空间
func (m *Manager) Namespace() string { return m.namespace }

// Owner 返回写入租约 key 的持有者标识
func (m *Manager) Owner() string { return m.owner }

// WorkerBits 返回 worker 号位宽
func (m *Manager) WorkerBits() int { return m.cfg.WorkerBits }

// Key 返回号 n 在本命名空间下的存储 key
func (m *Manager) Key(n int64) string {
	return Key(m.cfg.KeyPrefix, m.namespace, n)
}

// WorkerNumber 返回当前持有的号
func (m *Manager) WorkerNumber() (int64, bool) {
	n := m.current.Load()
	return n, n != noWorker
}

// ============================================================================
// 分配
// ============================================================================

// Register 租用一个 worker 号
//
// 调用时先清空当前号（旧 key 不再续期），然后随机抢占 RandomAttempts 次，
// 失败且允许兜底时从 0 开始顺序遍历。号段耗尽返回 false。
func (m *Manager) Register(ctx context.Context) (int64, bool) {
	ctx, span := trace.Tracer().Start(ctx, trace.SpanLeaseRegister,
		oteltrace.WithAttributes(attribute.String(trace.AttrNamespace, m.namespace)))
	defer span.End()

	m.allocMu.Lock()
	defer m.allocMu.Unlock()

	previous := m.current.Swap(noWorker)

	n, strategy, ok := m.allocate(ctx)
	if !ok {
		m.inst.allocation(ctx, m.namespace, outcomeExhausted, strategyNone)
		span.SetStatus(codes.Error, "worker numbers exhausted")
		m.logger.ErrorContext(ctx, "no worker number available",
			clog.Int64("worker_space", m.cfg.WorkerSpace()),
			clog.Bool("sequential_fallback", m.cfg.SequentialFallback),
			clog.Error(ctx.Err()))
		return 0, false
	}

	m.current.Store(n)
	m.inst.allocation(ctx, m.namespace, outcomeAcquired, strategy)
	span.SetAttributes(attribute.Int64(trace.AttrWorker, n), attribute.String(trace.AttrStrategy, strategy))

	fields := []clog.Field{clog.Int64("worker", n), clog.String("strategy", strategy), clog.String("key", m.Key(n))}
	if previous != noWorker {
		fields = append(fields, clog.Int64("previous", previous))
	}
	m.logger.InfoContext(ctx, "worker number acquired", fields...)

	if previous != noWorker && previous != n && m.cfg.ReleaseOnChange {
		m.release(ctx, previous)
	}
	return n, true
}

// ChangeWorkerNumber 换一个新号，供生成器在严重时钟回拨时调用
func (m *Manager) ChangeWorkerNumber(ctx context.Context) (int64, bool) {
	return m.Register(ctx)
}

func (m *Manager) allocate(ctx context.Context) (int64, string, bool) {
	space := m.cfg.WorkerSpace()

	for i := 0; i < m.cfg.RandomAttempts; i++ {
		if ctx.Err() != nil {
			return 0, "", false
		}
		if n := m.randInt(space); m.tryAcquire(ctx, n) {
			return n, strategyRandom, true
		}
	}

	if !m.cfg.SequentialFallback {
		return 0, "", false
	}
	for n := int64(0); n < space; n++ {
		if ctx.Err() != nil {
			return 0, "", false
		}
		if m.tryAcquire(ctx, n) {
			return n, strategySequential, true
		}
	}
	return 0, "", false
}

// tryAcquire 存储错误只让当前候选失败
func (m *Manager) tryAcquire(ctx context.Context, n int64) bool {
	callCtx, cancel := m.callContext(ctx)
	defer cancel()

	ok, err := m.store.SetIfAbsent(callCtx, m.Key(n), m.owner, m.cfg.TTL)
	if err != nil {
		m.candidateLog.Do(func() {
			m.logger.WarnContext(ctx, "lease candidate failed", clog.Int64("worker", n), clog.Error(err))
		})
		return false
	}
	return ok
}

func (m *Manager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, m.cfg.CallTimeout)
	}
	return ctx, func() {}
}

// ============================================================================
// 续期
// ============================================================================

func (m *Manager) renewLoop() {
	defer m.wg.Done()

	timer := time.NewTimer(m.cfg.RenewalInitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-timer.C:
			m.RenewOnce(m.ctx)
			timer.Reset(m.cfg.RenewalPeriod)
		}
	}
}

// RenewOnce 执行一次续期：set-if-absent，key 已存在则把 TTL 重置为 cfg.TTL
func (m *Manager) RenewOnce(ctx context.Context) RenewOutcome {
	m.allocMu.Lock()
	defer m.allocMu.Unlock()

	n, held := m.WorkerNumber()
	if !held {
		return RenewIdle
	}

	ctx, span := trace.Tracer().Start(ctx, trace.SpanLeaseRenew, oteltrace.WithAttributes(
		attribute.String(trace.AttrNamespace, m.namespace),
		attribute.Int64(trace.AttrWorker, n)))
	defer span.End()

	outcome, err := m.renew(ctx, n)
	m.inst.renewal(ctx, m.namespace, outcome)
	span.SetAttributes(attribute.String(trace.AttrOutcome, string(outcome)))

	switch outcome {
	case RenewFailed:
		span.RecordError(err)
		span.SetStatus(codes.Error, "renew failed")
		m.logger.WarnContext(ctx, "lease renewal failed", clog.Int64("worker", n), clog.Error(err))
	case RenewRecreated:
		m.logger.WarnContext(ctx, "lease had expired, recreated", clog.Int64("worker", n))
	case RenewMissing:
		m.logger.WarnContext(ctx, "lease vanished during renewal and could not be recreated", clog.Int64("worker", n))
	default:
		m.logger.DebugContext(ctx, "lease renewed", clog.Int64("worker", n))
	}
	return outcome
}

func (m *Manager) renew(ctx context.Context, n int64) (RenewOutcome, error) {
	key := m.Key(n)

	callCtx, cancel := m.callContext(ctx)
	created, err := m.store.SetIfAbsent(callCtx, key, m.owner, m.cfg.TTL)
	cancel()
	if err != nil {
		return RenewFailed, err
	}
	if created {
		return RenewRecreated, nil
	}

	callCtx, cancel = m.callContext(ctx)
	extended, err := m.store.Expire(callCtx, key, m.cfg.TTL)
	cancel()
	if err != nil {
		return RenewFailed, err
	}
	if extended {
		return RenewExtended, nil
	}

	// key 在两次调用之间过期，立即补写一次
	callCtx, cancel = m.callContext(ctx)
	created, err = m.store.SetIfAbsent(callCtx, key, m.owner, m.cfg.TTL)
	cancel()
	if err != nil {
		return RenewFailed, err
	}
	if created {
		return RenewRecreated, nil
	}
	return RenewMissing, nil
}

// ============================================================================
// 释放与关闭
// ============================================================================

// Release 删除号 n 的租约 key，不会被自动调用
//
// 若 n 正被本 Manager 持有，下一次续期会重新写入。
func (m *Manager) Release(ctx context.Context, n int64) (bool, error) {
	if n < 0 || n >= m.cfg.WorkerSpace() {
		return false, xerrors.Wrapf(xerrors.ErrInvalidInput, "lease: worker %d out of range [0, %d)", n, m.cfg.WorkerSpace())
	}
	return m.release(ctx, n)
}

func (m *Manager) release(ctx context.Context, n int64) (bool, error) {
	ctx, span := trace.Tracer().Start(ctx, trace.SpanLeaseRelease, oteltrace.WithAttributes(
		attribute.String(trace.AttrNamespace, m.namespace),
		attribute.Int64(trace.AttrWorker, n)))
	defer span.End()

	callCtx, cancel := m.callContext(ctx)
	defer cancel()

	deleted, err := m.store.Delete(callCtx, m.Key(n))
	if err != nil {
		m.inst.release(ctx, m.namespace, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "release failed")
		m.logger.WarnContext(ctx, "lease release failed", clog.Int64("worker", n), clog.Error(err))
		return false, err
	}

	outcome := "absent"
	if deleted {
		outcome = "deleted"
	}
	m.inst.release(ctx, m.namespace, outcome)
	m.logger.InfoContext(ctx, "lease released", clog.Int64("worker", n), clog.Bool("existed", deleted))
	return deleted, nil
}

// Stop 停止续期协程并等待其退出，可重复调用
//
// 租约 key 保留到 TTL 到期。
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		m.wg.Wait()
		n, held := m.WorkerNumber()
		m.logger.Info("lease manager stopped", clog.Int64("worker", n), clog.Bool("held", held))
	})
	m.wg.Wait()
}
