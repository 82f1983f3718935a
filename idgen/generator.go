package idgen

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/xerrors"
)

const (
	// waitThresholdMs 回拨不超过该值时原地等待，超过则换号
	waitThresholdMs = 5

	// initialSequenceBound 新毫秒的序列号起点在 [0, 100) 内随机
	initialSequenceBound = 100

	// spinPause 等待进入下一毫秒时的单次停顿
	spinPause = 100 * time.Microsecond
)

// Generator Snowflake 生成器
//
// Next 在互斥锁内执行，最长阻塞 2*waitThresholdMs 毫秒（不含换号时的存储调用）。
type Generator struct {
	namespace string
	layout    Layout
	clock     Clock
	leaser    Leaser
	logger    clog.Logger
	inst      *instruments
	randInt   func(n int64) int64

	degradedLog rate.Sometimes

	mu       sync.Mutex
	last     int64
	sequence int64

	// worker 与 leased 在锁内写入，诊断接口无锁读取
	worker atomic.Int64
	leased atomic.Bool

	closeOnce sync.Once
}

// NewGenerator 创建生成器
//
// leaser 可以为 nil，此时严重回拨直接输出降级 ID。
func NewGenerator(namespace string, leaser Leaser, worker int64, cfg *Config, opts ...Option) (*Generator, error) {
	if namespace == "" {
		return nil, ErrNamespaceEmpty
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	layout, err := cfg.layout()
	if err != nil {
		return nil, err
	}
	if worker < 0 || worker >= layout.WorkerSpace() {
		return nil, xerrors.Wrapf(ErrWorkerOutOfRange, "worker %d not in [0, %d)", worker, layout.WorkerSpace())
	}

	o := applyOptions(opts...)
	if now := o.clock.NowMs(); now < layout.EpochMs {
		return nil, xerrors.Wrapf(xerrors.WithCode(ErrInvalidConfig, "epoch_in_future"),
			"epoch_ms %d is after current time %d", layout.EpochMs, now)
	}

	inst, err := newInstruments(o.meter)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		namespace:   namespace,
		layout:      layout,
		clock:       o.clock,
		leaser:      leaser,
		logger:      o.logger.With(clog.String("namespace", namespace)),
		inst:        inst,
		randInt:     o.randInt,
		degradedLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	g.worker.Store(worker)
	g.leased.Store(leaser != nil && !o.unleased)
	return g, nil
}

func applyOptions(opts ...Option) *options {
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
	if o.clock == nil {
		o.clock = SystemClock()
	}
	if o.randInt == nil {
		o.randInt = rand.Int64N
	}
	return o
}

// Namespace 返回命名空间
func (g *Generator) Namespace() string { return g.namespace }

// Layout 返回位布局
func (g *Generator) Layout() Layout { return g.layout }

// WorkerNumber 返回当前使用的 worker 号
func (g *Generator) WorkerNumber() int64 { return g.worker.Load() }

// Leased 当前 worker 号是否由租约保护
func (g *Generator) Leased() bool { return g.leased.Load() }

// Next 生成一个 ID
func (g *Generator) Next() int64 {
	return g.NextContext(context.Background())
}

// NextContext 生成一个 ID，ctx 只影响时钟回拨时的等待与换号
func (g *Generator) NextContext(ctx context.Context) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now > g.last {
		return g.startMillis(ctx, now)
	}
	if now == g.last {
		g.sequence++
		if g.sequence < g.layout.SequenceSpace() {
			return g.emit(ctx, now)
		}
	}

	// 时钟回拨或本毫秒序列号耗尽
	offset := max(g.last-now, 1)
	if offset <= waitThresholdMs {
		if now < g.last {
			g.inst.rollback(ctx, g.namespace, severitySmall)
		}
		if err := g.clock.Sleep(ctx, time.Duration(offset<<1)*time.Millisecond); err != nil {
			return g.degraded(ctx, ReasonInterrupted, clog.Int64("offset_ms", offset), clog.Error(err))
		}
	} else {
		g.inst.rollback(ctx, g.namespace, severityLarge)
		if !g.changeWorker(ctx, offset) {
			return g.degraded(ctx, ReasonLeaseFailed, clog.Int64("offset_ms", offset))
		}
		g.last = now
	}

	now = g.now()
	if now < g.last {
		return g.degraded(ctx, ReasonClockStillBehind, clog.Int64("behind_ms", g.last-now))
	}
	return g.startMillis(ctx, g.waitAfter(g.last))
}

// Close 停止绑定的租约续期，可重复调用
func (g *Generator) Close() {
	g.closeOnce.Do(func() {
		if g.leaser != nil {
			g.leaser.Stop()
		}
	})
}

func (g *Generator) now() int64 {
	return g.clock.NowMs() - g.layout.EpochMs
}

func (g *Generator) startMillis(ctx context.Context, now int64) int64 {
	g.last = now
	g.sequence = g.randInt(min(initialSequenceBound, g.layout.SequenceSpace()))
	return g.emit(ctx, now)
}

func (g *Generator) emit(ctx context.Context, now int64) int64 {
	g.inst.generate(ctx, g.namespace)
	return g.layout.Pack(now, g.worker.Load(), g.sequence)
}

// waitAfter 等到时钟越过 last，不可取消
func (g *Generator) waitAfter(last int64) int64 {
	now := g.now()
	for now <= last {
		_ = g.clock.Sleep(context.Background(), spinPause)
		now = g.now()
	}
	return now
}

func (g *Generator) changeWorker(ctx context.Context, offset int64) bool {
	previous := g.worker.Load()
	if g.leaser == nil {
		return false
	}
	n, ok := g.leaser.ChangeWorkerNumber(ctx)
	if !ok {
		// 旧号已不再续期
		g.leased.Store(false)
		return false
	}
	if n < 0 || n >= g.layout.WorkerSpace() {
		g.leased.Store(false)
		g.logger.ErrorContext(ctx, "leaser returned worker number out of range", clog.Int64("worker", n))
		return false
	}
	g.worker.Store(n)
	g.leased.Store(true)
	g.logger.WarnContext(ctx, "clock moved backwards, worker number changed",
		clog.Int64("offset_ms", offset),
		clog.Int64("previous", previous),
		clog.Int64("worker", n))
	return true
}

// degraded 输出 last<<22 | rand[0, 2^22)
func (g *Generator) degraded(ctx context.Context, reason string, fields ...clog.Field) int64 {
	g.inst.degrade(ctx, g.namespace, reason)
	g.degradedLog.Do(func() {
		fields = append(fields, clog.String("reason", reason), clog.Int64("last", g.last))
		g.logger.ErrorContext(ctx, "emitting degraded id", fields...)
	})
	return g.last<<NodeBits | g.randInt(int64(1)<<NodeBits)
}
