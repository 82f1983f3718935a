package idgen

import (
	"context"

	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/xerrors"
)

// Metrics 指标常量定义
const (
	// MetricGenerated 生成 ID 总数 (Counter)
	MetricGenerated = "idgen_generated_total"

	// MetricDegraded 降级 ID 总数 (Counter)
	MetricDegraded = "idgen_degraded_total"

	// MetricClockRollback 时钟回拨次数 (Counter)
	MetricClockRollback = "idgen_clock_rollback_total"

	LabelNamespace = "namespace"
	LabelReason    = "reason"
	LabelSeverity  = "severity"
)

// 降级原因
const (
	ReasonInterrupted      = "interrupted"  // 等待时钟时被取消
	ReasonLeaseFailed      = "lease_failed" // 严重回拨后无法租到新号
	ReasonClockStillBehind = "clock_behind" // 等待后时钟仍落后
)

// 回拨程度
const (
	severitySmall = "small" // 等待追上
	severityLarge = "large" // 换号
)

type instruments struct {
	generated metrics.Counter
	degraded  metrics.Counter
	rollbacks metrics.Counter
}

func newInstruments(meter metrics.Meter) (*instruments, error) {
	generated, err := meter.Counter(MetricGenerated, "Number of identifiers generated")
	if err != nil {
		return nil, xerrors.Wrap(err, "idgen: create generated counter")
	}
	degraded, err := meter.Counter(MetricDegraded, "Number of degraded identifiers by reason")
	if err != nil {
		return nil, xerrors.Wrap(err, "idgen: create degraded counter")
	}
	rollbacks, err := meter.Counter(MetricClockRollback, "Number of observed clock rollbacks by severity")
	if err != nil {
		return nil, xerrors.Wrap(err, "idgen: create rollback counter")
	}
	return &instruments{generated: generated, degraded: degraded, rollbacks: rollbacks}, nil
}

func (i *instruments) generate(ctx context.Context, ns string) {
	i.generated.Inc(ctx, metrics.L(LabelNamespace, ns))
}

func (i *instruments) degrade(ctx context.Context, ns, reason string) {
	i.degraded.Inc(ctx, metrics.L(LabelNamespace, ns), metrics.L(LabelReason, reason))
}

func (i *instruments) rollback(ctx context.Context, ns, severity string) {
	i.rollbacks.Inc(ctx, metrics.L(LabelNamespace, ns), metrics.L(LabelSeverity, severity))
}
