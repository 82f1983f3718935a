package lease

import (
	"context"

	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/xerrors"
)

const (
	// MetricAllocations 一次 Register 的结果 (Counter)
	MetricAllocations = "lease_allocations_total"

	// MetricRenewals 续期结果 (Counter)
	MetricRenewals = "lease_renewals_total"

	// MetricReleases 主动释放次数 (Counter)
	MetricReleases = "lease_releases_total"

	LabelNamespace = "namespace"
	LabelOutcome   = "outcome"
	LabelStrategy  = "strategy"
)

// 分配结果
const (
	outcomeAcquired  = "acquired"
	outcomeExhausted = "exhausted"

	strategyRandom     = "random"
	strategySequential = "sequential"
	strategyNone       = "none"
)

type instruments struct {
	allocations metrics.Counter
	renewals    metrics.Counter
	releases    metrics.Counter
}

func newInstruments(meter metrics.Meter) (*instruments, error) {
	allocations, err := meter.Counter(MetricAllocations, "Number of worker number allocations by outcome and strategy")
	if err != nil {
		return nil, xerrors.Wrap(err, "lease: create allocations counter")
	}
	renewals, err := meter.Counter(MetricRenewals, "Number of lease renewal ticks by outcome")
	if err != nil {
		return nil, xerrors.Wrap(err, "lease: create renewals counter")
	}
	releases, err := meter.Counter(MetricReleases, "Number of explicit lease releases")
	if err != nil {
		return nil, xerrors.Wrap(err, "lease: create releases counter")
	}
	return &instruments{allocations: allocations, renewals: renewals, releases: releases}, nil
}

func (i *instruments) allocation(ctx context.Context, ns, outcome, strategy string) {
	i.allocations.Inc(ctx,
		metrics.L(LabelNamespace, ns),
		metrics.L(LabelOutcome, outcome),
		metrics.L(LabelStrategy, strategy))
}

func (i *instruments) renewal(ctx context.Context, ns string, outcome RenewOutcome) {
	i.renewals.Inc(ctx, metrics.L(LabelNamespace, ns), metrics.L(LabelOutcome, string(outcome)))
}

func (i *instruments) release(ctx context.Context, ns, outcome string) {
	i.releases.Inc(ctx, metrics.L(LabelNamespace, ns), metrics.L(LabelOutcome, outcome))
}
