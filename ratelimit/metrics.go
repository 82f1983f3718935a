package ratelimit

import (
	"context"

	"github.com/ceyewan/leaseflake/metrics"
	"github.com/ceyewan/leaseflake/xerrors"
)

const (
	// MetricDecisions 限流判定次数 (Counter)，按 mode 和 result 区分
	MetricDecisions = "ratelimit_decisions_total"

	// MetricErrors 限流器内部错误数 (Counter)
	MetricErrors = "ratelimit_errors_total"

	LabelMode   = "mode"   // standalone|distributed
	LabelResult = "result" // allowed|denied
)

type counters struct {
	decisions metrics.Counter
	errors    metrics.Counter
}

func newCounters(meter metrics.Meter) (*counters, error) {
	decisions, err := meter.Counter(MetricDecisions, "Number of rate limit decisions")
	if err != nil {
		return nil, xerrors.Wrap(err, "ratelimit: create decisions counter")
	}
	errs, err := meter.Counter(MetricErrors, "Number of rate limiter errors")
	if err != nil {
		return nil, xerrors.Wrap(err, "ratelimit: create errors counter")
	}
	return &counters{decisions: decisions, errors: errs}, nil
}

func (c *counters) record(ctx context.Context, mode string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	c.decisions.Inc(ctx, metrics.L(LabelMode, mode), metrics.L(LabelResult, result))
}
