package breaker

import (
	"context"
	"errors"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/metrics"
)

type circuitBreaker struct {
	cfg      *Config
	logger   clog.Logger
	fallback FallbackFunc

	rejects      metrics.Counter
	stateChanges metrics.Counter

	breakers sync.Map // map[string]*gobreaker.CircuitBreaker[any]
}

func newBreaker(cfg *Config, opt *options) (Breaker, error) {
	rejects, err := opt.meter.Counter(MetricRejectsTotal, "Number of calls rejected by an open circuit breaker")
	if err != nil {
		return nil, err
	}
	stateChanges, err := opt.meter.Counter(MetricStateChanges, "Number of circuit breaker state transitions")
	if err != nil {
		return nil, err
	}

	return &circuitBreaker{
		cfg:          cfg,
		logger:       opt.logger,
		fallback:     opt.fallback,
		rejects:      rejects,
		stateChanges: stateChanges,
	}, nil
}

// Execute 执行受熔断保护的函数
func (cb *circuitBreaker) Execute(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}

	result, err := cb.getOrCreate(key).Execute(fn)
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		cb.rejects.Inc(ctx, metrics.L(LabelKey, key))
		cb.logger.Debug("circuit breaker rejected call", clog.String("key", key), clog.Error(err))

		if cb.fallback != nil {
			return nil, cb.fallback(ctx, key, ErrOpenState)
		}
		return nil, ErrOpenState
	}
	return result, err
}

// State 获取指定键的熔断器状态
func (cb *circuitBreaker) State(key string) (State, error) {
	if key == "" {
		return StateClosed, ErrKeyEmpty
	}
	val, ok := cb.breakers.Load(key)
	if !ok {
		return StateClosed, nil
	}
	return fromGobreaker(val.(*gobreaker.CircuitBreaker[any]).State()), nil
}

func (cb *circuitBreaker) getOrCreate(key string) *gobreaker.CircuitBreaker[any] {
	if val, ok := cb.breakers.Load(key); ok {
		return val.(*gobreaker.CircuitBreaker[any])
	}

	settings := gobreaker.Settings{
		Name:          key,
		MaxRequests:   cb.cfg.MaxRequests,
		Interval:      cb.cfg.Interval,
		Timeout:       cb.cfg.Timeout,
		ReadyToTrip:   cb.readyToTrip,
		IsSuccessful:  isSuccessful,
		OnStateChange: cb.onStateChange,
	}

	actual, _ := cb.breakers.LoadOrStore(key, gobreaker.NewCircuitBreaker[any](settings))
	return actual.(*gobreaker.CircuitBreaker[any])
}

func (cb *circuitBreaker) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < cb.cfg.MinimumRequests {
		return false
	}
	failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
	return failureRatio >= cb.cfg.FailureRatio
}

// 调用方主动取消不计入失败
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func (cb *circuitBreaker) onStateChange(name string, from gobreaker.State, to gobreaker.State) {
	cb.stateChanges.Inc(context.Background(),
		metrics.L(LabelKey, name),
		metrics.L(LabelFromState, fromGobreaker(from).String()),
		metrics.L(LabelToState, fromGobreaker(to).String()))

	fields := []clog.Field{
		clog.String("key", name),
		clog.String("from", fromGobreaker(from).String()),
		clog.String("to", fromGobreaker(to).String()),
	}
	if to == gobreaker.StateOpen {
		cb.logger.Warn("circuit breaker opened", fields...)
		return
	}
	cb.logger.Info("circuit breaker state changed", fields...)
}

func fromGobreaker(state gobreaker.State) State {
	switch state {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}
