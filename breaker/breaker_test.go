package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/xerrors"
)

var errStore = errors.New("store down")

func newTestBreaker(t *testing.T, opts ...Option) Breaker {
	t.Helper()
	brk, err := New(&Config{
		MaxRequests:     1,
		Timeout:         50 * time.Millisecond,
		FailureRatio:    0.5,
		MinimumRequests: 2,
	}, append([]Option{WithLogger(clog.Discard())}, opts...)...)
	require.NoError(t, err)
	return brk
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrConfigNil)

	_, err = New(&Config{FailureRatio: 1.5})
	assert.ErrorIs(t, err, ErrInvalidRatio)

	cfg := &Config{}
	brk, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, brk)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(10), cfg.MinimumRequests)
}

func TestExecuteSuccess(t *testing.T) {
	brk := newTestBreaker(t)

	ok, err := Do(context.Background(), brk, "set_if_absent", func() (bool, error) {
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)

	state, err := brk.State("set_if_absent")
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)
}

func TestOpensAfterFailuresAndRecovers(t *testing.T) {
	brk := newTestBreaker(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := Do(ctx, brk, "expire", func() (bool, error) { return false, errStore })
		assert.ErrorIs(t, err, errStore)
	}

	state, err := brk.State("expire")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)

	calls := 0
	_, err = Do(ctx, brk, "expire", func() (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, ErrOpenState)
	assert.True(t, xerrors.Is(err, xerrors.ErrUnavailable))
	assert.Equal(t, "circuit_open", xerrors.GetCode(err))
	assert.Zero(t, calls)

	// 其他 key 不受影响
	_, err = Do(ctx, brk, "delete", func() (bool, error) { return true, nil })
	assert.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := Do(ctx, brk, "expire", func() (bool, error) { return true, nil })
		return err == nil
	}, time.Second, 10*time.Millisecond)

	state, _ = brk.State("expire")
	assert.Equal(t, StateClosed, state)
}

func TestCanceledDoesNotTrip(t *testing.T) {
	brk := newTestBreaker(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := Do(ctx, brk, "set_if_absent", func() (bool, error) { return false, context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}
	state, _ := brk.State("set_if_absent")
	assert.Equal(t, StateClosed, state)
}

func TestFallback(t *testing.T) {
	fallbackErr := errors.New("fallback")
	var gotKey string
	brk := newTestBreaker(t, WithFallback(func(_ context.Context, key string, err error) error {
		gotKey = key
		assert.ErrorIs(t, err, ErrOpenState)
		return fallbackErr
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = Do(ctx, brk, "delete", func() (bool, error) { return false, errStore })
	}
	_, err := Do(ctx, brk, "delete", func() (bool, error) { return true, nil })
	assert.ErrorIs(t, err, fallbackErr)
	assert.Equal(t, "delete", gotKey)
}

func TestEmptyKey(t *testing.T) {
	brk := newTestBreaker(t)

	_, err := brk.Execute(context.Background(), "", func() (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrKeyEmpty)

	_, err = brk.State("")
	assert.ErrorIs(t, err, ErrKeyEmpty)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
