package breaker

import "github.com/ceyewan/leaseflake/xerrors"

var (
	ErrConfigNil    = xerrors.New("breaker: config is nil")
	ErrInvalidRatio = xerrors.New("breaker: failure_ratio must be between 0 and 1")
	ErrKeyEmpty     = xerrors.New("breaker: key is empty")

	// ErrOpenState 熔断器处于打开状态
	ErrOpenState = xerrors.WithCode(xerrors.ErrUnavailable, "circuit_open")
)
