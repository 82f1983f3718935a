package ratelimit

import "github.com/ceyewan/leaseflake/xerrors"

var (
	ErrClientNil    = xerrors.New("ratelimit: redis client is nil")
	ErrKeyEmpty     = xerrors.New("ratelimit: key is empty")
	ErrInvalidLimit = xerrors.New("ratelimit: invalid limit")
)
