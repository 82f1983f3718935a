package connector

import "github.com/ceyewan/leaseflake/xerrors"

var (
	ErrAlreadyClosed = xerrors.New("connector: already closed")
	ErrConnection    = xerrors.New("connector: connection failed")
	ErrConfig        = xerrors.New("connector: invalid config")
	ErrHealthCheck   = xerrors.New("connector: health check failed")
)
