package idgen

import "github.com/ceyewan/leaseflake/xerrors"

var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = xerrors.WithCode(xerrors.ErrInvalidInput, "idgen_invalid_config")

	// ErrWorkerOutOfRange worker 号超出位宽
	ErrWorkerOutOfRange = xerrors.WithCode(xerrors.ErrInvalidInput, "worker_out_of_range")

	// ErrNamespaceEmpty 命名空间为空
	ErrNamespaceEmpty = xerrors.New("idgen: namespace is empty")

	// ErrDefaultNamespace 默认命名空间不能被移除
	ErrDefaultNamespace = xerrors.WithCode(xerrors.ErrInvalidInput, "default_namespace_protected")

	// ErrRegistryClosed Registry 已关闭
	ErrRegistryClosed = xerrors.New("idgen: registry closed")
)
