package lease

import "github.com/ceyewan/leaseflake/xerrors"

var (
	// ErrStore 租约存储调用失败
	ErrStore = xerrors.WithCode(xerrors.ErrUnavailable, "lease_store_unavailable")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = xerrors.WithCode(xerrors.ErrInvalidInput, "lease_invalid_config")

	// ErrStoreNil 未提供租约存储
	ErrStoreNil = xerrors.New("lease: store is nil")

	// ErrNamespaceEmpty 命名空间为空
	ErrNamespaceEmpty = xerrors.New("lease: namespace is empty")
)
