package trace

// 租约相关 Span 名称与属性键
const (
	SpanLeaseRegister = "lease.register"
	SpanLeaseRenew    = "lease.renew"
	SpanLeaseRelease  = "lease.release"

	AttrNamespace = "leaseflake.namespace"
	AttrWorker    = "leaseflake.worker"
	AttrStrategy  = "leaseflake.strategy"
	AttrOutcome   = "leaseflake.outcome"
)

// InstrumentationName 本项目 Tracer 的 instrumentation scope
const InstrumentationName = "github.com/ceyewan/leaseflake"
