package breaker

const (
	// MetricRejectsTotal 被熔断拒绝的调用数 (Counter)
	MetricRejectsTotal = "breaker_rejects_total"

	// MetricStateChanges 状态变更次数 (Counter)
	MetricStateChanges = "breaker_state_changes_total"

	LabelKey       = "key"
	LabelFromState = "from_state"
	LabelToState   = "to_state"
)
