package metrics

// Label 指标标签。标签值应为低基数（如 outcome、strategy），不要放 worker 编号之类的值。
type Label struct {
	Key   string
	Value string
}

// L 创建 Label
//
//	counter.Inc(ctx, metrics.L("outcome", "renewed"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}
