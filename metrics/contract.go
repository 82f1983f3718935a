package metrics

import "strconv"

// 通用标签名
const (
	LabelService     = "service"
	LabelOperation   = "operation"
	LabelMethod      = "method"
	LabelRoute       = "route"
	LabelStatusClass = "status_class"
	LabelOutcome     = "outcome"
)

const (
	OperationHTTPServer = "http.server"

	OutcomeSuccess = "success"
	OutcomeError   = "error"

	// UnknownRoute 未命中路由时的统一标签值
	UnknownRoute = "unknown"
)

// HTTPStatusClass 返回 1xx/2xx/3xx/4xx/5xx，非法状态码返回 unknown
func HTTPStatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// HTTPOutcome 2xx/3xx 视为成功
func HTTPOutcome(status int) string {
	if status >= 200 && status < 400 {
		return OutcomeSuccess
	}
	return OutcomeError
}
