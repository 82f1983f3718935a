// Package xerrors 为 leaseflake 提供统一的错误处理工具。
//
// 约定：
//   - 每个包用 xerrors.New("pkg: ...") 声明自己的哨兵错误
//   - 需要机器可读分类时使用 WithCode 附加 snake_case 错误码
//   - 跨层传递时使用 Wrap/Wrapf 补充上下文，保留错误链
package xerrors

import (
	"errors"
	"fmt"
	"strings"
)

// 通用哨兵错误，供各包包装使用
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInternal     = errors.New("internal error")
)

// Wrap 用上下文信息包装错误，err 为 nil 时返回 nil。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// 错误码
// ============================================================================

// CodedError 带有机器可读错误码的错误。
type CodedError struct {
	Code  string
	Cause error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.Code)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WithCode 用错误码包装错误。
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Cause: err}
}

// GetCode 从错误链中提取最外层的错误码，没有时返回空串。
func GetCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// ============================================================================
// 多错误合并
// ============================================================================

// MultiError 合并多个错误，常用于关闭多个资源时汇总失败。
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}
	parts := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Combine 将多个错误合并为一个，忽略 nil。
func Combine(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &MultiError{Errors: nonNil}
	}
}

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
