/*
Package shared 领域层共享定义：错误、工作单元、领域事件与外部网关契约。

错误设计:
1. 领域层定义哨兵错误(sentinel errors)，用于 errors.Is() 判断
2. DomainError 在创建时捕获堆栈，格式化延迟到日志打印时
3. 领域错误不包含 HTTP 状态码等传输层概念
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// 哨兵错误 (Sentinel Errors)
// ============================================================================

var (
	// ErrNotFound 资源未找到
	ErrNotFound = errors.New("not found")

	// ErrConflict 并发修改冲突（乐观锁版本不匹配）
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput 无效或自相矛盾的输入
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized 调用方身份无法解析
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden 已认证但无权操作该资源
	ErrForbidden = errors.New("forbidden")

	// ErrTransaction 事务内任意一步失败，事务已整体回滚
	ErrTransaction = errors.New("transaction failed")
)

// ============================================================================
// 领域错误结构体 (Domain Error)
// ============================================================================

// DomainError carries business context and the stack of the point of failure.
type DomainError struct {
	// Err 底层哨兵错误
	Err error

	// Cause 可选：被包装的底层错误（如数据库错误）
	Cause error

	// Entity 发生错误的实体名称（如 "course", "result"）
	Entity string

	// Message 人类可读的错误描述
	Message string

	// Field 可选：校验失败的字段名
	Field string

	// Details 可选：诊断上下文（如 Forbidden 时的双方 ID）
	Details map[string]string

	stack []uintptr
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the wrapped cause to errors.Is/As.
func (e *DomainError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Stack 按需格式化堆栈
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// CaptureStack 捕获当前调用栈
// skip: 跳过的帧数（通常为 3：Callers, CaptureStack, NewXxxError）
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack 格式化堆栈帧，过滤 runtime 内部帧，最多返回 10 帧
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// ============================================================================
// 领域错误构造函数
// ============================================================================

// NewNotFoundError 创建"未找到"领域错误
func NewNotFoundError(entity, id string) error {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: entity + " not found: " + id,
		stack:   CaptureStack(3),
	}
}

// NewConflictError 创建"并发冲突"领域错误
func NewConflictError(entity, message string) error {
	return &DomainError{
		Err:     ErrConflict,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

// NewValidationError 创建"校验失败"领域错误
func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// NewForbiddenError 创建"禁止访问"领域错误，details 用于诊断（谁 vs 谁的）
func NewForbiddenError(entity, reason string, details map[string]string) error {
	return &DomainError{
		Err:     ErrForbidden,
		Entity:  entity,
		Message: reason,
		Details: details,
		stack:   CaptureStack(3),
	}
}

// NewUnauthorizedError 创建"未认证"领域错误
func NewUnauthorizedError(reason string) error {
	return &DomainError{
		Err:     ErrUnauthorized,
		Entity:  "identity",
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// NewTransactionError 包装事务失败原因
func NewTransactionError(entity string, cause error) error {
	return &DomainError{
		Err:     ErrTransaction,
		Cause:   cause,
		Entity:  entity,
		Message: entity + " transaction rolled back",
		stack:   CaptureStack(3),
	}
}

// Stacker 可提供堆栈的错误接口，供 API 层统一提取
type Stacker interface {
	Stack() []string
}

// DetailsOf returns the diagnostic details attached to a DomainError in the chain.
func DetailsOf(err error) map[string]string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
