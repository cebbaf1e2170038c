package service

import (
	"errors"
	"fmt"
)

// ── 跨模块错误分类 ──

var (
	// ErrValidation 校验失败（营业时间外、门店休息、缺少必填字段），不写入任何数据
	ErrValidation = errors.New("校验失败")
	// ErrInvalidState 状态不允许（重复审批、解锁未锁定周期等）
	ErrInvalidState = errors.New("当前状态不允许此操作")
	// ErrForbidden 无权执行
	ErrForbidden = errors.New("无权执行此操作")
)

// ValidationError 字段级校验错误
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// invalidState 派生一个归属 ErrInvalidState 的业务错误
func invalidState(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, msg)
}

// Caller 当前请求的操作者（来自访问令牌）
type Caller struct {
	UserID    string
	Role      string
	CompanyID string
}
