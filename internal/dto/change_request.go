package dto

import "shiftgov/internal/model"

// ── 变更申请模块 DTO ──

// SubmitChangeRequest 提交变更申请
// PayloadBefore 为空时由目标班次自动生成快照
type SubmitChangeRequest struct {
	ChangeType    string             `json:"change_type"     binding:"required,oneof=add edit delete"`
	TargetShiftID *string            `json:"target_shift_id" binding:"omitempty,uuid"`
	PayloadBefore model.ShiftPayload `json:"payload_before"`
	PayloadAfter  model.ShiftPayload `json:"payload_after"`
	ReasonCode    string             `json:"reason_code"     binding:"required"`
	Note          string             `json:"note"            binding:"omitempty,max=500"`
}

// ChangeRequestListRequest 变更申请列表查询参数
type ChangeRequestListRequest struct {
	PeriodID   string `form:"period_id"   binding:"omitempty,uuid"`
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved denied"`
}

// ResolveChangeRequest 审批变更申请（备注可选）
type ResolveChangeRequest struct {
	Note string `json:"note" binding:"omitempty,max=500"`
}

// ChangeRequestResponse 变更申请响应
type ChangeRequestResponse struct {
	ID              string             `json:"id"`
	LocationID      string             `json:"location_id"`
	PeriodID        string             `json:"period_id"`
	ChangeType      string             `json:"change_type"`
	TargetShiftID   *string            `json:"target_shift_id,omitempty"`
	PayloadBefore   model.ShiftPayload `json:"payload_before"`
	PayloadAfter    model.ShiftPayload `json:"payload_after"`
	ReasonCode      string             `json:"reason_code"`
	Note            string             `json:"note,omitempty"`
	Status          string             `json:"status"`
	RequestedBy     string             `json:"requested_by"`
	RequestedAt     string             `json:"requested_at"`
	ResolvedBy      *string            `json:"resolved_by,omitempty"`
	ResolvedAt      *string            `json:"resolved_at,omitempty"`
	ResolutionNote  string             `json:"resolution_note,omitempty"`
	AppliedShiftIDs []string           `json:"applied_shift_ids,omitempty"`
}

// ChangeRequestMutationResponse 提交 / 审批结果
type ChangeRequestMutationResponse struct {
	ChangeRequest ChangeRequestResponse `json:"change_request"`
	Warnings      []Warning             `json:"warnings,omitempty"`
}

// ReasonCodeResponse 可选原因代码
type ReasonCodeResponse struct {
	Codes []string `json:"codes"`
}
