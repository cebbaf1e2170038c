package dto

// ── 审批队列模块 DTO ──

// ApprovalQueueRequest 审批队列查询参数
type ApprovalQueueRequest struct {
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
	PeriodID   string `form:"period_id"   binding:"omitempty,uuid"`
}

// 审批对象类型
const (
	ApprovalKindAssignment    = "assignment"
	ApprovalKindChangeRequest = "change_request"
	ApprovalKindException     = "exception"
)

// ApprovalActionRequest 审批队列统一处理请求
// assignment: approve | reject；change_request: approve | deny；exception: approved | denied | resolved
type ApprovalActionRequest struct {
	Kind   string `json:"kind"   binding:"required,oneof=assignment change_request exception"`
	ID     string `json:"id"     binding:"required,uuid"`
	Action string `json:"action" binding:"required,oneof=approve reject deny approved denied resolved"`
	Note   string `json:"note"   binding:"omitempty,max=500"`
}

// ApprovalQueueResponse 审批队列（三类待办相互独立，不排序）
type ApprovalQueueResponse struct {
	Assignments    []AssignmentResponse    `json:"assignments"`
	ChangeRequests []ChangeRequestResponse `json:"change_requests"`
	Exceptions     []ExceptionResponse     `json:"exceptions"`
	Total          int                     `json:"total"`
}
