package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// ApprovalHandler 审批队列 HTTP 处理器
type ApprovalHandler struct {
	approvalSvc service.ApprovalQueueService
}

// NewApprovalHandler 创建 ApprovalHandler
func NewApprovalHandler(approvalSvc service.ApprovalQueueService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc}
}

// GetQueue 待审批事项（指派 / 变更申请 / 考勤异常）
// GET /api/v1/approvals?location_id=&period_id=
func (h *ApprovalHandler) GetQueue(c *gin.Context) {
	var req dto.ApprovalQueueRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.approvalSvc.Get(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}

	response.OK(c, result)
}

// Resolve 在队列中直接处理一项
// POST /api/v1/approvals/resolve
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	var req dto.ApprovalActionRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.approvalSvc.Resolve(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ApprovalHandler) handleApprovalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrChangeRequestNotFound),
		errors.Is(err, service.ErrExceptionNotFound):
		response.NotFound(c, 18001, "审批事项不存在")
	case errors.Is(err, service.ErrAssignmentNotPending),
		errors.Is(err, service.ErrChangeRequestResolved),
		errors.Is(err, service.ErrExceptionResolved):
		response.Conflict(c, 18002, "审批事项已处理")
	default:
		handleCommonError(c, err)
	}
}
