package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// ChangeRequestHandler 变更申请 HTTP 处理器
type ChangeRequestHandler struct {
	changeSvc service.ChangeRequestService
}

// NewChangeRequestHandler 创建 ChangeRequestHandler
func NewChangeRequestHandler(changeSvc service.ChangeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{changeSvc: changeSvc}
}

// Submit 提交变更申请（仅锁定周期）
// POST /api/v1/change-requests
func (h *ChangeRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.changeSvc.Submit(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// List GET /api/v1/change-requests?period_id=&location_id=&status=
func (h *ChangeRequestHandler) List(c *gin.Context) {
	var req dto.ChangeRequestListRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.changeSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get GET /api/v1/change-requests/:id
func (h *ChangeRequestHandler) Get(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.changeSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// ReasonCodes GET /api/v1/change-requests/reason-codes
func (h *ChangeRequestHandler) ReasonCodes(c *gin.Context) {
	response.OK(c, h.changeSvc.ReasonCodes())
}

// Approve 批准并应用变更
// POST /api/v1/change-requests/:id/approve
func (h *ChangeRequestHandler) Approve(c *gin.Context) {
	var req dto.ResolveChangeRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.changeSvc.Approve(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// Deny POST /api/v1/change-requests/:id/deny
func (h *ChangeRequestHandler) Deny(c *gin.Context) {
	var req dto.ResolveChangeRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.changeSvc.Deny(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ChangeRequestHandler) handleChangeRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChangeRequestNotFound):
		response.NotFound(c, 16001, "变更申请不存在")
	case errors.Is(err, service.ErrChangeRequestResolved):
		response.Conflict(c, 16002, "变更申请已处理")
	case errors.Is(err, service.ErrPeriodNotLocked):
		response.Conflict(c, 16003, "排班周期未锁定，请直接修改班次")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 14001, "班次不存在")
	default:
		handleCommonError(c, err)
	}
}
