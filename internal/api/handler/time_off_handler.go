package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// TimeOffHandler 请假 HTTP 处理器
type TimeOffHandler struct {
	timeOffSvc service.TimeOffService
}

// NewTimeOffHandler 创建 TimeOffHandler
func NewTimeOffHandler(timeOffSvc service.TimeOffService) *TimeOffHandler {
	return &TimeOffHandler{timeOffSvc: timeOffSvc}
}

// Create POST /api/v1/time-off
func (h *TimeOffHandler) Create(c *gin.Context) {
	var req dto.CreateTimeOffRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.timeOffSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.Created(c, result)
}

// List GET /api/v1/time-off?employee_id=&status=&from=&to=
func (h *TimeOffHandler) List(c *gin.Context) {
	var req dto.TimeOffListRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.timeOffSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Approve POST /api/v1/time-off/:id/approve
func (h *TimeOffHandler) Approve(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.timeOffSvc.Approve(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject POST /api/v1/time-off/:id/reject
func (h *TimeOffHandler) Reject(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.timeOffSvc.Reject(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *TimeOffHandler) handleTimeOffError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeOffNotFound):
		response.NotFound(c, 19001, "请假申请不存在")
	case errors.Is(err, service.ErrTimeOffDecided):
		response.Conflict(c, 19002, "请假申请已审批")
	case errors.Is(err, service.ErrTimeOffForOthers):
		response.Forbidden(c, 19003, "员工只能为自己申请请假")
	default:
		handleCommonError(c, err)
	}
}
