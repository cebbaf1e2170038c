package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// ExceptionHandler 考勤与异常 HTTP 处理器
type ExceptionHandler struct {
	exceptionSvc service.WorkforceExceptionService
}

// NewExceptionHandler 创建 ExceptionHandler
func NewExceptionHandler(exceptionSvc service.WorkforceExceptionService) *ExceptionHandler {
	return &ExceptionHandler{exceptionSvc: exceptionSvc}
}

// List GET /api/v1/exceptions?location_id=&status=&from=&to=
func (h *ExceptionHandler) List(c *gin.Context) {
	var req dto.ExceptionListRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.exceptionSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Resolve 处理考勤异常
// POST /api/v1/exceptions/:id/resolve
func (h *ExceptionHandler) Resolve(c *gin.Context) {
	var req dto.ResolveExceptionRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.exceptionSvc.Resolve(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, result)
}

// Scan 手动触发异常检测
// POST /api/v1/exceptions/scan
func (h *ExceptionHandler) Scan(c *gin.Context) {
	var req dto.ExceptionScanRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.exceptionSvc.Scan(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.OK(c, result)
}

// RecordAttendance 上下班打卡
// POST /api/v1/attendance
func (h *ExceptionHandler) RecordAttendance(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.exceptionSvc.RecordAttendance(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleExceptionError(c, err)
		return
	}

	response.Created(c, result)
}

func (h *ExceptionHandler) handleExceptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExceptionNotFound):
		response.NotFound(c, 17001, "考勤异常不存在")
	case errors.Is(err, service.ErrExceptionResolved):
		response.Conflict(c, 17002, "考勤异常已处理")
	case errors.Is(err, service.ErrAlreadyClockedIn):
		response.Conflict(c, 17003, "员工已上班打卡")
	case errors.Is(err, service.ErrNotClockedIn):
		response.Conflict(c, 17004, "员工未上班打卡")
	case errors.Is(err, service.ErrRecordForOthers):
		response.Forbidden(c, 17005, "员工只能为自己打卡")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 14001, "班次不存在")
	default:
		handleCommonError(c, err)
	}
}
