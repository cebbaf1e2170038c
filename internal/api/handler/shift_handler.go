package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// ShiftHandler 班次与指派 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

// ListShifts 查询日期范围内的班次
// GET /api/v1/shifts?location_id=xxx&from=2026-03-02&to=2026-03-08&type=open
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	var req dto.ShiftListRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	shifts, err := h.shiftSvc.ListWeek(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// GetShift 获取班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// ListAssignments 班次的全部指派
// GET /api/v1/shifts/:id/assignments
func (h *ShiftHandler) ListAssignments(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.shiftSvc.ListAssignments(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListCandidates 可指派到班次的员工（含冲突信息）
// GET /api/v1/shifts/:id/candidates?all_locations=true
func (h *ShiftHandler) ListCandidates(c *gin.Context) {
	var req dto.CandidateListRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.shiftSvc.ListCandidates(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// FindConflicts 员工某日的时间冲突
// GET /api/v1/conflicts?employee_id=xxx&date=2026-03-02&start=09:00&end=17:00
func (h *ShiftHandler) FindConflicts(c *gin.Context) {
	var req dto.ConflictQueryRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.shiftSvc.FindConflicts(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ════════════════════════════════════════════════════════════
// 班次写操作
// ════════════════════════════════════════════════════════════

// CreateShift 创建班次（可按星期重复）
// POST /api/v1/shifts
// 全部日期都被转为变更申请时返回 202
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	var req dto.CreateShiftRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	if result.Created == 0 && result.Redirected > 0 {
		response.Accepted(c, result)
		return
	}
	response.Created(c, result)
}

// UpdateShift 修改班次
// PUT /api/v1/shifts/:id
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	var req dto.UpdateShiftRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	writeShiftMutation(c, result)
}

// DeleteShift 删除班次（请求体可选，携带原因）
// DELETE /api/v1/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	var req dto.DeleteShiftRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Delete(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	writeShiftMutation(c, result)
}

// BulkPublish 批量发布班次
// POST /api/v1/shifts/publish
func (h *ShiftHandler) BulkPublish(c *gin.Context) {
	var req dto.BulkPublishRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.BulkPublish(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

func writeShiftMutation(c *gin.Context, result *dto.ShiftMutationResponse) {
	if result.Redirected {
		response.Accepted(c, result)
		return
	}
	response.OK(c, result)
}

// ════════════════════════════════════════════════════════════
// 指派
// ════════════════════════════════════════════════════════════

// Assign 指派员工或认领班次
// POST /api/v1/shifts/:id/assignments
func (h *ShiftHandler) Assign(c *gin.Context) {
	var req dto.AssignShiftRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Assign(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.Created(c, result)
}

// ApproveAssignment POST /api/v1/assignments/:id/approve
func (h *ShiftHandler) ApproveAssignment(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.ApproveAssignment(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

// RejectAssignment POST /api/v1/assignments/:id/reject
func (h *ShiftHandler) RejectAssignment(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.RejectAssignment(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

// RemoveAssignment DELETE /api/v1/assignments/:id
func (h *ShiftHandler) RemoveAssignment(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.RemoveAssignment(c.Request.Context(), c.Param("id"), caller); err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleShiftError 统一处理班次模块业务错误
func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 14001, "班次不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 14002, "指派不存在")
	case errors.Is(err, service.ErrAssignmentNotPending):
		response.Conflict(c, 14003, "指派不是待审批状态")
	case errors.Is(err, service.ErrAlreadyAssigned):
		response.Conflict(c, 14004, "员工已在该班次上")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.Error(c, http.StatusNotFound, 14005, "员工不存在")
	default:
		handleCommonError(c, err)
	}
}
