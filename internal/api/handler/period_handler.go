package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// PeriodHandler 排班周期模块 HTTP 处理器
type PeriodHandler struct {
	periodSvc service.SchedulePeriodService
}

// NewPeriodHandler 创建 PeriodHandler
func NewPeriodHandler(periodSvc service.SchedulePeriodService) *PeriodHandler {
	return &PeriodHandler{periodSvc: periodSvc}
}

// GetPeriod 单门店某周的周期状态
// GET /api/v1/periods?location_id=xxx&date=2026-03-02
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	var req dto.PeriodQueryRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.periodSvc.GetForWeek(c.Request.Context(), &req, caller)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, result)
}

// ListPeriods 全部门店某周的周期及汇总状态
// GET /api/v1/periods/week?date=2026-03-02
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	var req dto.PeriodWeekQueryRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.periodSvc.ListForWeek(c.Request.Context(), &req, caller)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, result)
}

// Publish POST /api/v1/periods/publish
func (h *PeriodHandler) Publish(c *gin.Context) {
	h.transition(c, h.periodSvc.Publish)
}

// Lock POST /api/v1/periods/lock
func (h *PeriodHandler) Lock(c *gin.Context) {
	h.transition(c, h.periodSvc.Lock)
}

// PublishAndLock POST /api/v1/periods/publish-and-lock
func (h *PeriodHandler) PublishAndLock(c *gin.Context) {
	h.transition(c, h.periodSvc.PublishAndLock)
}

// Unlock POST /api/v1/periods/unlock
func (h *PeriodHandler) Unlock(c *gin.Context) {
	h.transition(c, h.periodSvc.Unlock)
}

type transitionFunc func(ctx context.Context, req *dto.PeriodTransitionRequest, caller service.Caller) (*dto.PeriodTransitionResponse, error)

func (h *PeriodHandler) transition(c *gin.Context, fn transitionFunc) {
	var req dto.PeriodTransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), &req, caller)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, result)
}

// handlePeriodError 统一处理排班周期模块业务错误
func (h *PeriodHandler) handlePeriodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTransition):
		response.ErrorWithDetails(c, 409, 15001, "排班周期当前状态不允许此流转", err.Error())
	case errors.Is(err, service.ErrUnlockForbidden):
		response.Forbidden(c, 15002, "仅 owner / admin 可解锁排班周期")
	default:
		handleCommonError(c, err)
	}
}
