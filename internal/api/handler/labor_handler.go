package handler

import (
	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// LaborHandler 人力成本 HTTP 处理器
type LaborHandler struct {
	laborSvc service.LaborService
}

// NewLaborHandler 创建 LaborHandler
func NewLaborHandler(laborSvc service.LaborService) *LaborHandler {
	return &LaborHandler{laborSvc: laborSvc}
}

// Daily GET /api/v1/labor/daily?location_id=xxx&date=2026-03-02
func (h *LaborHandler) Daily(c *gin.Context) {
	var req dto.LaborQueryRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.laborSvc.Daily(c.Request.Context(), &req, caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}

// Weekly GET /api/v1/labor/weekly?location_id=xxx&date=2026-03-02
func (h *LaborHandler) Weekly(c *gin.Context) {
	var req dto.LaborQueryRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.laborSvc.Weekly(c.Request.Context(), &req, caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}

// UpsertSales 写入门店某日营业额
// PUT /api/v1/labor/sales
func (h *LaborHandler) UpsertSales(c *gin.Context) {
	var req dto.UpsertSalesRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.laborSvc.UpsertSales(c.Request.Context(), &req, caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}
