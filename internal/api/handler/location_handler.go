package handler

import (
	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

// LocationHandler 门店模块 HTTP 处理器
type LocationHandler struct {
	locationSvc service.LocationService
}

// NewLocationHandler 创建 LocationHandler
func NewLocationHandler(locationSvc service.LocationService) *LocationHandler {
	return &LocationHandler{locationSvc: locationSvc}
}

// ListLocations 获取门店列表
// GET /api/v1/locations
func (h *LocationHandler) ListLocations(c *gin.Context) {
	var req dto.LocationListRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	locations, err := h.locationSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": locations})
}

// GetLocation 获取门店详情（含营业时间）
// GET /api/v1/locations/:id
func (h *LocationHandler) GetLocation(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	location, err := h.locationSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, location)
}

// CreateLocation 创建门店
// POST /api/v1/locations
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	location, err := h.locationSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.Created(c, location)
}

// UpdateLocation 更新门店
// PUT /api/v1/locations/:id
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	location, err := h.locationSvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, location)
}

// GetOperatingHours 获取门店一周营业时间
// GET /api/v1/locations/:id/hours
func (h *LocationHandler) GetOperatingHours(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	items, err := h.locationSvc.GetOperatingHours(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"days": items})
}

// SetOperatingHours 整体替换门店一周营业时间
// PUT /api/v1/locations/:id/hours
func (h *LocationHandler) SetOperatingHours(c *gin.Context) {
	var req dto.SetOperatingHoursRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	items, err := h.locationSvc.SetOperatingHours(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"days": items})
}
