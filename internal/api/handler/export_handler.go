package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/dto"
	"shiftgov/internal/service"
	"shiftgov/pkg/response"
)

const (
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	calendarMIME = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportWeek 导出门店一周排班表
// GET /api/v1/export/week?location_id=xxx&date=2026-03-02
func (h *ExportHandler) ExportWeek(c *gin.Context) {
	var req dto.ExportWeekRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportWeek(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// EmployeeCalendar 导出员工班次日历（iCalendar）
// GET /api/v1/export/calendar?employee_id=&from=2026-03-01&to=2026-03-31
func (h *ExportHandler) EmployeeCalendar(c *gin.Context) {
	var req dto.CalendarExportRequest
	if !bindQuery(c, &req) {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ics, filename, err := h.exportSvc.EmployeeCalendar(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, calendarMIME, []byte(ics))
}

func setDownloadHeaders(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 20001, "生成导出文件失败")
	case errors.Is(err, service.ErrCalendarForOthers):
		response.Forbidden(c, 20002, "员工只能导出自己的日历")
	default:
		handleCommonError(c, err)
	}
}
