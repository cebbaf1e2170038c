package dto

// ── 导出模块 DTO ──

// ExportWeekRequest 导出周排班参数
type ExportWeekRequest struct {
	LocationID string `form:"location_id" binding:"required,uuid"`
	Date       string `form:"date"        binding:"required,datetime=2006-01-02"`
}

// CalendarExportRequest 导出员工日历参数（employee_id 为空表示本人）
type CalendarExportRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	From       string `form:"from"        binding:"required,datetime=2006-01-02"`
	To         string `form:"to"          binding:"required,datetime=2006-01-02"`
}
