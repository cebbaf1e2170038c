package dto

// ── 考勤异常模块 DTO ──

// ExceptionListRequest 考勤异常查询参数
type ExceptionListRequest struct {
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved denied resolved"`
	DateRangeRequest
}

// ResolveExceptionRequest 处理考勤异常
type ResolveExceptionRequest struct {
	Status string `json:"status" binding:"required,oneof=approved denied resolved"`
	Note   string `json:"note"   binding:"omitempty,max=500"`
}

// ExceptionScanRequest 手动触发异常检测
type ExceptionScanRequest struct {
	Date       string `json:"date"        binding:"required,datetime=2006-01-02"`
	LocationID string `json:"location_id" binding:"omitempty,uuid"`
}

// RecordAttendanceRequest 打卡（外部考勤数据接入）
// At 为空时使用服务器当前时间
type RecordAttendanceRequest struct {
	EmployeeID string  `json:"employee_id" binding:"omitempty,uuid"`
	LocationID string  `json:"location_id" binding:"required,uuid"`
	ShiftID    *string `json:"shift_id"    binding:"omitempty,uuid"`
	Action     string  `json:"action"      binding:"required,oneof=clock_in clock_out"`
	At         *string `json:"at"          binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ExceptionResponse 考勤异常响应
type ExceptionResponse struct {
	ID             string                 `json:"id"`
	LocationID     string                 `json:"location_id"`
	EmployeeID     string                 `json:"employee_id"`
	Employee       *EmployeeBrief         `json:"employee,omitempty"`
	ShiftID        *string                `json:"shift_id,omitempty"`
	WorkDate       string                 `json:"work_date"`
	ExceptionType  string                 `json:"exception_type"`
	Status         string                 `json:"status"`
	DetectedAt     string                 `json:"detected_at"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ResolvedBy     *string                `json:"resolved_by,omitempty"`
	ResolvedAt     *string                `json:"resolved_at,omitempty"`
	ResolutionNote string                 `json:"resolution_note,omitempty"`
}

// ExceptionScanResponse 异常检测结果
type ExceptionScanResponse struct {
	Date      string         `json:"date"`
	Locations int            `json:"locations"`
	Created   int            `json:"created"`
	ByType    map[string]int `json:"by_type"`
}

// AttendanceResponse 打卡记录响应
type AttendanceResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	LocationID string  `json:"location_id"`
	ShiftID    *string `json:"shift_id,omitempty"`
	WorkDate   string  `json:"work_date"`
	ClockIn    string  `json:"clock_in"`
	ClockOut   *string `json:"clock_out,omitempty"`
}
