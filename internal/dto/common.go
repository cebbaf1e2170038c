package dto

// ── 非阻断提示 ──

// 提示代码
const (
	WarningEmployeeDoubleBooked = "employee_double_booked"
	WarningEmployeeOnTimeOff    = "employee_on_time_off"
	WarningHeadcountFull        = "headcount_full"
	WarningHoursStale           = "hours_stale"
	WarningAssignmentFailed     = "assignment_failed"
	WarningVersionConflict      = "version_conflict"
)

// Warning 冲突等非阻断提示，由调用方决定是否继续
type Warning struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	ShiftID    string `json:"shift_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
}

// EmployeeBrief 员工简要信息
type EmployeeBrief struct {
	ID         string  `json:"id"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	HourlyRate float64 `json:"hourly_rate"`
}

// DateRangeRequest 日期区间查询参数（YYYY-MM-DD，含首尾）
type DateRangeRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}
