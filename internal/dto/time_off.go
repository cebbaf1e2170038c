package dto

// ── 请假模块 DTO ──

// CreateTimeOffRequest 提交请假
// EmployeeID 为空表示本人；经理可代员工提交
type CreateTimeOffRequest struct {
	EmployeeID string `json:"employee_id" binding:"omitempty,uuid"`
	StartDate  string `json:"start_date"  binding:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date"    binding:"required,datetime=2006-01-02"`
	Type       string `json:"type"        binding:"required,oneof=vacation sick personal unpaid"`
	Reason     string `json:"reason"      binding:"omitempty,max=200"`
}

// TimeOffListRequest 请假列表查询参数
type TimeOffListRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved rejected"`
	DateRangeRequest
}

// TimeOffResponse 请假响应
type TimeOffResponse struct {
	ID         string         `json:"id"`
	EmployeeID string         `json:"employee_id"`
	Employee   *EmployeeBrief `json:"employee,omitempty"`
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Type       string         `json:"type"`
	Reason     string         `json:"reason,omitempty"`
	Status     string         `json:"status"`
	DecidedBy  *string        `json:"decided_by,omitempty"`
	DecidedAt  *string        `json:"decided_at,omitempty"`
	CreatedAt  string         `json:"created_at"`
}
