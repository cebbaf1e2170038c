package model

import "time"

// ── 请假状态 ──

const (
	TimeOffPending  = "pending"
	TimeOffApproved = "approved"
	TimeOffRejected = "rejected"
)

// TimeOffRequest 请假申请表，对应 time_off_requests
// 已批准的请假会在排班视图中隐藏该员工对应日期的指派
type TimeOffRequest struct {
	TimeOffRequestID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_off_request_id"`
	EmployeeID       string     `gorm:"type:uuid;not null;index"                       json:"employee_id"`
	StartDate        time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	Type             string     `gorm:"type:varchar(20);not null"                      json:"type"` // vacation | sick | personal | unpaid
	Reason           string     `gorm:"type:varchar(200)"                              json:"reason,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	DecidedBy        *string    `gorm:"type:uuid"                                      json:"decided_by,omitempty"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (TimeOffRequest) TableName() string { return "time_off_requests" }

// Covers 请假区间是否包含指定日期（按日历日比较）
func (r *TimeOffRequest) Covers(date time.Time) bool {
	d := date.Format(DateLayout)
	return d >= r.StartDate.Format(DateLayout) && d <= r.EndDate.Format(DateLayout)
}
