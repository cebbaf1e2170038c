package model

import (
	"time"

	"gorm.io/datatypes"
)

// ── 考勤异常类型 / 状态 ──

const (
	ExceptionLateStart          = "late_start"
	ExceptionEarlyLeave         = "early_leave"
	ExceptionUnscheduledClockIn = "unscheduled_clock_in"
	ExceptionNoShow             = "no_show"
	ExceptionShiftExtended      = "shift_extended"
	ExceptionOvertime           = "overtime"

	ExceptionPending  = "pending"
	ExceptionApproved = "approved"
	ExceptionDenied   = "denied"
	ExceptionResolved = "resolved"
)

// WorkforceException 考勤异常表，对应 workforce_exceptions
// 与变更申请相互独立，但共用审批队列
type WorkforceException struct {
	ExceptionID    string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"exception_id"`
	CompanyID      string            `gorm:"type:uuid;not null"                             json:"company_id"`
	LocationID     string            `gorm:"type:uuid;not null;index"                       json:"location_id"`
	EmployeeID     string            `gorm:"type:uuid;not null"                             json:"employee_id"`
	ShiftID        *string           `gorm:"type:uuid"                                      json:"shift_id,omitempty"`
	WorkDate       time.Time         `gorm:"type:date;not null"                             json:"work_date"`
	ExceptionType  string            `gorm:"type:varchar(30);not null"                      json:"exception_type"`
	Status         string            `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | denied | resolved
	DetectedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"detected_at"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	ResolvedBy     *string           `gorm:"type:uuid"                                      json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	ResolutionNote string            `gorm:"type:varchar(500)"                              json:"resolution_note,omitempty"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (WorkforceException) TableName() string { return "workforce_exceptions" }

// AttendanceLog 打卡记录表，对应 attendance_logs（外部考勤数据接入）
type AttendanceLog struct {
	AttendanceLogID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_log_id"`
	EmployeeID      string     `gorm:"type:uuid;not null"                             json:"employee_id"`
	LocationID      string     `gorm:"type:uuid;not null"                             json:"location_id"`
	ShiftID         *string    `gorm:"type:uuid"                                      json:"shift_id,omitempty"`
	WorkDate        time.Time  `gorm:"type:date;not null"                             json:"work_date"`
	ClockIn         time.Time  `gorm:"not null"                                       json:"clock_in"`
	ClockOut        *time.Time `json:"clock_out,omitempty"`
	BaseModel
}

// TableName 指定表名
func (AttendanceLog) TableName() string { return "attendance_logs" }
