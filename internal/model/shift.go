package model

import (
	"time"

	"gorm.io/datatypes"
)

// ── 指派审批状态 ──

const (
	AssignmentPending  = "pending"
	AssignmentApproved = "approved"
	AssignmentRejected = "rejected"
)

// ShiftBreak 班次内休息区间（墙钟时间）
type ShiftBreak struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Shift 班次表，对应 shifts
// 开始/结束时间为同日 HH:MM:SS，结束早于开始表示跨午夜
type Shift struct {
	ShiftID       string                          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	CompanyID     string                          `gorm:"type:uuid;not null"                             json:"company_id"`
	LocationID    string                          `gorm:"type:uuid;not null"                             json:"location_id"`
	ShiftDate     time.Time                       `gorm:"type:date;not null"                             json:"shift_date"`
	StartTime     string                          `gorm:"type:time;not null"                             json:"start_time"`
	EndTime       string                          `gorm:"type:time;not null"                             json:"end_time"`
	RoleName      string                          `gorm:"type:varchar(50);not null"                      json:"role_name"`
	RequiredCount int                             `gorm:"not null;default:1"                             json:"required_count"`
	IsOpenShift   bool                            `gorm:"not null;default:false"                         json:"is_open_shift"`
	IsPublished   bool                            `gorm:"not null;default:false"                         json:"is_published"`
	IsCloseDuty   bool                            `gorm:"not null;default:false"                         json:"is_close_duty"`
	Notes         string                          `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	Breaks        datatypes.JSONSlice[ShiftBreak] `gorm:"type:jsonb"                                     json:"breaks,omitempty"`
	BreakMinutes  *int                            `json:"break_minutes,omitempty"`
	VersionedModel

	// 关联
	Location    *Location         `gorm:"foreignKey:LocationID;references:LocationID" json:"location,omitempty"`
	Assignments []ShiftAssignment `gorm:"foreignKey:ShiftID"                          json:"assignments,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// ApprovedCount 已批准指派数（有效人数）
func (s *Shift) ApprovedCount() int {
	n := 0
	for _, a := range s.Assignments {
		if a.Status == AssignmentApproved {
			n++
		}
	}
	return n
}

// ShiftAssignment 班次指派表，对应 shift_assignments
// 驳回只改状态不删除，保留审批历史
type ShiftAssignment struct {
	AssignmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	ShiftID      string     `gorm:"type:uuid;not null;index"                       json:"shift_id"`
	EmployeeID   string     `gorm:"type:uuid;not null;index"                       json:"employee_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	DecidedBy    *string    `gorm:"type:uuid"                                      json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	SoftDeleteModel

	// 关联
	Shift    *Shift    `gorm:"foreignKey:ShiftID;references:ShiftID"       json:"shift,omitempty"`
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (ShiftAssignment) TableName() string { return "shift_assignments" }
