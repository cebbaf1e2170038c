package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ── 变更类型 / 状态 ──

const (
	ChangeAdd    = "add"
	ChangeEdit   = "edit"
	ChangeDelete = "delete"

	ChangePending  = "pending"
	ChangeApproved = "approved"
	ChangeDenied   = "denied"
)

// 变更原因代码（封闭列表，不可由用户扩展）
const (
	ReasonCallOutCoverage      = "call_out_coverage"
	ReasonDemandChange         = "demand_change"
	ReasonComplianceCorrection = "compliance_correction"
	ReasonEmployeeRequest      = "employee_request"
	ReasonSchedulingError      = "scheduling_error"
	ReasonOperationalNeed      = "operational_need"
)

// ReasonCodes 全部合法原因代码（有序，供前端下拉使用）
var ReasonCodes = []string{
	ReasonCallOutCoverage,
	ReasonDemandChange,
	ReasonComplianceCorrection,
	ReasonEmployeeRequest,
	ReasonSchedulingError,
	ReasonOperationalNeed,
}

// IsValidReasonCode 判断原因代码是否在封闭列表内
func IsValidReasonCode(code string) bool {
	for _, c := range ReasonCodes {
		if c == code {
			return true
		}
	}
	return false
}

// ShiftPayload 班次字段快照 / 补丁
// nil 字段表示“未涉及”；add 为完整字段，edit 为补丁，delete 为空
type ShiftPayload struct {
	LocationID    *string       `json:"location_id,omitempty"`
	ShiftDate     *string       `json:"shift_date,omitempty"` // YYYY-MM-DD
	StartTime     *string       `json:"start_time,omitempty"`
	EndTime       *string       `json:"end_time,omitempty"`
	RoleName      *string       `json:"role_name,omitempty"`
	RequiredCount *int          `json:"required_count,omitempty"`
	IsOpenShift   *bool         `json:"is_open_shift,omitempty"`
	IsCloseDuty   *bool         `json:"is_close_duty,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	Breaks        *[]ShiftBreak `json:"breaks,omitempty"`
	BreakMinutes  *int          `json:"break_minutes,omitempty"`
	EmployeeIDs   []string      `json:"employee_ids,omitempty"` // 仅 add：批准后直接指派
}

// IsEmpty 是否未涉及任何字段
func (p ShiftPayload) IsEmpty() bool {
	return p.LocationID == nil && p.ShiftDate == nil && p.StartTime == nil && p.EndTime == nil &&
		p.RoleName == nil && p.RequiredCount == nil && p.IsOpenShift == nil && p.IsCloseDuty == nil &&
		p.Notes == nil && p.Breaks == nil && p.BreakMinutes == nil && len(p.EmployeeIDs) == 0
}

// ApplyTo 将非空字段写入班次
func (p ShiftPayload) ApplyTo(s *Shift) error {
	if p.LocationID != nil {
		s.LocationID = *p.LocationID
	}
	if p.ShiftDate != nil {
		d, err := time.Parse(DateLayout, *p.ShiftDate)
		if err != nil {
			return fmt.Errorf("shift_date 格式无效: %w", err)
		}
		s.ShiftDate = d
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.RoleName != nil {
		s.RoleName = *p.RoleName
	}
	if p.RequiredCount != nil {
		s.RequiredCount = *p.RequiredCount
	}
	if p.IsOpenShift != nil {
		s.IsOpenShift = *p.IsOpenShift
	}
	if p.IsCloseDuty != nil {
		s.IsCloseDuty = *p.IsCloseDuty
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.Breaks != nil {
		s.Breaks = datatypes.NewJSONSlice(*p.Breaks)
	}
	if p.BreakMinutes != nil {
		v := *p.BreakMinutes
		s.BreakMinutes = &v
	}
	return nil
}

// SnapshotShift 生成班次的完整字段快照
func SnapshotShift(s *Shift) ShiftPayload {
	locationID := s.LocationID
	date := s.ShiftDate.Format(DateLayout)
	start, end, role := s.StartTime, s.EndTime, s.RoleName
	required := s.RequiredCount
	open, closeDuty := s.IsOpenShift, s.IsCloseDuty
	notes := s.Notes
	breaks := append([]ShiftBreak(nil), s.Breaks...)
	p := ShiftPayload{
		LocationID:    &locationID,
		ShiftDate:     &date,
		StartTime:     &start,
		EndTime:       &end,
		RoleName:      &role,
		RequiredCount: &required,
		IsOpenShift:   &open,
		IsCloseDuty:   &closeDuty,
		Notes:         &notes,
		Breaks:        &breaks,
	}
	if s.BreakMinutes != nil {
		v := *s.BreakMinutes
		p.BreakMinutes = &v
	}
	return p
}

// ChangeRequest 锁定周期变更申请表，对应 change_requests
type ChangeRequest struct {
	ChangeRequestID string                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_request_id"`
	CompanyID       string                           `gorm:"type:uuid;not null"                             json:"company_id"`
	LocationID      string                           `gorm:"type:uuid;not null"                             json:"location_id"`
	PeriodID        string                           `gorm:"type:uuid;not null;index"                       json:"period_id"`
	ChangeType      string                           `gorm:"type:varchar(10);not null"                      json:"change_type"` // add | edit | delete
	TargetShiftID   *string                          `gorm:"type:uuid"                                      json:"target_shift_id,omitempty"`
	PayloadBefore   datatypes.JSONType[ShiftPayload] `gorm:"type:jsonb;not null"                            json:"payload_before"`
	PayloadAfter    datatypes.JSONType[ShiftPayload] `gorm:"type:jsonb;not null"                            json:"payload_after"`
	ReasonCode      string                           `gorm:"type:varchar(40);not null"                      json:"reason_code"`
	Note            string                           `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	Status          string                           `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | denied
	RequestedBy     string                           `gorm:"type:uuid;not null"                             json:"requested_by"`
	RequestedAt     time.Time                        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"requested_at"`
	ResolvedBy      *string                          `gorm:"type:uuid"                                      json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time                       `json:"resolved_at,omitempty"`
	ResolutionNote  string                           `gorm:"type:varchar(500)"                              json:"resolution_note,omitempty"`
	AppliedShiftIDs datatypes.JSONSlice[string]      `gorm:"type:jsonb"                                     json:"applied_shift_ids,omitempty"`
	BaseModel
}

// TableName 指定表名
func (ChangeRequest) TableName() string { return "change_requests" }
