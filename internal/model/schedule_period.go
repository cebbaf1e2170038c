package model

import "time"

// ── 排班周期状态 ──

const (
	PeriodDraft     = "draft"
	PeriodPublished = "published"
	PeriodLocked    = "locked"

	// PeriodMixed 多门店视图下各周期状态不一致（仅展示，不落库）
	PeriodMixed = "mixed"
	// PeriodNone 无治理记录，编辑不受限（仅展示，不落库）
	PeriodNone = "none"
)

// SchedulePeriod 排班周期治理表，对应 schedule_periods
// 每个 (门店, ISO 周) 一条记录，week_start 固定为周一
type SchedulePeriod struct {
	PeriodID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"period_id"`
	CompanyID   string     `gorm:"type:uuid;not null"                             json:"company_id"`
	LocationID  string     `gorm:"type:uuid;not null"                             json:"location_id"`
	WeekStart   time.Time  `gorm:"type:date;not null"                             json:"week_start"`
	Status      string     `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"` // draft | published | locked
	PublishedAt *time.Time `json:"published_at,omitempty"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`
	LockedBy    *string    `gorm:"type:uuid"                                      json:"locked_by,omitempty"`
	VersionedModel

	// 关联
	Location *Location `gorm:"foreignKey:LocationID;references:LocationID" json:"location,omitempty"`
}

// TableName 指定表名
func (SchedulePeriod) TableName() string { return "schedule_periods" }
