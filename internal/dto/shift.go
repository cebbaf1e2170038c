package dto

// ── 班次模块 DTO ──

// 班次列表类型筛选
const (
	ShiftTypeAll         = "all"
	ShiftTypeOpen        = "open"
	ShiftTypeUnpublished = "unpublished"
	ShiftTypeAssigned    = "assigned"
)

// 出勤状态
const AttendanceMissing = "missing"

// ShiftListRequest 周排班查询参数
type ShiftListRequest struct {
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
	From       string `form:"from"        binding:"required,datetime=2006-01-02"`
	To         string `form:"to"          binding:"required,datetime=2006-01-02"`
	Type       string `form:"type"        binding:"omitempty,oneof=all open unpublished assigned"`
}

// ShiftBreakItem 休息区间
type ShiftBreakItem struct {
	Start string `json:"start" binding:"required,hhmm"`
	End   string `json:"end"   binding:"required,hhmm"`
}

// ChangeReason 周期锁定时自动转为变更申请所用的原因
type ChangeReason struct {
	ReasonCode string `json:"reason_code" binding:"omitempty,max=40"`
	ReasonNote string `json:"reason_note" binding:"omitempty,max=500"`
}

// CreateShiftRequest 创建班次请求
// RepeatWeekdays 非空时在同一周的这些星期几各生成一个班次（0=周一）
type CreateShiftRequest struct {
	LocationID     string           `json:"location_id"     binding:"required,uuid"`
	ShiftDate      string           `json:"shift_date"      binding:"required,datetime=2006-01-02"`
	StartTime      string           `json:"start_time"      binding:"required,hhmm"`
	EndTime        string           `json:"end_time"        binding:"required,hhmm"`
	RoleName       string           `json:"role_name"       binding:"required,max=50"`
	RequiredCount  *int             `json:"required_count"  binding:"omitempty,min=0,max=100"`
	IsOpenShift    bool             `json:"is_open_shift"`
	IsCloseDuty    bool             `json:"is_close_duty"`
	Notes          string           `json:"notes"           binding:"omitempty,max=500"`
	Breaks         []ShiftBreakItem `json:"breaks"          binding:"omitempty,dive"`
	BreakMinutes   *int             `json:"break_minutes"   binding:"omitempty,min=0,max=600"`
	EmployeeIDs    []string         `json:"employee_ids"    binding:"omitempty,dive,uuid"`
	RepeatWeekdays []int            `json:"repeat_weekdays" binding:"omitempty,max=7,dive,weekday"`
	ChangeReason
}

// UpdateShiftRequest 修改班次请求（补丁语义，nil 字段不修改）
type UpdateShiftRequest struct {
	LocationID      *string           `json:"location_id"      binding:"omitempty,uuid"`
	ShiftDate       *string           `json:"shift_date"       binding:"omitempty,datetime=2006-01-02"`
	StartTime       *string           `json:"start_time"       binding:"omitempty,hhmm"`
	EndTime         *string           `json:"end_time"         binding:"omitempty,hhmm"`
	RoleName        *string           `json:"role_name"        binding:"omitempty,max=50"`
	RequiredCount   *int              `json:"required_count"   binding:"omitempty,min=0,max=100"`
	IsOpenShift     *bool             `json:"is_open_shift"`
	IsCloseDuty     *bool             `json:"is_close_duty"`
	Notes           *string           `json:"notes"            binding:"omitempty,max=500"`
	Breaks          *[]ShiftBreakItem `json:"breaks"           binding:"omitempty"`
	BreakMinutes    *int              `json:"break_minutes"    binding:"omitempty,min=0,max=600"`
	ExpectedVersion *int              `json:"expected_version" binding:"omitempty,min=1"`
	ChangeReason
}

// DeleteShiftRequest 删除班次请求（仅锁定周期下需要原因）
type DeleteShiftRequest struct {
	ChangeReason
}

// AssignShiftRequest 指派 / 认领班次请求
// EmployeeID 为空表示调用者认领自己
type AssignShiftRequest struct {
	EmployeeID string `json:"employee_id" binding:"omitempty,uuid"`
}

// BulkPublishRequest 批量发布请求
// scope=week 跳过已过去的班次，scope=day 不跳过
type BulkPublishRequest struct {
	ShiftIDs []string `json:"shift_ids" binding:"required,min=1,max=500,dive,uuid"`
	Scope    string   `json:"scope"     binding:"required,oneof=day week"`
}

// ConflictQueryRequest 冲突检测查询参数
type ConflictQueryRequest struct {
	EmployeeID     string `form:"employee_id"      binding:"required,uuid"`
	Date           string `form:"date"             binding:"required,datetime=2006-01-02"`
	Start          string `form:"start"            binding:"omitempty,hhmm"`
	End            string `form:"end"              binding:"omitempty,hhmm"`
	ExcludeShiftID string `form:"exclude_shift_id" binding:"omitempty,uuid"`
}

// CandidateListRequest 候选人查询参数
type CandidateListRequest struct {
	AllLocations bool `form:"all_locations"`
}

// ── 响应 ──

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID            string               `json:"id"`
	LocationID    string               `json:"location_id"`
	ShiftDate     string               `json:"shift_date"`
	StartTime     string               `json:"start_time"`
	EndTime       string               `json:"end_time"`
	RoleName      string               `json:"role_name"`
	RequiredCount int                  `json:"required_count"`
	ApprovedCount int                  `json:"approved_count"`
	IsOpenShift   bool                 `json:"is_open_shift"`
	IsPublished   bool                 `json:"is_published"`
	IsCloseDuty   bool                 `json:"is_close_duty"`
	Notes         string               `json:"notes,omitempty"`
	Breaks        []ShiftBreakItem     `json:"breaks,omitempty"`
	BreakMinutes  *int                 `json:"break_minutes,omitempty"`
	Hours         float64              `json:"hours"`
	Version       int                  `json:"version"`
	PeriodStatus  string               `json:"period_status,omitempty"` // 仅周排班视图填充
	Assignments   []AssignmentResponse `json:"assignments"`
	CreatedAt     string               `json:"created_at"`
	UpdatedAt     string               `json:"updated_at"`
}

// AssignmentResponse 指派响应
type AssignmentResponse struct {
	ID               string         `json:"id"`
	ShiftID          string         `json:"shift_id"`
	EmployeeID       string         `json:"employee_id"`
	Employee         *EmployeeBrief `json:"employee,omitempty"`
	Status           string         `json:"status"`
	AttendanceStatus string         `json:"attendance_status,omitempty"`
	DecidedBy        *string        `json:"decided_by,omitempty"`
	DecidedAt        *string        `json:"decided_at,omitempty"`
	CreatedAt        string         `json:"created_at"`
}

// ShiftMutationResponse 班次写操作结果
// Redirected=true 表示周期已锁定，修改未直接生效而是生成了变更申请
type ShiftMutationResponse struct {
	Shift         *ShiftResponse         `json:"shift,omitempty"`
	Redirected    bool                   `json:"redirected"`
	ChangeRequest *ChangeRequestResponse `json:"change_request,omitempty"`
	Warnings      []Warning              `json:"warnings,omitempty"`
}

// ShiftCreateResult 单个日期的创建结果
type ShiftCreateResult struct {
	ShiftDate string `json:"shift_date"`
	ShiftMutationResponse
	Error string `json:"error,omitempty"`
}

// CreateShiftResponse 创建班次结果（多星期几时逐项汇报）
type CreateShiftResponse struct {
	Results    []ShiftCreateResult `json:"results"`
	Created    int                 `json:"created"`
	Redirected int                 `json:"redirected"`
	Failed     int                 `json:"failed"`
}

// AssignmentMutationResponse 指派结果
type AssignmentMutationResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Warnings   []Warning          `json:"warnings,omitempty"`
}

// 批量发布逐项状态
const (
	PublishStatusPublished        = "published"
	PublishStatusAlreadyPublished = "already_published"
	PublishStatusSkippedPast      = "skipped_past"
	PublishStatusFailed           = "failed"
)

// BulkPublishItem 批量发布单项结果
type BulkPublishItem struct {
	ShiftID string `json:"shift_id"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// BulkPublishResponse 批量发布结果（不回滚，逐项汇报）
type BulkPublishResponse struct {
	Items     []BulkPublishItem `json:"items"`
	Published int               `json:"published"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
}

// ConflictResponse 冲突检测结果
type ConflictResponse struct {
	ShiftID    string `json:"shift_id"`
	LocationID string `json:"location_id"`
	ShiftDate  string `json:"shift_date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"assignment_status"`
	HasOverlap bool   `json:"has_overlap"`
}

// CandidateResponse 候选员工（附带徽标）
type CandidateResponse struct {
	Employee       EmployeeBrief `json:"employee"`
	HomeLocationID *string       `json:"home_location_id,omitempty"`
	HasShift       bool          `json:"has_shift"`
	HasOverlap     bool          `json:"has_overlap"`
	OnTimeOff      bool          `json:"on_time_off"`
	AlreadyOnShift bool          `json:"already_on_shift"`
}
