package dto

// ── 排班周期模块 DTO ──

// PeriodQueryRequest 单门店周期查询参数
type PeriodQueryRequest struct {
	LocationID string `form:"location_id" binding:"required,uuid"`
	Date       string `form:"date"        binding:"required,datetime=2006-01-02"`
}

// PeriodWeekQueryRequest 全部门店周期查询参数
type PeriodWeekQueryRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// PeriodTransitionRequest 周期状态流转请求
type PeriodTransitionRequest struct {
	LocationID      string `json:"location_id"      binding:"required,uuid"`
	Date            string `json:"date"             binding:"required,datetime=2006-01-02"`
	ExpectedVersion *int   `json:"expected_version" binding:"omitempty,min=1"`
	PublishShifts   bool   `json:"publish_shifts"` // 同时发布该周未来的未发布班次
}

// PeriodResponse 周期响应
type PeriodResponse struct {
	ID           string  `json:"id"`
	LocationID   string  `json:"location_id"`
	LocationName string  `json:"location_name,omitempty"`
	WeekStart    string  `json:"week_start"`
	Status       string  `json:"status"`
	PublishedAt  *string `json:"published_at,omitempty"`
	LockedAt     *string `json:"locked_at,omitempty"`
	LockedBy     *string `json:"locked_by,omitempty"`
	Version      int     `json:"version"`
}

// PeriodWeekResponse 单门店周期视图
// Governed=false 表示该周无治理记录，编辑不受限
type PeriodWeekResponse struct {
	LocationID string          `json:"location_id"`
	WeekStart  string          `json:"week_start"`
	Governed   bool            `json:"governed"`
	Status     string          `json:"status"`
	Period     *PeriodResponse `json:"period,omitempty"`
}

// PeriodAggregateResponse 全部门店周期视图
type PeriodAggregateResponse struct {
	WeekStart      string           `json:"week_start"`
	AggregateState string           `json:"aggregate_state"` // draft | published | locked | mixed | none
	Periods        []PeriodResponse `json:"periods"`
}

// PeriodTransitionResponse 周期流转结果
type PeriodTransitionResponse struct {
	Period          PeriodResponse       `json:"period"`
	PublishedShifts *BulkPublishResponse `json:"published_shifts,omitempty"`
}
