package dto

// ── 人工成本模块 DTO ──

// LaborQueryRequest 人工成本查询参数
type LaborQueryRequest struct {
	LocationID string `form:"location_id" binding:"required,uuid"`
	Date       string `form:"date"        binding:"required,datetime=2006-01-02"`
}

// UpsertSalesRequest 写入门店营业额
type UpsertSalesRequest struct {
	LocationID     string  `json:"location_id"     binding:"required,uuid"`
	Date           string  `json:"date"            binding:"required,datetime=2006-01-02"`
	ProjectedSales float64 `json:"projected_sales" binding:"min=0"`
	ActualSales    float64 `json:"actual_sales"    binding:"min=0"`
}

// LaborDayResponse 单日人工成本
type LaborDayResponse struct {
	Date           string   `json:"date"`
	ScheduledHours float64  `json:"scheduled_hours"`
	ScheduledCost  float64  `json:"scheduled_cost"`
	ProjectedSales float64  `json:"projected_sales"`
	ActualSales    float64  `json:"actual_sales"`
	LaborPercent   *float64 `json:"labor_percent,omitempty"`
}

// LaborWeekResponse 一周人工成本
type LaborWeekResponse struct {
	LocationID string             `json:"location_id"`
	WeekStart  string             `json:"week_start"`
	Days       []LaborDayResponse `json:"days"`
	Total      LaborDayResponse   `json:"total"`
}
