package model

import "time"

// LaborSalesDay 门店每日营业额，对应 labor_cost_days
// 预测/实际销售额由外部系统写入，人工成本统计时读取
type LaborSalesDay struct {
	LaborSalesDayID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"labor_sales_day_id"`
	LocationID      string    `gorm:"type:uuid;not null"                             json:"location_id"`
	SalesDate       time.Time `gorm:"type:date;not null"                             json:"sales_date"`
	ProjectedSales  float64   `gorm:"type:numeric(12,2);not null;default:0"          json:"projected_sales"`
	ActualSales     float64   `gorm:"type:numeric(12,2);not null;default:0"          json:"actual_sales"`
	BaseModel
}

// TableName 指定表名
func (LaborSalesDay) TableName() string { return "labor_cost_days" }
