package dto

// ── 门店模块 DTO ──

// CreateLocationRequest 创建门店请求
type CreateLocationRequest struct {
	Name    string `json:"name"    binding:"required,min=2,max=100"`
	Address string `json:"address" binding:"omitempty,max=200"`
}

// UpdateLocationRequest 更新门店请求
type UpdateLocationRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=2,max=100"`
	Address  *string `json:"address"   binding:"omitempty,max=200"`
	IsActive *bool   `json:"is_active"`
}

// LocationListRequest 门店列表查询参数
type LocationListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// OperatingHoursItem 单日营业时间
type OperatingHoursItem struct {
	Weekday   int    `json:"weekday"    binding:"weekday"`
	OpenTime  string `json:"open_time"  binding:"omitempty,hhmm"`
	CloseTime string `json:"close_time" binding:"omitempty,hhmm"`
	IsClosed  bool   `json:"is_closed"`
}

// SetOperatingHoursRequest 设置门店一周营业时间（未列出的星期几视为 24 小时营业）
type SetOperatingHoursRequest struct {
	Days []OperatingHoursItem `json:"days" binding:"max=7,dive"`
}

// LocationResponse 门店信息响应
type LocationResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Address        string               `json:"address,omitempty"`
	IsActive       bool                 `json:"is_active"`
	OperatingHours []OperatingHoursItem `json:"operating_hours,omitempty"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}
