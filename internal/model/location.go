package model

// Location 门店表，对应 locations
type Location struct {
	LocationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"location_id"`
	CompanyID  string `gorm:"type:uuid;not null;index"                       json:"company_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Address    string `gorm:"type:varchar(200)"                              json:"address,omitempty"`
	IsActive   bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	// 关联
	OperatingHours []OperatingHours `gorm:"foreignKey:LocationID" json:"operating_hours,omitempty"`
}

// TableName 指定表名
func (Location) TableName() string { return "locations" }

// OperatingHours 门店营业时间表，对应 location_operating_hours
// 每个门店每个星期几一行；无记录的星期几视为 24 小时营业
type OperatingHours struct {
	OperatingHoursID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"operating_hours_id"`
	LocationID       string `gorm:"type:uuid;not null"                             json:"location_id"`
	Weekday          int    `gorm:"type:smallint;not null"                         json:"weekday"` // 0=周一 … 6=周日
	OpenTime         string `gorm:"type:time;not null"                             json:"open_time"`
	CloseTime        string `gorm:"type:time;not null"                             json:"close_time"`
	IsClosed         bool   `gorm:"not null;default:false"                         json:"is_closed"`
	BaseModel
}

// TableName 指定表名
func (OperatingHours) TableName() string { return "location_operating_hours" }
