package model

// Employee 员工目录，对应 employees（外部员工目录的只读镜像）
type Employee struct {
	EmployeeID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	CompanyID      string  `gorm:"type:uuid;not null;index"                       json:"company_id"`
	FullName       string  `gorm:"type:varchar(100);not null"                     json:"full_name"`
	Role           string  `gorm:"type:varchar(50);not null"                      json:"role"`
	HourlyRate     float64 `gorm:"type:numeric(10,2);not null;default:0"          json:"hourly_rate"`
	HomeLocationID *string `gorm:"type:uuid"                                      json:"home_location_id,omitempty"`
	IsActive       bool    `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }
