package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Location       LocationRepository
	OperatingHours OperatingHoursRepository
	Employee       EmployeeRepository
	Shift          ShiftRepository
	Assignment     AssignmentRepository
	Period         SchedulePeriodRepository
	ChangeRequest  ChangeRequestRepository
	Exception      WorkforceExceptionRepository
	Attendance     AttendanceRepository
	TimeOff        TimeOffRepository
	LaborSales     LaborSalesRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		Location:       NewLocationRepo(db),
		OperatingHours: NewOperatingHoursRepo(db),
		Employee:       NewEmployeeRepo(db),
		Shift:          NewShiftRepo(db),
		Assignment:     NewAssignmentRepo(db),
		Period:         NewSchedulePeriodRepo(db),
		ChangeRequest:  NewChangeRequestRepo(db),
		Exception:      NewWorkforceExceptionRepo(db),
		Attendance:     NewAttendanceRepo(db),
		TimeOff:        NewTimeOffRepo(db),
		LaborSales:     NewLaborSalesRepo(db),
	}
}

// BeginTx 开启事务
// 测试中的 mock 聚合没有数据库连接，此时返回 nil 事务，调用方按无事务执行
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
