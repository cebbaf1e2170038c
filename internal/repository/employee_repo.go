package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftgov/internal/model"
)

// EmployeeRepository 员工目录只读访问接口
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Employee, error)
	ListByLocation(ctx context.Context, locationID string) ([]model.Employee, error)
	ListByCompany(ctx context.Context, companyID string) ([]model.Employee, error)
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Employee, error) {
	var employees []model.Employee
	if len(ids) == 0 {
		return employees, nil
	}
	err := r.db.WithContext(ctx).
		Where("employee_id IN ?", ids).
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) ListByLocation(ctx context.Context, locationID string) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Where("home_location_id = ? AND is_active = ?", locationID, true).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}
