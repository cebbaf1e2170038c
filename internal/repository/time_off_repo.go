package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shiftgov/internal/model"
	pkgerrors "shiftgov/pkg/errors"
)

// TimeOffFilter 请假查询条件（区间与请假日期有交集即命中）
type TimeOffFilter struct {
	EmployeeIDs []string
	Status      string
	From        *time.Time
	To          *time.Time
}

// TimeOffRepository 请假数据访问接口
type TimeOffRepository interface {
	Create(ctx context.Context, req *model.TimeOffRequest) error
	GetByID(ctx context.Context, id string) (*model.TimeOffRequest, error)
	List(ctx context.Context, filter TimeOffFilter) ([]model.TimeOffRequest, error)
	Decide(ctx context.Context, req *model.TimeOffRequest) error
}

type timeOffRepo struct {
	db *gorm.DB
}

// NewTimeOffRepo 创建 TimeOffRepository 实例
func NewTimeOffRepo(db *gorm.DB) TimeOffRepository {
	return &timeOffRepo{db: db}
}

func (r *timeOffRepo) Create(ctx context.Context, req *model.TimeOffRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *timeOffRepo) GetByID(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	var req model.TimeOffRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("time_off_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *timeOffRepo) List(ctx context.Context, filter TimeOffFilter) ([]model.TimeOffRequest, error) {
	var list []model.TimeOffRequest
	db := r.db.WithContext(ctx).Preload("Employee")

	if len(filter.EmployeeIDs) > 0 {
		db = db.Where("employee_id IN ?", filter.EmployeeIDs)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("end_date >= ?", filter.From.Format(model.DateLayout))
	}
	if filter.To != nil {
		db = db.Where("start_date <= ?", filter.To.Format(model.DateLayout))
	}

	err := db.Order("start_date ASC").Find(&list).Error
	return list, err
}

// Decide 审批请假（仅当仍为 pending）
func (r *timeOffRepo) Decide(ctx context.Context, req *model.TimeOffRequest) error {
	result := r.db.WithContext(ctx).
		Model(&model.TimeOffRequest{}).
		Where("time_off_request_id = ? AND status = ?", req.TimeOffRequestID, model.TimeOffPending).
		Updates(map[string]interface{}{
			"status":     req.Status,
			"decided_by": req.DecidedBy,
			"decided_at": req.DecidedAt,
			"updated_by": req.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
