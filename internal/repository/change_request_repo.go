package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftgov/internal/model"
	pkgerrors "shiftgov/pkg/errors"
)

// ChangeRequestFilter 变更申请查询条件
type ChangeRequestFilter struct {
	CompanyID  string
	PeriodID   string
	LocationID string
	Status     string
}

// ChangeRequestRepository 变更申请数据访问接口
type ChangeRequestRepository interface {
	Create(ctx context.Context, cr *model.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*model.ChangeRequest, error)
	List(ctx context.Context, filter ChangeRequestFilter) ([]model.ChangeRequest, error)
	Resolve(ctx context.Context, cr *model.ChangeRequest) error
}

type changeRequestRepo struct {
	db *gorm.DB
}

// NewChangeRequestRepo 创建 ChangeRequestRepository 实例
func NewChangeRequestRepo(db *gorm.DB) ChangeRequestRepository {
	return &changeRequestRepo{db: db}
}

func (r *changeRequestRepo) Create(ctx context.Context, cr *model.ChangeRequest) error {
	return r.db.WithContext(ctx).Create(cr).Error
}

func (r *changeRequestRepo) GetByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	err := r.db.WithContext(ctx).
		Where("change_request_id = ?", id).
		First(&cr).Error
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *changeRequestRepo) List(ctx context.Context, filter ChangeRequestFilter) ([]model.ChangeRequest, error) {
	var list []model.ChangeRequest
	db := r.db.WithContext(ctx).Where("company_id = ?", filter.CompanyID)

	if filter.PeriodID != "" {
		db = db.Where("period_id = ?", filter.PeriodID)
	}
	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	err := db.Order("requested_at DESC").Find(&list).Error
	return list, err
}

// Resolve 写入终态（仅当仍为 pending），并发处理时返回乐观锁错误
func (r *changeRequestRepo) Resolve(ctx context.Context, cr *model.ChangeRequest) error {
	result := r.db.WithContext(ctx).
		Model(&model.ChangeRequest{}).
		Where("change_request_id = ? AND status = ?", cr.ChangeRequestID, model.ChangePending).
		Updates(map[string]interface{}{
			"status":            cr.Status,
			"resolved_by":       cr.ResolvedBy,
			"resolved_at":       cr.ResolvedAt,
			"resolution_note":   cr.ResolutionNote,
			"applied_shift_ids": cr.AppliedShiftIDs,
			"updated_by":        cr.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
