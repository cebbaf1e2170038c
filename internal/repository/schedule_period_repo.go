package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shiftgov/internal/model"
	pkgerrors "shiftgov/pkg/errors"
)

// SchedulePeriodRepository 排班周期数据访问接口
type SchedulePeriodRepository interface {
	Create(ctx context.Context, period *model.SchedulePeriod) error
	GetByID(ctx context.Context, id string) (*model.SchedulePeriod, error)
	GetByLocationWeek(ctx context.Context, locationID string, weekStart time.Time) (*model.SchedulePeriod, error)
	ListByWeek(ctx context.Context, companyID string, weekStart time.Time) ([]model.SchedulePeriod, error)
	Update(ctx context.Context, period *model.SchedulePeriod) error
}

type schedulePeriodRepo struct {
	db *gorm.DB
}

// NewSchedulePeriodRepo 创建 SchedulePeriodRepository 实例
func NewSchedulePeriodRepo(db *gorm.DB) SchedulePeriodRepository {
	return &schedulePeriodRepo{db: db}
}

func (r *schedulePeriodRepo) Create(ctx context.Context, period *model.SchedulePeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *schedulePeriodRepo) GetByID(ctx context.Context, id string) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Where("period_id = ?", id).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *schedulePeriodRepo) GetByLocationWeek(ctx context.Context, locationID string, weekStart time.Time) (*model.SchedulePeriod, error) {
	var period model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND week_start = ?", locationID, weekStart.Format(model.DateLayout)).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *schedulePeriodRepo) ListByWeek(ctx context.Context, companyID string, weekStart time.Time) ([]model.SchedulePeriod, error) {
	var periods []model.SchedulePeriod
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("company_id = ? AND week_start = ?", companyID, weekStart.Format(model.DateLayout)).
		Find(&periods).Error
	return periods, err
}

// Update 乐观锁更新状态与时间戳
func (r *schedulePeriodRepo) Update(ctx context.Context, period *model.SchedulePeriod) error {
	oldVersion := period.Version
	result := r.db.WithContext(ctx).
		Model(&model.SchedulePeriod{}).
		Where("period_id = ? AND version = ?", period.PeriodID, oldVersion).
		Updates(map[string]interface{}{
			"status":       period.Status,
			"published_at": period.PublishedAt,
			"locked_at":    period.LockedAt,
			"locked_by":    period.LockedBy,
			"updated_by":   period.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	period.Version = oldVersion + 1
	return nil
}
