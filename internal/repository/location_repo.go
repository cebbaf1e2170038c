package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftgov/internal/model"
)

// LocationRepository 门店数据访问接口
type LocationRepository interface {
	Create(ctx context.Context, loc *model.Location) error
	GetByID(ctx context.Context, id string) (*model.Location, error)
	List(ctx context.Context, companyID string, includeInactive bool) ([]model.Location, error)
	ListAllActive(ctx context.Context) ([]model.Location, error)
	Update(ctx context.Context, loc *model.Location) error
}

// OperatingHoursRepository 门店营业时间数据访问接口
type OperatingHoursRepository interface {
	ListByLocation(ctx context.Context, locationID string) ([]model.OperatingHours, error)
	ReplaceForLocation(ctx context.Context, locationID string, hours []model.OperatingHours) error
}

type locationRepo struct {
	db *gorm.DB
}

// NewLocationRepo 创建 LocationRepository 实例
func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) Create(ctx context.Context, loc *model.Location) error {
	return r.db.WithContext(ctx).Create(loc).Error
}

func (r *locationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).
		Preload("OperatingHours", func(db *gorm.DB) *gorm.DB {
			return db.Order("weekday ASC")
		}).
		Where("location_id = ?", id).
		First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepo) List(ctx context.Context, companyID string, includeInactive bool) ([]model.Location, error) {
	var locations []model.Location
	db := r.db.WithContext(ctx).Where("company_id = ?", companyID)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC").Find(&locations).Error
	return locations, err
}

// ListAllActive 全部公司的营业中门店（定时任务使用）
func (r *locationRepo) ListAllActive(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("company_id ASC, name ASC").
		Find(&locations).Error
	return locations, err
}

func (r *locationRepo) Update(ctx context.Context, loc *model.Location) error {
	return r.db.WithContext(ctx).
		Model(&model.Location{}).
		Where("location_id = ?", loc.LocationID).
		Updates(map[string]interface{}{
			"name":       loc.Name,
			"address":    loc.Address,
			"is_active":  loc.IsActive,
			"updated_by": loc.UpdatedBy,
		}).Error
}

// ── OperatingHours Repository 实现 ──

type operatingHoursRepo struct {
	db *gorm.DB
}

// NewOperatingHoursRepo 创建 OperatingHoursRepository 实例
func NewOperatingHoursRepo(db *gorm.DB) OperatingHoursRepository {
	return &operatingHoursRepo{db: db}
}

func (r *operatingHoursRepo) ListByLocation(ctx context.Context, locationID string) ([]model.OperatingHours, error) {
	var hours []model.OperatingHours
	err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("weekday ASC").
		Find(&hours).Error
	return hours, err
}

// ReplaceForLocation 整体替换门店一周的营业时间
func (r *operatingHoursRepo) ReplaceForLocation(ctx context.Context, locationID string, hours []model.OperatingHours) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("location_id = ?", locationID).Delete(&model.OperatingHours{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		for i := range hours {
			hours[i].LocationID = locationID
		}
		return tx.Create(&hours).Error
	})
}
