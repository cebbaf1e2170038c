package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shiftgov/internal/model"
)

// LaborSalesRepository 门店营业额数据访问接口
type LaborSalesRepository interface {
	ListRange(ctx context.Context, locationID string, from, to time.Time) ([]model.LaborSalesDay, error)
	Upsert(ctx context.Context, day *model.LaborSalesDay) error
}

type laborSalesRepo struct {
	db *gorm.DB
}

// NewLaborSalesRepo 创建 LaborSalesRepository 实例
func NewLaborSalesRepo(db *gorm.DB) LaborSalesRepository {
	return &laborSalesRepo{db: db}
}

func (r *laborSalesRepo) ListRange(ctx context.Context, locationID string, from, to time.Time) ([]model.LaborSalesDay, error) {
	var days []model.LaborSalesDay
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND sales_date BETWEEN ? AND ?",
			locationID, from.Format(model.DateLayout), to.Format(model.DateLayout)).
		Order("sales_date ASC").
		Find(&days).Error
	return days, err
}

// Upsert 按 (门店, 日期) 写入或覆盖营业额
func (r *laborSalesRepo) Upsert(ctx context.Context, day *model.LaborSalesDay) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "sales_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"projected_sales", "actual_sales", "updated_by", "updated_at"}),
		}).
		Create(day).Error
}
