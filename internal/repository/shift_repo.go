package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shiftgov/internal/model"
	pkgerrors "shiftgov/pkg/errors"
)

// ShiftFilter 班次查询条件（日期含首尾）
type ShiftFilter struct {
	CompanyID     string
	LocationID    string // 为空表示公司下全部门店
	From          time.Time
	To            time.Time
	OnlyPublished bool
}

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// AssignmentFilter 指派查询条件
type AssignmentFilter struct {
	CompanyID  string
	LocationID string
	Status     string
	From       *time.Time
	To         *time.Time
}

// AssignmentRepository 班次指派数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.ShiftAssignment) error
	GetByID(ctx context.Context, id string) (*model.ShiftAssignment, error)
	ListByShift(ctx context.Context, shiftID string) ([]model.ShiftAssignment, error)
	FindActive(ctx context.Context, shiftID, employeeID string) (*model.ShiftAssignment, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time, statuses []string) ([]model.ShiftAssignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]model.ShiftAssignment, error)
	UpdateStatus(ctx context.Context, a *model.ShiftAssignment, fromStatus string) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// ── Shift Repository 实现 ──

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

// Create 创建班次；Assignments 非空时同一事务内一并写入
func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Preload("Assignments.Employee").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Shift, error) {
	var shifts []model.Shift
	if len(ids) == 0 {
		return shifts, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Where("shift_id IN ?", ids).
		Order("shift_date ASC, start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error) {
	var shifts []model.Shift
	db := r.db.WithContext(ctx).
		Preload("Assignments").
		Preload("Assignments.Employee").
		Where("company_id = ? AND shift_date BETWEEN ? AND ?",
			filter.CompanyID, filter.From.Format(model.DateLayout), filter.To.Format(model.DateLayout))

	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.OnlyPublished {
		db = db.Where("is_published = ?", true)
	}

	err := db.Order("shift_date ASC, start_time ASC").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	oldVersion := shift.Version
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND version = ?", shift.ShiftID, oldVersion).
		Updates(map[string]interface{}{
			"location_id":    shift.LocationID,
			"shift_date":     shift.ShiftDate.Format(model.DateLayout),
			"start_time":     shift.StartTime,
			"end_time":       shift.EndTime,
			"role_name":      shift.RoleName,
			"required_count": shift.RequiredCount,
			"is_open_shift":  shift.IsOpenShift,
			"is_published":   shift.IsPublished,
			"is_close_duty":  shift.IsCloseDuty,
			"notes":          shift.Notes,
			"breaks":         shift.Breaks,
			"break_minutes":  shift.BreakMinutes,
			"updated_by":     shift.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version = oldVersion + 1
	return nil
}

// Delete 软删除班次并级联软删除其全部指派
func (r *shiftRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ShiftAssignment{}).
			Where("shift_id = ?", id).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			}).Error; err != nil {
			return err
		}
		result := tx.Model(&model.Shift{}).
			Where("shift_id = ?", id).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ── Assignment Repository 实现 ──

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

// Create 在外层事务中以保存点执行，失败只回滚本条插入
func (r *assignmentRepo) Create(ctx context.Context, a *model.ShiftAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(a).Error
	})
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.ShiftAssignment, error) {
	var a model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Employee").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByShift(ctx context.Context, shiftID string) ([]model.ShiftAssignment, error) {
	var list []model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// FindActive 查询员工在班次上的有效指派（待审批或已批准）
func (r *assignmentRepo) FindActive(ctx context.Context, shiftID, employeeID string) (*model.ShiftAssignment, error) {
	var a model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Where("shift_id = ? AND employee_id = ? AND status IN ?",
			shiftID, employeeID, []string{model.AssignmentPending, model.AssignmentApproved}).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByEmployee 员工在日期区间内的指派（连同班次）
func (r *assignmentRepo) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time, statuses []string) ([]model.ShiftAssignment, error) {
	var list []model.ShiftAssignment
	db := r.db.WithContext(ctx).
		Joins("JOIN shifts ON shifts.shift_id = shift_assignments.shift_id AND shifts.deleted_at IS NULL").
		Preload("Shift").
		Where("shift_assignments.employee_id = ? AND shifts.shift_date BETWEEN ? AND ?",
			employeeID, from.Format(model.DateLayout), to.Format(model.DateLayout))
	if len(statuses) > 0 {
		db = db.Where("shift_assignments.status IN ?", statuses)
	}
	err := db.Order("shifts.shift_date ASC, shifts.start_time ASC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) List(ctx context.Context, filter AssignmentFilter) ([]model.ShiftAssignment, error) {
	var list []model.ShiftAssignment
	db := r.db.WithContext(ctx).
		Joins("JOIN shifts ON shifts.shift_id = shift_assignments.shift_id AND shifts.deleted_at IS NULL").
		Preload("Shift").
		Preload("Employee").
		Where("shifts.company_id = ?", filter.CompanyID)

	if filter.LocationID != "" {
		db = db.Where("shifts.location_id = ?", filter.LocationID)
	}
	if filter.Status != "" {
		db = db.Where("shift_assignments.status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("shifts.shift_date >= ?", filter.From.Format(model.DateLayout))
	}
	if filter.To != nil {
		db = db.Where("shifts.shift_date <= ?", filter.To.Format(model.DateLayout))
	}

	err := db.Order("shift_assignments.created_at ASC").Find(&list).Error
	return list, err
}

// UpdateStatus 条件更新审批状态，当前状态不是 fromStatus 时返回乐观锁错误
func (r *assignmentRepo) UpdateStatus(ctx context.Context, a *model.ShiftAssignment, fromStatus string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftAssignment{}).
		Where("assignment_id = ? AND status = ?", a.AssignmentID, fromStatus).
		Updates(map[string]interface{}{
			"status":     a.Status,
			"decided_by": a.DecidedBy,
			"decided_at": a.DecidedAt,
			"updated_by": a.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ShiftAssignment{}).
		Where("assignment_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
