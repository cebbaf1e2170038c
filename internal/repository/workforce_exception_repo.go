package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shiftgov/internal/model"
	pkgerrors "shiftgov/pkg/errors"
)

// ExceptionFilter 考勤异常查询条件
type ExceptionFilter struct {
	CompanyID  string
	LocationID string
	Status     string
	From       *time.Time
	To         *time.Time
}

// WorkforceExceptionRepository 考勤异常数据访问接口
type WorkforceExceptionRepository interface {
	Create(ctx context.Context, e *model.WorkforceException) error
	GetByID(ctx context.Context, id string) (*model.WorkforceException, error)
	List(ctx context.Context, filter ExceptionFilter) ([]model.WorkforceException, error)
	Exists(ctx context.Context, employeeID string, shiftID *string, exceptionType string, workDate time.Time) (bool, error)
	Resolve(ctx context.Context, e *model.WorkforceException) error
}

// AttendanceRepository 打卡记录数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, log *model.AttendanceLog) error
	GetOpen(ctx context.Context, employeeID string) (*model.AttendanceLog, error)
	CloseOut(ctx context.Context, log *model.AttendanceLog) error
	ListByLocationDate(ctx context.Context, locationID string, date time.Time) ([]model.AttendanceLog, error)
	ListByShiftIDs(ctx context.Context, shiftIDs []string) ([]model.AttendanceLog, error)
}

// ── WorkforceException Repository 实现 ──

type workforceExceptionRepo struct {
	db *gorm.DB
}

// NewWorkforceExceptionRepo 创建 WorkforceExceptionRepository 实例
func NewWorkforceExceptionRepo(db *gorm.DB) WorkforceExceptionRepository {
	return &workforceExceptionRepo{db: db}
}

func (r *workforceExceptionRepo) Create(ctx context.Context, e *model.WorkforceException) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *workforceExceptionRepo) GetByID(ctx context.Context, id string) (*model.WorkforceException, error) {
	var e model.WorkforceException
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("exception_id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *workforceExceptionRepo) List(ctx context.Context, filter ExceptionFilter) ([]model.WorkforceException, error) {
	var list []model.WorkforceException
	db := r.db.WithContext(ctx).
		Preload("Employee").
		Where("company_id = ?", filter.CompanyID)

	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("work_date >= ?", filter.From.Format(model.DateLayout))
	}
	if filter.To != nil {
		db = db.Where("work_date <= ?", filter.To.Format(model.DateLayout))
	}

	err := db.Order("detected_at DESC").Find(&list).Error
	return list, err
}

// Exists 同一 (员工, 班次, 类型, 日期) 是否已记录过异常
func (r *workforceExceptionRepo) Exists(ctx context.Context, employeeID string, shiftID *string, exceptionType string, workDate time.Time) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.WorkforceException{}).
		Where("employee_id = ? AND exception_type = ? AND work_date = ?",
			employeeID, exceptionType, workDate.Format(model.DateLayout))
	if shiftID != nil {
		db = db.Where("shift_id = ?", *shiftID)
	} else {
		db = db.Where("shift_id IS NULL")
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Resolve 处理异常（仅当仍为 pending）
func (r *workforceExceptionRepo) Resolve(ctx context.Context, e *model.WorkforceException) error {
	result := r.db.WithContext(ctx).
		Model(&model.WorkforceException{}).
		Where("exception_id = ? AND status = ?", e.ExceptionID, model.ExceptionPending).
		Updates(map[string]interface{}{
			"status":          e.Status,
			"resolved_by":     e.ResolvedBy,
			"resolved_at":     e.ResolvedAt,
			"resolution_note": e.ResolutionNote,
			"updated_by":      e.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// ── Attendance Repository 实现 ──

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, log *model.AttendanceLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetOpen 员工最近一条未签退的打卡记录
func (r *attendanceRepo) GetOpen(ctx context.Context, employeeID string) (*model.AttendanceLog, error) {
	var log model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND clock_out IS NULL", employeeID).
		Order("clock_in DESC").
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *attendanceRepo) CloseOut(ctx context.Context, log *model.AttendanceLog) error {
	return r.db.WithContext(ctx).
		Model(&model.AttendanceLog{}).
		Where("attendance_log_id = ?", log.AttendanceLogID).
		Updates(map[string]interface{}{
			"clock_out":  log.ClockOut,
			"updated_by": log.UpdatedBy,
		}).Error
}

func (r *attendanceRepo) ListByLocationDate(ctx context.Context, locationID string, date time.Time) ([]model.AttendanceLog, error) {
	var logs []model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND work_date = ?", locationID, date.Format(model.DateLayout)).
		Order("clock_in ASC").
		Find(&logs).Error
	return logs, err
}

func (r *attendanceRepo) ListByShiftIDs(ctx context.Context, shiftIDs []string) ([]model.AttendanceLog, error) {
	var logs []model.AttendanceLog
	if len(shiftIDs) == 0 {
		return logs, nil
	}
	err := r.db.WithContext(ctx).
		Where("shift_id IN ?", shiftIDs).
		Find(&logs).Error
	return logs, err
}
