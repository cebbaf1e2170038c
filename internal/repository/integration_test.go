//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "shiftgov/pkg/errors"

	"shiftgov/internal/model"
	"shiftgov/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=shiftgov password=shiftgov_password dbname=shiftgov_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.Location{},
		&model.Employee{},
		&model.SchedulePeriod{},
		&model.Shift{},
		&model.ShiftAssignment{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建门店与员工并返回清理函数
func setupTestData(t *testing.T) (loc *model.Location, emp *model.Employee, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	companyID := uuid.NewString()

	loc = &model.Location{
		CompanyID: companyID,
		Name:      fmt.Sprintf("测试门店-%d", time.Now().UnixNano()),
		IsActive:  true,
	}
	if err := testDB.WithContext(ctx).Create(loc).Error; err != nil {
		t.Fatalf("创建门店失败: %v", err)
	}

	emp = &model.Employee{
		CompanyID:      companyID,
		FullName:       "测试员工",
		Role:           "Server",
		HourlyRate:     20,
		HomeLocationID: &loc.LocationID,
		IsActive:       true,
	}
	if err := testDB.WithContext(ctx).Create(emp).Error; err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("company_id = ?", companyID).Delete(&model.Shift{})
		testDB.Unscoped().Where("company_id = ?", companyID).Delete(&model.SchedulePeriod{})
		testDB.Unscoped().Where("employee_id = ?", emp.EmployeeID).Delete(&model.ShiftAssignment{})
		testDB.Unscoped().Where("employee_id = ?", emp.EmployeeID).Delete(&model.Employee{})
		testDB.Unscoped().Where("location_id = ?", loc.LocationID).Delete(&model.Location{})
	}
	return
}

func newShift(loc *model.Location, date time.Time) *model.Shift {
	return &model.Shift{
		CompanyID:     loc.CompanyID,
		LocationID:    loc.LocationID,
		ShiftDate:     date,
		StartTime:     "09:00:00",
		EndTime:       "17:00:00",
		RoleName:      "Server",
		RequiredCount: 1,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	loc, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	shift := newShift(loc, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err := txRepo.Shift.Create(ctx, shift); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建班次失败: %v", err)
	}

	tx.Rollback()

	if _, err := repo.Shift.GetByID(ctx, shift.ShiftID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望回滚后查不到班次，得到: %v", err)
	}
}

func TestTransaction_Commit(t *testing.T) {
	loc, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	shift := newShift(loc, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err := txRepo.Shift.Create(ctx, shift); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建班次失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	found, err := repo.Shift.GetByID(ctx, shift.ShiftID)
	if err != nil {
		t.Fatalf("提交后查询班次失败: %v", err)
	}
	if found.StartTime != "09:00:00" {
		t.Errorf("开始时间不匹配: got %s", found.StartTime)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Period_ConflictDetected(t *testing.T) {
	loc, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	period := &model.SchedulePeriod{
		CompanyID:  loc.CompanyID,
		LocationID: loc.LocationID,
		WeekStart:  week,
		Status:     model.PeriodDraft,
	}
	if err := repo.Period.Create(ctx, period); err != nil {
		t.Fatalf("创建周期失败: %v", err)
	}

	// 模拟并发：获取两份副本
	copy1, _ := repo.Period.GetByLocationWeek(ctx, loc.LocationID, week)
	copy2, _ := repo.Period.GetByLocationWeek(ctx, loc.LocationID, week)

	copy1.Status = model.PeriodPublished
	now := time.Now()
	copy1.PublishedAt = &now
	if err := repo.Period.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}
	if copy1.Version != 2 {
		t.Errorf("期望 version=2，得到 %d", copy1.Version)
	}

	copy2.Status = model.PeriodLocked
	if err := repo.Period.Update(ctx, copy2); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestOptimisticLock_Shift_ConflictDetected(t *testing.T) {
	loc, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	shift := newShift(loc, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	if err := repo.Shift.Create(ctx, shift); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}

	copy1, _ := repo.Shift.GetByID(ctx, shift.ShiftID)
	copy2, _ := repo.Shift.GetByID(ctx, shift.ShiftID)

	copy1.EndTime = "13:00:00"
	if err := repo.Shift.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	copy2.RoleName = "Cook"
	if err := repo.Shift.Update(ctx, copy2); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Cascade Delete
// ═══════════════════════════════════════════════════════════

func TestShiftDelete_CascadesAssignments(t *testing.T) {
	loc, emp, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	shift := newShift(loc, date)
	if err := repo.Shift.Create(ctx, shift); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}
	a := &model.ShiftAssignment{
		ShiftID:    shift.ShiftID,
		EmployeeID: emp.EmployeeID,
		Status:     model.AssignmentApproved,
	}
	if err := repo.Assignment.Create(ctx, a); err != nil {
		t.Fatalf("创建指派失败: %v", err)
	}

	if err := repo.Shift.Delete(ctx, shift.ShiftID, emp.EmployeeID); err != nil {
		t.Fatalf("删除班次失败: %v", err)
	}

	if _, err := repo.Shift.GetByID(ctx, shift.ShiftID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望班次已软删除，得到: %v", err)
	}
	list, err := repo.Assignment.ListByEmployee(ctx, emp.EmployeeID, date, date, nil)
	if err != nil {
		t.Fatalf("查询指派失败: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("期望指派随班次一并删除，仍有 %d 条", len(list))
	}
}
