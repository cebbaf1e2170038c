package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	"shiftgov/pkg/timeofday"
)

// shiftStore 班次与指派的直接写入，不经过治理闸门
// 直接修改与变更申请审批通过后共用
type shiftStore struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// create 创建班次并为 employeeIDs 逐个建立已批准指派
// 单个指派失败只记入提示，不回滚已创建的班次（事务内由保存点隔离）
func (st *shiftStore) create(ctx context.Context, shift *model.Shift, employeeIDs []string, callerID string) ([]dto.Warning, error) {
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID
	shift.Version = 1
	shift.Assignments = nil

	if err := st.repo.Shift.Create(ctx, shift); err != nil {
		st.logger.Error("创建班次失败", zap.String("location_id", shift.LocationID), zap.Error(err))
		return nil, err
	}

	var warnings []dto.Warning
	now := time.Now()
	for _, empID := range uniqueStrings(employeeIDs) {
		a := &model.ShiftAssignment{
			ShiftID:    shift.ShiftID,
			EmployeeID: empID,
			Status:     model.AssignmentApproved,
			DecidedBy:  &callerID,
			DecidedAt:  &now,
		}
		a.CreatedBy = &callerID
		a.UpdatedBy = &callerID
		if err := st.repo.Assignment.Create(ctx, a); err != nil {
			st.logger.Error("创建指派失败",
				zap.String("shift_id", shift.ShiftID), zap.String("employee_id", empID), zap.Error(err))
			warnings = append(warnings, dto.Warning{
				Code:       dto.WarningAssignmentFailed,
				Message:    "指派创建失败，可单独重试",
				ShiftID:    shift.ShiftID,
				EmployeeID: empID,
			})
			continue
		}
		shift.Assignments = append(shift.Assignments, *a)
	}

	if shift.RequiredCount > 0 && shift.ApprovedCount() > shift.RequiredCount {
		warnings = append(warnings, dto.Warning{
			Code:    dto.WarningHeadcountFull,
			Message: fmt.Sprintf("已指派 %d 人，超过需求人数 %d", shift.ApprovedCount(), shift.RequiredCount),
			ShiftID: shift.ShiftID,
		})
	}
	return warnings, nil
}

// checkEmployees 指派员工必须存在且属于操作者所在公司
func checkEmployees(ctx context.Context, repo *repository.Repository, logger *zap.Logger, ids []string, caller Caller) error {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return nil
	}
	list, err := repo.Employee.GetByIDs(ctx, ids)
	if err != nil {
		logger.Error("查询员工失败", zap.Strings("employee_ids", ids), zap.Error(err))
		return err
	}
	known := make(map[string]bool, len(list))
	for _, e := range list {
		if e.CompanyID == caller.CompanyID {
			known[e.EmployeeID] = true
		}
	}
	for _, id := range ids {
		if !known[id] {
			return newValidationError("employee_ids", fmt.Sprintf("员工不存在: %s", id))
		}
	}
	return nil
}

// update 乐观锁写回班次字段
func (st *shiftStore) update(ctx context.Context, shift *model.Shift, callerID string) error {
	shift.UpdatedBy = &callerID
	if err := st.repo.Shift.Update(ctx, shift); err != nil {
		st.logger.Error("更新班次失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return err
	}
	return nil
}

// delete 删除班次并级联删除其指派
func (st *shiftStore) delete(ctx context.Context, shiftID, callerID string) error {
	if err := st.repo.Shift.Delete(ctx, shiftID, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		st.logger.Error("删除班次失败", zap.String("shift_id", shiftID), zap.Error(err))
		return err
	}
	return nil
}

// ── 载荷处理 ──

// normalizePayload 统一时间格式并校验日期
func normalizePayload(p *model.ShiftPayload) error {
	if p.ShiftDate != nil {
		if _, err := parseDate("shift_date", *p.ShiftDate); err != nil {
			return err
		}
	}
	if p.StartTime != nil {
		v, err := timeofday.Normalize(*p.StartTime)
		if err != nil {
			return newValidationError("start_time", reasonBadTime)
		}
		p.StartTime = &v
	}
	if p.EndTime != nil {
		v, err := timeofday.Normalize(*p.EndTime)
		if err != nil {
			return newValidationError("end_time", reasonBadTime)
		}
		p.EndTime = &v
	}
	if p.RequiredCount != nil && *p.RequiredCount < 0 {
		return newValidationError("required_count", "需求人数不能为负")
	}
	if p.RoleName != nil && *p.RoleName == "" {
		return newValidationError("role_name", "岗位不能为空")
	}
	if p.Breaks != nil {
		breaks := make([]model.ShiftBreak, 0, len(*p.Breaks))
		for _, b := range *p.Breaks {
			bs, err1 := timeofday.Normalize(b.Start)
			be, err2 := timeofday.Normalize(b.End)
			if err1 != nil || err2 != nil {
				return newValidationError("breaks", reasonBadTime)
			}
			breaks = append(breaks, model.ShiftBreak{Start: bs, End: be})
		}
		p.Breaks = &breaks
	}
	return nil
}

// shiftFromPayload 由新增载荷构造班次，缺少必填字段返回校验错误
func shiftFromPayload(p model.ShiftPayload, companyID string) (*model.Shift, error) {
	required := []struct {
		field string
		value *string
	}{
		{"location_id", p.LocationID},
		{"shift_date", p.ShiftDate},
		{"start_time", p.StartTime},
		{"end_time", p.EndTime},
		{"role_name", p.RoleName},
	}
	for _, r := range required {
		if r.value == nil || *r.value == "" {
			return nil, newValidationError(r.field, "必填字段缺失")
		}
	}

	shift := &model.Shift{CompanyID: companyID, RequiredCount: 1}
	if err := p.ApplyTo(shift); err != nil {
		return nil, newValidationError("shift_date", "日期格式无效")
	}
	return shift, nil
}

// snapshotFromShift 生成新增载荷（附带员工列表）
func snapshotFromShift(shift *model.Shift, employeeIDs []string) model.ShiftPayload {
	p := model.SnapshotShift(shift)
	p.EmployeeIDs = uniqueStrings(employeeIDs)
	return p
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
