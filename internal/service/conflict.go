package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	"shiftgov/pkg/timeofday"
)

// ConflictResult 员工当日已有的一个班次
// 只要存在即表示“当天已有班”；HasOverlap 仅在给出拟排时间时计算
type ConflictResult struct {
	Shift      model.Shift
	Status     string
	HasOverlap bool
}

// conflictDetector 员工排班冲突检测（仅提示，不拦截）
type conflictDetector struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// find 汇总员工在 date 当天待审批与已批准的指派
// excludeShiftID 为正在编辑的班次，不与自身比较
func (d *conflictDetector) find(ctx context.Context, employeeID string, date time.Time, start, end, excludeShiftID string) ([]ConflictResult, error) {
	assignments, err := d.repo.Assignment.ListByEmployee(ctx, employeeID, date, date,
		[]string{model.AssignmentPending, model.AssignmentApproved})
	if err != nil {
		d.logger.Error("查询员工指派失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	var s, e string
	withRange := start != "" && end != ""
	if withRange {
		if s, err = timeofday.Normalize(start); err != nil {
			return nil, newValidationError("start", reasonBadTime)
		}
		if e, err = timeofday.Normalize(end); err != nil {
			return nil, newValidationError("end", reasonBadTime)
		}
	}

	results := make([]ConflictResult, 0, len(assignments))
	for _, a := range assignments {
		if a.Shift == nil || a.ShiftID == excludeShiftID {
			continue
		}
		r := ConflictResult{Shift: *a.Shift, Status: a.Status}
		if withRange {
			r.HasOverlap = timeofday.Overlaps(s, e,
				timeofday.MustNormalize(a.Shift.StartTime), timeofday.MustNormalize(a.Shift.EndTime))
		}
		results = append(results, r)
	}
	return results, nil
}

// warnings 为每个员工生成重叠提示
func (d *conflictDetector) warnings(ctx context.Context, employeeIDs []string, date time.Time, start, end, excludeShiftID string) ([]dto.Warning, error) {
	var out []dto.Warning
	for _, id := range employeeIDs {
		hits, err := d.find(ctx, id, date, start, end, excludeShiftID)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if !h.HasOverlap {
				continue
			}
			out = append(out, dto.Warning{
				Code:       dto.WarningEmployeeDoubleBooked,
				Message:    fmt.Sprintf("员工在 %s-%s 已有班次", h.Shift.StartTime, h.Shift.EndTime),
				ShiftID:    h.Shift.ShiftID,
				EmployeeID: id,
			})
		}
	}

	off, err := d.onTimeOff(ctx, employeeIDs, date, date)
	if err != nil {
		return nil, err
	}
	for _, id := range employeeIDs {
		if off[id] {
			out = append(out, dto.Warning{
				Code:       dto.WarningEmployeeOnTimeOff,
				Message:    "员工当天已批准请假",
				EmployeeID: id,
			})
		}
	}
	return out, nil
}

// onTimeOff 返回在区间内有已批准请假的员工集合（按日精确判断由调用方完成）
func (d *conflictDetector) onTimeOff(ctx context.Context, employeeIDs []string, from, to time.Time) (map[string]bool, error) {
	out := map[string]bool{}
	if len(employeeIDs) == 0 {
		return out, nil
	}
	list, err := d.approvedTimeOff(ctx, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].EmployeeID] = true
	}
	return out, nil
}

func (d *conflictDetector) approvedTimeOff(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.TimeOffRequest, error) {
	list, err := d.repo.TimeOff.List(ctx, repository.TimeOffFilter{
		EmployeeIDs: employeeIDs,
		Status:      model.TimeOffApproved,
		From:        &from,
		To:          &to,
	})
	if err != nil {
		d.logger.Error("查询请假记录失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}
