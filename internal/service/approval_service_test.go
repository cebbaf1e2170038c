package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
)

// seedApprovals 在已锁定的一周内准备三类待办各一条，另在下一周放一条待审批指派
func seedApprovals(t *testing.T, svc *Service, store *memStore) (*model.SchedulePeriod, *model.ShiftAssignment) {
	t.Helper()
	period := store.lockWeek("2026-03-02")
	shift := store.addShift("2026-03-03", "09:00:00", "12:00:00", 2, true)
	pending := store.addAssignment(shift.ShiftID, testEmpA, model.AssignmentPending)
	store.addAssignment(shift.ShiftID, testEmpB, model.AssignmentApproved)

	next := store.addShift("2026-03-10", "09:00:00", "12:00:00", 1, true)
	store.addAssignment(next.ShiftID, testEmpB, model.AssignmentPending)

	submitEdit(t, svc, shift.ShiftID, model.ShiftPayload{EndTime: strPtr("13:00")})

	sid := shift.ShiftID
	store.exceptions["exc-seed"] = &model.WorkforceException{
		ExceptionID:   "exc-seed",
		CompanyID:     testCompany,
		LocationID:    testLocation,
		EmployeeID:    testEmpB,
		ShiftID:       &sid,
		WorkDate:      time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		ExceptionType: model.ExceptionLateStart,
		Status:        model.ExceptionPending,
	}
	return period, pending
}

func TestApprovalQueueService_Get(t *testing.T) {
	svc, store := setupTestServices()
	ctx := context.Background()
	period, _ := seedApprovals(t, svc, store)

	all, err := svc.Approval.Get(ctx, &dto.ApprovalQueueRequest{LocationID: testLocation}, managerCaller)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if len(all.Assignments) != 2 || len(all.ChangeRequests) != 1 || len(all.Exceptions) != 1 || all.Total != 4 {
		t.Errorf("期望 2 指派 / 1 变更 / 1 异常，实际=%d/%d/%d total=%d",
			len(all.Assignments), len(all.ChangeRequests), len(all.Exceptions), all.Total)
	}

	scoped, err := svc.Approval.Get(ctx, &dto.ApprovalQueueRequest{PeriodID: period.PeriodID}, managerCaller)
	if err != nil {
		t.Fatalf("按周期 Get 应成功: %v", err)
	}
	if len(scoped.Assignments) != 1 || scoped.Total != 3 {
		t.Errorf("按周期筛选应排除下一周的指派，实际 assignments=%d total=%d", len(scoped.Assignments), scoped.Total)
	}
}

func TestApprovalQueueService_Get_PeriodScope(t *testing.T) {
	svc, store := setupTestServices()
	ctx := context.Background()
	period, _ := seedApprovals(t, svc, store)

	if _, err := svc.Approval.Get(ctx, &dto.ApprovalQueueRequest{PeriodID: "missing"}, managerCaller); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("期望 ErrPeriodNotFound，实际: %v", err)
	}

	outsider := Caller{UserID: "mgr-x", Role: model.RoleManager, CompanyID: "company-2"}
	if _, err := svc.Approval.Get(ctx, &dto.ApprovalQueueRequest{PeriodID: period.PeriodID}, outsider); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("其他公司周期应返回 ErrPeriodNotFound，实际: %v", err)
	}

	_, err := svc.Approval.Get(ctx, &dto.ApprovalQueueRequest{PeriodID: period.PeriodID, LocationID: "loc-other"}, managerCaller)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("门店与周期不匹配应返回 ErrValidation，实际: %v", err)
	}
}

func TestApprovalQueueService_Resolve(t *testing.T) {
	svc, store := setupTestServices()
	ctx := context.Background()
	_, pending := seedApprovals(t, svc, store)

	result, err := svc.Approval.Resolve(ctx, &dto.ApprovalActionRequest{
		Kind:   dto.ApprovalKindAssignment,
		ID:     pending.AssignmentID,
		Action: "approve",
	}, managerCaller)
	if err != nil {
		t.Fatalf("审批指派应成功: %v", err)
	}
	if resp, ok := result.(*dto.AssignmentResponse); !ok || resp.Status != model.AssignmentApproved {
		t.Errorf("期望返回已批准的指派，实际=%+v", result)
	}

	if _, err := svc.Approval.Resolve(ctx, &dto.ApprovalActionRequest{
		Kind:   dto.ApprovalKindException,
		ID:     "exc-seed",
		Action: model.ExceptionResolved,
		Note:   "已沟通",
	}, managerCaller); err != nil {
		t.Fatalf("处理考勤异常应成功: %v", err)
	}
	if store.exceptions["exc-seed"].Status != model.ExceptionResolved {
		t.Error("考勤异常状态应为 resolved")
	}

	_, err = svc.Approval.Resolve(ctx, &dto.ApprovalActionRequest{
		Kind:   dto.ApprovalKindChangeRequest,
		ID:     "any",
		Action: "reject",
	}, managerCaller)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("变更申请不支持 reject，期望 ErrValidation，实际: %v", err)
	}

	queue, err := svc.Approval.Get(ctx, &dto.ApprovalQueueRequest{}, managerCaller)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if queue.Total != 2 {
		t.Errorf("处理后剩余 1 指派 + 1 变更，实际 total=%d", queue.Total)
	}
}
