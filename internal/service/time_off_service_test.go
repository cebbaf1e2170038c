package service

import (
	"context"
	"errors"
	"testing"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
)

func timeOffReq(employeeID, start, end string) *dto.CreateTimeOffRequest {
	return &dto.CreateTimeOffRequest{
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Type:       "vacation",
	}
}

func TestTimeOffService_Create(t *testing.T) {
	svc, store := setupTestServices()
	ctx := context.Background()

	resp, err := svc.TimeOff.Create(ctx, timeOffReq("", "2099-05-01", "2099-05-03"), employeeCaller)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.EmployeeID != testEmpA || resp.Status != model.TimeOffPending {
		t.Errorf("空员工 ID 应为本人且待审批，实际=%+v", resp)
	}
	if len(store.timeOff) != 1 {
		t.Errorf("期望存储 1 条请假，实际=%d", len(store.timeOff))
	}

	if _, err := svc.TimeOff.Create(ctx, timeOffReq(testEmpB, "2099-05-01", "2099-05-01"), employeeCaller); !errors.Is(err, ErrForbidden) {
		t.Errorf("员工替他人请假应返回 ErrForbidden，实际: %v", err)
	}
	if _, err := svc.TimeOff.Create(ctx, timeOffReq(testEmpB, "2099-05-01", "2099-05-01"), managerCaller); err != nil {
		t.Errorf("经理代提交应成功: %v", err)
	}
}

func TestTimeOffService_Create_Validation(t *testing.T) {
	svc, _ := setupTestServices()
	ctx := context.Background()

	_, err := svc.TimeOff.Create(ctx, timeOffReq("", "2099-05-03", "2099-05-01"), employeeCaller)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "end_date" {
		t.Errorf("结束早于开始应返回 end_date 校验错误，实际: %v", err)
	}

	if _, err := svc.TimeOff.Create(ctx, timeOffReq("", "2099/05/01", "2099-05-01"), employeeCaller); !errors.Is(err, ErrValidation) {
		t.Errorf("日期格式错误应返回 ErrValidation，实际: %v", err)
	}

	outsider := Caller{UserID: "mgr-x", Role: model.RoleManager, CompanyID: "company-2"}
	if _, err := svc.TimeOff.Create(ctx, timeOffReq(testEmpA, "2099-05-01", "2099-05-01"), outsider); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("其他公司员工应返回 ErrEmployeeNotFound，实际: %v", err)
	}
}

func TestTimeOffService_ApproveAndReject(t *testing.T) {
	svc, store := setupTestServices()
	ctx := context.Background()

	created, err := svc.TimeOff.Create(ctx, timeOffReq("", "2099-05-01", "2099-05-02"), employeeCaller)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	approved, err := svc.TimeOff.Approve(ctx, created.ID, managerCaller)
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if approved.Status != model.TimeOffApproved || approved.DecidedBy == nil || *approved.DecidedBy != testManager {
		t.Errorf("审批结果不符，实际=%+v", approved)
	}
	if store.timeOff[created.ID].Status != model.TimeOffApproved {
		t.Error("存储中的状态应已更新")
	}

	if _, err := svc.TimeOff.Reject(ctx, created.ID, managerCaller); !errors.Is(err, ErrTimeOffDecided) {
		t.Errorf("重复审批应返回 ErrTimeOffDecided，实际: %v", err)
	}
	if _, err := svc.TimeOff.Approve(ctx, "missing", managerCaller); !errors.Is(err, ErrTimeOffNotFound) {
		t.Errorf("期望 ErrTimeOffNotFound，实际: %v", err)
	}
}

func TestTimeOffService_List_Scope(t *testing.T) {
	svc, _ := setupTestServices()
	ctx := context.Background()

	if _, err := svc.TimeOff.Create(ctx, timeOffReq("", "2099-05-01", "2099-05-01"), employeeCaller); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if _, err := svc.TimeOff.Create(ctx, timeOffReq(testEmpB, "2099-06-01", "2099-06-02"), managerCaller); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	mine, err := svc.TimeOff.List(ctx, &dto.TimeOffListRequest{EmployeeID: testEmpB}, employeeCaller)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(mine) != 1 || mine[0].EmployeeID != testEmpA {
		t.Errorf("员工只能看到自己的请假，实际=%+v", mine)
	}

	all, err := svc.TimeOff.List(ctx, &dto.TimeOffListRequest{}, managerCaller)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("经理默认看到全公司请假，期望 2，实际=%d", len(all))
	}

	june := &dto.TimeOffListRequest{}
	june.From = "2099-06-01"
	june.To = "2099-06-30"
	ranged, err := svc.TimeOff.List(ctx, june, managerCaller)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(ranged) != 1 || ranged[0].EmployeeID != testEmpB {
		t.Errorf("按日期筛选期望只剩李四，实际=%+v", ranged)
	}
}
