package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
)

func TestExportService_ExportWeek(t *testing.T) {
	svc, store := setupTestServices()
	ctx := context.Background()
	monday := store.addShift("2026-03-02", "09:00:00", "17:00:00", 2, true)
	store.addAssignment(monday.ShiftID, testEmpA, model.AssignmentApproved)
	store.addAssignment(monday.ShiftID, testEmpB, model.AssignmentPending)
	store.addShift("2026-03-03", "10:00:00", "14:00:00", 1, false)

	buf, filename, err := svc.Export.ExportWeek(ctx, &dto.ExportWeekRequest{
		LocationID: testLocation,
		Date:       "2026-03-04",
	}, managerCaller)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "排班_总店_2026-03-02.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法解析导出文件: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "排班" || sheets[1] != "人工成本" {
		t.Fatalf("Sheet 不符: %v", sheets)
	}

	cases := map[string]string{
		"A3": "2026-03-02",
		"B3": "周一",
		"C3": "09:00",
		"H3": "张三、李四(待审批)",
		"I3": "已发布",
		"A4": "2026-03-03",
		"H4": "-",
		"I4": "未发布",
	}
	for axis, want := range cases {
		got, _ := f.GetCellValue("排班", axis)
		if got != want {
			t.Errorf("排班!%s 期望 %q，实际 %q", axis, want, got)
		}
	}

	// 7 天 + 合计
	if got, _ := f.GetCellValue("人工成本", "A9"); got != "合计" {
		t.Errorf("合计行位置不符: %q", got)
	}
	hours, _ := f.GetCellValue("人工成本", "B2")
	if v, err := strconv.ParseFloat(hours, 64); err != nil || v != 8 {
		t.Errorf("周一工时期望 8，实际 %q", hours)
	}
}

func TestExportService_ExportWeek_OtherCompany(t *testing.T) {
	svc, _ := setupTestServices()
	other := Caller{UserID: "mgr-x", Role: model.RoleManager, CompanyID: "company-2"}

	_, _, err := svc.Export.ExportWeek(context.Background(), &dto.ExportWeekRequest{
		LocationID: testLocation,
		Date:       "2026-03-02",
	}, other)
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("期望 ErrLocationNotFound，实际 %v", err)
	}
}

func TestExportService_EmployeeCalendar(t *testing.T) {
	svc, store := setupTestServices()
	ctx := context.Background()

	published := store.addShift("2026-03-02", "09:00:00", "17:00:00", 1, true)
	store.addAssignment(published.ShiftID, testEmpA, model.AssignmentApproved)
	draft := store.addShift("2026-03-03", "09:00:00", "17:00:00", 1, false)
	store.addAssignment(draft.ShiftID, testEmpA, model.AssignmentApproved)
	pending := store.addShift("2026-03-04", "09:00:00", "17:00:00", 1, true)
	store.addAssignment(pending.ShiftID, testEmpA, model.AssignmentPending)

	t.Run("仅包含已发布班次上的已批准指派", func(t *testing.T) {
		cal, filename, err := svc.Export.EmployeeCalendar(ctx, &dto.CalendarExportRequest{
			From: "2026-03-01",
			To:   "2026-03-31",
		}, employeeCaller)
		if err != nil {
			t.Fatalf("导出日历失败: %v", err)
		}
		if filename != "shifts_2026-03-01_2026-03-31.ics" {
			t.Errorf("文件名不符: %s", filename)
		}
		if n := strings.Count(cal, "BEGIN:VEVENT"); n != 1 {
			t.Fatalf("期望 1 个事件，实际 %d", n)
		}
		if !strings.Contains(cal, published.ShiftID+"@shiftgov") {
			t.Error("事件 UID 应包含班次 ID")
		}
		if !strings.Contains(cal, "SUMMARY:cashier") {
			t.Error("事件标题应为岗位名")
		}
		if !strings.Contains(cal, "LOCATION:总店") {
			t.Error("事件地点应为门店名")
		}
	})

	t.Run("员工不能导出他人日历", func(t *testing.T) {
		_, _, err := svc.Export.EmployeeCalendar(ctx, &dto.CalendarExportRequest{
			EmployeeID: testEmpB,
			From:       "2026-03-01",
			To:         "2026-03-31",
		}, employeeCaller)
		if !errors.Is(err, ErrCalendarForOthers) || !errors.Is(err, ErrForbidden) {
			t.Errorf("期望 ErrCalendarForOthers，实际 %v", err)
		}
	})

	t.Run("经理可导出员工日历", func(t *testing.T) {
		cal, _, err := svc.Export.EmployeeCalendar(ctx, &dto.CalendarExportRequest{
			EmployeeID: testEmpA,
			From:       "2026-03-01",
			To:         "2026-03-07",
		}, managerCaller)
		if err != nil {
			t.Fatalf("导出日历失败: %v", err)
		}
		if !strings.Contains(cal, "BEGIN:VEVENT") {
			t.Error("期望包含事件")
		}
	})

	t.Run("跨度过长", func(t *testing.T) {
		_, _, err := svc.Export.EmployeeCalendar(ctx, &dto.CalendarExportRequest{
			From: "2026-01-01",
			To:   "2026-06-30",
		}, employeeCaller)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("期望 ErrValidation，实际 %v", err)
		}
	})

	t.Run("结束早于开始", func(t *testing.T) {
		_, _, err := svc.Export.EmployeeCalendar(ctx, &dto.CalendarExportRequest{
			From: "2026-03-10",
			To:   "2026-03-01",
		}, employeeCaller)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "to" {
			t.Errorf("期望 to 字段校验错误，实际 %v", err)
		}
	})
}
