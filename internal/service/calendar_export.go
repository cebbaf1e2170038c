package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/pkg/timeofday"
)

// maxCalendarDays 日历导出的最大日期跨度
const maxCalendarDays = 92

// ErrCalendarForOthers 员工只能导出自己的日历
var ErrCalendarForOthers = fmt.Errorf("%w: 员工只能导出自己的排班日历", ErrForbidden)

// ═══════════════════════════════════════════════════════════
// EmployeeCalendar 导出员工排班日历（iCalendar）
// ═══════════════════════════════════════════════════════════

func (s *exportService) EmployeeCalendar(ctx context.Context, req *dto.CalendarExportRequest, caller Caller) (string, string, error) {
	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = caller.UserID
	}
	if employeeID != caller.UserID && !model.IsManagerRole(caller.Role) {
		return "", "", ErrCalendarForOthers
	}

	from, err := parseDate("from", req.From)
	if err != nil {
		return "", "", err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return "", "", err
	}
	if to.Before(from) {
		return "", "", newValidationError("to", "结束日期不能早于开始日期")
	}
	if to.Sub(from) > maxCalendarDays*24*time.Hour {
		return "", "", newValidationError("to", fmt.Sprintf("导出跨度不能超过 %d 天", maxCalendarDays))
	}

	assignments, err := s.repo.Assignment.ListByEmployee(ctx, employeeID, from, to, []string{model.AssignmentApproved})
	if err != nil {
		s.logger.Error("查询员工指派失败", zap.String("employee_id", employeeID), zap.Error(err))
		return "", "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//shiftgov//schedule//ZH")
	cal.SetXWRCalName("我的排班")

	locationNames := map[string]string{}
	now := time.Now().UTC()
	for _, a := range assignments {
		sh := a.Shift
		if sh == nil || !sh.IsPublished || sh.CompanyID != caller.CompanyID {
			continue
		}
		start, end, err := timeofday.Window(sh.ShiftDate, sh.StartTime, sh.EndTime, s.tz)
		if err != nil {
			continue
		}

		name, ok := locationNames[sh.LocationID]
		if !ok {
			if loc, err := findLocation(ctx, s.repo, sh.LocationID); err == nil {
				name = loc.Name
			}
			locationNames[sh.LocationID] = name
		}

		event := cal.AddEvent(sh.ShiftID + "@shiftgov")
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(sh.RoleName)
		if name != "" {
			event.SetLocation(name)
		}
		if sh.Notes != "" {
			event.SetDescription(sh.Notes)
		}
	}

	filename := fmt.Sprintf("shifts_%s_%s.ics", formatDate(from), formatDate(to))
	return cal.Serialize(), filename, nil
}
