package service

import (
	"time"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/pkg/timeofday"
)

// ── 模型 → 响应 转换 ──

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// parseDate 解析 YYYY-MM-DD，失败返回字段级校验错误
func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, newValidationError(field, "日期格式无效")
	}
	return d, nil
}

func toEmployeeBrief(e *model.Employee) *dto.EmployeeBrief {
	if e == nil {
		return nil
	}
	return &dto.EmployeeBrief{
		ID:         e.EmployeeID,
		FullName:   e.FullName,
		Role:       e.Role,
		HourlyRate: e.HourlyRate,
	}
}

func toAssignmentResponse(a *model.ShiftAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:         a.AssignmentID,
		ShiftID:    a.ShiftID,
		EmployeeID: a.EmployeeID,
		Employee:   toEmployeeBrief(a.Employee),
		Status:     a.Status,
		DecidedBy:  a.DecidedBy,
		DecidedAt:  formatTimePtr(a.DecidedAt),
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

func breaksToDTO(breaks []model.ShiftBreak) []dto.ShiftBreakItem {
	if len(breaks) == 0 {
		return nil
	}
	out := make([]dto.ShiftBreakItem, 0, len(breaks))
	for _, b := range breaks {
		out = append(out, dto.ShiftBreakItem{Start: b.Start, End: b.End})
	}
	return out
}

func breaksToModel(items []dto.ShiftBreakItem) []model.ShiftBreak {
	out := make([]model.ShiftBreak, 0, len(items))
	for _, b := range items {
		out = append(out, model.ShiftBreak{
			Start: timeofday.MustNormalize(b.Start),
			End:   timeofday.MustNormalize(b.End),
		})
	}
	return out
}

// toShiftResponse 转换班次，assignments 为 nil 时使用班次自带的指派
func toShiftResponse(s *model.Shift, assignments []dto.AssignmentResponse) *dto.ShiftResponse {
	if assignments == nil {
		assignments = make([]dto.AssignmentResponse, 0, len(s.Assignments))
		for i := range s.Assignments {
			assignments = append(assignments, toAssignmentResponse(&s.Assignments[i]))
		}
	}
	hours, _ := timeofday.HoursBetween(s.StartTime, s.EndTime)
	return &dto.ShiftResponse{
		ID:            s.ShiftID,
		LocationID:    s.LocationID,
		ShiftDate:     formatDate(s.ShiftDate),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		RoleName:      s.RoleName,
		RequiredCount: s.RequiredCount,
		ApprovedCount: s.ApprovedCount(),
		IsOpenShift:   s.IsOpenShift,
		IsPublished:   s.IsPublished,
		IsCloseDuty:   s.IsCloseDuty,
		Notes:         s.Notes,
		Breaks:        breaksToDTO(s.Breaks),
		BreakMinutes:  s.BreakMinutes,
		Hours:         hours,
		Version:       s.Version,
		Assignments:   assignments,
		CreatedAt:     formatTime(s.CreatedAt),
		UpdatedAt:     formatTime(s.UpdatedAt),
	}
}

func toChangeRequestResponse(cr *model.ChangeRequest) *dto.ChangeRequestResponse {
	return &dto.ChangeRequestResponse{
		ID:              cr.ChangeRequestID,
		LocationID:      cr.LocationID,
		PeriodID:        cr.PeriodID,
		ChangeType:      cr.ChangeType,
		TargetShiftID:   cr.TargetShiftID,
		PayloadBefore:   cr.PayloadBefore.Data(),
		PayloadAfter:    cr.PayloadAfter.Data(),
		ReasonCode:      cr.ReasonCode,
		Note:            cr.Note,
		Status:          cr.Status,
		RequestedBy:     cr.RequestedBy,
		RequestedAt:     formatTime(cr.RequestedAt),
		ResolvedBy:      cr.ResolvedBy,
		ResolvedAt:      formatTimePtr(cr.ResolvedAt),
		ResolutionNote:  cr.ResolutionNote,
		AppliedShiftIDs: []string(cr.AppliedShiftIDs),
	}
}

func toPeriodResponse(p *model.SchedulePeriod) dto.PeriodResponse {
	resp := dto.PeriodResponse{
		ID:          p.PeriodID,
		LocationID:  p.LocationID,
		WeekStart:   formatDate(p.WeekStart),
		Status:      p.Status,
		PublishedAt: formatTimePtr(p.PublishedAt),
		LockedAt:    formatTimePtr(p.LockedAt),
		LockedBy:    p.LockedBy,
		Version:     p.Version,
	}
	if p.Location != nil {
		resp.LocationName = p.Location.Name
	}
	return resp
}

func toExceptionResponse(e *model.WorkforceException) dto.ExceptionResponse {
	return dto.ExceptionResponse{
		ID:             e.ExceptionID,
		LocationID:     e.LocationID,
		EmployeeID:     e.EmployeeID,
		Employee:       toEmployeeBrief(e.Employee),
		ShiftID:        e.ShiftID,
		WorkDate:       formatDate(e.WorkDate),
		ExceptionType:  e.ExceptionType,
		Status:         e.Status,
		DetectedAt:     formatTime(e.DetectedAt),
		Metadata:       map[string]interface{}(e.Metadata),
		ResolvedBy:     e.ResolvedBy,
		ResolvedAt:     formatTimePtr(e.ResolvedAt),
		ResolutionNote: e.ResolutionNote,
	}
}

func toTimeOffResponse(r *model.TimeOffRequest) dto.TimeOffResponse {
	return dto.TimeOffResponse{
		ID:         r.TimeOffRequestID,
		EmployeeID: r.EmployeeID,
		Employee:   toEmployeeBrief(r.Employee),
		StartDate:  formatDate(r.StartDate),
		EndDate:    formatDate(r.EndDate),
		Type:       r.Type,
		Reason:     r.Reason,
		Status:     r.Status,
		DecidedBy:  r.DecidedBy,
		DecidedAt:  formatTimePtr(r.DecidedAt),
		CreatedAt:  formatTime(r.CreatedAt),
	}
}

func toAttendanceResponse(l *model.AttendanceLog) dto.AttendanceResponse {
	return dto.AttendanceResponse{
		ID:         l.AttendanceLogID,
		EmployeeID: l.EmployeeID,
		LocationID: l.LocationID,
		ShiftID:    l.ShiftID,
		WorkDate:   formatDate(l.WorkDate),
		ClockIn:    formatTime(l.ClockIn),
		ClockOut:   formatTimePtr(l.ClockOut),
	}
}
