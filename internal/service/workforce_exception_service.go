package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shiftgov/config"
	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	pkgerrors "shiftgov/pkg/errors"
	"shiftgov/pkg/timeofday"
)

// ── 考勤异常模块业务错误 ──

var (
	ErrExceptionNotFound = errors.New("考勤异常不存在")
	ErrExceptionResolved = invalidState("考勤异常已处理")
	ErrAlreadyClockedIn  = invalidState("员工已上班打卡，请先下班打卡")
	ErrNotClockedIn      = invalidState("员工未上班打卡")
	ErrRecordForOthers   = fmt.Errorf("%w: 员工只能为自己打卡", ErrForbidden)
)

// WorkforceExceptionService 考勤记录与异常业务接口
type WorkforceExceptionService interface {
	List(ctx context.Context, req *dto.ExceptionListRequest, caller Caller) ([]dto.ExceptionResponse, error)
	Resolve(ctx context.Context, id string, req *dto.ResolveExceptionRequest, caller Caller) (*dto.ExceptionResponse, error)
	RecordAttendance(ctx context.Context, req *dto.RecordAttendanceRequest, caller Caller) (*dto.AttendanceResponse, error)
	// 检测单个（或调用方公司全部）门店某日的异常
	Scan(ctx context.Context, req *dto.ExceptionScanRequest, caller Caller) (*dto.ExceptionScanResponse, error)
	// 定时任务：检测全部营业中门店
	ScanAll(ctx context.Context, date time.Time) (*dto.ExceptionScanResponse, error)
}

type workforceExceptionService struct {
	repo     *repository.Repository
	detector *exceptionDetector
	tz       *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewWorkforceExceptionService 创建 WorkforceExceptionService 实例
func NewWorkforceExceptionService(repo *repository.Repository, cfg config.AttendanceConfig, tz *time.Location, logger *zap.Logger) WorkforceExceptionService {
	if tz == nil {
		tz = time.UTC
	}
	return &workforceExceptionService{
		repo:     repo,
		detector: &exceptionDetector{cfg: cfg, tz: tz},
		tz:       tz,
		now:      time.Now,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// List / Resolve
// ════════════════════════════════════════════════════════════

func (s *workforceExceptionService) List(ctx context.Context, req *dto.ExceptionListRequest, caller Caller) ([]dto.ExceptionResponse, error) {
	filter := repository.ExceptionFilter{
		CompanyID:  caller.CompanyID,
		LocationID: req.LocationID,
		Status:     req.Status,
	}
	if req.From != "" {
		from, err := parseDate("from", req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseDate("to", req.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	list, err := s.repo.Exception.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询考勤异常失败", zap.Error(err))
		return nil, err
	}
	items := make([]dto.ExceptionResponse, 0, len(list))
	for i := range list {
		items = append(items, toExceptionResponse(&list[i]))
	}
	return items, nil
}

// Resolve 处理待处理异常，终态不可再次处理
func (s *workforceExceptionService) Resolve(ctx context.Context, id string, req *dto.ResolveExceptionRequest, caller Caller) (*dto.ExceptionResponse, error) {
	switch req.Status {
	case model.ExceptionApproved, model.ExceptionDenied, model.ExceptionResolved:
	default:
		return nil, newValidationError("status", "处理结果无效")
	}

	e, err := s.repo.Exception.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExceptionNotFound
		}
		s.logger.Error("查询考勤异常失败", zap.String("exception_id", id), zap.Error(err))
		return nil, err
	}
	if e.CompanyID != caller.CompanyID {
		return nil, ErrExceptionNotFound
	}
	if e.Status != model.ExceptionPending {
		return nil, ErrExceptionResolved
	}

	now := s.now()
	e.Status = req.Status
	e.ResolvedBy = &caller.UserID
	e.ResolvedAt = &now
	e.ResolutionNote = req.Note
	e.UpdatedBy = &caller.UserID

	if err := s.repo.Exception.Resolve(ctx, e); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrExceptionResolved
		}
		s.logger.Error("处理考勤异常失败", zap.String("exception_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("考勤异常已处理",
		zap.String("exception_id", id),
		zap.String("status", e.Status),
		zap.String("operator", caller.UserID),
	)
	resp := toExceptionResponse(e)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// RecordAttendance 打卡
// ════════════════════════════════════════════════════════════

func (s *workforceExceptionService) RecordAttendance(ctx context.Context, req *dto.RecordAttendanceRequest, caller Caller) (*dto.AttendanceResponse, error) {
	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = caller.UserID
	}
	if employeeID != caller.UserID && !model.IsManagerRole(caller.Role) {
		return nil, ErrRecordForOthers
	}
	if _, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller); err != nil {
		return nil, err
	}

	at := s.now()
	if req.At != nil {
		t, err := time.Parse(time.RFC3339, *req.At)
		if err != nil {
			return nil, newValidationError("at", "时间格式无效")
		}
		at = t
	}

	open, err := s.repo.Attendance.GetOpen(ctx, employeeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询打卡记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		open = nil
	}

	switch req.Action {
	case "clock_in":
		if open != nil {
			return nil, ErrAlreadyClockedIn
		}
		local := at.In(s.tz)
		workDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

		shiftID := req.ShiftID
		if shiftID == nil {
			shiftID, err = s.matchShift(ctx, employeeID, req.LocationID, workDate, at)
			if err != nil {
				return nil, err
			}
		}

		log := &model.AttendanceLog{
			EmployeeID: employeeID,
			LocationID: req.LocationID,
			ShiftID:    shiftID,
			WorkDate:   workDate,
			ClockIn:    at,
		}
		log.CreatedBy = &caller.UserID
		log.UpdatedBy = &caller.UserID
		if err := s.repo.Attendance.Create(ctx, log); err != nil {
			s.logger.Error("创建打卡记录失败", zap.String("employee_id", employeeID), zap.Error(err))
			return nil, err
		}
		resp := toAttendanceResponse(log)
		return &resp, nil

	case "clock_out":
		if open == nil {
			return nil, ErrNotClockedIn
		}
		if at.Before(open.ClockIn) {
			return nil, newValidationError("at", "下班时间不能早于上班时间")
		}
		open.ClockOut = &at
		open.UpdatedBy = &caller.UserID
		if err := s.repo.Attendance.CloseOut(ctx, open); err != nil {
			s.logger.Error("下班打卡失败", zap.String("attendance_log_id", open.AttendanceLogID), zap.Error(err))
			return nil, err
		}
		resp := toAttendanceResponse(open)
		return &resp, nil
	}
	return nil, newValidationError("action", "打卡动作无效")
}

// matchShift 为未指定班次的打卡匹配当天该门店开始时间最接近的已批准班次
func (s *workforceExceptionService) matchShift(ctx context.Context, employeeID, locationID string, workDate, at time.Time) (*string, error) {
	assignments, err := s.repo.Assignment.ListByEmployee(ctx, employeeID, workDate, workDate,
		[]string{model.AssignmentApproved})
	if err != nil {
		s.logger.Error("查询员工指派失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	var (
		best     *string
		bestDiff time.Duration = math.MaxInt64
	)
	for _, a := range assignments {
		if a.Shift == nil || a.Shift.LocationID != locationID {
			continue
		}
		start, _, err := timeofday.Window(a.Shift.ShiftDate, a.Shift.StartTime, a.Shift.EndTime, s.tz)
		if err != nil {
			continue
		}
		diff := at.Sub(start)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			id := a.ShiftID
			best, bestDiff = &id, diff
		}
	}
	return best, nil
}

// ════════════════════════════════════════════════════════════
// Scan 考勤异常检测
// ════════════════════════════════════════════════════════════

func (s *workforceExceptionService) Scan(ctx context.Context, req *dto.ExceptionScanRequest, caller Caller) (*dto.ExceptionScanResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	var locations []model.Location
	if req.LocationID != "" {
		loc, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller)
		if err != nil {
			return nil, err
		}
		locations = []model.Location{*loc}
	} else {
		locations, err = s.repo.Location.List(ctx, caller.CompanyID, false)
		if err != nil {
			s.logger.Error("查询门店失败", zap.Error(err))
			return nil, err
		}
	}
	return s.scanLocations(ctx, locations, date)
}

func (s *workforceExceptionService) ScanAll(ctx context.Context, date time.Time) (*dto.ExceptionScanResponse, error) {
	locations, err := s.repo.Location.ListAllActive(ctx)
	if err != nil {
		s.logger.Error("查询门店失败", zap.Error(err))
		return nil, err
	}
	return s.scanLocations(ctx, locations, date)
}

func (s *workforceExceptionService) scanLocations(ctx context.Context, locations []model.Location, date time.Time) (*dto.ExceptionScanResponse, error) {
	resp := &dto.ExceptionScanResponse{
		Date:      formatDate(date),
		Locations: len(locations),
		ByType:    map[string]int{},
	}
	for i := range locations {
		created, err := s.scanLocation(ctx, &locations[i], date)
		if err != nil {
			return nil, err
		}
		for _, e := range created {
			resp.Created++
			resp.ByType[e.ExceptionType]++
		}
	}

	s.logger.Info("考勤异常检测完成",
		zap.String("date", resp.Date),
		zap.Int("locations", resp.Locations),
		zap.Int("created", resp.Created),
	)
	return resp, nil
}

// scanLocation 检测单个门店，已存在的同类异常不重复创建
func (s *workforceExceptionService) scanLocation(ctx context.Context, loc *model.Location, date time.Time) ([]model.WorkforceException, error) {
	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		CompanyID:     loc.CompanyID,
		LocationID:    loc.LocationID,
		From:          date,
		To:            date,
		OnlyPublished: true,
	})
	if err != nil {
		s.logger.Error("查询班次失败", zap.String("location_id", loc.LocationID), zap.Error(err))
		return nil, err
	}
	logs, err := s.repo.Attendance.ListByLocationDate(ctx, loc.LocationID, date)
	if err != nil {
		s.logger.Error("查询打卡记录失败", zap.String("location_id", loc.LocationID), zap.Error(err))
		return nil, err
	}

	candidates := s.detector.detect(date, shifts, logs, s.now())

	var created []model.WorkforceException
	for i := range candidates {
		e := &candidates[i]
		exists, err := s.repo.Exception.Exists(ctx, e.EmployeeID, e.ShiftID, e.ExceptionType, e.WorkDate)
		if err != nil {
			s.logger.Error("查询已有异常失败", zap.String("employee_id", e.EmployeeID), zap.Error(err))
			return nil, err
		}
		if exists {
			continue
		}
		e.CompanyID = loc.CompanyID
		e.LocationID = loc.LocationID
		e.Status = model.ExceptionPending
		e.DetectedAt = s.now()
		if err := s.repo.Exception.Create(ctx, e); err != nil {
			s.logger.Error("创建考勤异常失败", zap.String("employee_id", e.EmployeeID), zap.Error(err))
			return nil, err
		}
		created = append(created, *e)
	}
	return created, nil
}

// ── 异常判定 ──

// exceptionDetector 根据已发布班次与打卡记录判定异常（纯函数，不访问存储）
type exceptionDetector struct {
	cfg config.AttendanceConfig
	tz  *time.Location
}

func (d *exceptionDetector) detect(date time.Time, shifts []model.Shift, logs []model.AttendanceLog, now time.Time) []model.WorkforceException {
	var out []model.WorkforceException
	add := func(employeeID string, shiftID *string, typ string, meta map[string]interface{}) {
		out = append(out, model.WorkforceException{
			EmployeeID:    employeeID,
			ShiftID:       shiftID,
			WorkDate:      date,
			ExceptionType: typ,
			Metadata:      datatypes.JSONMap(meta),
		})
	}

	late := time.Duration(d.cfg.LateGraceMinutes) * time.Minute
	early := time.Duration(d.cfg.EarlyGraceMinutes) * time.Minute
	extend := time.Duration(d.cfg.ExtendGraceMinutes) * time.Minute

	scheduled := map[string]bool{} // 班次/员工
	for i := range shifts {
		shift := &shifts[i]
		start, end, err := timeofday.Window(shift.ShiftDate, shift.StartTime, shift.EndTime, d.tz)
		if err != nil {
			continue
		}
		for _, a := range shift.Assignments {
			if a.Status != model.AssignmentApproved {
				continue
			}
			scheduled[shift.ShiftID+"/"+a.EmployeeID] = true
			shiftID := shift.ShiftID

			log := findLog(logs, shift.ShiftID, a.EmployeeID)
			if log == nil {
				if end.Before(now) {
					add(a.EmployeeID, &shiftID, model.ExceptionNoShow, nil)
				}
				continue
			}
			if log.ClockIn.After(start.Add(late)) {
				add(a.EmployeeID, &shiftID, model.ExceptionLateStart, map[string]interface{}{
					"minutes_late": minutesBetween(start, log.ClockIn),
				})
			}
			if log.ClockOut == nil {
				continue
			}
			if log.ClockOut.Before(end.Add(-early)) {
				add(a.EmployeeID, &shiftID, model.ExceptionEarlyLeave, map[string]interface{}{
					"minutes_early": minutesBetween(*log.ClockOut, end),
				})
			}
			if log.ClockOut.After(end.Add(extend)) {
				add(a.EmployeeID, &shiftID, model.ExceptionShiftExtended, map[string]interface{}{
					"minutes_extended": minutesBetween(end, *log.ClockOut),
				})
			}
		}
	}

	worked := map[string]time.Duration{}
	var order []string
	for i := range logs {
		l := &logs[i]
		if l.ShiftID == nil || !scheduled[*l.ShiftID+"/"+l.EmployeeID] {
			if !scheduledAny(scheduled, shifts, l.EmployeeID) {
				add(l.EmployeeID, l.ShiftID, model.ExceptionUnscheduledClockIn, map[string]interface{}{
					"clock_in": formatTime(l.ClockIn),
				})
			}
		}
		if l.ClockOut != nil {
			if _, ok := worked[l.EmployeeID]; !ok {
				order = append(order, l.EmployeeID)
			}
			worked[l.EmployeeID] += l.ClockOut.Sub(l.ClockIn)
		}
	}

	threshold := time.Duration(d.cfg.OvertimeDailyHours * float64(time.Hour))
	for _, emp := range order {
		if threshold > 0 && worked[emp] > threshold {
			add(emp, nil, model.ExceptionOvertime, map[string]interface{}{
				"worked_hours": round2(worked[emp].Hours()),
			})
		}
	}
	return out
}

// findLog 班次上的打卡记录；未关联班次的记录按员工兜底匹配
func findLog(logs []model.AttendanceLog, shiftID, employeeID string) *model.AttendanceLog {
	var fallback *model.AttendanceLog
	for i := range logs {
		l := &logs[i]
		if l.EmployeeID != employeeID {
			continue
		}
		if l.ShiftID != nil && *l.ShiftID == shiftID {
			return l
		}
		if l.ShiftID == nil && fallback == nil {
			fallback = l
		}
	}
	return fallback
}

func scheduledAny(scheduled map[string]bool, shifts []model.Shift, employeeID string) bool {
	for _, sh := range shifts {
		if scheduled[sh.ShiftID+"/"+employeeID] {
			return true
		}
	}
	return false
}

func minutesBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Minutes()))
}
