package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	pkgerrors "shiftgov/pkg/errors"
	"shiftgov/pkg/timeofday"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound        = errors.New("班次不存在")
	ErrAssignmentNotFound   = errors.New("指派不存在")
	ErrAssignmentNotPending = invalidState("指派不是待审批状态")
	ErrAlreadyAssigned      = errors.New("员工已在该班次上")
	ErrEmployeeNotFound     = errors.New("员工不存在")
	ErrClaimForOthers       = fmt.Errorf("%w: 员工只能为自己认领班次", ErrForbidden)
)

// maxListDays 周排班查询的最大日期跨度
const maxListDays = 31

// ShiftService 班次与指派业务接口
type ShiftService interface {
	// 查询
	ListWeek(ctx context.Context, req *dto.ShiftListRequest, caller Caller) ([]dto.ShiftResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.ShiftResponse, error)
	ListAssignments(ctx context.Context, shiftID string, caller Caller) ([]dto.AssignmentResponse, error)
	FindConflicts(ctx context.Context, req *dto.ConflictQueryRequest, caller Caller) ([]dto.ConflictResponse, error)
	ListCandidates(ctx context.Context, shiftID string, req *dto.CandidateListRequest, caller Caller) ([]dto.CandidateResponse, error)

	// 班次写操作（周期锁定时转为变更申请）
	Create(ctx context.Context, req *dto.CreateShiftRequest, caller Caller) (*dto.CreateShiftResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, caller Caller) (*dto.ShiftMutationResponse, error)
	Delete(ctx context.Context, id string, req *dto.DeleteShiftRequest, caller Caller) (*dto.ShiftMutationResponse, error)
	BulkPublish(ctx context.Context, req *dto.BulkPublishRequest, caller Caller) (*dto.BulkPublishResponse, error)

	// 指派
	Assign(ctx context.Context, shiftID string, req *dto.AssignShiftRequest, caller Caller) (*dto.AssignmentMutationResponse, error)
	ApproveAssignment(ctx context.Context, id string, caller Caller) (*dto.AssignmentResponse, error)
	RejectAssignment(ctx context.Context, id string, caller Caller) (*dto.AssignmentResponse, error)
	RemoveAssignment(ctx context.Context, id string, caller Caller) error
}

type shiftService struct {
	repo      *repository.Repository
	periods   SchedulePeriodService
	changes   ChangeRequestService
	hours     *hoursCache
	conflicts *conflictDetector
	store     *shiftStore
	publisher *shiftPublisher
	tz        *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(
	repo *repository.Repository,
	periods SchedulePeriodService,
	changes ChangeRequestService,
	hours *hoursCache,
	tz *time.Location,
	logger *zap.Logger,
) ShiftService {
	if tz == nil {
		tz = time.UTC
	}
	return &shiftService{
		repo:      repo,
		periods:   periods,
		changes:   changes,
		hours:     hours,
		conflicts: &conflictDetector{repo: repo, logger: logger},
		store:     &shiftStore{repo: repo, logger: logger},
		publisher: &shiftPublisher{repo: repo, logger: logger},
		tz:        tz,
		now:       time.Now,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// ListWeek 周排班视图
// ════════════════════════════════════════════════════════════

// ListWeek 返回区间内的班次及其指派
// 员工在班次日期有已批准请假时隐藏其指派；已结束的已发布班次若无打卡记录标记为 missing
func (s *shiftService) ListWeek(ctx context.Context, req *dto.ShiftListRequest, caller Caller) ([]dto.ShiftResponse, error) {
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, newValidationError("to", "结束日期不能早于开始日期")
	}
	if to.Sub(from) > maxListDays*24*time.Hour {
		return nil, newValidationError("to", fmt.Sprintf("查询跨度不能超过 %d 天", maxListDays))
	}
	if req.LocationID != "" {
		if _, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller); err != nil {
			return nil, err
		}
	}

	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		CompanyID:  caller.CompanyID,
		LocationID: req.LocationID,
		From:       from,
		To:         to,
	})
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, err
	}

	timeOff, err := s.timeOffByEmployee(ctx, shifts, from, to)
	if err != nil {
		return nil, err
	}
	clocked, err := s.clockedAssignments(ctx, shifts)
	if err != nil {
		return nil, err
	}

	now := s.now()
	states := map[string]string{}
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		shift := &shifts[i]

		ended := false
		if _, end, err := timeofday.Window(shift.ShiftDate, shift.StartTime, shift.EndTime, s.tz); err == nil {
			ended = end.Before(now)
		}

		visible := make([]dto.AssignmentResponse, 0, len(shift.Assignments))
		for j := range shift.Assignments {
			a := &shift.Assignments[j]
			if a.Status == model.AssignmentRejected {
				continue
			}
			if coveredByTimeOff(timeOff[a.EmployeeID], shift.ShiftDate) {
				continue
			}
			item := toAssignmentResponse(a)
			if a.Status == model.AssignmentApproved && shift.IsPublished && ended &&
				!clocked[shift.ShiftID+"/"+a.EmployeeID] {
				item.AttendanceStatus = dto.AttendanceMissing
			}
			visible = append(visible, item)
		}

		if !matchShiftType(req.Type, shift, len(visible)) {
			continue
		}
		resp := toShiftResponse(shift, visible)
		key := shift.LocationID + "/" + formatDate(timeofday.WeekStart(shift.ShiftDate))
		state, ok := states[key]
		if !ok {
			if state, err = s.periods.PeriodState(ctx, shift.LocationID, shift.ShiftDate); err != nil {
				return nil, err
			}
			states[key] = state
		}
		resp.PeriodStatus = state
		result = append(result, *resp)
	}
	return result, nil
}

func matchShiftType(typ string, shift *model.Shift, visibleAssignments int) bool {
	switch typ {
	case dto.ShiftTypeOpen:
		return shift.IsOpenShift
	case dto.ShiftTypeUnpublished:
		return !shift.IsPublished
	case dto.ShiftTypeAssigned:
		return visibleAssignments > 0
	}
	return true
}

// timeOffByEmployee 区间内指派员工的已批准请假
func (s *shiftService) timeOffByEmployee(ctx context.Context, shifts []model.Shift, from, to time.Time) (map[string][]model.TimeOffRequest, error) {
	var ids []string
	for _, sh := range shifts {
		for _, a := range sh.Assignments {
			ids = append(ids, a.EmployeeID)
		}
	}
	out := map[string][]model.TimeOffRequest{}
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return out, nil
	}
	list, err := s.conflicts.approvedTimeOff(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		out[r.EmployeeID] = append(out[r.EmployeeID], r)
	}
	return out, nil
}

// clockedAssignments 已发布班次上有打卡记录的 "班次/员工" 集合
func (s *shiftService) clockedAssignments(ctx context.Context, shifts []model.Shift) (map[string]bool, error) {
	ids := make([]string, 0, len(shifts))
	for _, sh := range shifts {
		if sh.IsPublished {
			ids = append(ids, sh.ShiftID)
		}
	}
	out := map[string]bool{}
	if len(ids) == 0 {
		return out, nil
	}
	logs, err := s.repo.Attendance.ListByShiftIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询打卡记录失败", zap.Error(err))
		return nil, err
	}
	for _, l := range logs {
		if l.ShiftID != nil {
			out[*l.ShiftID+"/"+l.EmployeeID] = true
		}
	}
	return out, nil
}

func coveredByTimeOff(list []model.TimeOffRequest, date time.Time) bool {
	for i := range list {
		if list[i].Covers(date) {
			return true
		}
	}
	return false
}

// ════════════════════════════════════════════════════════════
// GetByID / ListAssignments
// ════════════════════════════════════════════════════════════

func (s *shiftService) GetByID(ctx context.Context, id string, caller Caller) (*dto.ShiftResponse, error) {
	shift, err := s.loadShift(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift, nil), nil
}

func (s *shiftService) ListAssignments(ctx context.Context, shiftID string, caller Caller) ([]dto.AssignmentResponse, error) {
	if _, err := s.loadShift(ctx, shiftID, caller); err != nil {
		return nil, err
	}
	list, err := s.repo.Assignment.ListByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("查询班次指派失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}
	items := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		items = append(items, toAssignmentResponse(&list[i]))
	}
	return items, nil
}

// ════════════════════════════════════════════════════════════
// Create 创建班次（支持同周多个星期几）
// ════════════════════════════════════════════════════════════

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest, caller Caller) (*dto.CreateShiftResponse, error) {
	base, err := parseDate("shift_date", req.ShiftDate)
	if err != nil {
		return nil, err
	}
	start, err := timeofday.Normalize(req.StartTime)
	if err != nil {
		return nil, newValidationError("start_time", reasonBadTime)
	}
	end, err := timeofday.Normalize(req.EndTime)
	if err != nil {
		return nil, newValidationError("end_time", reasonBadTime)
	}
	if req.RoleName == "" {
		return nil, newValidationError("role_name", "必填字段缺失")
	}
	if _, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller); err != nil {
		return nil, err
	}

	employeeIDs := uniqueStrings(req.EmployeeIDs)
	if err := checkEmployees(ctx, s.repo, s.logger, employeeIDs, caller); err != nil {
		return nil, err
	}
	dates := expandWeekdays(base, req.RepeatWeekdays)

	resp := &dto.CreateShiftResponse{Results: make([]dto.ShiftCreateResult, 0, len(dates))}
	var firstErr error
	for _, date := range dates {
		shift := &model.Shift{
			CompanyID:     caller.CompanyID,
			LocationID:    req.LocationID,
			ShiftDate:     date,
			StartTime:     start,
			EndTime:       end,
			RoleName:      req.RoleName,
			RequiredCount: 1,
			IsOpenShift:   req.IsOpenShift,
			IsCloseDuty:   req.IsCloseDuty,
			Notes:         req.Notes,
			BreakMinutes:  req.BreakMinutes,
		}
		if req.RequiredCount != nil {
			shift.RequiredCount = *req.RequiredCount
		}
		if len(req.Breaks) > 0 {
			shift.Breaks = datatypes.NewJSONSlice(breaksToModel(req.Breaks))
		}

		item := dto.ShiftCreateResult{ShiftDate: formatDate(date)}
		mutation, err := s.createOne(ctx, shift, employeeIDs, req.ChangeReason, caller)
		switch {
		case err != nil:
			if firstErr == nil {
				firstErr = err
			}
			item.Error = err.Error()
			resp.Failed++
		case mutation.Redirected:
			item.ShiftMutationResponse = *mutation
			resp.Redirected++
		default:
			item.ShiftMutationResponse = *mutation
			resp.Created++
		}
		resp.Results = append(resp.Results, item)
	}

	// 单日创建或全部失败时直接返回错误
	if firstErr != nil && resp.Failed == len(dates) {
		return nil, firstErr
	}
	return resp, nil
}

// expandWeekdays 基准日期加上同一周内选中的星期几，去重后按日期排序
func expandWeekdays(base time.Time, weekdays []int) []time.Time {
	dates := []time.Time{base}
	if len(weekdays) == 0 {
		return dates
	}
	weekStart := timeofday.WeekStart(base)
	seen := map[int]bool{timeofday.WeekdayIndex(base): true}
	for _, w := range weekdays {
		if w < 0 || w > 6 || seen[w] {
			continue
		}
		seen[w] = true
		dates = append(dates, weekStart.AddDate(0, 0, w))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// createOne 校验营业时间 → 治理闸门 → 写入
func (s *shiftService) createOne(ctx context.Context, shift *model.Shift, employeeIDs []string, reason dto.ChangeReason, caller Caller) (*dto.ShiftMutationResponse, error) {
	if err := s.hours.check(ctx, shift.LocationID, shift.ShiftDate, shift.StartTime, shift.EndTime); err != nil {
		return nil, err
	}

	locked, err := s.periods.IsLocked(ctx, shift.LocationID, shift.ShiftDate)
	if err != nil {
		return nil, err
	}
	if locked {
		return s.redirect(ctx, model.ChangeAdd, nil, snapshotFromShift(shift, employeeIDs), reason, caller)
	}

	// 冲突检测需在写入前完成，避免与自身比较
	warnings, err := s.conflicts.warnings(ctx, employeeIDs, shift.ShiftDate, shift.StartTime, shift.EndTime, "")
	if err != nil {
		return nil, err
	}
	storeWarnings, err := s.store.create(ctx, shift, employeeIDs, caller.UserID)
	if err != nil {
		return nil, err
	}
	for i := range warnings {
		warnings[i].ShiftID = orDefault(warnings[i].ShiftID, shift.ShiftID)
	}
	warnings = append(warnings, storeWarnings...)

	s.logger.Info("班次已创建",
		zap.String("shift_id", shift.ShiftID),
		zap.String("location_id", shift.LocationID),
		zap.String("shift_date", formatDate(shift.ShiftDate)),
		zap.String("operator", caller.UserID),
	)
	return &dto.ShiftMutationResponse{Shift: toShiftResponse(shift, nil), Warnings: warnings}, nil
}

// ════════════════════════════════════════════════════════════
// Update 修改班次（补丁语义）
// ════════════════════════════════════════════════════════════

func (s *shiftService) Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, caller Caller) (*dto.ShiftMutationResponse, error) {
	shift, err := s.loadShift(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != shift.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	patch := updateToPayload(req)
	if err := normalizePayload(&patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, newValidationError("", "至少修改一个字段")
	}

	merged := *shift
	merged.Assignments = nil
	if err := patch.ApplyTo(&merged); err != nil {
		return nil, newValidationError("shift_date", "日期格式无效")
	}
	if merged.LocationID != shift.LocationID {
		if _, err := loadLocation(ctx, s.repo, s.logger, merged.LocationID, caller); err != nil {
			return nil, err
		}
	}
	if err := s.hours.check(ctx, merged.LocationID, merged.ShiftDate, merged.StartTime, merged.EndTime); err != nil {
		return nil, err
	}

	locked, err := s.anyLocked(ctx, gateKey{shift.LocationID, shift.ShiftDate}, gateKey{merged.LocationID, merged.ShiftDate})
	if err != nil {
		return nil, err
	}
	if locked {
		return s.redirect(ctx, model.ChangeEdit, &shift.ShiftID, patch, req.ChangeReason, caller)
	}

	warnings, err := s.conflicts.warnings(ctx, activeEmployeeIDs(shift),
		merged.ShiftDate, merged.StartTime, merged.EndTime, shift.ShiftID)
	if err != nil {
		return nil, err
	}

	if err := patch.ApplyTo(shift); err != nil {
		return nil, newValidationError("shift_date", "日期格式无效")
	}
	if err := s.store.update(ctx, shift, caller.UserID); err != nil {
		return nil, err
	}

	s.logger.Info("班次已修改",
		zap.String("shift_id", shift.ShiftID),
		zap.Int("version", shift.Version),
		zap.String("operator", caller.UserID),
	)
	return &dto.ShiftMutationResponse{Shift: toShiftResponse(shift, nil), Warnings: warnings}, nil
}

func updateToPayload(req *dto.UpdateShiftRequest) model.ShiftPayload {
	p := model.ShiftPayload{
		LocationID:    req.LocationID,
		ShiftDate:     req.ShiftDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		RoleName:      req.RoleName,
		RequiredCount: req.RequiredCount,
		IsOpenShift:   req.IsOpenShift,
		IsCloseDuty:   req.IsCloseDuty,
		Notes:         req.Notes,
		BreakMinutes:  req.BreakMinutes,
	}
	if req.Breaks != nil {
		breaks := make([]model.ShiftBreak, 0, len(*req.Breaks))
		for _, b := range *req.Breaks {
			breaks = append(breaks, model.ShiftBreak{Start: b.Start, End: b.End})
		}
		p.Breaks = &breaks
	}
	return p
}

// ════════════════════════════════════════════════════════════
// Delete 删除班次（级联删除指派）
// ════════════════════════════════════════════════════════════

func (s *shiftService) Delete(ctx context.Context, id string, req *dto.DeleteShiftRequest, caller Caller) (*dto.ShiftMutationResponse, error) {
	shift, err := s.loadShift(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	locked, err := s.periods.IsLocked(ctx, shift.LocationID, shift.ShiftDate)
	if err != nil {
		return nil, err
	}
	if locked {
		var reason dto.ChangeReason
		if req != nil {
			reason = req.ChangeReason
		}
		return s.redirect(ctx, model.ChangeDelete, &shift.ShiftID, model.ShiftPayload{}, reason, caller)
	}

	if err := s.store.delete(ctx, shift.ShiftID, caller.UserID); err != nil {
		return nil, err
	}

	s.logger.Info("班次已删除",
		zap.String("shift_id", shift.ShiftID),
		zap.Int("assignments", len(shift.Assignments)),
		zap.String("operator", caller.UserID),
	)
	return &dto.ShiftMutationResponse{}, nil
}

// ════════════════════════════════════════════════════════════
// BulkPublish 批量发布
// ════════════════════════════════════════════════════════════

// BulkPublish 逐个发布，week 范围跳过今天之前的班次，day 范围不跳过
func (s *shiftService) BulkPublish(ctx context.Context, req *dto.BulkPublishRequest, caller Caller) (*dto.BulkPublishResponse, error) {
	ids := uniqueStrings(req.ShiftIDs)
	shifts, err := s.repo.Shift.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询待发布班次失败", zap.Error(err))
		return nil, err
	}

	today := s.now().In(s.tz).Format(model.DateLayout)
	resp := s.publisher.publish(ctx, ids, shifts, caller.CompanyID, req.Scope == "week", today, caller.UserID)

	s.logger.Info("批量发布班次",
		zap.String("scope", req.Scope),
		zap.Int("published", resp.Published),
		zap.Int("skipped", resp.Skipped),
		zap.Int("failed", resp.Failed),
		zap.String("operator", caller.UserID),
	)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// 指派
// ════════════════════════════════════════════════════════════

// Assign 经理直接指派为已批准；员工只能认领自己，状态为待审批
// 已满员只提示不拦截
func (s *shiftService) Assign(ctx context.Context, shiftID string, req *dto.AssignShiftRequest, caller Caller) (*dto.AssignmentMutationResponse, error) {
	shift, err := s.loadShift(ctx, shiftID, caller)
	if err != nil {
		return nil, err
	}

	manager := model.IsManagerRole(caller.Role)
	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = caller.UserID
	}
	if !manager && employeeID != caller.UserID {
		return nil, ErrClaimForOthers
	}

	employee, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	if employee.CompanyID != caller.CompanyID {
		return nil, ErrEmployeeNotFound
	}

	if _, err := s.repo.Assignment.FindActive(ctx, shiftID, employeeID); err == nil {
		return nil, ErrAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询已有指派失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	warnings, err := s.conflicts.warnings(ctx, []string{employeeID}, shift.ShiftDate, shift.StartTime, shift.EndTime, shift.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift.RequiredCount > 0 && shift.ApprovedCount() >= shift.RequiredCount {
		warnings = append(warnings, dto.Warning{
			Code:    dto.WarningHeadcountFull,
			Message: fmt.Sprintf("班次已满员（%d/%d）", shift.ApprovedCount(), shift.RequiredCount),
			ShiftID: shift.ShiftID,
		})
	}

	a := &model.ShiftAssignment{
		ShiftID:    shiftID,
		EmployeeID: employeeID,
		Status:     model.AssignmentPending,
	}
	if manager {
		now := s.now()
		a.Status = model.AssignmentApproved
		a.DecidedBy = &caller.UserID
		a.DecidedAt = &now
	}
	a.CreatedBy = &caller.UserID
	a.UpdatedBy = &caller.UserID

	if err := s.repo.Assignment.Create(ctx, a); err != nil {
		s.logger.Error("创建指派失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}
	a.Employee = employee

	s.logger.Info("班次指派已创建",
		zap.String("assignment_id", a.AssignmentID),
		zap.String("shift_id", shiftID),
		zap.String("employee_id", employeeID),
		zap.String("status", a.Status),
	)
	return &dto.AssignmentMutationResponse{Assignment: toAssignmentResponse(a), Warnings: warnings}, nil
}

func (s *shiftService) ApproveAssignment(ctx context.Context, id string, caller Caller) (*dto.AssignmentResponse, error) {
	return s.decideAssignment(ctx, id, model.AssignmentApproved, caller)
}

// RejectAssignment 只修改状态，保留审批记录
func (s *shiftService) RejectAssignment(ctx context.Context, id string, caller Caller) (*dto.AssignmentResponse, error) {
	return s.decideAssignment(ctx, id, model.AssignmentRejected, caller)
}

func (s *shiftService) decideAssignment(ctx context.Context, id, status string, caller Caller) (*dto.AssignmentResponse, error) {
	a, err := s.loadAssignment(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AssignmentPending {
		return nil, ErrAssignmentNotPending
	}

	now := s.now()
	a.Status = status
	a.DecidedBy = &caller.UserID
	a.DecidedAt = &now
	a.UpdatedBy = &caller.UserID

	if err := s.repo.Assignment.UpdateStatus(ctx, a, model.AssignmentPending); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrAssignmentNotPending
		}
		s.logger.Error("更新指派状态失败", zap.String("assignment_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("指派已审批",
		zap.String("assignment_id", id),
		zap.String("status", status),
		zap.String("operator", caller.UserID),
	)
	resp := toAssignmentResponse(a)
	return &resp, nil
}

func (s *shiftService) RemoveAssignment(ctx context.Context, id string, caller Caller) error {
	if _, err := s.loadAssignment(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.Assignment.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除指派失败", zap.String("assignment_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// FindConflicts / ListCandidates 冲突检测与候选人
// ════════════════════════════════════════════════════════════

func (s *shiftService) FindConflicts(ctx context.Context, req *dto.ConflictQueryRequest, caller Caller) ([]dto.ConflictResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if (req.Start == "") != (req.End == "") {
		return nil, newValidationError("end", "开始与结束时间需同时提供")
	}

	hits, err := s.conflicts.find(ctx, req.EmployeeID, date, req.Start, req.End, req.ExcludeShiftID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ConflictResponse, 0, len(hits))
	for _, h := range hits {
		if h.Shift.CompanyID != caller.CompanyID {
			continue
		}
		items = append(items, dto.ConflictResponse{
			ShiftID:    h.Shift.ShiftID,
			LocationID: h.Shift.LocationID,
			ShiftDate:  formatDate(h.Shift.ShiftDate),
			StartTime:  h.Shift.StartTime,
			EndTime:    h.Shift.EndTime,
			Status:     h.Status,
			HasOverlap: h.HasOverlap,
		})
	}
	return items, nil
}

// ListCandidates 班次候选员工；AllLocations 为 true 时包含公司全部门店员工
func (s *shiftService) ListCandidates(ctx context.Context, shiftID string, req *dto.CandidateListRequest, caller Caller) ([]dto.CandidateResponse, error) {
	shift, err := s.loadShift(ctx, shiftID, caller)
	if err != nil {
		return nil, err
	}

	var employees []model.Employee
	if req != nil && req.AllLocations {
		employees, err = s.repo.Employee.ListByCompany(ctx, caller.CompanyID)
	} else {
		employees, err = s.repo.Employee.ListByLocation(ctx, shift.LocationID)
	}
	if err != nil {
		s.logger.Error("查询候选员工失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.EmployeeID)
	}
	off, err := s.conflicts.onTimeOff(ctx, ids, shift.ShiftDate, shift.ShiftDate)
	if err != nil {
		return nil, err
	}

	result := make([]dto.CandidateResponse, 0, len(employees))
	for i := range employees {
		e := &employees[i]
		if e.CompanyID != caller.CompanyID || !e.IsActive {
			continue
		}
		hits, err := s.conflicts.find(ctx, e.EmployeeID, shift.ShiftDate, shift.StartTime, shift.EndTime, "")
		if err != nil {
			return nil, err
		}
		c := dto.CandidateResponse{
			Employee:       *toEmployeeBrief(e),
			HomeLocationID: e.HomeLocationID,
			OnTimeOff:      off[e.EmployeeID],
		}
		for _, h := range hits {
			if h.Shift.ShiftID == shift.ShiftID {
				c.AlreadyOnShift = true
				continue
			}
			c.HasShift = true
			c.HasOverlap = c.HasOverlap || h.HasOverlap
		}
		result = append(result, c)
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *shiftService) loadShift(ctx context.Context, id string, caller Caller) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", id), zap.Error(err))
		return nil, err
	}
	if shift.CompanyID != caller.CompanyID {
		return nil, ErrShiftNotFound
	}
	return shift, nil
}

func (s *shiftService) loadAssignment(ctx context.Context, id string, caller Caller) (*model.ShiftAssignment, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.String("assignment_id", id), zap.Error(err))
		return nil, err
	}
	if a.Shift == nil || a.Shift.CompanyID != caller.CompanyID {
		return nil, ErrAssignmentNotFound
	}
	return a, nil
}

func (s *shiftService) anyLocked(ctx context.Context, keys ...gateKey) (bool, error) {
	for _, k := range keys {
		locked, err := s.periods.IsLocked(ctx, k.locationID, k.date)
		if err != nil {
			return false, err
		}
		if locked {
			return true, nil
		}
	}
	return false, nil
}

// redirect 周期已锁定：修改不直接生效，转为待审批的变更申请
func (s *shiftService) redirect(ctx context.Context, changeType string, targetID *string, after model.ShiftPayload, reason dto.ChangeReason, caller Caller) (*dto.ShiftMutationResponse, error) {
	code := reason.ReasonCode
	if code == "" {
		code = model.ReasonOperationalNeed
	}
	cr, err := s.changes.Submit(ctx, &dto.SubmitChangeRequest{
		ChangeType:    changeType,
		TargetShiftID: targetID,
		PayloadAfter:  after,
		ReasonCode:    code,
		Note:          reason.ReasonNote,
	}, caller)
	if err != nil {
		return nil, err
	}

	s.logger.Info("周期已锁定，修改转为变更申请",
		zap.String("change_request_id", cr.ChangeRequest.ID),
		zap.String("change_type", changeType),
		zap.String("operator", caller.UserID),
	)
	return &dto.ShiftMutationResponse{
		Redirected:    true,
		ChangeRequest: &cr.ChangeRequest,
		Warnings:      cr.Warnings,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
