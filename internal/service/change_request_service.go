package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	pkgerrors "shiftgov/pkg/errors"
)

// ── 变更申请模块业务错误 ──

var (
	ErrChangeRequestNotFound = errors.New("变更申请不存在")
	ErrChangeRequestResolved = invalidState("变更申请已处理，不能重复审批")
	ErrPeriodNotLocked       = invalidState("排班周期未锁定，请直接修改班次")
)

// ChangeRequestService 锁定周期变更申请业务接口
type ChangeRequestService interface {
	Submit(ctx context.Context, req *dto.SubmitChangeRequest, caller Caller) (*dto.ChangeRequestMutationResponse, error)
	Approve(ctx context.Context, id string, req *dto.ResolveChangeRequest, caller Caller) (*dto.ChangeRequestMutationResponse, error)
	Deny(ctx context.Context, id string, req *dto.ResolveChangeRequest, caller Caller) (*dto.ChangeRequestResponse, error)
	List(ctx context.Context, req *dto.ChangeRequestListRequest, caller Caller) ([]dto.ChangeRequestResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.ChangeRequestResponse, error)
	ReasonCodes() *dto.ReasonCodeResponse
}

type changeRequestService struct {
	repo      *repository.Repository
	periods   SchedulePeriodService
	hours     *hoursCache
	conflicts *conflictDetector
	now       func() time.Time
	logger    *zap.Logger
}

// NewChangeRequestService 创建 ChangeRequestService 实例
func NewChangeRequestService(repo *repository.Repository, periods SchedulePeriodService, hours *hoursCache, logger *zap.Logger) ChangeRequestService {
	return &changeRequestService{
		repo:      repo,
		periods:   periods,
		hours:     hours,
		conflicts: &conflictDetector{repo: repo, logger: logger},
		now:       time.Now,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// Submit 提交变更申请
// ════════════════════════════════════════════════════════════

// gateKey 治理闸门检查点（门店 + 日期）
type gateKey struct {
	locationID string
	date       time.Time
}

func (s *changeRequestService) Submit(ctx context.Context, req *dto.SubmitChangeRequest, caller Caller) (*dto.ChangeRequestMutationResponse, error) {
	if !model.IsValidReasonCode(req.ReasonCode) {
		return nil, newValidationError("reason_code", "原因代码不在允许列表内")
	}

	after := req.PayloadAfter
	if err := normalizePayload(&after); err != nil {
		return nil, err
	}

	var (
		target    *model.Shift
		effective *model.Shift
		gates     []gateKey
	)

	switch req.ChangeType {
	case model.ChangeAdd:
		if req.TargetShiftID != nil {
			return nil, newValidationError("target_shift_id", "新增班次不能指定目标班次")
		}
		shift, err := shiftFromPayload(after, caller.CompanyID)
		if err != nil {
			return nil, err
		}
		if _, err := loadLocation(ctx, s.repo, s.logger, shift.LocationID, caller); err != nil {
			return nil, err
		}
		if err := checkEmployees(ctx, s.repo, s.logger, after.EmployeeIDs, caller); err != nil {
			return nil, err
		}
		effective = shift
		gates = []gateKey{{shift.LocationID, shift.ShiftDate}}

	case model.ChangeEdit:
		t, err := s.loadTarget(ctx, req.TargetShiftID, caller)
		if err != nil {
			return nil, err
		}
		if after.IsEmpty() || len(after.EmployeeIDs) > 0 {
			return nil, newValidationError("payload_after", "修改申请至少包含一个班次字段")
		}
		merged := *t
		merged.Assignments = nil
		if err := after.ApplyTo(&merged); err != nil {
			return nil, newValidationError("shift_date", "日期格式无效")
		}
		if merged.LocationID != t.LocationID {
			if _, err := loadLocation(ctx, s.repo, s.logger, merged.LocationID, caller); err != nil {
				return nil, err
			}
		}
		target, effective = t, &merged
		gates = []gateKey{{t.LocationID, t.ShiftDate}, {merged.LocationID, merged.ShiftDate}}

	case model.ChangeDelete:
		t, err := s.loadTarget(ctx, req.TargetShiftID, caller)
		if err != nil {
			return nil, err
		}
		if !after.IsEmpty() {
			return nil, newValidationError("payload_after", "删除申请不能包含修改字段")
		}
		target = t
		gates = []gateKey{{t.LocationID, t.ShiftDate}}

	default:
		return nil, newValidationError("change_type", "变更类型无效")
	}

	period, err := s.lockedPeriod(ctx, gates)
	if err != nil {
		return nil, err
	}

	var warnings []dto.Warning
	if effective != nil {
		if err := s.hours.check(ctx, effective.LocationID, effective.ShiftDate, effective.StartTime, effective.EndTime); err != nil {
			return nil, err
		}
		employeeIDs := after.EmployeeIDs
		exclude := ""
		if target != nil {
			employeeIDs = activeEmployeeIDs(target)
			exclude = target.ShiftID
		}
		warnings, err = s.conflicts.warnings(ctx, employeeIDs, effective.ShiftDate, effective.StartTime, effective.EndTime, exclude)
		if err != nil {
			return nil, err
		}
	}

	before := req.PayloadBefore
	if before.IsEmpty() && target != nil {
		before = snapshotFromShift(target, activeEmployeeIDs(target))
	}

	cr := &model.ChangeRequest{
		CompanyID:     caller.CompanyID,
		LocationID:    period.LocationID,
		PeriodID:      period.PeriodID,
		ChangeType:    req.ChangeType,
		TargetShiftID: req.TargetShiftID,
		PayloadBefore: datatypes.NewJSONType(before),
		PayloadAfter:  datatypes.NewJSONType(after),
		ReasonCode:    req.ReasonCode,
		Note:          req.Note,
		Status:        model.ChangePending,
		RequestedBy:   caller.UserID,
		RequestedAt:   s.now(),
	}
	cr.CreatedBy = &caller.UserID
	cr.UpdatedBy = &caller.UserID

	if err := s.repo.ChangeRequest.Create(ctx, cr); err != nil {
		s.logger.Error("创建变更申请失败", zap.String("period_id", period.PeriodID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("变更申请已提交",
		zap.String("change_request_id", cr.ChangeRequestID),
		zap.String("change_type", cr.ChangeType),
		zap.String("period_id", cr.PeriodID),
		zap.String("operator", caller.UserID),
	)

	return &dto.ChangeRequestMutationResponse{
		ChangeRequest: *toChangeRequestResponse(cr),
		Warnings:      warnings,
	}, nil
}

// ════════════════════════════════════════════════════════════
// Approve 审批通过并直接写入班次
// ════════════════════════════════════════════════════════════

func (s *changeRequestService) Approve(ctx context.Context, id string, req *dto.ResolveChangeRequest, caller Caller) (*dto.ChangeRequestMutationResponse, error) {
	cr, err := s.loadPending(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	// 写入班次与更新申请状态在同一事务内完成
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}

	txRepo := s.repo.WithTx(tx)
	warnings, applied, err := s.apply(ctx, cr, &shiftStore{repo: txRepo, logger: s.logger}, caller)
	if err != nil {
		rollback()
		return nil, err
	}

	cr.AppliedShiftIDs = datatypes.NewJSONSlice(applied)
	if err := s.resolve(ctx, txRepo, cr, model.ChangeApproved, req, caller); err != nil {
		rollback()
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.String("change_request_id", cr.ChangeRequestID), zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("变更申请已批准",
		zap.String("change_request_id", cr.ChangeRequestID),
		zap.Strings("applied_shift_ids", applied),
		zap.Int("warnings", len(warnings)),
		zap.String("operator", caller.UserID),
	)

	return &dto.ChangeRequestMutationResponse{
		ChangeRequest: *toChangeRequestResponse(cr),
		Warnings:      warnings,
	}, nil
}

// apply 将申请中的变更写入班次，返回提示与受影响的班次 ID
func (s *changeRequestService) apply(ctx context.Context, cr *model.ChangeRequest, store *shiftStore, caller Caller) ([]dto.Warning, []string, error) {
	after := cr.PayloadAfter.Data()

	switch cr.ChangeType {
	case model.ChangeAdd:
		shift, err := shiftFromPayload(after, cr.CompanyID)
		if err != nil {
			return nil, nil, err
		}
		warnings := s.staleHours(ctx, shift)
		ws, err := store.create(ctx, shift, after.EmployeeIDs, caller.UserID)
		if err != nil {
			return nil, nil, err
		}
		return append(warnings, ws...), []string{shift.ShiftID}, nil

	case model.ChangeEdit:
		target, err := s.loadTarget(ctx, cr.TargetShiftID, caller)
		if err != nil {
			return nil, nil, err
		}
		if err := after.ApplyTo(target); err != nil {
			return nil, nil, newValidationError("shift_date", "日期格式无效")
		}
		warnings := s.staleHours(ctx, target)
		if err := store.update(ctx, target, caller.UserID); err != nil {
			return nil, nil, err
		}
		return warnings, []string{target.ShiftID}, nil

	case model.ChangeDelete:
		if cr.TargetShiftID == nil {
			return nil, nil, newValidationError("target_shift_id", "缺少目标班次")
		}
		if err := store.delete(ctx, *cr.TargetShiftID, caller.UserID); err != nil {
			return nil, nil, err
		}
		return nil, []string{*cr.TargetShiftID}, nil
	}
	return nil, nil, newValidationError("change_type", "变更类型无效")
}

// ════════════════════════════════════════════════════════════
// Deny 驳回（不修改班次）
// ════════════════════════════════════════════════════════════

func (s *changeRequestService) Deny(ctx context.Context, id string, req *dto.ResolveChangeRequest, caller Caller) (*dto.ChangeRequestResponse, error) {
	cr, err := s.loadPending(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, s.repo, cr, model.ChangeDenied, req, caller); err != nil {
		return nil, err
	}

	s.logger.Info("变更申请已驳回",
		zap.String("change_request_id", cr.ChangeRequestID),
		zap.String("operator", caller.UserID),
	)
	return toChangeRequestResponse(cr), nil
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *changeRequestService) List(ctx context.Context, req *dto.ChangeRequestListRequest, caller Caller) ([]dto.ChangeRequestResponse, error) {
	list, err := s.repo.ChangeRequest.List(ctx, repository.ChangeRequestFilter{
		CompanyID:  caller.CompanyID,
		PeriodID:   req.PeriodID,
		LocationID: req.LocationID,
		Status:     req.Status,
	})
	if err != nil {
		s.logger.Error("查询变更申请列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.ChangeRequestResponse, 0, len(list))
	for i := range list {
		items = append(items, *toChangeRequestResponse(&list[i]))
	}
	return items, nil
}

func (s *changeRequestService) GetByID(ctx context.Context, id string, caller Caller) (*dto.ChangeRequestResponse, error) {
	cr, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return toChangeRequestResponse(cr), nil
}

func (s *changeRequestService) ReasonCodes() *dto.ReasonCodeResponse {
	return &dto.ReasonCodeResponse{Codes: append([]string(nil), model.ReasonCodes...)}
}

// ── 内部辅助方法 ──

func (s *changeRequestService) load(ctx context.Context, id string, caller Caller) (*model.ChangeRequest, error) {
	cr, err := s.repo.ChangeRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChangeRequestNotFound
		}
		s.logger.Error("查询变更申请失败", zap.String("change_request_id", id), zap.Error(err))
		return nil, err
	}
	if cr.CompanyID != caller.CompanyID {
		return nil, ErrChangeRequestNotFound
	}
	return cr, nil
}

func (s *changeRequestService) loadPending(ctx context.Context, id string, caller Caller) (*model.ChangeRequest, error) {
	cr, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if cr.Status != model.ChangePending {
		return nil, ErrChangeRequestResolved
	}
	return cr, nil
}

func (s *changeRequestService) loadTarget(ctx context.Context, id *string, caller Caller) (*model.Shift, error) {
	if id == nil || *id == "" {
		return nil, newValidationError("target_shift_id", "缺少目标班次")
	}
	shift, err := s.repo.Shift.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", *id), zap.Error(err))
		return nil, err
	}
	if shift.CompanyID != caller.CompanyID {
		return nil, ErrShiftNotFound
	}
	return shift, nil
}

// lockedPeriod 返回检查点中第一个已锁定的周期，均未锁定返回 ErrPeriodNotLocked
func (s *changeRequestService) lockedPeriod(ctx context.Context, gates []gateKey) (*model.SchedulePeriod, error) {
	for _, g := range gates {
		p, err := s.periods.FindPeriod(ctx, g.locationID, g.date)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Status == model.PeriodLocked {
			return p, nil
		}
	}
	return nil, ErrPeriodNotLocked
}

// staleHours 审批时重新校验营业时间，不通过只提示不拦截
func (s *changeRequestService) staleHours(ctx context.Context, shift *model.Shift) []dto.Warning {
	err := s.hours.check(ctx, shift.LocationID, shift.ShiftDate, shift.StartTime, shift.EndTime)
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		s.logger.Warn("审批时营业时间校验失败", zap.Error(err))
		return nil
	}
	return []dto.Warning{{
		Code:    dto.WarningHoursStale,
		Message: "营业时间已变更：" + ve.Reason,
		ShiftID: shift.ShiftID,
	}}
}

func (s *changeRequestService) resolve(ctx context.Context, repo *repository.Repository, cr *model.ChangeRequest, status string, req *dto.ResolveChangeRequest, caller Caller) error {
	now := s.now()
	cr.Status = status
	cr.ResolvedBy = &caller.UserID
	cr.ResolvedAt = &now
	cr.UpdatedBy = &caller.UserID
	if req != nil {
		cr.ResolutionNote = req.Note
	}
	if err := repo.ChangeRequest.Resolve(ctx, cr); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrChangeRequestResolved
		}
		s.logger.Error("更新变更申请状态失败", zap.String("change_request_id", cr.ChangeRequestID), zap.Error(err))
		return err
	}
	return nil
}

// activeEmployeeIDs 班次上待审批与已批准的员工
func activeEmployeeIDs(shift *model.Shift) []string {
	ids := make([]string, 0, len(shift.Assignments))
	for _, a := range shift.Assignments {
		if a.Status == model.AssignmentPending || a.Status == model.AssignmentApproved {
			ids = append(ids, a.EmployeeID)
		}
	}
	return ids
}
