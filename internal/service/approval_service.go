package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
)

// ErrPeriodNotFound 审批队列按周期筛选时周期不存在
var ErrPeriodNotFound = errors.New("排班周期不存在")

// ApprovalQueueService 统一审批队列：待审批指派、变更申请、考勤异常
// 三类待办相互独立，处理动作委托给各自的模块
type ApprovalQueueService interface {
	Get(ctx context.Context, req *dto.ApprovalQueueRequest, caller Caller) (*dto.ApprovalQueueResponse, error)
	Resolve(ctx context.Context, req *dto.ApprovalActionRequest, caller Caller) (interface{}, error)
}

type approvalQueueService struct {
	repo       *repository.Repository
	shifts     ShiftService
	changes    ChangeRequestService
	exceptions WorkforceExceptionService
	logger     *zap.Logger
}

// NewApprovalQueueService 创建 ApprovalQueueService 实例
func NewApprovalQueueService(
	repo *repository.Repository,
	shifts ShiftService,
	changes ChangeRequestService,
	exceptions WorkforceExceptionService,
	logger *zap.Logger,
) ApprovalQueueService {
	return &approvalQueueService{
		repo:       repo,
		shifts:     shifts,
		changes:    changes,
		exceptions: exceptions,
		logger:     logger,
	}
}

// ════════════════════════════════════════════════════════════
// Get 查询审批队列
// ════════════════════════════════════════════════════════════

func (s *approvalQueueService) Get(ctx context.Context, req *dto.ApprovalQueueRequest, caller Caller) (*dto.ApprovalQueueResponse, error) {
	locationID := req.LocationID
	var from, to *time.Time

	if req.PeriodID != "" {
		period, err := s.repo.Period.GetByID(ctx, req.PeriodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPeriodNotFound
			}
			s.logger.Error("查询排班周期失败", zap.String("period_id", req.PeriodID), zap.Error(err))
			return nil, err
		}
		if period.CompanyID != caller.CompanyID {
			return nil, ErrPeriodNotFound
		}
		if locationID != "" && locationID != period.LocationID {
			return nil, newValidationError("location_id", "门店与周期不匹配")
		}
		locationID = period.LocationID
		weekEnd := period.WeekStart.AddDate(0, 0, 6)
		from, to = &period.WeekStart, &weekEnd
	}

	assignments, err := s.repo.Assignment.List(ctx, repository.AssignmentFilter{
		CompanyID:  caller.CompanyID,
		LocationID: locationID,
		Status:     model.AssignmentPending,
		From:       from,
		To:         to,
	})
	if err != nil {
		s.logger.Error("查询待审批指派失败", zap.Error(err))
		return nil, err
	}

	changes, err := s.repo.ChangeRequest.List(ctx, repository.ChangeRequestFilter{
		CompanyID:  caller.CompanyID,
		PeriodID:   req.PeriodID,
		LocationID: locationID,
		Status:     model.ChangePending,
	})
	if err != nil {
		s.logger.Error("查询待审批变更申请失败", zap.Error(err))
		return nil, err
	}

	exceptions, err := s.repo.Exception.List(ctx, repository.ExceptionFilter{
		CompanyID:  caller.CompanyID,
		LocationID: locationID,
		Status:     model.ExceptionPending,
		From:       from,
		To:         to,
	})
	if err != nil {
		s.logger.Error("查询待处理考勤异常失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ApprovalQueueResponse{
		Assignments:    make([]dto.AssignmentResponse, 0, len(assignments)),
		ChangeRequests: make([]dto.ChangeRequestResponse, 0, len(changes)),
		Exceptions:     make([]dto.ExceptionResponse, 0, len(exceptions)),
	}
	for i := range assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(&assignments[i]))
	}
	for i := range changes {
		resp.ChangeRequests = append(resp.ChangeRequests, *toChangeRequestResponse(&changes[i]))
	}
	for i := range exceptions {
		resp.Exceptions = append(resp.Exceptions, toExceptionResponse(&exceptions[i]))
	}
	resp.Total = len(resp.Assignments) + len(resp.ChangeRequests) + len(resp.Exceptions)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// Resolve 按类型分派处理
// ════════════════════════════════════════════════════════════

func (s *approvalQueueService) Resolve(ctx context.Context, req *dto.ApprovalActionRequest, caller Caller) (interface{}, error) {
	switch req.Kind {
	case dto.ApprovalKindAssignment:
		switch req.Action {
		case "approve":
			return s.shifts.ApproveAssignment(ctx, req.ID, caller)
		case "reject":
			return s.shifts.RejectAssignment(ctx, req.ID, caller)
		}

	case dto.ApprovalKindChangeRequest:
		note := &dto.ResolveChangeRequest{Note: req.Note}
		switch req.Action {
		case "approve":
			return s.changes.Approve(ctx, req.ID, note, caller)
		case "deny":
			return s.changes.Deny(ctx, req.ID, note, caller)
		}

	case dto.ApprovalKindException:
		switch req.Action {
		case model.ExceptionApproved, model.ExceptionDenied, model.ExceptionResolved:
			return s.exceptions.Resolve(ctx, req.ID, &dto.ResolveExceptionRequest{Status: req.Action, Note: req.Note}, caller)
		}
	}
	return nil, newValidationError("action", "该类型不支持此操作")
}
