package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	pkgerrors "shiftgov/pkg/errors"
)

// ── 请假模块业务错误 ──

var (
	ErrTimeOffNotFound    = errors.New("请假申请不存在")
	ErrTimeOffDecided     = invalidState("请假申请已审批")
	ErrTimeOffForOthers   = fmt.Errorf("%w: 员工只能为自己申请请假", ErrForbidden)
	ErrTimeOffInvalidSpan = newValidationError("end_date", "结束日期不能早于开始日期")
)

// TimeOffService 请假业务接口
// 已批准的请假用于排班视图隐藏指派与候选人徽标
type TimeOffService interface {
	Create(ctx context.Context, req *dto.CreateTimeOffRequest, caller Caller) (*dto.TimeOffResponse, error)
	List(ctx context.Context, req *dto.TimeOffListRequest, caller Caller) ([]dto.TimeOffResponse, error)
	Approve(ctx context.Context, id string, caller Caller) (*dto.TimeOffResponse, error)
	Reject(ctx context.Context, id string, caller Caller) (*dto.TimeOffResponse, error)
}

type timeOffService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewTimeOffService 创建 TimeOffService 实例
func NewTimeOffService(repo *repository.Repository, logger *zap.Logger) TimeOffService {
	return &timeOffService{repo: repo, now: time.Now, logger: logger}
}

func (s *timeOffService) Create(ctx context.Context, req *dto.CreateTimeOffRequest, caller Caller) (*dto.TimeOffResponse, error) {
	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = caller.UserID
	}
	if employeeID != caller.UserID && !model.IsManagerRole(caller.Role) {
		return nil, ErrTimeOffForOthers
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrTimeOffInvalidSpan
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

	r := &model.TimeOffRequest{
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Type:       req.Type,
		Reason:     req.Reason,
		Status:     model.TimeOffPending,
	}
	r.CreatedBy = &caller.UserID
	r.UpdatedBy = &caller.UserID
	if err := s.repo.TimeOff.Create(ctx, r); err != nil {
		s.logger.Error("创建请假申请失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	r.Employee = employee

	resp := toTimeOffResponse(r)
	return &resp, nil
}

// List 员工只能看到自己的请假；经理可按员工筛选，默认公司全部员工
func (s *timeOffService) List(ctx context.Context, req *dto.TimeOffListRequest, caller Caller) ([]dto.TimeOffResponse, error) {
	filter := repository.TimeOffFilter{Status: req.Status}

	switch {
	case !model.IsManagerRole(caller.Role):
		filter.EmployeeIDs = []string{caller.UserID}
	case req.EmployeeID != "":
		filter.EmployeeIDs = []string{req.EmployeeID}
	default:
		employees, err := s.repo.Employee.ListByCompany(ctx, caller.CompanyID)
		if err != nil {
			s.logger.Error("查询公司员工失败", zap.Error(err))
			return nil, err
		}
		if len(employees) == 0 {
			return []dto.TimeOffResponse{}, nil
		}
		for _, e := range employees {
			filter.EmployeeIDs = append(filter.EmployeeIDs, e.EmployeeID)
		}
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

	list, err := s.repo.TimeOff.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询请假列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.TimeOffResponse, 0, len(list))
	for i := range list {
		if list[i].Employee != nil && list[i].Employee.CompanyID != caller.CompanyID {
			continue
		}
		items = append(items, toTimeOffResponse(&list[i]))
	}
	return items, nil
}

func (s *timeOffService) Approve(ctx context.Context, id string, caller Caller) (*dto.TimeOffResponse, error) {
	return s.decide(ctx, id, model.TimeOffApproved, caller)
}

func (s *timeOffService) Reject(ctx context.Context, id string, caller Caller) (*dto.TimeOffResponse, error) {
	return s.decide(ctx, id, model.TimeOffRejected, caller)
}

func (s *timeOffService) decide(ctx context.Context, id, status string, caller Caller) (*dto.TimeOffResponse, error) {
	r, err := s.repo.TimeOff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeOffNotFound
		}
		s.logger.Error("查询请假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if r.Employee == nil || r.Employee.CompanyID != caller.CompanyID {
		return nil, ErrTimeOffNotFound
	}
	if r.Status != model.TimeOffPending {
		return nil, ErrTimeOffDecided
	}

	now := s.now()
	r.Status = status
	r.DecidedBy = &caller.UserID
	r.DecidedAt = &now
	r.UpdatedBy = &caller.UserID
	if err := s.repo.TimeOff.Decide(ctx, r); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrTimeOffDecided
		}
		s.logger.Error("审批请假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已审批",
		zap.String("id", id),
		zap.String("status", status),
		zap.String("operator", caller.UserID),
	)
	resp := toTimeOffResponse(r)
	return &resp, nil
}
