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
	"shiftgov/pkg/redis"
	"shiftgov/pkg/timeofday"
)

// ── 排班周期模块业务错误 ──

var (
	ErrInvalidTransition = invalidState("排班周期当前状态不允许此流转")
	ErrUnlockForbidden   = fmt.Errorf("%w: 仅 owner / admin 可解锁排班周期", ErrForbidden)
)

// PeriodStateCache 周期状态缓存（Redis 实现见 pkg/redis）
type PeriodStateCache interface {
	GetPeriodState(ctx context.Context, locationID string, weekStart time.Time) (string, error)
	SetPeriodState(ctx context.Context, locationID string, weekStart time.Time, state string, ttl time.Duration) error
}

// SchedulePeriodService 排班周期治理业务接口
type SchedulePeriodService interface {
	// 单门店某周的周期
	GetForWeek(ctx context.Context, req *dto.PeriodQueryRequest, caller Caller) (*dto.PeriodWeekResponse, error)
	// 全部门店某周的周期及汇总状态
	ListForWeek(ctx context.Context, req *dto.PeriodWeekQueryRequest, caller Caller) (*dto.PeriodAggregateResponse, error)
	// draft → published
	Publish(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error)
	// published → locked
	Lock(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error)
	// draft | published → locked
	PublishAndLock(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error)
	// locked → published（仅 owner / admin）
	Unlock(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error)
	// 治理闸门：门店该日所在周是否已锁定
	IsLocked(ctx context.Context, locationID string, date time.Time) (bool, error)
	// 门店该日所在周的周期状态（none 表示无记录），可能短暂落后于数据库
	PeriodState(ctx context.Context, locationID string, date time.Time) (string, error)
	// 门店该日所在周的周期记录，无记录返回 nil
	FindPeriod(ctx context.Context, locationID string, date time.Time) (*model.SchedulePeriod, error)
}

type schedulePeriodService struct {
	repo      *repository.Repository
	cache     PeriodStateCache
	cacheTTL  time.Duration
	publisher *shiftPublisher
	tz        *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewSchedulePeriodService 创建 SchedulePeriodService 实例
// cache 可为 nil，此时每次直接查库
func NewSchedulePeriodService(repo *repository.Repository, cache PeriodStateCache, cacheTTL time.Duration, tz *time.Location, logger *zap.Logger) SchedulePeriodService {
	if tz == nil {
		tz = time.UTC
	}
	return &schedulePeriodService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		publisher: &shiftPublisher{repo: repo, logger: logger},
		tz:        tz,
		now:       time.Now,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// GetForWeek / ListForWeek 周期查询
// ════════════════════════════════════════════════════════════

func (s *schedulePeriodService) GetForWeek(ctx context.Context, req *dto.PeriodQueryRequest, caller Caller) (*dto.PeriodWeekResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadLocation(ctx, req.LocationID, caller); err != nil {
		return nil, err
	}

	weekStart := timeofday.WeekStart(date)
	resp := &dto.PeriodWeekResponse{
		LocationID: req.LocationID,
		WeekStart:  formatDate(weekStart),
		Status:     model.PeriodNone,
	}

	period, err := s.FindPeriod(ctx, req.LocationID, date)
	if err != nil {
		return nil, err
	}
	if period != nil {
		pr := toPeriodResponse(period)
		resp.Governed = true
		resp.Status = period.Status
		resp.Period = &pr
	}
	return resp, nil
}

func (s *schedulePeriodService) ListForWeek(ctx context.Context, req *dto.PeriodWeekQueryRequest, caller Caller) (*dto.PeriodAggregateResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	weekStart := timeofday.WeekStart(date)

	periods, err := s.repo.Period.ListByWeek(ctx, caller.CompanyID, weekStart)
	if err != nil {
		s.logger.Error("查询周期列表失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.PeriodAggregateResponse{
		WeekStart:      formatDate(weekStart),
		AggregateState: AggregatePeriodState(periods),
		Periods:        make([]dto.PeriodResponse, 0, len(periods)),
	}
	for i := range periods {
		resp.Periods = append(resp.Periods, toPeriodResponse(&periods[i]))
	}
	return resp, nil
}

// AggregatePeriodState 多门店汇总状态：全部一致取该状态，不一致为 mixed，无记录为 none
func AggregatePeriodState(periods []model.SchedulePeriod) string {
	if len(periods) == 0 {
		return model.PeriodNone
	}
	state := periods[0].Status
	for _, p := range periods[1:] {
		if p.Status != state {
			return model.PeriodMixed
		}
	}
	return state
}

// ════════════════════════════════════════════════════════════
// 状态流转
// ════════════════════════════════════════════════════════════

func (s *schedulePeriodService) Publish(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error) {
	return s.transition(ctx, req, caller, true, func(p *model.SchedulePeriod, now time.Time) error {
		if p.Status != model.PeriodDraft {
			return ErrInvalidTransition
		}
		p.Status = model.PeriodPublished
		p.PublishedAt = &now
		return nil
	})
}

func (s *schedulePeriodService) Lock(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error) {
	return s.transition(ctx, req, caller, false, func(p *model.SchedulePeriod, now time.Time) error {
		if p.Status != model.PeriodPublished {
			return ErrInvalidTransition
		}
		p.Status = model.PeriodLocked
		p.LockedAt = &now
		p.LockedBy = &caller.UserID
		return nil
	})
}

func (s *schedulePeriodService) PublishAndLock(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error) {
	return s.transition(ctx, req, caller, true, func(p *model.SchedulePeriod, now time.Time) error {
		if p.Status != model.PeriodDraft && p.Status != model.PeriodPublished {
			return ErrInvalidTransition
		}
		if p.PublishedAt == nil {
			p.PublishedAt = &now
		}
		p.Status = model.PeriodLocked
		p.LockedAt = &now
		p.LockedBy = &caller.UserID
		return nil
	})
}

func (s *schedulePeriodService) Unlock(ctx context.Context, req *dto.PeriodTransitionRequest, caller Caller) (*dto.PeriodTransitionResponse, error) {
	if !model.CanUnlockPeriod(caller.Role) {
		return nil, ErrUnlockForbidden
	}
	return s.transition(ctx, req, caller, false, func(p *model.SchedulePeriod, now time.Time) error {
		if p.Status != model.PeriodLocked {
			return ErrInvalidTransition
		}
		p.Status = model.PeriodPublished
		p.LockedAt = nil
		p.LockedBy = nil
		return nil
	})
}

// transition 加载（或按需创建草稿）周期 → 校验版本 → 流转 → 乐观锁写回 → 写入缓存
func (s *schedulePeriodService) transition(
	ctx context.Context,
	req *dto.PeriodTransitionRequest,
	caller Caller,
	createIfMissing bool,
	apply func(p *model.SchedulePeriod, now time.Time) error,
) (*dto.PeriodTransitionResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	loc, err := s.loadLocation(ctx, req.LocationID, caller)
	if err != nil {
		return nil, err
	}
	weekStart := timeofday.WeekStart(date)

	period, err := s.FindPeriod(ctx, loc.LocationID, date)
	if err != nil {
		return nil, err
	}
	if period == nil {
		if !createIfMissing {
			return nil, ErrInvalidTransition
		}
		period = &model.SchedulePeriod{
			CompanyID:  loc.CompanyID,
			LocationID: loc.LocationID,
			WeekStart:  weekStart,
			Status:     model.PeriodDraft,
		}
		period.Version = 1
		period.CreatedBy = &caller.UserID
		period.UpdatedBy = &caller.UserID
		if err := s.repo.Period.Create(ctx, period); err != nil {
			// 并发请求同时为同一周建档
			if pkgerrors.IsDuplicateKey(err) {
				return nil, pkgerrors.ErrOptimisticLock
			}
			s.logger.Error("创建排班周期失败", zap.String("location_id", loc.LocationID), zap.Error(err))
			return nil, err
		}
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion != period.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	now := s.now()
	if err := apply(period, now); err != nil {
		return nil, err
	}
	period.UpdatedBy = &caller.UserID

	if err := s.repo.Period.Update(ctx, period); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新排班周期失败", zap.String("period_id", period.PeriodID), zap.Error(err))
		}
		return nil, err
	}
	s.cacheState(ctx, loc.LocationID, weekStart, period.Status)

	s.logger.Info("排班周期状态变更",
		zap.String("period_id", period.PeriodID),
		zap.String("location_id", loc.LocationID),
		zap.String("week_start", formatDate(weekStart)),
		zap.String("status", period.Status),
		zap.String("operator", caller.UserID),
	)

	resp := &dto.PeriodTransitionResponse{Period: toPeriodResponse(period)}
	if req.PublishShifts && period.Status != model.PeriodDraft {
		published, err := s.publishWeekShifts(ctx, loc.CompanyID, loc.LocationID, weekStart, caller.UserID)
		if err != nil {
			return nil, err
		}
		resp.PublishedShifts = published
	}
	return resp, nil
}

// publishWeekShifts 发布该周今天及以后的未发布班次
func (s *schedulePeriodService) publishWeekShifts(ctx context.Context, companyID, locationID string, weekStart time.Time, callerID string) (*dto.BulkPublishResponse, error) {
	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		CompanyID:  companyID,
		LocationID: locationID,
		From:       weekStart,
		To:         weekStart.AddDate(0, 0, 6),
	})
	if err != nil {
		s.logger.Error("查询周班次失败", zap.String("location_id", locationID), zap.Error(err))
		return nil, err
	}

	today := s.now().In(s.tz).Format(model.DateLayout)
	ids := make([]string, 0, len(shifts))
	for _, sh := range shifts {
		if !sh.IsPublished && formatDate(sh.ShiftDate) >= today {
			ids = append(ids, sh.ShiftID)
		}
	}
	return s.publisher.publish(ctx, ids, shifts, companyID, true, today, callerID), nil
}

// ════════════════════════════════════════════════════════════
// 治理闸门
// ════════════════════════════════════════════════════════════

// IsLocked 只读数据库；缓存可能落后于刚完成的流转，不能作为写入依据
func (s *schedulePeriodService) IsLocked(ctx context.Context, locationID string, date time.Time) (bool, error) {
	period, err := s.FindPeriod(ctx, locationID, date)
	if err != nil {
		return false, err
	}
	return period != nil && period.Status == model.PeriodLocked, nil
}

// PeriodState 周排班视图展示用的周期状态，优先读缓存
func (s *schedulePeriodService) PeriodState(ctx context.Context, locationID string, date time.Time) (string, error) {
	weekStart := timeofday.WeekStart(date)

	if s.cache != nil {
		state, err := s.cache.GetPeriodState(ctx, locationID, weekStart)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("读取周期状态缓存失败，回源数据库", zap.String("location_id", locationID), zap.Error(err))
		}
	}

	period, err := s.FindPeriod(ctx, locationID, date)
	if err != nil {
		return "", err
	}
	state := model.PeriodNone
	if period != nil {
		state = period.Status
	}
	s.cacheState(ctx, locationID, weekStart, state)
	return state, nil
}

func (s *schedulePeriodService) FindPeriod(ctx context.Context, locationID string, date time.Time) (*model.SchedulePeriod, error) {
	period, err := s.repo.Period.GetByLocationWeek(ctx, locationID, timeofday.WeekStart(date))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询排班周期失败", zap.String("location_id", locationID), zap.Error(err))
		return nil, err
	}
	return period, nil
}

// ── 内部辅助方法 ──

func (s *schedulePeriodService) cacheState(ctx context.Context, locationID string, weekStart time.Time, state string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPeriodState(ctx, locationID, weekStart, state, s.cacheTTL); err != nil {
		s.logger.Warn("写入周期状态缓存失败", zap.String("location_id", locationID), zap.Error(err))
	}
}

func (s *schedulePeriodService) loadLocation(ctx context.Context, locationID string, caller Caller) (*model.Location, error) {
	return loadLocation(ctx, s.repo, s.logger, locationID, caller)
}

// loadLocation 查询门店并校验归属公司
func loadLocation(ctx context.Context, repo *repository.Repository, logger *zap.Logger, locationID string, caller Caller) (*model.Location, error) {
	loc, err := repo.Location.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		logger.Error("查询门店失败", zap.String("location_id", locationID), zap.Error(err))
		return nil, err
	}
	if loc.CompanyID != caller.CompanyID {
		return nil, ErrLocationNotFound
	}
	return loc, nil
}
