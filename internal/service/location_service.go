package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	"shiftgov/pkg/timeofday"
)

// ── 门店模块业务错误 ──

var (
	ErrLocationNotFound = errors.New("门店不存在")
)

// LocationService 门店与营业时间业务接口
type LocationService interface {
	Create(ctx context.Context, req *dto.CreateLocationRequest, caller Caller) (*dto.LocationResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.LocationResponse, error)
	List(ctx context.Context, req *dto.LocationListRequest, caller Caller) ([]dto.LocationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateLocationRequest, caller Caller) (*dto.LocationResponse, error)
	GetOperatingHours(ctx context.Context, id string, caller Caller) ([]dto.OperatingHoursItem, error)
	SetOperatingHours(ctx context.Context, id string, req *dto.SetOperatingHoursRequest, caller Caller) ([]dto.OperatingHoursItem, error)
}

type locationService struct {
	repo   *repository.Repository
	hours  *hoursCache
	logger *zap.Logger
}

// NewLocationService 创建 LocationService 实例
func NewLocationService(repo *repository.Repository, hours *hoursCache, logger *zap.Logger) LocationService {
	return &locationService{repo: repo, hours: hours, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *locationService) Create(ctx context.Context, req *dto.CreateLocationRequest, caller Caller) (*dto.LocationResponse, error) {
	loc := &model.Location{
		CompanyID: caller.CompanyID,
		Name:      req.Name,
		Address:   req.Address,
		IsActive:  true,
	}
	loc.CreatedBy = &caller.UserID
	loc.UpdatedBy = &caller.UserID

	if err := s.repo.Location.Create(ctx, loc); err != nil {
		s.logger.Error("创建门店失败", zap.Error(err))
		return nil, err
	}

	return toLocationResponse(loc), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *locationService) GetByID(ctx context.Context, id string, caller Caller) (*dto.LocationResponse, error) {
	loc, err := loadLocation(ctx, s.repo, s.logger, id, caller)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// ────────────────────── List ──────────────────────

func (s *locationService) List(ctx context.Context, req *dto.LocationListRequest, caller Caller) ([]dto.LocationResponse, error) {
	locations, err := s.repo.Location.List(ctx, caller.CompanyID, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出门店失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		result = append(result, *toLocationResponse(&locations[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *locationService) Update(ctx context.Context, id string, req *dto.UpdateLocationRequest, caller Caller) (*dto.LocationResponse, error) {
	loc, err := loadLocation(ctx, s.repo, s.logger, id, caller)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Address != nil {
		loc.Address = *req.Address
	}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}
	loc.UpdatedBy = &caller.UserID

	if err := s.repo.Location.Update(ctx, loc); err != nil {
		s.logger.Error("更新门店失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toLocationResponse(loc), nil
}

// ────────────────────── 营业时间 ──────────────────────

func (s *locationService) GetOperatingHours(ctx context.Context, id string, caller Caller) ([]dto.OperatingHoursItem, error) {
	if _, err := loadLocation(ctx, s.repo, s.logger, id, caller); err != nil {
		return nil, err
	}
	hours, err := s.hours.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOperatingHoursItems(hours), nil
}

// SetOperatingHours 整体替换一周营业时间，未列出的星期几视为 24 小时营业
func (s *locationService) SetOperatingHours(ctx context.Context, id string, req *dto.SetOperatingHoursRequest, caller Caller) ([]dto.OperatingHoursItem, error) {
	if _, err := loadLocation(ctx, s.repo, s.logger, id, caller); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(req.Days))
	hours := make([]model.OperatingHours, 0, len(req.Days))
	for _, d := range req.Days {
		if d.Weekday < 0 || d.Weekday > 6 {
			return nil, newValidationError("weekday", "星期几必须在 0-6 之间")
		}
		if seen[d.Weekday] {
			return nil, newValidationError("weekday", "同一星期几只能设置一次")
		}
		seen[d.Weekday] = true

		entry := model.OperatingHours{
			LocationID: id,
			Weekday:    d.Weekday,
			OpenTime:   timeofday.Midnight,
			CloseTime:  timeofday.Midnight,
			IsClosed:   d.IsClosed,
		}
		if !d.IsClosed {
			open, err := timeofday.Normalize(d.OpenTime)
			if err != nil {
				return nil, newValidationError("open_time", "营业日必须填写开门时间")
			}
			closeAt, err := timeofday.Normalize(d.CloseTime)
			if err != nil {
				return nil, newValidationError("close_time", "营业日必须填写打烊时间")
			}
			entry.OpenTime, entry.CloseTime = open, closeAt
		}
		entry.CreatedBy = &caller.UserID
		entry.UpdatedBy = &caller.UserID
		hours = append(hours, entry)
	}

	if err := s.repo.OperatingHours.ReplaceForLocation(ctx, id, hours); err != nil {
		s.logger.Error("保存营业时间失败", zap.String("location_id", id), zap.Error(err))
		return nil, err
	}
	s.hours.invalidate(id)

	s.logger.Info("门店营业时间已更新",
		zap.String("location_id", id),
		zap.Int("days", len(hours)),
		zap.String("operator", caller.UserID),
	)
	return toOperatingHoursItems(hours), nil
}

// ── 内部辅助方法 ──

func toLocationResponse(loc *model.Location) *dto.LocationResponse {
	return &dto.LocationResponse{
		ID:             loc.LocationID,
		Name:           loc.Name,
		Address:        loc.Address,
		IsActive:       loc.IsActive,
		OperatingHours: toOperatingHoursItems(loc.OperatingHours),
		CreatedAt:      formatTime(loc.CreatedAt),
		UpdatedAt:      formatTime(loc.UpdatedAt),
	}
}

func toOperatingHoursItems(hours []model.OperatingHours) []dto.OperatingHoursItem {
	if len(hours) == 0 {
		return nil
	}
	items := make([]dto.OperatingHoursItem, 0, len(hours))
	for _, h := range hours {
		items = append(items, dto.OperatingHoursItem{
			Weekday:   h.Weekday,
			OpenTime:  h.OpenTime,
			CloseTime: h.CloseTime,
			IsClosed:  h.IsClosed,
		})
	}
	return items
}

// findLocation 不校验公司归属的门店查询（调用方已完成归属校验）
func findLocation(ctx context.Context, repo *repository.Repository, id string) (*model.Location, error) {
	loc, err := repo.Location.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return loc, nil
}
