package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	"shiftgov/pkg/timeofday"
)

// LaborService 人工成本统计业务接口（只读投影 + 营业额录入）
type LaborService interface {
	Daily(ctx context.Context, req *dto.LaborQueryRequest, caller Caller) (*dto.LaborDayResponse, error)
	Weekly(ctx context.Context, req *dto.LaborQueryRequest, caller Caller) (*dto.LaborWeekResponse, error)
	UpsertSales(ctx context.Context, req *dto.UpsertSalesRequest, caller Caller) (*dto.LaborDayResponse, error)
}

type laborService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLaborService 创建 LaborService 实例
func NewLaborService(repo *repository.Repository, logger *zap.Logger) LaborService {
	return &laborService{repo: repo, logger: logger}
}

func (s *laborService) Daily(ctx context.Context, req *dto.LaborQueryRequest, caller Caller) (*dto.LaborDayResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller); err != nil {
		return nil, err
	}
	days, err := s.compute(ctx, caller.CompanyID, req.LocationID, date, date)
	if err != nil {
		return nil, err
	}
	return &days[0], nil
}

func (s *laborService) Weekly(ctx context.Context, req *dto.LaborQueryRequest, caller Caller) (*dto.LaborWeekResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller); err != nil {
		return nil, err
	}

	weekStart := timeofday.WeekStart(date)
	days, err := s.compute(ctx, caller.CompanyID, req.LocationID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}

	total := dto.LaborDayResponse{Date: formatDate(weekStart)}
	for _, d := range days {
		total.ScheduledHours += d.ScheduledHours
		total.ScheduledCost += d.ScheduledCost
		total.ProjectedSales += d.ProjectedSales
		total.ActualSales += d.ActualSales
	}
	finishLaborDay(&total)

	return &dto.LaborWeekResponse{
		LocationID: req.LocationID,
		WeekStart:  formatDate(weekStart),
		Days:       days,
		Total:      total,
	}, nil
}

// UpsertSales 写入外部营业额（预测 / 实际），返回当日统计
func (s *laborService) UpsertSales(ctx context.Context, req *dto.UpsertSalesRequest, caller Caller) (*dto.LaborDayResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller); err != nil {
		return nil, err
	}

	day := &model.LaborSalesDay{
		LocationID:     req.LocationID,
		SalesDate:      date,
		ProjectedSales: req.ProjectedSales,
		ActualSales:    req.ActualSales,
	}
	day.CreatedBy = &caller.UserID
	day.UpdatedBy = &caller.UserID
	if err := s.repo.LaborSales.Upsert(ctx, day); err != nil {
		s.logger.Error("写入营业额失败", zap.String("location_id", req.LocationID), zap.Error(err))
		return nil, err
	}

	days, err := s.compute(ctx, caller.CompanyID, req.LocationID, date, date)
	if err != nil {
		return nil, err
	}
	return &days[0], nil
}

// compute 逐日统计 [from, to]
func (s *laborService) compute(ctx context.Context, companyID, locationID string, from, to time.Time) ([]dto.LaborDayResponse, error) {
	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		CompanyID:  companyID,
		LocationID: locationID,
		From:       from,
		To:         to,
	})
	if err != nil {
		s.logger.Error("查询班次失败", zap.String("location_id", locationID), zap.Error(err))
		return nil, err
	}

	var ids []string
	for _, sh := range shifts {
		for _, a := range sh.Assignments {
			if a.Status == model.AssignmentApproved {
				ids = append(ids, a.EmployeeID)
			}
		}
	}
	rates := map[string]float64{}
	if ids = uniqueStrings(ids); len(ids) > 0 {
		employees, err := s.repo.Employee.GetByIDs(ctx, ids)
		if err != nil {
			s.logger.Error("查询员工时薪失败", zap.Error(err))
			return nil, err
		}
		for _, e := range employees {
			rates[e.EmployeeID] = e.HourlyRate
		}
	}

	salesList, err := s.repo.LaborSales.ListRange(ctx, locationID, from, to)
	if err != nil {
		s.logger.Error("查询营业额失败", zap.String("location_id", locationID), zap.Error(err))
		return nil, err
	}
	sales := make(map[string]*model.LaborSalesDay, len(salesList))
	for i := range salesList {
		sales[formatDate(salesList[i].SalesDate)] = &salesList[i]
	}

	byDate := map[string][]model.Shift{}
	for _, sh := range shifts {
		key := formatDate(sh.ShiftDate)
		byDate[key] = append(byDate[key], sh)
	}

	var days []dto.LaborDayResponse
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := formatDate(d)
		days = append(days, ComputeLaborDay(d, byDate[key], rates, sales[key]))
	}
	return days, nil
}

// ComputeLaborDay 单日人工成本：仅统计非开放班次的已批准指派，工时 × 员工时薪
// sales 为 nil 时营业额记为 0；预测营业额大于 0 时才计算人工成本占比
func ComputeLaborDay(date time.Time, shifts []model.Shift, rates map[string]float64, sales *model.LaborSalesDay) dto.LaborDayResponse {
	day := dto.LaborDayResponse{Date: formatDate(date)}
	for _, sh := range shifts {
		if sh.IsOpenShift {
			continue
		}
		hours, err := timeofday.HoursBetween(sh.StartTime, sh.EndTime)
		if err != nil {
			continue
		}
		for _, a := range sh.Assignments {
			if a.Status != model.AssignmentApproved {
				continue
			}
			day.ScheduledHours += hours
			day.ScheduledCost += hours * rates[a.EmployeeID]
		}
	}
	if sales != nil {
		day.ProjectedSales = sales.ProjectedSales
		day.ActualSales = sales.ActualSales
	}
	finishLaborDay(&day)
	return day
}

func finishLaborDay(day *dto.LaborDayResponse) {
	day.ScheduledHours = round2(day.ScheduledHours)
	day.ScheduledCost = round2(day.ScheduledCost)
	day.LaborPercent = nil
	if day.ProjectedSales > 0 {
		pct := round2(day.ScheduledCost / day.ProjectedSales * 100)
		day.LaborPercent = &pct
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
