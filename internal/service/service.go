package service

import (
	"go.uber.org/zap"

	"shiftgov/config"
	"shiftgov/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Location      LocationService
	Period        SchedulePeriodService
	ChangeRequest ChangeRequestService
	Shift         ShiftService
	Labor         LaborService
	Exception     WorkforceExceptionService
	Approval      ApprovalQueueService
	TimeOff       TimeOffService
	Export        ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时周期状态不走缓存（Redis 不可用时的降级）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache PeriodStateCache,
	logger *zap.Logger,
) *Service {
	tz := cfg.Governance.Location()
	hours := newHoursCache(repo, cfg.Governance.HoursCacheTTL, logger)

	period := NewSchedulePeriodService(repo, cache, cfg.Governance.PeriodCacheTTL, tz, logger)
	changes := NewChangeRequestService(repo, period, hours, logger)
	shifts := NewShiftService(repo, period, changes, hours, tz, logger)
	labor := NewLaborService(repo, logger)
	exceptions := NewWorkforceExceptionService(repo, cfg.Attendance, tz, logger)

	return &Service{
		Location:      NewLocationService(repo, hours, logger),
		Period:        period,
		ChangeRequest: changes,
		Shift:         shifts,
		Labor:         labor,
		Exception:     exceptions,
		Approval:      NewApprovalQueueService(repo, shifts, changes, exceptions, logger),
		TimeOff:       NewTimeOffService(repo, logger),
		Export:        NewExportService(repo, labor, tz, logger),
	}
}
