package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	"shiftgov/pkg/timeofday"
)

// HoursCheck 营业时间校验结果
type HoursCheck struct {
	OK     bool
	Reason string
}

const (
	reasonLocationClosed = "门店当日休息"
	reasonBeforeOpening  = "班次开始早于营业时间"
	reasonAfterClosing   = "班次结束晚于打烊时间"
	reasonOutsideHours   = "班次不在营业时间内"
	reasonBadTime        = "时间格式无效"
)

// CheckOperatingHours 校验班次是否落在某一天的营业时间内
// entry 为 nil 表示当天无营业时间记录，视为 24 小时营业
//
// 跨夜营业（打烊早于开门且打烊不为 00:00:00）时采用宽松判定：
// 开始不早于开门，或结束不晚于打烊，满足其一即通过
func CheckOperatingHours(entry *model.OperatingHours, start, end string) HoursCheck {
	s, err := timeofday.Normalize(start)
	if err != nil {
		return HoursCheck{Reason: reasonBadTime}
	}
	e, err := timeofday.Normalize(end)
	if err != nil {
		return HoursCheck{Reason: reasonBadTime}
	}

	if entry == nil {
		return HoursCheck{OK: true}
	}
	if entry.IsClosed {
		return HoursCheck{Reason: reasonLocationClosed}
	}

	open, err := timeofday.Normalize(entry.OpenTime)
	if err != nil {
		return HoursCheck{Reason: reasonBadTime}
	}
	closeAt, err := timeofday.Normalize(entry.CloseTime)
	if err != nil {
		return HoursCheck{Reason: reasonBadTime}
	}

	overnight := closeAt < open && closeAt != timeofday.Midnight
	if overnight {
		if s >= open || e <= closeAt {
			return HoursCheck{OK: true}
		}
		return HoursCheck{Reason: reasonOutsideHours}
	}

	effectiveClose := closeAt
	if closeAt == timeofday.Midnight {
		effectiveClose = timeofday.EndOfDay
	}
	if s < open {
		return HoursCheck{Reason: reasonBeforeOpening}
	}
	if e > effectiveClose {
		return HoursCheck{Reason: reasonAfterClosing}
	}
	return HoursCheck{OK: true}
}

// CheckShiftHours 从一周营业时间中选出班次日期对应的星期几再校验
func CheckShiftHours(week []model.OperatingHours, date time.Time, start, end string) HoursCheck {
	weekday := timeofday.WeekdayIndex(date)
	for i := range week {
		if week[i].Weekday == weekday {
			return CheckOperatingHours(&week[i], start, end)
		}
	}
	return CheckOperatingHours(nil, start, end)
}

// ── 营业时间缓存 ──

// hoursCache 门店营业时间的进程内缓存，写入营业时间时失效
type hoursCache struct {
	repo   *repository.Repository
	cache  *gocache.Cache
	logger *zap.Logger
}

func newHoursCache(repo *repository.Repository, ttl time.Duration, logger *zap.Logger) *hoursCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &hoursCache{
		repo:   repo,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (c *hoursCache) get(ctx context.Context, locationID string) ([]model.OperatingHours, error) {
	if v, ok := c.cache.Get(locationID); ok {
		return v.([]model.OperatingHours), nil
	}

	hours, err := c.repo.OperatingHours.ListByLocation(ctx, locationID)
	if err != nil {
		c.logger.Error("查询营业时间失败", zap.String("location_id", locationID), zap.Error(err))
		return nil, err
	}
	c.cache.SetDefault(locationID, hours)
	return hours, nil
}

func (c *hoursCache) invalidate(locationID string) {
	c.cache.Delete(locationID)
}

// check 按门店营业时间校验，失败时返回 ValidationError
func (c *hoursCache) check(ctx context.Context, locationID string, date time.Time, start, end string) error {
	hours, err := c.get(ctx, locationID)
	if err != nil {
		return err
	}
	if res := CheckShiftHours(hours, date, start, end); !res.OK {
		return newValidationError("start_time", res.Reason)
	}
	return nil
}
