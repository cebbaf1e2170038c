// Package job 后台定时任务
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shiftgov/config"
	"shiftgov/internal/dto"
	"shiftgov/pkg/timeofday"
)

// 单次检测的超时时间
const scanTimeout = 4 * time.Minute

// ExceptionScanner 考勤异常检测（由 WorkforceExceptionService 实现）
type ExceptionScanner interface {
	ScanAll(ctx context.Context, date time.Time) (*dto.ExceptionScanResponse, error)
}

// AttendanceScanner 定时检测昨天与今天的考勤异常
// 昨天覆盖跨午夜结束的班次，今天覆盖已结束的早班
type AttendanceScanner struct {
	cfg     config.AttendanceConfig
	scanner ExceptionScanner
	tz      *time.Location
	logger  *zap.Logger
	cron    *cron.Cron
	now     func() time.Time
}

// NewAttendanceScanner 创建 AttendanceScanner
func NewAttendanceScanner(cfg config.AttendanceConfig, scanner ExceptionScanner, tz *time.Location, logger *zap.Logger) *AttendanceScanner {
	if tz == nil {
		tz = time.UTC
	}
	cl := cronLogger{s: logger.Sugar()}
	return &AttendanceScanner{
		cfg:     cfg,
		scanner: scanner,
		tz:      tz,
		logger:  logger,
		cron: cron.New(
			cron.WithLocation(tz),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		now: time.Now,
	}
}

// Start 按配置的 cron 表达式启动；未启用时直接返回
func (s *AttendanceScanner) Start() error {
	if !s.cfg.ScanEnabled {
		s.logger.Info("考勤异常定时检测未启用")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.ScanCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("注册考勤检测任务失败: %w", err)
	}
	s.cron.Start()
	s.logger.Info("考勤异常定时检测已启动", zap.String("schedule", s.cfg.ScanCron), zap.String("tz", s.tz.String()))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *AttendanceScanner) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("等待考勤检测任务结束超时")
	}
}

// RunOnce 检测昨天与今天，单日失败不影响另一日
func (s *AttendanceScanner) RunOnce(ctx context.Context) int {
	today := timeofday.DateOnly(s.now().In(s.tz))
	created := 0
	for _, date := range []time.Time{today.AddDate(0, 0, -1), today} {
		res, err := s.scanner.ScanAll(ctx, date)
		if err != nil {
			s.logger.Error("考勤异常检测失败", zap.String("date", date.Format("2006-01-02")), zap.Error(err))
			continue
		}
		created += res.Created
		if res.Created > 0 {
			s.logger.Info("考勤异常检测完成",
				zap.String("date", res.Date),
				zap.Int("locations", res.Locations),
				zap.Int("created", res.Created),
			)
		}
	}
	return created
}

// ── cron.Logger 适配 ──

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
