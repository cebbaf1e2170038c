package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shiftgov/config"
	"shiftgov/internal/dto"
)

type fakeScanner struct {
	mu      sync.Mutex
	dates   []string
	failOn  string
	created int
}

func (f *fakeScanner) ScanAll(_ context.Context, date time.Time) (*dto.ExceptionScanResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := date.Format("2006-01-02")
	f.dates = append(f.dates, d)
	if d == f.failOn {
		return nil, errors.New("db down")
	}
	return &dto.ExceptionScanResponse{Date: d, Locations: 1, Created: f.created}, nil
}

func newTestScanner(t *testing.T, cfg config.AttendanceConfig, fs *fakeScanner, tz *time.Location, now time.Time) *AttendanceScanner {
	t.Helper()
	s := NewAttendanceScanner(cfg, fs, tz, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestAttendanceScanner_RunOnce_ScansYesterdayAndToday(t *testing.T) {
	tz, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	fs := &fakeScanner{created: 2}
	// UTC 3 月 2 日 17:00 已是上海时间 3 月 3 日凌晨
	s := newTestScanner(t, config.AttendanceConfig{}, fs, tz, time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC))

	created := s.RunOnce(context.Background())

	assert.Equal(t, []string{"2026-03-02", "2026-03-03"}, fs.dates)
	assert.Equal(t, 4, created)
}

func TestAttendanceScanner_RunOnce_ContinuesAfterFailure(t *testing.T) {
	fs := &fakeScanner{failOn: "2026-03-01", created: 1}
	s := newTestScanner(t, config.AttendanceConfig{}, fs, time.UTC, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	created := s.RunOnce(context.Background())

	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, fs.dates)
	assert.Equal(t, 1, created)
}

func TestAttendanceScanner_Start(t *testing.T) {
	t.Run("未启用", func(t *testing.T) {
		s := newTestScanner(t, config.AttendanceConfig{ScanEnabled: false, ScanCron: "bad"}, &fakeScanner{}, nil, time.Now())
		assert.NoError(t, s.Start())
		assert.Empty(t, s.cron.Entries())
	})

	t.Run("表达式无效", func(t *testing.T) {
		s := newTestScanner(t, config.AttendanceConfig{ScanEnabled: true, ScanCron: "not a cron"}, &fakeScanner{}, nil, time.Now())
		assert.Error(t, s.Start())
	})

	t.Run("正常注册", func(t *testing.T) {
		s := newTestScanner(t, config.AttendanceConfig{ScanEnabled: true, ScanCron: "*/30 * * * *"}, &fakeScanner{}, nil, time.Now())
		require.NoError(t, s.Start())
		assert.Len(t, s.cron.Entries(), 1)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
}
