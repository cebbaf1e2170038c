package timeofday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "9:00", want: "09:00:00"},
		{in: "09:00", want: "09:00:00"},
		{in: "09:00:30", want: "09:00:30"},
		{in: " 17:45 ", want: "17:45:00"},
		{in: "24:00", want: "24:00:00"},
		{in: "24:00:00", want: "24:00:00"},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "123:00", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHoursBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       float64
	}{
		{name: "same day", start: "09:00", end: "17:00", want: 8},
		{name: "half hour", start: "09:30", end: "12:00", want: 2.5},
		{name: "overnight", start: "22:00", end: "02:00", want: 4},
		{name: "until midnight", start: "18:00", end: "00:00", want: 6},
		{name: "zero length", start: "10:00", end: "10:00", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HoursBetween(tt.start, tt.end)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := HoursBetween("bad", "10:00")
	assert.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	// 左闭右开：首尾相接不算重叠
	assert.False(t, Overlaps("09:00:00", "13:00:00", "13:00:00", "17:00:00"))
	assert.True(t, Overlaps("09:00:00", "13:00:00", "12:00:00", "17:00:00"))
	assert.True(t, Overlaps("10:00:00", "11:00:00", "09:00:00", "17:00:00"))
	assert.False(t, Overlaps("18:00:00", "20:00:00", "09:00:00", "17:00:00"))
}

func TestWeekStartAndIndex(t *testing.T) {
	sunday := time.Date(2025, 3, 16, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, WeekdayIndex(sunday))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), WeekStart(sunday))

	monday := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, WeekdayIndex(monday))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), WeekStart(monday))
}

func TestOn(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := On(day, "09:15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC), got)

	got, err = On(day, "24:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), got)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare("9:00", "10:00"))
	assert.Equal(t, 0, Compare("09:00", "09:00:00"))
	assert.Equal(t, 1, Compare("23:00", "22:59:59"))
}

func TestWindow(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	from, to, err := Window(day, "22:00", "06:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC), to)

	from, to, err = Window(day, "09:00", "17:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, to.Sub(from))

	_, _, err = Window(day, "9am", "17:00", time.UTC)
	assert.Error(t, err)
}
