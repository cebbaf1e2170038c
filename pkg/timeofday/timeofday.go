// Package timeofday 处理墙钟时间（HH:MM:SS，无日期、无时区）的规范化与运算
package timeofday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Midnight 一天的开始
	Midnight = "00:00:00"
	// EndOfDay 表示营业至午夜（仅用于比较，不落库）
	EndOfDay = "24:00:00"
)

// Normalize 将 H:MM / HH:MM / HH:MM:SS 统一为 HH:MM:SS
// 24:00 仅允许分秒为 0
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("时间格式无效: %q", s)
	}

	h, err := parsePart(parts[0], 1, 2)
	if err != nil {
		return "", fmt.Errorf("时间格式无效: %q", s)
	}
	m, err := parsePart(parts[1], 2, 2)
	if err != nil {
		return "", fmt.Errorf("时间格式无效: %q", s)
	}
	sec := 0
	if len(parts) == 3 {
		if sec, err = parsePart(parts[2], 2, 2); err != nil {
			return "", fmt.Errorf("时间格式无效: %q", s)
		}
	}

	if m > 59 || sec > 59 || h > 24 || (h == 24 && (m != 0 || sec != 0)) {
		return "", fmt.Errorf("时间超出范围: %q", s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), nil
}

func parsePart(p string, minLen, maxLen int) (int, error) {
	if len(p) < minLen || len(p) > maxLen {
		return 0, fmt.Errorf("长度无效")
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("非数字")
		}
	}
	return strconv.Atoi(p)
}

// MustNormalize 规范化，失败时原样返回（用于已落库的可信数据）
func MustNormalize(s string) string {
	n, err := Normalize(s)
	if err != nil {
		return s
	}
	return n
}

// Valid 是否为可识别的时间字符串
func Valid(s string) bool {
	_, err := Normalize(s)
	return err == nil
}

// Minutes 返回自午夜起的分钟数（秒向下取整）
func Minutes(s string) (int, error) {
	n, err := Normalize(s)
	if err != nil {
		return 0, err
	}
	h, _ := strconv.Atoi(n[0:2])
	m, _ := strconv.Atoi(n[3:5])
	return h*60 + m, nil
}

// HoursBetween 计算班次时长（小时，保留小数）
// 结束早于开始视为跨午夜，加 24 小时；秒不参与计算
func HoursBetween(start, end string) (float64, error) {
	s, err := Minutes(start)
	if err != nil {
		return 0, err
	}
	e, err := Minutes(end)
	if err != nil {
		return 0, err
	}
	h := float64(e-s) / 60
	if h < 0 {
		h += 24
	}
	return h, nil
}

// Overlaps 左闭右开区间是否重叠：s1 < e2 && s2 < e1
// 入参须为规范化后的字符串，按字典序比较
func Overlaps(s1, e1, s2, e2 string) bool {
	return s1 < e2 && s2 < e1
}

// Compare 比较两个时间字符串，返回 -1 / 0 / 1
func Compare(a, b string) int {
	a, b = MustNormalize(a), MustNormalize(b)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// On 将日期与墙钟时间组合为具体时刻（loc 为业务时区）
// 24:00:00 视为次日零点
func On(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	n, err := Normalize(clock)
	if err != nil {
		return time.Time{}, err
	}
	h, _ := strconv.Atoi(n[0:2])
	m, _ := strconv.Atoi(n[3:5])
	sec, _ := strconv.Atoi(n[6:8])
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, sec, 0, loc), nil
}

// Window 班次的起止时刻，结束早于开始时结束落在次日
func Window(date time.Time, start, end string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := On(date, start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := On(date, end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// ── 日期 ──

// WeekdayIndex 周一为 0 … 周日为 6
func WeekdayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// WeekStart 返回所在 ISO 周的周一（零点，保留原时区）
func WeekStart(date time.Time) time.Time {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return day.AddDate(0, 0, -WeekdayIndex(day))
}

// DateOnly 截断为当日零点
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
