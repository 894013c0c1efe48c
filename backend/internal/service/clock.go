package service

import (
	"errors"
	"fmt"
	"time"
)

// ── 墙钟时间辅助 ──
//
// 排课与全局设置中的时间均为不含日期的墙钟字符串 "HH:MM"（数据库 TIME 列
// 读出时可能带秒）。判定时统一换算为"当日第几分钟"或结合事件日期还原为
// 具体时刻，时区沿用事件时刻自身的 Location。

// ErrBadClockFormat 墙钟时间格式错误
var ErrBadClockFormat = errors.New("时间格式错误，应为 HH:MM")

// parseClock 解析 "HH:MM" 或 "HH:MM:SS"，返回当日分钟数 [0, 1440)
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, ErrBadClockFormat
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, ErrBadClockFormat
	}
	return h*60 + m, nil
}

// minuteOfDay 返回时刻在其所在日内的分钟数
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// weekdayIndex 将 Go 的 time.Weekday (0=Sunday) 转为 0=周一 … 6=周日
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// combineClock 将墙钟分钟数落到 date 当日，保留 date 的时区
func combineClock(date time.Time, clockMinutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clockMinutes/60, clockMinutes%60, 0, 0, date.Location())
}

// dateOnly 截取时刻的日历日（当日零点，保留时区）
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
