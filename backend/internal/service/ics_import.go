package service

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
)

// ── ICS 课表导入解析 ──
//
// 将标准 iCalendar (RFC 5545) 内容解析为周期性排课列表：
//   - DTSTART/DTEND 确定星期几（0=周一）与墙钟时间
//   - 同 名称+星期+时间 的多个事件合并为一条排课
//   - 事件日期的最小/最大值作为该排课的生效范围（调用方可整体覆写）

const (
	icsMaxFileSize  = 5 * 1024 * 1024
	icsFetchTimeout = 30 * time.Second
)

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// parsedScheduleEvent ICS 解析中间结构
type parsedScheduleEvent struct {
	Name      string
	DayOfWeek int // 0=周一 … 6=周日
	StartTime string
	EndTime   string
	Room      string
	FirstDate time.Time
	LastDate  time.Time
}

// parseICSSchedules 解析 ICS 内容并转为 Schedule 列表
func parseICSSchedules(reader io.Reader) ([]model.Schedule, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	var events []parsedScheduleEvent
	for _, comp := range cal.Events() {
		evt, ok := parseScheduleVEvent(comp)
		if !ok {
			continue
		}
		events = append(events, evt)
	}

	merged := mergeScheduleEvents(events)

	result := make([]model.Schedule, 0, len(merged))
	for _, evt := range merged {
		sch := model.Schedule{
			Name:      evt.Name,
			DayOfWeek: evt.DayOfWeek,
			StartTime: evt.StartTime,
			EndTime:   evt.EndTime,
			IsActive:  true,
		}
		if !evt.FirstDate.IsZero() {
			from := dateOnly(evt.FirstDate)
			sch.EffectiveFrom = &from
		}
		if !evt.LastDate.IsZero() {
			to := dateOnly(evt.LastDate)
			sch.EffectiveTo = &to
		}
		if evt.Room != "" {
			room := evt.Room
			sch.Room = &room
		}
		result = append(result, sch)
	}
	return result, nil
}

// parseScheduleVEvent 解析单个 VEVENT 组件
func parseScheduleVEvent(evt *ics.VEvent) (parsedScheduleEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return parsedScheduleEvent{}, false
	}
	name := strings.TrimSpace(summary.Value)

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart)
	if err != nil {
		return parsedScheduleEvent{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd)
	if err != nil {
		// 无 DTEND 时默认 90 分钟
		dtEnd = dtStart.Add(90 * time.Minute)
	}
	if !dtEnd.After(dtStart) {
		return parsedScheduleEvent{}, false
	}

	room := ""
	if loc := evt.GetProperty(ics.ComponentPropertyLocation); loc != nil {
		room = strings.TrimSpace(loc.Value)
	}

	// RRULE 的 UNTIL 延长生效范围
	lastDate := dtStart
	if rrule := evt.GetProperty(ics.ComponentPropertyRrule); rrule != nil {
		if until := parseRRuleUntil(rrule.Value); !until.IsZero() {
			lastDate = until
		}
	}

	return parsedScheduleEvent{
		Name:      name,
		DayOfWeek: weekdayIndex(dtStart),
		StartTime: dtStart.Format("15:04"),
		EndTime:   dtEnd.Format("15:04"),
		Room:      room,
		FirstDate: dtStart,
		LastDate:  lastDate,
	}, true
}

// parseRRuleUntil 从 RRULE 字符串中取 UNTIL（如 FREQ=WEEKLY;UNTIL=20260601T000000Z）
func parseRRuleUntil(value string) time.Time {
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || strings.ToUpper(kv[0]) != "UNTIL" {
			continue
		}
		t, err := time.Parse("20060102T150405Z", kv[1])
		if err != nil {
			t, _ = time.Parse("20060102", kv[1])
		}
		return t
	}
	return time.Time{}
}

// mergeScheduleEvents 合并同一排课的多个单次事件
func mergeScheduleEvents(events []parsedScheduleEvent) []parsedScheduleEvent {
	type key struct {
		Name      string
		DayOfWeek int
		StartTime string
		EndTime   string
	}
	merged := make(map[key]*parsedScheduleEvent)
	order := []key{}

	for _, e := range events {
		k := key{Name: e.Name, DayOfWeek: e.DayOfWeek, StartTime: e.StartTime, EndTime: e.EndTime}
		if existing, ok := merged[k]; ok {
			if e.FirstDate.Before(existing.FirstDate) {
				existing.FirstDate = e.FirstDate
			}
			if e.LastDate.After(existing.LastDate) {
				existing.LastDate = e.LastDate
			}
			if existing.Room == "" {
				existing.Room = e.Room
			}
		} else {
			cp := e
			merged[k] = &cp
			order = append(order, k)
		}
	}

	result := make([]parsedScheduleEvent, 0, len(merged))
	for _, k := range order {
		result = append(result, *merged[k])
	}
	return result
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(time.Local), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
