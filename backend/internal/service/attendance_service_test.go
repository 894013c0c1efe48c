package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/config"
	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/notify"
	"github.com/axmedovx0430/davomatai/backend/internal/recognition"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
)

// 测试基准日期：2026-09-07 是周一（DayOfWeek=0）
const mondayDate = "2026-09-07"

type attendanceTestEnv struct {
	svc       AttendanceService
	users     *mockUserRepo
	schedules *mockScheduleRepo
	records   *mockAttendanceRepo
	settings  *mockTimeSettingsRepo
}

func setupTestAttendanceService() *attendanceTestEnv {
	env := &attendanceTestEnv{
		users:     newMockUserRepo(),
		schedules: newMockScheduleRepo(),
		records:   newMockAttendanceRepo(),
		settings:  newMockTimeSettingsRepo(),
	}
	repo := &repository.Repository{
		User:         env.users,
		Group:        newMockGroupRepo(),
		Schedule:     env.schedules,
		Attendance:   env.records,
		TimeSettings: env.settings,
		Device:       newMockDeviceRepo(),
	}
	logger := zap.NewNop()
	recog := recognition.NewClient(&config.RecognitionConfig{Skip: true})
	notifier := notify.NewNotifier(&config.TelegramConfig{}, logger)
	svc := NewAttendanceService(repo, nil, recog, notifier, logger).(*attendanceService)
	// 固定服务时钟，避免统计区间依赖真实墙钟
	svc.now = func() time.Time {
		return time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)
	}
	env.svc = svc
	return env
}

func (env *attendanceTestEnv) seedUser(id string, groupIDs ...string) *model.User {
	user := &model.User{
		UserID:     id,
		FullName:   "测试人员-" + id,
		EmployeeID: "EMP-" + id,
		IsActive:   true,
	}
	for _, gid := range groupIDs {
		user.Groups = append(user.Groups, model.Group{GroupID: gid, Name: "班组-" + gid})
	}
	env.users.users[id] = user
	return user
}

func (env *attendanceTestEnv) seedSchedule(id, name string, day int, start, end string, groupID *string) *model.Schedule {
	sch := &model.Schedule{
		ScheduleID: id,
		Name:       name,
		DayOfWeek:  day,
		StartTime:  start,
		EndTime:    end,
		GroupID:    groupID,
		IsActive:   true,
	}
	env.schedules.schedules[id] = sch
	return sch
}

func (env *attendanceTestEnv) report(t *testing.T, userID, timestamp string, confidence float64) *dto.AttendanceEventResponse {
	t.Helper()
	resp, err := env.svc.ProcessEvent(context.Background(), &dto.AttendanceEventRequest{
		UserID:     userID,
		Confidence: &confidence,
		Timestamp:  timestamp,
	}, "dev-1")
	if err != nil {
		t.Fatalf("ProcessEvent 应成功: %v", err)
	}
	return resp
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func datePtr(v string) *time.Time {
	d, _ := time.Parse("2006-01-02", v)
	return &d
}

// ── 排课解析与到场窗口 ──

func TestProcessEvent_OnTime_Created(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)

	resp := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)

	if resp.Outcome != dto.OutcomeCreated {
		t.Fatalf("期望outcome=created，实际=%s", resp.Outcome)
	}
	if resp.ScheduleName != "晨课" {
		t.Errorf("期望schedule_name=晨课，实际=%s", resp.ScheduleName)
	}
	if resp.Attendance.Status != model.StatusPresent {
		t.Errorf("期望status=present，实际=%s", resp.Attendance.Status)
	}
	if resp.Attendance.DetectionCount != 1 {
		t.Errorf("期望detection_count=1，实际=%d", resp.Attendance.DetectionCount)
	}
}

func TestProcessEvent_LateArrival(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)

	// 默认迟到阈值 30 分钟，09:40 已超过 09:30
	resp := env.report(t, "u1", mondayDate+"T09:40:00Z", 0.9)

	if resp.Outcome != dto.OutcomeCreated {
		t.Fatalf("期望outcome=created，实际=%s", resp.Outcome)
	}
	if resp.Attendance.Status != model.StatusLate {
		t.Errorf("期望status=late，实际=%s", resp.Attendance.Status)
	}
}

func TestProcessEvent_EarlyArrivalWindow(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)

	// 开始前 30 分钟内算到场
	resp := env.report(t, "u1", mondayDate+"T08:35:00Z", 0.9)
	if resp.Outcome != dto.OutcomeCreated {
		t.Fatalf("08:35 应命中窗口，实际outcome=%s", resp.Outcome)
	}
	if resp.Attendance.Status != model.StatusPresent {
		t.Errorf("提前到场期望status=present，实际=%s", resp.Attendance.Status)
	}
}

func TestProcessEvent_OutsideWindow_NoSchedule(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)

	cases := []struct {
		name string
		ts   string
	}{
		{"早于窗口", mondayDate + "T08:20:00Z"},
		{"晚于结束", mondayDate + "T10:40:00Z"},
		{"星期不符", "2026-09-08T09:05:00Z"}, // 周二
	}
	for _, tc := range cases {
		resp := env.report(t, "u1", tc.ts, 0.9)
		if resp.Outcome != dto.OutcomeNoActiveSchedule {
			t.Errorf("%s: 期望outcome=no_schedule，实际=%s", tc.name, resp.Outcome)
		}
	}
	if len(env.records.records) != 0 {
		t.Errorf("未命中排课不应写入记录，实际有 %d 条", len(env.records.records))
	}
}

func TestProcessEvent_EffectiveRange(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	sch := env.seedSchedule("s1", "旧学期课", 0, "09:00", "10:30", nil)
	sch.EffectiveTo = datePtr("2026-08-31")

	resp := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if resp.Outcome != dto.OutcomeNoActiveSchedule {
		t.Fatalf("生效期外的排课不应作为候选，实际outcome=%s", resp.Outcome)
	}

	// 生效期覆盖当日则命中
	sch.EffectiveTo = datePtr(mondayDate)
	resp = env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if resp.Outcome != dto.OutcomeCreated {
		t.Errorf("生效期内期望outcome=created，实际=%s", resp.Outcome)
	}
}

func TestProcessEvent_InactiveSchedule(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	sch := env.seedSchedule("s1", "停用课", 0, "09:00", "10:30", nil)
	sch.IsActive = false

	resp := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if resp.Outcome != dto.OutcomeNoActiveSchedule {
		t.Errorf("停用排课期望outcome=no_schedule，实际=%s", resp.Outcome)
	}
}

// ── 授权过滤 ──

func TestProcessEvent_GroupSchedule_Unauthorized(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1") // 不属于任何班组
	env.seedSchedule("s1", "一班晨课", 0, "09:00", "10:30", strPtr("g1"))

	resp := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)

	if resp.Outcome != dto.OutcomeUnauthorized {
		t.Fatalf("期望outcome=unauthorized，实际=%s", resp.Outcome)
	}
	if resp.ScheduleName != "一班晨课" {
		t.Errorf("unauthorized 应携带命中排课名，实际=%s", resp.ScheduleName)
	}
	if len(env.records.records) != 0 {
		t.Errorf("未授权不应写入记录，实际有 %d 条", len(env.records.records))
	}
}

func TestProcessEvent_GroupSchedule_MemberAuthorized(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1", "g1")
	env.seedSchedule("s1", "一班晨课", 0, "09:00", "10:30", strPtr("g1"))

	resp := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if resp.Outcome != dto.OutcomeCreated {
		t.Fatalf("班组成员期望outcome=created，实际=%s", resp.Outcome)
	}
}

func TestProcessEvent_UnauthorizedBeatsNoSchedule(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "一班晨课", 0, "09:00", "10:30", strPtr("g1"))
	env.seedSchedule("s2", "公共晚课", 0, "18:00", "19:30", nil)

	// 窗口命中但无权限的排课存在时结果是 unauthorized 而非 no_schedule
	resp := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if resp.Outcome != dto.OutcomeUnauthorized {
		t.Errorf("期望outcome=unauthorized，实际=%s", resp.Outcome)
	}
}

// ── 多排课取舍 ──

func TestProcessEvent_GroupScheduleBeatsPublic(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1", "g1")
	env.seedSchedule("s1", "公共晨课", 0, "09:00", "10:30", nil)
	env.seedSchedule("s2", "一班晨课", 0, "09:00", "10:30", strPtr("g1"))

	resp := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if resp.ScheduleName != "一班晨课" {
		t.Errorf("班组排课应优先于公共排课，实际命中=%s", resp.ScheduleName)
	}
}

func TestProcessEvent_EarlierStartWins(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "第二节", 0, "09:30", "11:00", nil)
	env.seedSchedule("s2", "第一节", 0, "09:00", "10:30", nil)

	// 09:35 同时落在两节课窗口内，取开始更早的
	resp := env.report(t, "u1", mondayDate+"T09:35:00Z", 0.9)
	if resp.ScheduleName != "第一节" {
		t.Errorf("期望命中开始最早的排课，实际=%s", resp.ScheduleName)
	}
}

// ── 跨午夜窗口 ──

func TestProcessEvent_MidnightWrapWindow(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	// 周一 00:10 开课，窗口起点 23:40 环绕到前一刻钟
	env.seedSchedule("s1", "凌晨课", 0, "00:10", "01:40", nil)

	cases := []struct {
		name    string
		ts      string
		outcome string
	}{
		{"环绕段命中", mondayDate + "T23:45:00Z", dto.OutcomeCreated},
		{"课中命中", mondayDate + "T00:30:00Z", dto.OutcomeCreated},
		{"结束后", mondayDate + "T02:00:00Z", dto.OutcomeNoActiveSchedule},
	}
	for _, tc := range cases {
		env.records = newMockAttendanceRepo()
		env.svc.(*attendanceService).repo.Attendance = env.records
		resp := env.report(t, "u1", tc.ts, 0.9)
		if resp.Outcome != tc.outcome {
			t.Errorf("%s: 期望outcome=%s，实际=%s", tc.name, tc.outcome, resp.Outcome)
		}
	}
}

func TestProcessEvent_MidnightSplitSegments(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	// 跨午夜课程 23:50–00:20 拆成当天尾段与次日头段两条排课
	env.seedSchedule("s1", "夜课前段", 0, "23:50", "23:59", nil)
	env.seedSchedule("s2", "夜课后段", 1, "00:00", "00:20", nil)

	const tuesdayDate = "2026-09-08"
	cases := []struct {
		name    string
		ts      string
		outcome string
	}{
		{"前段提前到场", mondayDate + "T23:25:00Z", dto.OutcomeCreated},
		{"后段课中命中", tuesdayDate + "T00:10:00Z", dto.OutcomeCreated},
		{"后段结束后", tuesdayDate + "T01:00:00Z", dto.OutcomeNoActiveSchedule},
	}
	for _, tc := range cases {
		env.records = newMockAttendanceRepo()
		env.svc.(*attendanceService).repo.Attendance = env.records
		resp := env.report(t, "u1", tc.ts, 0.9)
		if resp.Outcome != tc.outcome {
			t.Errorf("%s: 期望outcome=%s，实际=%s", tc.name, tc.outcome, resp.Outcome)
		}
	}
}

// ── 去重判定 ──

func TestProcessEvent_DuplicateRejected(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)

	first := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if first.Outcome != dto.OutcomeCreated {
		t.Fatalf("首次事件期望created，实际=%s", first.Outcome)
	}

	// 默认去重间隔 60 分钟，10 分钟后的事件被拒绝
	second := env.report(t, "u1", mondayDate+"T09:15:00Z", 0.95)
	if second.Outcome != dto.OutcomeDuplicate {
		t.Fatalf("期望outcome=duplicate，实际=%s", second.Outcome)
	}
	if second.Attendance.DetectionCount != 1 {
		t.Errorf("重复事件不应更新记录，期望detection_count=1，实际=%d", second.Attendance.DetectionCount)
	}
	if second.Attendance.LastSeenTime != first.Attendance.LastSeenTime {
		t.Errorf("重复事件不应改写last_seen_time")
	}
	if len(env.records.records) != 1 {
		t.Errorf("期望仅 1 条记录，实际=%d", len(env.records.records))
	}
}

func TestProcessEvent_UpdatedAfterInterval(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	sch := env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)
	sch.DuplicateCheckMinutes = intPtr(15)

	env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)

	// 超过去重间隔后合并更新：次数+1、刷新最后识别时间、置信度取最大
	resp := env.report(t, "u1", mondayDate+"T09:25:00Z", 0.6)
	if resp.Outcome != dto.OutcomeUpdated {
		t.Fatalf("期望outcome=updated，实际=%s", resp.Outcome)
	}
	if resp.Attendance.DetectionCount != 2 {
		t.Errorf("期望detection_count=2，实际=%d", resp.Attendance.DetectionCount)
	}
	if resp.Attendance.Confidence == nil || *resp.Attendance.Confidence != 0.9 {
		t.Errorf("置信度应保留最大值 0.9，实际=%v", resp.Attendance.Confidence)
	}
	if resp.Attendance.LastSeenTime != mondayDate+"T09:25:00Z" {
		t.Errorf("期望last_seen_time=09:25，实际=%s", resp.Attendance.LastSeenTime)
	}
	if len(env.records.records) != 1 {
		t.Errorf("合并更新不应新增记录，实际=%d", len(env.records.records))
	}
}

func TestProcessEvent_StatusFrozenOnMerge(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	sch := env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)
	sch.DuplicateCheckMinutes = intPtr(15)

	first := env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	if first.Attendance.Status != model.StatusPresent {
		t.Fatalf("首次到场期望present，实际=%s", first.Attendance.Status)
	}

	// 10:00 已超过迟到阈值，但状态在创建时定格，合并不改写
	resp := env.report(t, "u1", mondayDate+"T10:00:00Z", 0.9)
	if resp.Outcome != dto.OutcomeUpdated {
		t.Fatalf("期望outcome=updated，实际=%s", resp.Outcome)
	}
	if resp.Attendance.Status != model.StatusPresent {
		t.Errorf("合并后状态应保持present，实际=%s", resp.Attendance.Status)
	}
}

// ── 参数级联 ──

func TestProcessEvent_GlobalSettingsApply(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)
	env.settings.CreateAndActivate(context.Background(), &model.TimeSettings{
		WorkStartTime:         "09:00",
		LateThresholdMinutes:  10,
		DuplicateCheckMinutes: 60,
	})

	// 全局阈值 10 分钟，09:20 记迟到
	resp := env.report(t, "u1", mondayDate+"T09:20:00Z", 0.9)
	if resp.Attendance.Status != model.StatusLate {
		t.Errorf("全局阈值 10 分钟下期望late，实际=%s", resp.Attendance.Status)
	}
}

func TestProcessEvent_ScheduleOverridesGlobal(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	sch := env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)
	sch.LateThresholdMinutes = intPtr(45)
	env.settings.CreateAndActivate(context.Background(), &model.TimeSettings{
		WorkStartTime:         "09:00",
		LateThresholdMinutes:  10,
		DuplicateCheckMinutes: 60,
	})

	// 排课覆写 45 分钟压过全局 10 分钟
	resp := env.report(t, "u1", mondayDate+"T09:40:00Z", 0.9)
	if resp.Attendance.Status != model.StatusPresent {
		t.Errorf("排课覆写 45 分钟下期望present，实际=%s", resp.Attendance.Status)
	}
}

// ── 身份与请求缺陷 ──

func TestProcessEvent_MissingIdentity(t *testing.T) {
	env := setupTestAttendanceService()

	_, err := env.svc.ProcessEvent(context.Background(), &dto.AttendanceEventRequest{}, "dev-1")
	if !errors.Is(err, ErrEventNeedsIdentity) {
		t.Errorf("期望ErrEventNeedsIdentity，实际=%v", err)
	}
}

func TestProcessEvent_UnknownUser(t *testing.T) {
	env := setupTestAttendanceService()

	_, err := env.svc.ProcessEvent(context.Background(), &dto.AttendanceEventRequest{
		UserID: "no-such-user",
	}, "dev-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望ErrUserNotFound，实际=%v", err)
	}
}

func TestProcessEvent_InactiveUser(t *testing.T) {
	env := setupTestAttendanceService()
	user := env.seedUser("u1")
	user.IsActive = false
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)

	_, err := env.svc.ProcessEvent(context.Background(), &dto.AttendanceEventRequest{
		UserID: "u1",
	}, "dev-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("停用人员期望ErrUserNotFound，实际=%v", err)
	}
}

func TestProcessEvent_BadTimestamp(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")

	_, err := env.svc.ProcessEvent(context.Background(), &dto.AttendanceEventRequest{
		UserID:    "u1",
		Timestamp: "2026/09/07 09:00",
	}, "dev-1")
	if !errors.Is(err, ErrBadTimestamp) {
		t.Errorf("期望ErrBadTimestamp，实际=%v", err)
	}
}

// ── 查询 ──

func TestAttendanceService_UserStats(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedUser("u1")
	env.seedSchedule("s1", "晨课", 0, "09:00", "10:30", nil)
	env.seedSchedule("s2", "晚课", 0, "18:00", "19:30", nil)

	env.report(t, "u1", mondayDate+"T09:05:00Z", 0.9)
	env.report(t, "u1", mondayDate+"T18:40:00Z", 0.9) // 迟到

	stats, err := env.svc.UserStats(context.Background(), "u1", 30)
	if err != nil {
		t.Fatalf("UserStats 应成功: %v", err)
	}
	if stats.Present != 1 {
		t.Errorf("期望present=1，实际=%d", stats.Present)
	}
	if stats.Late != 1 {
		t.Errorf("期望late=1，实际=%d", stats.Late)
	}
	if stats.Absent != 28 {
		t.Errorf("期望absent=28，实际=%d", stats.Absent)
	}
}
