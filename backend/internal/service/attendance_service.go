package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/notify"
	"github.com/axmedovx0430/davomatai/backend/internal/recognition"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
	"github.com/axmedovx0430/davomatai/backend/pkg/metrics"
	"github.com/axmedovx0430/davomatai/backend/pkg/redis"
)

// ── 考勤模块业务错误 ──

var (
	ErrAttendanceNotFound = errors.New("考勤记录不存在")
	ErrEventNeedsIdentity = errors.New("事件缺少 user_id 且未携带抓拍图")
	ErrBadTimestamp       = errors.New("时间戳格式错误，应为 RFC3339")
)

// 编译期默认考勤参数，数据库无激活设置行时兜底
const (
	defaultLateMin  = 30
	defaultDupMin   = 60
	earlyArrivalMin = 30 // 允许提前到场的固定分钟数
	checkinLockTTL  = 10 * time.Second
	imageStorageDir = "data/captures"
)

// AttendanceService 考勤业务接口
//
// ProcessEvent 是引擎入口：一次识别事件经过 排课解析 → 授权校验 → 去重判定
// 三步，产出五种结果之一（created/updated/duplicate/no_schedule/unauthorized）。
// 判定失败不是 error：error 只表达基础设施故障与请求本身的缺陷。
type AttendanceService interface {
	ProcessEvent(ctx context.Context, req *dto.AttendanceEventRequest, deviceID string) (*dto.AttendanceEventResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AttendanceResponse, error)
	ListToday(ctx context.Context, page *dto.PaginationRequest) ([]dto.AttendanceResponse, int64, error)
	ListRange(ctx context.Context, req *dto.AttendanceRangeRequest) ([]dto.AttendanceResponse, int64, error)
	StatsByDay(ctx context.Context, from, to time.Time) ([]dto.AttendanceStatsResponse, error)
	UserStats(ctx context.Context, userID string, days int) (*dto.UserStatsResponse, error)
}

type attendanceService struct {
	repo     *repository.Repository
	rdb      *redis.Client
	recog    recognition.Client
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
// rdb 允许为 nil：Redis 不可用时互斥锁退化，由数据库唯一索引兜底
func NewAttendanceService(
	repo *repository.Repository,
	rdb *redis.Client,
	recog recognition.Client,
	notifier notify.Notifier,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:     repo,
		rdb:      rdb,
		recog:    recog,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// ProcessEvent — 识别事件处理入口
// ═══════════════════════════════════════════════════════════

func (s *attendanceService) ProcessEvent(ctx context.Context, req *dto.AttendanceEventRequest, deviceID string) (*dto.AttendanceEventResponse, error) {
	at, err := s.eventTime(req.Timestamp)
	if err != nil {
		return nil, err
	}

	user, confidence, imagePath, err := s.resolveIdentity(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.process(ctx, user, deviceID, at, confidence, imagePath)
	if err != nil {
		return nil, err
	}

	metrics.AttendanceEvents.WithLabelValues(resp.Outcome).Inc()

	if resp.Outcome == dto.OutcomeCreated {
		s.notifyCheckIn(user, resp)
	}

	return resp, nil
}

// process 引擎核心：排课解析 + 去重判定 + 写入
func (s *attendanceService) process(ctx context.Context, user *model.User, deviceID string, at time.Time, confidence float64, imagePath string) (*dto.AttendanceEventResponse, error) {
	schedule, outcome, err := s.resolveSchedule(ctx, user, at)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		resp := &dto.AttendanceEventResponse{Outcome: outcome.kind}
		if outcome.scheduleName != "" {
			resp.ScheduleName = outcome.scheduleName
		}
		s.logger.Info("考勤事件未命中排课",
			zap.String("user_id", user.UserID),
			zap.String("outcome", outcome.kind),
			zap.Time("at", at))
		return resp, nil
	}

	params, err := s.resolveParams(ctx, schedule)
	if err != nil {
		return nil, err
	}

	occurrence := dateOnly(at)
	dateKey := occurrence.Format("2006-01-02")

	// 同一 (用户, 排课, 日期) 的并发事件串行化；Redis 不可用时退化，
	// 数据库唯一索引保证至多一条记录
	if s.rdb != nil {
		acquired, lockErr := s.rdb.AcquireCheckinLock(ctx, user.UserID, schedule.ScheduleID, dateKey, checkinLockTTL)
		if lockErr != nil {
			s.logger.Warn("考勤锁获取失败，退化为无锁写入", zap.Error(lockErr))
		} else if acquired {
			defer func() {
				if err := s.rdb.ReleaseCheckinLock(context.WithoutCancel(ctx), user.UserID, schedule.ScheduleID, dateKey); err != nil {
					s.logger.Warn("考勤锁释放失败", zap.Error(err))
				}
			}()
		}
	}

	// 去重窗口：上课日 [开始-30分钟, 结束]，只认同一排课的既有记录
	classStart := combineClock(occurrence, params.startMin)
	classEnd := combineClock(occurrence, params.endMin)
	windowFrom := classStart.Add(-earlyArrivalMin * time.Minute)

	existing, err := s.repo.Attendance.FindInWindow(ctx, user.UserID, schedule.ScheduleID, windowFrom, classEnd)
	if err != nil {
		s.logger.Error("查询既有考勤记录失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return s.mergeOrReject(ctx, existing, schedule, params, at, confidence, imagePath)
	}

	// 首次到场：状态按 开始时间+迟到阈值 定格，后续合并不再改写
	status := model.StatusPresent
	if at.After(classStart.Add(time.Duration(params.lateMin) * time.Minute)) {
		status = model.StatusLate
	}

	record := &model.Attendance{
		UserID:         user.UserID,
		ScheduleID:     &schedule.ScheduleID,
		OccurrenceDate: occurrence,
		CheckInTime:    at,
		LastSeenTime:   at,
		DetectionCount: 1,
		Confidence:     confidence,
		Status:         status,
	}
	if deviceID != "" {
		record.DeviceID = &deviceID
	}
	if imagePath != "" {
		record.ImagePath = &imagePath
	}

	stored, created, err := s.repo.Attendance.InsertOrGet(ctx, record)
	if err != nil {
		s.logger.Error("写入考勤记录失败", zap.Error(err))
		return nil, err
	}
	if !created {
		// 唯一索引竞争输给了并发事件，按既有记录走合并判定
		return s.mergeOrReject(ctx, stored, schedule, params, at, confidence, imagePath)
	}

	s.logger.Info("考勤记录已创建",
		zap.String("user_id", user.UserID),
		zap.String("schedule_id", schedule.ScheduleID),
		zap.String("status", status),
		zap.Time("check_in", at))

	return &dto.AttendanceEventResponse{
		Outcome:      dto.OutcomeCreated,
		ScheduleName: schedule.Name,
		Attendance:   s.toAttendanceResponse(stored),
	}, nil
}

// mergeOrReject 对窗口内既有记录做去重判定：
// 距上次识别已过 duplicate_check_minutes → 合并更新，否则原样拒绝。
// 两种结果都不改写 Status。
func (s *attendanceService) mergeOrReject(ctx context.Context, existing *model.Attendance, schedule *model.Schedule, params attendanceParams, at time.Time, confidence float64, imagePath string) (*dto.AttendanceEventResponse, error) {
	elapsed := at.Sub(existing.LastSeenTime)
	if elapsed < time.Duration(params.dupMin)*time.Minute {
		s.logger.Info("重复考勤事件已拒绝",
			zap.String("user_id", existing.UserID),
			zap.Duration("since_last_seen", elapsed))
		return &dto.AttendanceEventResponse{
			Outcome:      dto.OutcomeDuplicate,
			ScheduleName: schedule.Name,
			Attendance:   s.toAttendanceResponse(existing),
		}, nil
	}

	existing.DetectionCount++
	existing.LastSeenTime = at
	if confidence > existing.Confidence {
		existing.Confidence = confidence
	}
	if imagePath != "" {
		existing.ImagePath = &imagePath
	}

	if err := s.repo.Attendance.Update(ctx, existing); err != nil {
		s.logger.Error("更新考勤记录失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("考勤记录已合并更新",
		zap.String("user_id", existing.UserID),
		zap.Int("detection_count", existing.DetectionCount))

	return &dto.AttendanceEventResponse{
		Outcome:      dto.OutcomeUpdated,
		ScheduleName: schedule.Name,
		Attendance:   s.toAttendanceResponse(existing),
	}, nil
}

// ────────────────────── 排课解析 ──────────────────────

// scheduleMiss 未命中排课时的结果描述
type scheduleMiss struct {
	kind         string
	scheduleName string
}

// resolveSchedule 找出事件时刻命中的排课
//
// 三步过滤：
//  1. 候选 = 当日星期 + 启用 + 生效日期范围内（仓储层完成）
//  2. 到场窗口 = [开始-30分钟, 结束]；开始-30 跨过前一日午夜时窗口环绕，
//     改用两段判定（时刻 >= 最早 或 时刻 <= 最晚）
//  3. 授权 = 公共排课或用户属于排课班组
//
// 窗口命中但全部未授权 → unauthorized（带首个命中排课名）；
// 窗口全部未命中 → no_schedule。
// 多个命中时班组排课优先于公共排课，再按开始时间升序取最早。
func (s *attendanceService) resolveSchedule(ctx context.Context, user *model.User, at time.Time) (*model.Schedule, scheduleMiss, error) {
	candidates, err := s.repo.Schedule.ListForDay(ctx, weekdayIndex(at), at)
	if err != nil {
		s.logger.Error("查询当日排课失败", zap.Error(err))
		return nil, scheduleMiss{}, err
	}

	tod := minuteOfDay(at)
	var inWindow []model.Schedule
	for _, sch := range candidates {
		startMin, err := parseClock(sch.StartTime)
		if err != nil {
			s.logger.Warn("排课开始时间非法，已跳过",
				zap.String("schedule_id", sch.ScheduleID),
				zap.String("start_time", sch.StartTime))
			continue
		}
		endMin, err := parseClock(sch.EndTime)
		if err != nil {
			continue
		}

		earliest := startMin - earlyArrivalMin
		if earliest < 0 {
			// 窗口环绕午夜：[earliest+1440, 23:59] ∪ [00:00, endMin]
			if tod >= earliest+24*60 || tod <= endMin {
				inWindow = append(inWindow, sch)
			}
			continue
		}
		if tod >= earliest && tod <= endMin {
			inWindow = append(inWindow, sch)
		}
	}

	if len(inWindow) == 0 {
		return nil, scheduleMiss{kind: dto.OutcomeNoActiveSchedule}, nil
	}

	groupIDs := user.GroupIDs()
	var authorized []model.Schedule
	for _, sch := range inWindow {
		if sch.IsPublic() || groupIDs[*sch.GroupID] {
			authorized = append(authorized, sch)
		}
	}

	if len(authorized) == 0 {
		return nil, scheduleMiss{
			kind:         dto.OutcomeUnauthorized,
			scheduleName: inWindow[0].Name,
		}, nil
	}

	sort.SliceStable(authorized, func(i, j int) bool {
		if authorized[i].IsPublic() != authorized[j].IsPublic() {
			return !authorized[i].IsPublic()
		}
		return authorized[i].StartTime < authorized[j].StartTime
	})

	return &authorized[0], scheduleMiss{}, nil
}

// ────────────────────── 参数级联 ──────────────────────

// attendanceParams 落到具体排课后的有效考勤参数
type attendanceParams struct {
	startMin int // 排课开始（当日分钟数）
	endMin   int // 排课结束
	lateMin  int // 迟到阈值
	dupMin   int // 去重间隔
}

// resolveParams 三级级联：排课覆写 → 全局激活设置 → 编译期默认
func (s *attendanceService) resolveParams(ctx context.Context, schedule *model.Schedule) (attendanceParams, error) {
	startMin, err := parseClock(schedule.StartTime)
	if err != nil {
		return attendanceParams{}, fmt.Errorf("排课 %s 开始时间非法: %w", schedule.ScheduleID, err)
	}
	endMin, err := parseClock(schedule.EndTime)
	if err != nil {
		return attendanceParams{}, fmt.Errorf("排课 %s 结束时间非法: %w", schedule.ScheduleID, err)
	}

	lateMin, dupMin := defaultLateMin, defaultDupMin
	settings, err := s.repo.TimeSettings.GetActive(ctx)
	if err != nil {
		s.logger.Error("查询全局时间设置失败", zap.Error(err))
		return attendanceParams{}, err
	}
	if settings != nil {
		lateMin = settings.LateThresholdMinutes
		dupMin = settings.DuplicateCheckMinutes
	}
	if schedule.LateThresholdMinutes != nil {
		lateMin = *schedule.LateThresholdMinutes
	}
	if schedule.DuplicateCheckMinutes != nil {
		dupMin = *schedule.DuplicateCheckMinutes
	}

	return attendanceParams{
		startMin: startMin,
		endMin:   endMin,
		lateMin:  lateMin,
		dupMin:   dupMin,
	}, nil
}

// ────────────────────── 身份解析 ──────────────────────

// resolveIdentity 确定事件归属人员：
// 携带 user_id 直接查库；否则走人脸识别服务
func (s *attendanceService) resolveIdentity(ctx context.Context, req *dto.AttendanceEventRequest) (*model.User, float64, string, error) {
	var imagePath string
	var raw []byte
	if req.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return nil, 0, "", fmt.Errorf("抓拍图 base64 解码失败: %w", err)
		}
		raw = decoded
	}

	var userID string
	confidence := 0.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	switch {
	case req.UserID != "":
		userID = req.UserID
	case raw != nil:
		result, err := s.recog.Recognize(ctx, raw)
		if err != nil {
			return nil, 0, "", err
		}
		userID = result.UserID
		confidence = result.Confidence
	default:
		return nil, 0, "", ErrEventNeedsIdentity
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, "", ErrUserNotFound
		}
		s.logger.Error("查询人员失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, "", err
	}
	if !user.IsActive {
		return nil, 0, "", ErrUserNotFound
	}

	if raw != nil {
		if p, err := s.saveCapture(raw); err != nil {
			s.logger.Warn("抓拍图落盘失败", zap.Error(err))
		} else {
			imagePath = p
		}
	}

	return user, confidence, imagePath, nil
}

// saveCapture 将抓拍图写入本地存储目录，返回相对路径
func (s *attendanceService) saveCapture(raw []byte) (string, error) {
	if err := os.MkdirAll(imageStorageDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ".jpg"
	path := filepath.Join(imageStorageDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// eventTime 解析事件时间戳，缺省取服务器当前时间
func (s *attendanceService) eventTime(ts string) (time.Time, error) {
	if ts == "" {
		return s.now(), nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, ErrBadTimestamp
	}
	return t, nil
}

// notifyCheckIn 首次到场后推送 Telegram 通知，失败只记日志
func (s *attendanceService) notifyCheckIn(user *model.User, resp *dto.AttendanceEventResponse) {
	if user.TelegramChatID == nil || !user.TelegramNotifications {
		return
	}
	chatID := *user.TelegramChatID
	fullName := user.FullName
	scheduleName := resp.ScheduleName
	status := resp.Attendance.Status
	at := time.Now()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.NotifyCheckIn(ctx, chatID, fullName, scheduleName, status, at); err != nil {
			s.logger.Warn("考勤通知发送失败",
				zap.String("user_id", user.UserID),
				zap.Error(err))
		}
	}()
}

// ────────────────────── 查询 ──────────────────────

func (s *attendanceService) GetByID(ctx context.Context, id string) (*dto.AttendanceResponse, error) {
	record, err := s.repo.Attendance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		s.logger.Error("查询考勤记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toAttendanceResponse(record), nil
}

func (s *attendanceService) ListToday(ctx context.Context, page *dto.PaginationRequest) ([]dto.AttendanceResponse, int64, error) {
	records, total, err := s.repo.Attendance.ListByDate(ctx, s.now(), page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询当日考勤失败", zap.Error(err))
		return nil, 0, err
	}
	return s.toAttendanceResponses(records), total, nil
}

func (s *attendanceService) ListRange(ctx context.Context, req *dto.AttendanceRangeRequest) ([]dto.AttendanceResponse, int64, error) {
	from, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, 0, ErrBadTimestamp
	}
	to, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, 0, ErrBadTimestamp
	}

	records, total, err := s.repo.Attendance.ListByRange(ctx, repository.AttendanceQuery{
		From:       from,
		To:         to,
		UserID:     req.UserID,
		ScheduleID: req.ScheduleID,
		Status:     req.Status,
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询考勤区间失败", zap.Error(err))
		return nil, 0, err
	}
	return s.toAttendanceResponses(records), total, nil
}

func (s *attendanceService) StatsByDay(ctx context.Context, from, to time.Time) ([]dto.AttendanceStatsResponse, error) {
	stats, err := s.repo.Attendance.StatsByDay(ctx, from, to)
	if err != nil {
		s.logger.Error("考勤按日统计失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceStatsResponse, 0, len(stats))
	for _, st := range stats {
		result = append(result, dto.AttendanceStatsResponse{
			Date:    st.Date.Format("2006-01-02"),
			Total:   st.Total,
			Present: st.Present,
			Late:    st.Late,
		})
	}
	return result, nil
}

func (s *attendanceService) UserStats(ctx context.Context, userID string, days int) (*dto.UserStatsResponse, error) {
	if days <= 0 {
		days = 30
	}
	to := s.now()
	from := to.AddDate(0, 0, -days)

	total, late, err := s.repo.Attendance.CountByUserAndRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("个人考勤统计失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	present := total - late
	rate := 0.0
	if days > 0 {
		rate = float64(total) / float64(days) * 100
	}

	return &dto.UserStatsResponse{
		TotalDays:      days,
		Present:        int(present),
		Late:           int(late),
		Absent:         days - int(total),
		AttendanceRate: float64(int(rate*100)) / 100,
	}, nil
}

// ────────────────────── 响应转换 ──────────────────────

func (s *attendanceService) toAttendanceResponse(a *model.Attendance) *dto.AttendanceResponse {
	resp := &dto.AttendanceResponse{
		ID:             a.AttendanceID,
		UserID:         a.UserID,
		ScheduleID:     a.ScheduleID,
		OccurrenceDate: a.OccurrenceDate.Format("2006-01-02"),
		CheckInTime:    a.CheckInTime.Format(time.RFC3339),
		LastSeenTime:   a.LastSeenTime.Format(time.RFC3339),
		DetectionCount: a.DetectionCount,
		ImagePath:      a.ImagePath,
		Status:         a.Status,
	}
	if a.Confidence > 0 {
		conf := a.Confidence
		resp.Confidence = &conf
	}
	if a.User != nil {
		resp.User = &dto.UserBrief{
			ID:         a.User.UserID,
			FullName:   a.User.FullName,
			EmployeeID: a.User.EmployeeID,
		}
	}
	if a.Schedule != nil {
		name := a.Schedule.Name
		resp.ScheduleName = &name
	}
	return resp
}

func (s *attendanceService) toAttendanceResponses(records []model.Attendance) []dto.AttendanceResponse {
	result := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		result = append(result, *s.toAttendanceResponse(&records[i]))
	}
	return result
}
