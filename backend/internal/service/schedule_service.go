package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
)

// ── 排课模块业务错误 ──

var (
	ErrScheduleNotFound  = errors.New("排课不存在")
	ErrBadTimeRange      = errors.New("开始时间必须早于结束时间")
	ErrBadEffectiveRange = errors.New("生效起始日期不能晚于结束日期")
	ErrImportEmptySource = errors.New("导入源为空，需提供文件或 URL")
	ErrImportNoSchedules = errors.New("ICS 中未解析出任何排课")
)

// ScheduleService 排课业务接口
type ScheduleService interface {
	Create(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error)
	List(ctx context.Context, groupID string, page *dto.PaginationRequest) ([]dto.ScheduleResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error)
	Delete(ctx context.Context, id string) error
	WeekView(ctx context.Context) (*dto.WeekScheduleResponse, error)
	Stats(ctx context.Context, id string, date time.Time) (*dto.ScheduleStatsResponse, error)
	ImportICS(ctx context.Context, reader io.Reader, req *dto.ImportICSRequest) (*dto.ImportICSResponse, error)
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	startMin, err := parseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := parseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	if startMin >= endMin {
		return nil, ErrBadTimeRange
	}

	if req.GroupID != nil {
		if _, err := s.repo.Group.GetByID(ctx, *req.GroupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
	}

	effFrom, effTo, err := parseEffectiveRange(req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	schedule := &model.Schedule{
		Name:                  req.Name,
		DayOfWeek:             *req.DayOfWeek,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		GroupID:               req.GroupID,
		IsActive:              true,
		LateThresholdMinutes:  req.LateThresholdMinutes,
		DuplicateCheckMinutes: req.DuplicateCheckMinutes,
		EffectiveFrom:         effFrom,
		EffectiveTo:           effTo,
		Teacher:               req.Teacher,
		Room:                  req.Room,
	}

	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		s.logger.Error("创建排课失败", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Schedule.GetByID(ctx, schedule.ScheduleID)
	if err != nil {
		return nil, err
	}
	return s.toScheduleResponse(created), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排课失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toScheduleResponse(schedule), nil
}

// ────────────────────── List ──────────────────────

func (s *scheduleService) List(ctx context.Context, groupID string, page *dto.PaginationRequest) ([]dto.ScheduleResponse, int64, error) {
	schedules, total, err := s.repo.Schedule.List(ctx, groupID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("列出排课失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, *s.toScheduleResponse(&schedules[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排课失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.DayOfWeek != nil {
		schedule.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		schedule.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		schedule.EndTime = *req.EndTime
	}

	startMin, err := parseClock(schedule.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := parseClock(schedule.EndTime)
	if err != nil {
		return nil, err
	}
	if startMin >= endMin {
		return nil, ErrBadTimeRange
	}

	if req.GroupID != nil {
		if _, err := s.repo.Group.GetByID(ctx, *req.GroupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
		schedule.GroupID = req.GroupID
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}
	if req.LateThresholdMinutes != nil {
		schedule.LateThresholdMinutes = req.LateThresholdMinutes
	}
	if req.DuplicateCheckMinutes != nil {
		schedule.DuplicateCheckMinutes = req.DuplicateCheckMinutes
	}
	if req.EffectiveFrom != nil || req.EffectiveTo != nil {
		effFrom, effTo, err := parseEffectiveRange(req.EffectiveFrom, req.EffectiveTo)
		if err != nil {
			return nil, err
		}
		if req.EffectiveFrom != nil {
			schedule.EffectiveFrom = effFrom
		}
		if req.EffectiveTo != nil {
			schedule.EffectiveTo = effTo
		}
		if schedule.EffectiveFrom != nil && schedule.EffectiveTo != nil &&
			schedule.EffectiveFrom.After(*schedule.EffectiveTo) {
			return nil, ErrBadEffectiveRange
		}
	}
	if req.Teacher != nil {
		schedule.Teacher = req.Teacher
	}
	if req.Room != nil {
		schedule.Room = req.Room
	}

	if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
		s.logger.Error("更新排课失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toScheduleResponse(schedule), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 物理删除排课；既有考勤记录的 schedule_id 由外键置 NULL，记录本身保留
func (s *scheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Schedule.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	if err := s.repo.Schedule.Delete(ctx, id); err != nil {
		s.logger.Error("删除排课失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("排课已删除", zap.String("id", id))
	return nil
}

// ────────────────────── WeekView ──────────────────────

func (s *scheduleService) WeekView(ctx context.Context) (*dto.WeekScheduleResponse, error) {
	schedules, err := s.repo.Schedule.ListAllActive(ctx)
	if err != nil {
		s.logger.Error("查询周视图失败", zap.Error(err))
		return nil, err
	}

	days := make(map[int][]dto.ScheduleResponse, 7)
	for i := range schedules {
		sch := &schedules[i]
		days[sch.DayOfWeek] = append(days[sch.DayOfWeek], *s.toScheduleResponse(sch))
	}
	return &dto.WeekScheduleResponse{Days: days}, nil
}

// ────────────────────── Stats ──────────────────────

// Stats 统计某排课在指定日期的到场情况。
// 应到人数 = 班组成员数（公共排课取全部启用人员）
func (s *scheduleService) Stats(ctx context.Context, id string, date time.Time) (*dto.ScheduleStatsResponse, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	var totalUsers int64
	if schedule.GroupID != nil {
		totalUsers, err = s.repo.User.CountActiveByGroupIDs(ctx, []string{*schedule.GroupID})
	} else {
		totalUsers, err = s.repo.User.CountActive(ctx)
	}
	if err != nil {
		s.logger.Error("统计应到人数失败", zap.Error(err))
		return nil, err
	}

	records, err := s.repo.Attendance.ListByScheduleDate(ctx, id, date)
	if err != nil {
		s.logger.Error("查询排课考勤失败", zap.Error(err))
		return nil, err
	}

	present, late := 0, 0
	for _, r := range records {
		switch r.Status {
		case model.StatusLate:
			late++
		default:
			present++
		}
	}

	absent := int(totalUsers) - len(records)
	if absent < 0 {
		absent = 0
	}
	rate := 0.0
	if totalUsers > 0 {
		rate = float64(len(records)) / float64(totalUsers) * 100
	}

	return &dto.ScheduleStatsResponse{
		TotalUsers:     int(totalUsers),
		Present:        present,
		Late:           late,
		Absent:         absent,
		AttendanceRate: float64(int(rate*100)) / 100,
	}, nil
}

// ────────────────────── ImportICS ──────────────────────

// ImportICS 解析 iCalendar 内容并批量创建周期性排课
func (s *scheduleService) ImportICS(ctx context.Context, reader io.Reader, req *dto.ImportICSRequest) (*dto.ImportICSResponse, error) {
	if req.GroupID != nil {
		if _, err := s.repo.Group.GetByID(ctx, *req.GroupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
	}

	effFrom, effTo, err := parseEffectiveRange(req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	schedules, err := parseICSSchedules(reader)
	if err != nil {
		s.logger.Error("ICS 解析失败", zap.Error(err))
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ErrImportNoSchedules
	}

	for i := range schedules {
		schedules[i].GroupID = req.GroupID
		if effFrom != nil {
			schedules[i].EffectiveFrom = effFrom
		}
		if effTo != nil {
			schedules[i].EffectiveTo = effTo
		}
	}

	if err := s.repo.Schedule.CreateBatch(ctx, schedules); err != nil {
		s.logger.Error("批量创建排课失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("ICS 导入完成", zap.Int("count", len(schedules)))

	result := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, *s.toScheduleResponse(&schedules[i]))
	}
	return &dto.ImportICSResponse{
		ImportedCount: len(schedules),
		Schedules:     result,
	}, nil
}

// ────────────────────── 辅助 ──────────────────────

func parseEffectiveRange(fromStr, toStr *string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != nil && *fromStr != "" {
		t, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			return nil, nil, ErrBadEffectiveRange
		}
		from = &t
	}
	if toStr != nil && *toStr != "" {
		t, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			return nil, nil, ErrBadEffectiveRange
		}
		to = &t
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, ErrBadEffectiveRange
	}
	return from, to, nil
}

func (s *scheduleService) toScheduleResponse(sch *model.Schedule) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		ID:                    sch.ScheduleID,
		Name:                  sch.Name,
		DayOfWeek:             sch.DayOfWeek,
		StartTime:             sch.StartTime,
		EndTime:               sch.EndTime,
		GroupID:               sch.GroupID,
		IsActive:              sch.IsActive,
		LateThresholdMinutes:  sch.LateThresholdMinutes,
		DuplicateCheckMinutes: sch.DuplicateCheckMinutes,
		Teacher:               sch.Teacher,
		Room:                  sch.Room,
	}
	if sch.EffectiveFrom != nil {
		str := sch.EffectiveFrom.Format("2006-01-02")
		resp.EffectiveFrom = &str
	}
	if sch.EffectiveTo != nil {
		str := sch.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &str
	}
	if sch.Group != nil {
		resp.Group = &dto.GroupBrief{
			ID:   sch.Group.GroupID,
			Name: sch.Group.Name,
		}
	}
	return resp
}
