package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
)

// SettingsService 全局时间设置业务接口
//
// 设置采用追加式历史：每次修改新增一行并激活，旧行保留且不再生效。
// 正在处理中的事件用的是各自读到的那一行，修改只影响后续事件。
type SettingsService interface {
	GetCurrent(ctx context.Context) (*dto.TimeSettingsResponse, error)
	Update(ctx context.Context, req *dto.CreateTimeSettingsRequest, callerID string) (*dto.TimeSettingsResponse, error)
	History(ctx context.Context, limit int) ([]dto.TimeSettingsResponse, error)
}

type settingsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(repo *repository.Repository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger}
}

// GetCurrent 返回当前生效的设置；数据库无激活行时返回编译期默认值
func (s *settingsService) GetCurrent(ctx context.Context) (*dto.TimeSettingsResponse, error) {
	settings, err := s.repo.TimeSettings.GetActive(ctx)
	if err != nil {
		s.logger.Error("查询全局时间设置失败", zap.Error(err))
		return nil, err
	}
	if settings == nil {
		return &dto.TimeSettingsResponse{
			WorkStartTime:         "09:00",
			LateThresholdMinutes:  defaultLateMin,
			DuplicateCheckMinutes: defaultDupMin,
		}, nil
	}
	return s.toSettingsResponse(settings), nil
}

func (s *settingsService) Update(ctx context.Context, req *dto.CreateTimeSettingsRequest, callerID string) (*dto.TimeSettingsResponse, error) {
	if _, err := parseClock(req.WorkStartTime); err != nil {
		return nil, err
	}

	settings := &model.TimeSettings{
		WorkStartTime:         req.WorkStartTime,
		LateThresholdMinutes:  *req.LateThresholdMinutes,
		DuplicateCheckMinutes: *req.DuplicateCheckMinutes,
	}
	if callerID != "" {
		settings.CreatedBy = &callerID
	}

	if err := s.repo.TimeSettings.CreateAndActivate(ctx, settings); err != nil {
		s.logger.Error("写入全局时间设置失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("全局时间设置已更新",
		zap.String("work_start", settings.WorkStartTime),
		zap.Int("late_threshold", settings.LateThresholdMinutes),
		zap.Int("duplicate_check", settings.DuplicateCheckMinutes))

	return s.toSettingsResponse(settings), nil
}

func (s *settingsService) History(ctx context.Context, limit int) ([]dto.TimeSettingsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.repo.TimeSettings.ListHistory(ctx, limit)
	if err != nil {
		s.logger.Error("查询设置历史失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TimeSettingsResponse, 0, len(rows))
	for i := range rows {
		result = append(result, *s.toSettingsResponse(&rows[i]))
	}
	return result, nil
}

func (s *settingsService) toSettingsResponse(m *model.TimeSettings) *dto.TimeSettingsResponse {
	return &dto.TimeSettingsResponse{
		ID:                    m.SettingsID,
		WorkStartTime:         m.WorkStartTime,
		LateThresholdMinutes:  m.LateThresholdMinutes,
		DuplicateCheckMinutes: m.DuplicateCheckMinutes,
		CreatedAt:             m.CreatedAt.Format(time.RFC3339),
	}
}
