package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/config"
	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
	"github.com/axmedovx0430/davomatai/backend/pkg/jwt"
)

// ── 识别终端模块业务错误 ──

var (
	ErrDeviceNotFound = errors.New("识别终端不存在")
	ErrDeviceKeyTaken = errors.New("终端标识已被注册")
	ErrDeviceDisabled = errors.New("识别终端已停用")
)

// DeviceService 识别终端业务接口
// 终端注册后用 device_key 换取长效终端令牌，上报考勤事件时携带
type DeviceService interface {
	Register(ctx context.Context, req *dto.RegisterDeviceRequest) (*dto.DeviceResponse, error)
	IssueToken(ctx context.Context, deviceKey string) (*dto.DeviceTokenResponse, error)
	List(ctx context.Context) ([]dto.DeviceResponse, error)
	Disable(ctx context.Context, id string) error
	// Authorize 校验终端令牌指向的终端仍然有效，返回终端 ID
	Authorize(ctx context.Context, deviceKey string) (string, error)
}

type deviceService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(cfg *config.Config, repo *repository.Repository, jwtMgr *jwt.Manager, logger *zap.Logger) DeviceService {
	return &deviceService{cfg: cfg, repo: repo, jwtMgr: jwtMgr, logger: logger}
}

func (s *deviceService) Register(ctx context.Context, req *dto.RegisterDeviceRequest) (*dto.DeviceResponse, error) {
	if _, err := s.repo.Device.GetByDeviceKey(ctx, req.DeviceKey); err == nil {
		return nil, ErrDeviceKeyTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	device := &model.Device{
		DeviceKey: req.DeviceKey,
		Name:      &req.Name,
		IsActive:  true,
	}
	if req.Location != "" {
		loc := req.Location
		device.Location = &loc
	}

	if err := s.repo.Device.Create(ctx, device); err != nil {
		s.logger.Error("注册识别终端失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("识别终端已注册",
		zap.String("device_id", device.DeviceID),
		zap.String("device_key", device.DeviceKey))

	return s.toDeviceResponse(device), nil
}

func (s *deviceService) IssueToken(ctx context.Context, deviceKey string) (*dto.DeviceTokenResponse, error) {
	device, err := s.repo.Device.GetByDeviceKey(ctx, deviceKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	if !device.IsActive {
		return nil, ErrDeviceDisabled
	}

	token, err := s.jwtMgr.GenerateDeviceToken(device.DeviceKey)
	if err != nil {
		s.logger.Error("签发终端令牌失败", zap.Error(err))
		return nil, err
	}

	return &dto.DeviceTokenResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.Auth.DeviceTokenTTL.Seconds()),
	}, nil
}

func (s *deviceService) List(ctx context.Context) ([]dto.DeviceResponse, error) {
	devices, err := s.repo.Device.List(ctx)
	if err != nil {
		s.logger.Error("列出识别终端失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DeviceResponse, 0, len(devices))
	for i := range devices {
		result = append(result, *s.toDeviceResponse(&devices[i]))
	}
	return result, nil
}

func (s *deviceService) Disable(ctx context.Context, id string) error {
	device, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeviceNotFound
		}
		return err
	}
	device.IsActive = false
	if err := s.repo.Device.Update(ctx, device); err != nil {
		s.logger.Error("停用识别终端失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// Authorize 上报考勤前校验终端状态，并刷新 last_seen_at
func (s *deviceService) Authorize(ctx context.Context, deviceKey string) (string, error) {
	device, err := s.repo.Device.GetByDeviceKey(ctx, deviceKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrDeviceNotFound
		}
		return "", err
	}
	if !device.IsActive {
		return "", ErrDeviceDisabled
	}

	if err := s.repo.Device.TouchLastSeen(ctx, device.DeviceID, time.Now()); err != nil {
		s.logger.Warn("刷新终端活跃时间失败", zap.Error(err))
	}
	return device.DeviceID, nil
}

func (s *deviceService) toDeviceResponse(d *model.Device) *dto.DeviceResponse {
	resp := &dto.DeviceResponse{
		ID:        d.DeviceID,
		DeviceKey: d.DeviceKey,
		Location:  d.Location,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
	if d.Name != nil {
		resp.Name = *d.Name
	}
	if d.LastSeenAt != nil {
		str := d.LastSeenAt.Format(time.RFC3339)
		resp.LastSeenAt = &str
	}
	return resp
}
