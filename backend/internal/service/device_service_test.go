package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/config"
	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
	"github.com/axmedovx0430/davomatai/backend/pkg/jwt"
)

func setupTestDeviceService() (DeviceService, *repository.Repository) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret",
			DeviceTokenTTL: 30 * 24 * time.Hour,
		},
	}
	repo := newMockRepository()
	return NewDeviceService(cfg, repo, jwt.NewManager(&cfg.Auth), zap.NewNop()), repo
}

func TestDeviceService_Register_Success(t *testing.T) {
	svc, _ := setupTestDeviceService()

	resp, err := svc.Register(context.Background(), &dto.RegisterDeviceRequest{
		Name:      "门口终端",
		DeviceKey: "gate-cam-001-key",
		Location:  "一号楼大门",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if resp.Name != "门口终端" {
		t.Errorf("期望Name=门口终端，实际=%s", resp.Name)
	}
	if !resp.IsActive {
		t.Errorf("新注册终端应为启用状态")
	}
}

func TestDeviceService_Register_KeyTaken(t *testing.T) {
	svc, _ := setupTestDeviceService()
	ctx := context.Background()

	req := &dto.RegisterDeviceRequest{Name: "门口终端", DeviceKey: "gate-cam-001-key"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("首次注册应成功: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrDeviceKeyTaken) {
		t.Errorf("期望ErrDeviceKeyTaken，实际=%v", err)
	}
}

func TestDeviceService_IssueToken(t *testing.T) {
	svc, _ := setupTestDeviceService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.RegisterDeviceRequest{Name: "门口终端", DeviceKey: "gate-cam-001-key"}); err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	resp, err := svc.IssueToken(ctx, "gate-cam-001-key")
	if err != nil {
		t.Fatalf("IssueToken 应成功: %v", err)
	}
	if resp.Token == "" {
		t.Errorf("应签发终端令牌")
	}
	if resp.ExpiresIn != int64((30 * 24 * time.Hour).Seconds()) {
		t.Errorf("期望expires_in=2592000，实际=%d", resp.ExpiresIn)
	}

	if _, err := svc.IssueToken(ctx, "no-such-key"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("期望ErrDeviceNotFound，实际=%v", err)
	}
}

func TestDeviceService_Authorize(t *testing.T) {
	svc, repo := setupTestDeviceService()
	ctx := context.Background()

	created, err := svc.Register(ctx, &dto.RegisterDeviceRequest{Name: "门口终端", DeviceKey: "gate-cam-001-key"})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	deviceID, err := svc.Authorize(ctx, "gate-cam-001-key")
	if err != nil {
		t.Fatalf("Authorize 应成功: %v", err)
	}
	if deviceID != created.ID {
		t.Errorf("期望device_id=%s，实际=%s", created.ID, deviceID)
	}

	devices := repo.Device.(*mockDeviceRepo)
	if devices.devices[created.ID].LastSeenAt == nil {
		t.Errorf("Authorize 应刷新last_seen_at")
	}

	// 停用后拒绝上报
	if err := svc.Disable(ctx, created.ID); err != nil {
		t.Fatalf("Disable 应成功: %v", err)
	}
	if _, err := svc.Authorize(ctx, "gate-cam-001-key"); !errors.Is(err, ErrDeviceDisabled) {
		t.Errorf("期望ErrDeviceDisabled，实际=%v", err)
	}
}
