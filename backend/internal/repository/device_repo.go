package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
)

// DeviceRepository 识别终端数据访问接口
type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByID(ctx context.Context, id string) (*model.Device, error)
	GetByDeviceKey(ctx context.Context, deviceKey string) (*model.Device, error)
	Update(ctx context.Context, device *model.Device) error
	List(ctx context.Context) ([]model.Device, error)
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}

// deviceRepo DeviceRepository 的 GORM 实现
type deviceRepo struct {
	db *gorm.DB
}

// NewDeviceRepo 创建 DeviceRepository 实例
func NewDeviceRepo(db *gorm.DB) DeviceRepository {
	return &deviceRepo{db: db}
}

func (r *deviceRepo) Create(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

func (r *deviceRepo) GetByID(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Where("device_id = ?", id).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepo) GetByDeviceKey(ctx context.Context, deviceKey string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Where("device_key = ?", deviceKey).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepo) Update(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Save(device).Error
}

func (r *deviceRepo) List(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("device_id = ?", id).
		Update("last_seen_at", at).Error
}
