package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
)

// TimeSettingsRepository 全局时间设置数据访问接口
type TimeSettingsRepository interface {
	// GetActive 返回当前激活行，无则返回 nil
	GetActive(ctx context.Context) (*model.TimeSettings, error)
	// CreateAndActivate 事务内追加新行并将旧行全部置为非激活
	CreateAndActivate(ctx context.Context, settings *model.TimeSettings) error
	ListHistory(ctx context.Context, limit int) ([]model.TimeSettings, error)
}

// timeSettingsRepo TimeSettingsRepository 的 GORM 实现
type timeSettingsRepo struct {
	db *gorm.DB
}

// NewTimeSettingsRepo 创建 TimeSettingsRepository 实例
func NewTimeSettingsRepo(db *gorm.DB) TimeSettingsRepository {
	return &timeSettingsRepo{db: db}
}

func (r *timeSettingsRepo) GetActive(ctx context.Context) (*model.TimeSettings, error) {
	var settings model.TimeSettings
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *timeSettingsRepo) CreateAndActivate(ctx context.Context, settings *model.TimeSettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TimeSettings{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		settings.IsActive = true
		return tx.Create(settings).Error
	})
}

func (r *timeSettingsRepo) ListHistory(ctx context.Context, limit int) ([]model.TimeSettings, error) {
	var rows []model.TimeSettings
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
