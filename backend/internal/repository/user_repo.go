package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
)

// UserRepository 人员数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error)
	GetByTelegramChatID(ctx context.Context, chatID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, groupID, keyword string, offset, limit int) ([]model.User, int64, error)
	CountActiveByGroupIDs(ctx context.Context, groupIDs []string) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("employee_id = ?", employeeID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByTelegramChatID(ctx context.Context, chatID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("telegram_chat_id = ?", chatID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update("is_active", false).Error
}

func (r *userRepo) List(ctx context.Context, groupID, keyword string, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{}).Where("users.is_active = ?", true)
	if groupID != "" {
		db = db.Joins("JOIN user_groups ug ON ug.user_id = users.user_id").
			Where("ug.group_id = ?", groupID)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		db = db.Where("full_name ILIKE ? OR employee_id ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Groups").
		Offset(offset).Limit(limit).
		Order("full_name ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) CountActiveByGroupIDs(ctx context.Context, groupIDs []string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN user_groups ug ON ug.user_id = users.user_id").
		Where("users.is_active = ? AND ug.group_id IN ?", true, groupIDs).
		Distinct("users.user_id").
		Count(&total).Error
	return total, err
}

func (r *userRepo) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_active = ?", true).
		Count(&total).Error
	return total, err
}
