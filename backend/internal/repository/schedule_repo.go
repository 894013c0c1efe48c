package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
)

// ScheduleRepository 排课数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	CreateBatch(ctx context.Context, schedules []model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	Update(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, groupID string, offset, limit int) ([]model.Schedule, int64, error)
	ListAllActive(ctx context.Context) ([]model.Schedule, error)
	// ListForDay 返回指定星期（0=周一）在 date 当日生效的全部启用排课，
	// 生效范围按日粒度比较，按开始时间升序
	ListForDay(ctx context.Context, dayOfWeek int, date time.Time) ([]model.Schedule, error)
}

// scheduleRepo ScheduleRepository 的 GORM 实现
type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepo) CreateBatch(ctx context.Context, schedules []model.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&schedules).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Group").
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		Delete(&model.Schedule{}).Error
}

func (r *scheduleRepo) List(ctx context.Context, groupID string, offset, limit int) ([]model.Schedule, int64, error) {
	var schedules []model.Schedule
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Schedule{})
	if groupID != "" {
		db = db.Where("group_id = ?", groupID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Group").
		Offset(offset).Limit(limit).
		Order("day_of_week ASC, start_time ASC").
		Find(&schedules).Error; err != nil {
		return nil, 0, err
	}

	return schedules, total, nil
}

func (r *scheduleRepo) ListAllActive(ctx context.Context) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Group").
		Where("is_active = ?", true).
		Order("day_of_week ASC, start_time ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepo) ListForDay(ctx context.Context, dayOfWeek int, date time.Time) ([]model.Schedule, error) {
	day := date.Format("2006-01-02")

	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND day_of_week = ?", true, dayOfWeek).
		Where("effective_from IS NULL OR effective_from <= ?", day).
		Where("effective_to IS NULL OR effective_to >= ?", day).
		Order("start_time ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}
