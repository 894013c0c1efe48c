package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
)

// AttendanceRepository 考勤记录数据访问接口
type AttendanceRepository interface {
	// InsertOrGet 插入考勤记录；命中 (user_id, schedule_id, occurrence_date)
	// 唯一约束时放弃插入并返回已存在的记录（created=false）
	InsertOrGet(ctx context.Context, record *model.Attendance) (*model.Attendance, bool, error)
	Update(ctx context.Context, record *model.Attendance) error
	GetByID(ctx context.Context, id string) (*model.Attendance, error)
	// FindInWindow 查找某人在某排课下、首次识别时间落在 [from, to] 内的最新记录，无则返回 nil
	FindInWindow(ctx context.Context, userID, scheduleID string, from, to time.Time) (*model.Attendance, error)
	// FindByOccurrence 按唯一键取记录，无则返回 nil
	FindByOccurrence(ctx context.Context, userID, scheduleID string, date time.Time) (*model.Attendance, error)
	ListByDate(ctx context.Context, date time.Time, offset, limit int) ([]model.Attendance, int64, error)
	ListByRange(ctx context.Context, q AttendanceQuery) ([]model.Attendance, int64, error)
	ListByScheduleDate(ctx context.Context, scheduleID string, date time.Time) ([]model.Attendance, error)
	CountByUserAndRange(ctx context.Context, userID string, from, to time.Time) (total, late int64, err error)
	StatsByDay(ctx context.Context, from, to time.Time) ([]DayStats, error)
}

// AttendanceQuery 区间查询条件
type AttendanceQuery struct {
	From       time.Time
	To         time.Time
	UserID     string
	ScheduleID string
	GroupID    string
	Status     string
	Offset     int
	Limit      int
}

// DayStats 按日聚合结果
type DayStats struct {
	Date    time.Time `gorm:"column:day"`
	Total   int       `gorm:"column:total"`
	Present int       `gorm:"column:present"`
	Late    int       `gorm:"column:late"`
}

// attendanceRepo AttendanceRepository 的 GORM 实现
type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

// occurrenceConflict 指向 uq_attendance_occurrence 的冲突目标。
// 该索引是带 WHERE schedule_id IS NOT NULL 的部分唯一索引，
// 冲突目标必须携带同样的谓词 PostgreSQL 才能推断出它
func occurrenceConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "schedule_id"}, {Name: "occurrence_date"},
		},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "schedule_id IS NOT NULL"},
		}},
		DoNothing: true,
	}
}

func (r *attendanceRepo) InsertOrGet(ctx context.Context, record *model.Attendance) (*model.Attendance, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(occurrenceConflict()).
		Create(record)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return record, true, nil
	}
	// 并发插入输掉了唯一约束竞争，读回赢家的记录
	var scheduleID string
	if record.ScheduleID != nil {
		scheduleID = *record.ScheduleID
	}
	existing, err := r.FindByOccurrence(ctx, record.UserID, scheduleID, record.OccurrenceDate)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *attendanceRepo) Update(ctx context.Context, record *model.Attendance) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.Attendance, error) {
	var record model.Attendance
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Schedule").
		Where("attendance_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) FindInWindow(ctx context.Context, userID, scheduleID string, from, to time.Time) (*model.Attendance, error) {
	var record model.Attendance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND schedule_id = ? AND check_in_time >= ? AND check_in_time <= ?",
			userID, scheduleID, from, to).
		Order("check_in_time DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) FindByOccurrence(ctx context.Context, userID, scheduleID string, date time.Time) (*model.Attendance, error) {
	var record model.Attendance
	db := r.db.WithContext(ctx).
		Where("user_id = ? AND occurrence_date = ?", userID, date.Format("2006-01-02"))
	if scheduleID != "" {
		db = db.Where("schedule_id = ?", scheduleID)
	} else {
		db = db.Where("schedule_id IS NULL")
	}
	err := db.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) ListByDate(ctx context.Context, date time.Time, offset, limit int) ([]model.Attendance, int64, error) {
	var records []model.Attendance
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Where("occurrence_date = ?", date.Format("2006-01-02"))

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").Preload("Schedule").
		Offset(offset).Limit(limit).
		Order("check_in_time DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *attendanceRepo) ListByRange(ctx context.Context, q AttendanceQuery) ([]model.Attendance, int64, error) {
	var records []model.Attendance
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Where("occurrence_date >= ? AND occurrence_date <= ?",
			q.From.Format("2006-01-02"), q.To.Format("2006-01-02"))
	if q.UserID != "" {
		db = db.Where("attendance.user_id = ?", q.UserID)
	}
	if q.ScheduleID != "" {
		db = db.Where("schedule_id = ?", q.ScheduleID)
	}
	if q.GroupID != "" {
		db = db.Joins("JOIN user_groups ug ON ug.user_id = attendance.user_id").
			Where("ug.group_id = ?", q.GroupID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Limit > 0 {
		db = db.Offset(q.Offset).Limit(q.Limit)
	}
	if err := db.Preload("User").Preload("Schedule").
		Order("check_in_time DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *attendanceRepo) ListByScheduleDate(ctx context.Context, scheduleID string, date time.Time) ([]model.Attendance, error) {
	var records []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("schedule_id = ? AND occurrence_date = ?", scheduleID, date.Format("2006-01-02")).
		Order("check_in_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepo) CountByUserAndRange(ctx context.Context, userID string, from, to time.Time) (int64, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Where("user_id = ? AND occurrence_date >= ? AND occurrence_date <= ?",
			userID, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	var late int64
	if err := db.Where("status = ?", model.StatusLate).Count(&late).Error; err != nil {
		return 0, 0, err
	}
	return total, late, nil
}

func (r *attendanceRepo) StatsByDay(ctx context.Context, from, to time.Time) ([]DayStats, error) {
	var stats []DayStats
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Select(`occurrence_date AS day,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'present') AS present,
			COUNT(*) FILTER (WHERE status = 'late') AS late`).
		Where("occurrence_date >= ? AND occurrence_date <= ?",
			from.Format("2006-01-02"), to.Format("2006-01-02")).
		Group("occurrence_date").
		Order("occurrence_date ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
