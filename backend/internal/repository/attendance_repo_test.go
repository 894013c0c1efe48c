package repository

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
)

// 干跑模式生成 SQL，不需要真实数据库连接
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test port=5432 sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("初始化干跑 DB 失败: %v", err)
	}
	return db
}

// uq_attendance_occurrence 是部分唯一索引，插入语句的冲突目标
// 必须带上 WHERE schedule_id IS NOT NULL 谓词，否则 PostgreSQL
// 以 42P10 拒绝整条 INSERT
func TestInsertOrGetConflictTargetPredicate(t *testing.T) {
	db := newDryRunDB(t)

	scheduleID := "sch-1"
	at := time.Date(2026, 9, 7, 9, 5, 0, 0, time.UTC)
	record := &model.Attendance{
		UserID:         "user-1",
		ScheduleID:     &scheduleID,
		OccurrenceDate: at.Truncate(24 * time.Hour),
		CheckInTime:    at,
		LastSeenTime:   at,
		DetectionCount: 1,
		Status:         model.StatusPresent,
	}

	tx := db.Session(&gorm.Session{DryRun: true}).
		Clauses(occurrenceConflict()).
		Create(record)
	if tx.Error != nil {
		t.Fatalf("干跑 Create 失败: %v", tx.Error)
	}

	sql := tx.Statement.SQL.String()
	if !strings.Contains(sql, `ON CONFLICT ("user_id","schedule_id","occurrence_date")`) {
		t.Errorf("冲突目标列不完整: %s", sql)
	}
	if !strings.Contains(sql, "WHERE schedule_id IS NOT NULL") {
		t.Errorf("冲突目标缺少部分索引谓词: %s", sql)
	}
	if !strings.Contains(sql, "DO NOTHING") {
		t.Errorf("冲突动作应为 DO NOTHING: %s", sql)
	}
}
