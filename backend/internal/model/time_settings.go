package model

import "time"

// TimeSettings 全局考勤参数表 — 对应 time_settings
//
// 追加式历史：新建一行并激活时旧行全部置为非激活，不做物理删除。
// 任意时刻至多一行 IsActive=true，引擎只读取该行。
type TimeSettings struct {
	SettingsID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"settings_id"`
	WorkStartTime         string    `gorm:"type:time;not null;default:'09:00'"             json:"work_start_time"`
	LateThresholdMinutes  int       `gorm:"not null;default:30"                            json:"late_threshold_minutes"`
	DuplicateCheckMinutes int       `gorm:"not null;default:60"                            json:"duplicate_check_minutes"`
	IsActive              bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedBy             *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	CreatedAt             time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (TimeSettings) TableName() string { return "time_settings" }
