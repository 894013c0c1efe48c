package model

import "time"

// Schedule 周期性排课表 — 对应 schedules
//
// DayOfWeek 采用 0=周一 … 6=周日。
// StartTime/EndTime 为墙钟时间 "HH:MM"，不含日期；约束 StartTime < EndTime
// （跨午夜的到场窗口由引擎在判定时处理，不在存储层表达）。
// EffectiveFrom/EffectiveTo 以"日"为粒度限定排课生效范围，NULL 表示不设限。
type Schedule struct {
	ScheduleID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	Name       string  `gorm:"type:varchar(100);not null"                     json:"name"`
	DayOfWeek  int     `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=周一 … 6=周日
	StartTime  string  `gorm:"type:time;not null"                             json:"start_time"`
	EndTime    string  `gorm:"type:time;not null"                             json:"end_time"`
	GroupID    *string `gorm:"type:uuid"                                      json:"group_id,omitempty"` // NULL 表示公共课
	IsActive   bool    `gorm:"not null;default:true"                          json:"is_active"`

	// 按排课覆写的考勤参数，NULL 时回退全局设置
	LateThresholdMinutes  *int `json:"late_threshold_minutes,omitempty"`
	DuplicateCheckMinutes *int `json:"duplicate_check_minutes,omitempty"`

	EffectiveFrom *time.Time `gorm:"type:date" json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `gorm:"type:date" json:"effective_to,omitempty"`

	Teacher *string `gorm:"type:varchar(100)" json:"teacher,omitempty"`
	Room    *string `gorm:"type:varchar(50)"  json:"room,omitempty"`
	BaseModel

	// 关联
	Group *Group `gorm:"foreignKey:GroupID;references:GroupID" json:"group,omitempty"`
}

func (Schedule) TableName() string { return "schedules" }

// IsPublic 是否为公共课（不限班组）
func (s *Schedule) IsPublic() bool { return s.GroupID == nil }
