package model

import "time"

// Attendance 考勤记录表 — 对应 attendance
//
// 一条记录对应"某人在某次排课发生日"的一次到场：首次识别创建，去重窗口内的
// 重复识别合并进同一条（刷新 LastSeenTime / DetectionCount / Confidence）。
// 核心不变量：同一 (UserID, ScheduleID, OccurrenceDate) 至多一条记录，
// 由部分唯一索引 uq_attendance_occurrence 保障。
type Attendance struct {
	AttendanceID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	UserID       string  `gorm:"type:uuid;not null"                             json:"user_id"`
	DeviceID     *string `gorm:"type:uuid"                                      json:"device_id,omitempty"`
	ScheduleID   *string `gorm:"type:uuid"                                      json:"schedule_id,omitempty"` // 排课删除后置 NULL

	OccurrenceDate time.Time `gorm:"type:date;not null"                 json:"occurrence_date"`
	CheckInTime    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"check_in_time"` // 首次识别时间
	LastSeenTime   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_seen_time"`

	DetectionCount int     `gorm:"not null;default:1"                       json:"detection_count"`
	Confidence     float64 `gorm:"not null;default:0"                       json:"confidence"` // 保留历史最大值
	ImagePath      *string `gorm:"type:varchar(500)"                        json:"image_path,omitempty"`
	Status         string  `gorm:"type:varchar(20);not null;default:'present'" json:"status"` // present | late，创建时定格
	BaseModel

	// 关联
	User     *User     `gorm:"foreignKey:UserID;references:UserID"         json:"user,omitempty"`
	Device   *Device   `gorm:"foreignKey:DeviceID;references:DeviceID"     json:"device,omitempty"`
	Schedule *Schedule `gorm:"foreignKey:ScheduleID;references:ScheduleID" json:"schedule,omitempty"`
}

func (Attendance) TableName() string { return "attendance" }
