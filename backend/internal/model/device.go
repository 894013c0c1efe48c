package model

import "time"

// Device 识别终端表 — 对应 devices
type Device struct {
	DeviceID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"device_id"`
	DeviceKey  string     `gorm:"type:varchar(100);not null;uniqueIndex"         json:"device_key"` // 终端自报标识，如 "cam-entrance-01"
	Name       *string    `gorm:"type:varchar(255)"                              json:"name,omitempty"`
	Location   *string    `gorm:"type:varchar(255)"                              json:"location,omitempty"`
	IsActive   bool       `gorm:"not null;default:true"                          json:"is_active"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	BaseModel
}

func (Device) TableName() string { return "devices" }
