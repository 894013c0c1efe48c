package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// 考勤状态
const (
	StatusPresent = "present" // 准时
	StatusLate    = "late"    // 迟到
)

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
