package model

// User 人员表 — 对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FullName     string  `gorm:"type:varchar(255);not null"                     json:"full_name"`
	EmployeeID   string  `gorm:"type:varchar(50);not null;uniqueIndex"          json:"employee_id"`
	Phone        *string `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	Email        *string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	PasswordHash *string `gorm:"type:varchar(100)"                              json:"-"`    // 仅管理端账号使用
	Role         string  `gorm:"type:varchar(20);not null;default:'user'"       json:"role"` // admin | user
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`

	// Telegram 通知绑定
	TelegramChatID        *string `gorm:"type:varchar(50);uniqueIndex" json:"telegram_chat_id,omitempty"`
	TelegramUsername      *string `gorm:"type:varchar(100)"            json:"telegram_username,omitempty"`
	TelegramNotifications bool    `gorm:"not null;default:true"        json:"telegram_notifications"`

	BaseModel

	// 关联
	Groups []Group `gorm:"many2many:user_groups;foreignKey:UserID;joinForeignKey:UserID;references:GroupID;joinReferences:GroupID" json:"groups,omitempty"`
}

func (User) TableName() string { return "users" }

// GroupIDs 返回用户所属班组 ID 集合
func (u *User) GroupIDs() map[string]bool {
	ids := make(map[string]bool, len(u.Groups))
	for _, g := range u.Groups {
		ids[g.GroupID] = true
	}
	return ids
}
