package model

// Group 班组表 — 对应 groups
// 一个排课可选归属一个班组（考勤授权范围）；人员与班组多对多
type Group struct {
	GroupID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	Name         string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"name"`
	Code         *string `gorm:"type:varchar(50);uniqueIndex"                   json:"code,omitempty"` // 如 "CS-101"
	Description  *string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	Faculty      *string `gorm:"type:varchar(255)"                              json:"faculty,omitempty"`
	Course       *int    `gorm:"type:smallint"                                  json:"course,omitempty"`
	AcademicYear *string `gorm:"type:varchar(20)"                               json:"academic_year,omitempty"` // 如 "2025-2026"
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Users     []User     `gorm:"many2many:user_groups;foreignKey:GroupID;joinForeignKey:GroupID;references:UserID;joinReferences:UserID" json:"users,omitempty"`
	Schedules []Schedule `gorm:"foreignKey:GroupID" json:"schedules,omitempty"`
}

func (Group) TableName() string { return "groups" }
