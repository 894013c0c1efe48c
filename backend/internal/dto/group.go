package dto

// ── 班组模块 DTO ──

// CreateGroupRequest 创建班组请求
type CreateGroupRequest struct {
	Name         string  `json:"name"          binding:"required,min=2,max=255"`
	Code         *string `json:"code"          binding:"omitempty,max=50"`
	Description  *string `json:"description"   binding:"omitempty,max=500"`
	Faculty      *string `json:"faculty"       binding:"omitempty,max=255"`
	Course       *int    `json:"course"        binding:"omitempty,min=1,max=8"`
	AcademicYear *string `json:"academic_year" binding:"omitempty,max=20"`
}

// UpdateGroupRequest 更新班组请求
type UpdateGroupRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=255"`
	Code         *string `json:"code"          binding:"omitempty,max=50"`
	Description  *string `json:"description"   binding:"omitempty,max=500"`
	Faculty      *string `json:"faculty"       binding:"omitempty,max=255"`
	Course       *int    `json:"course"        binding:"omitempty,min=1,max=8"`
	AcademicYear *string `json:"academic_year" binding:"omitempty,max=20"`
	IsActive     *bool   `json:"is_active"`
}

// GroupMemberRequest 班组成员增删请求
type GroupMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// GroupBrief 班组简要信息
type GroupBrief struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Code *string `json:"code,omitempty"`
}

// GroupResponse 班组信息响应
type GroupResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Code         *string `json:"code,omitempty"`
	Description  *string `json:"description,omitempty"`
	Faculty      *string `json:"faculty,omitempty"`
	Course       *int    `json:"course,omitempty"`
	AcademicYear *string `json:"academic_year,omitempty"`
	IsActive     bool    `json:"is_active"`
	MemberCount  int     `json:"member_count"`
	CreatedAt    string  `json:"created_at"`

	Members []UserBrief `json:"members,omitempty"`
}
