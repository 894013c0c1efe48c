package dto

// ── 人员模块 DTO ──

// CreateUserRequest 创建人员请求
type CreateUserRequest struct {
	FullName   string   `json:"full_name"   binding:"required,min=2,max=255"`
	EmployeeID string   `json:"employee_id" binding:"required,max=50"`
	Phone      *string  `json:"phone"       binding:"omitempty,max=20"`
	Email      *string  `json:"email"       binding:"omitempty,email"`
	Password   *string  `json:"password"    binding:"omitempty,min=6,max=72"` // 仅管理端账号需要
	Role       string   `json:"role"        binding:"omitempty,oneof=admin user"`
	GroupIDs   []string `json:"group_ids"   binding:"omitempty,dive,uuid"`
}

// UpdateUserRequest 更新人员请求
type UpdateUserRequest struct {
	FullName *string  `json:"full_name" binding:"omitempty,min=2,max=255"`
	Phone    *string  `json:"phone"     binding:"omitempty,max=20"`
	Email    *string  `json:"email"     binding:"omitempty,email"`
	IsActive *bool    `json:"is_active"`
	GroupIDs []string `json:"group_ids" binding:"omitempty,dive,uuid"`
}

// UserListRequest 人员列表查询参数
type UserListRequest struct {
	PaginationRequest
	GroupID string `form:"group_id" binding:"omitempty,uuid"`
	Keyword string `form:"keyword"  binding:"omitempty,max=50"`
}

// UserResponse 人员信息响应
type UserResponse struct {
	ID         string       `json:"id"`
	FullName   string       `json:"full_name"`
	EmployeeID string       `json:"employee_id"`
	Phone      *string      `json:"phone,omitempty"`
	Email      *string      `json:"email,omitempty"`
	Role       string       `json:"role"`
	IsActive   bool         `json:"is_active"`
	Groups     []GroupBrief `json:"groups,omitempty"`
	CreatedAt  string       `json:"created_at"`
}

// UserBrief 人员简要信息（嵌入考勤记录等响应）
type UserBrief struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	EmployeeID string `json:"employee_id"`
}

// UserStatsResponse 个人考勤统计响应
type UserStatsResponse struct {
	TotalDays      int     `json:"total_days"`
	Present        int     `json:"present"`
	Late           int     `json:"late"`
	Absent         int     `json:"absent"`
	AttendanceRate float64 `json:"attendance_rate"` // 百分比，保留两位
}
