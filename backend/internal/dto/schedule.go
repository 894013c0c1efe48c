package dto

// ── 排课模块 DTO ──

// CreateScheduleRequest 创建排课请求
// StartTime/EndTime 为 "HH:MM" 墙钟时间；EffectiveFrom/To 为 "2006-01-02" 日期
type CreateScheduleRequest struct {
	Name                  string  `json:"name"          binding:"required,min=1,max=100"`
	DayOfWeek             *int    `json:"day_of_week"   binding:"required,min=0,max=6"` // 0=周一 … 6=周日
	StartTime             string  `json:"start_time"    binding:"required"`
	EndTime               string  `json:"end_time"      binding:"required"`
	GroupID               *string `json:"group_id"      binding:"omitempty,uuid"`
	LateThresholdMinutes  *int    `json:"late_threshold_minutes"  binding:"omitempty,min=0,max=1440"`
	DuplicateCheckMinutes *int    `json:"duplicate_check_minutes" binding:"omitempty,min=1,max=1440"`
	EffectiveFrom         *string `json:"effective_from" binding:"omitempty,datetime=2006-01-02"`
	EffectiveTo           *string `json:"effective_to"   binding:"omitempty,datetime=2006-01-02"`
	Teacher               *string `json:"teacher"        binding:"omitempty,max=100"`
	Room                  *string `json:"room"           binding:"omitempty,max=50"`
}

// UpdateScheduleRequest 更新排课请求
type UpdateScheduleRequest struct {
	Name                  *string `json:"name"          binding:"omitempty,min=1,max=100"`
	DayOfWeek             *int    `json:"day_of_week"   binding:"omitempty,min=0,max=6"`
	StartTime             *string `json:"start_time"`
	EndTime               *string `json:"end_time"`
	GroupID               *string `json:"group_id"      binding:"omitempty,uuid"`
	IsActive              *bool   `json:"is_active"`
	LateThresholdMinutes  *int    `json:"late_threshold_minutes"  binding:"omitempty,min=0,max=1440"`
	DuplicateCheckMinutes *int    `json:"duplicate_check_minutes" binding:"omitempty,min=1,max=1440"`
	EffectiveFrom         *string `json:"effective_from" binding:"omitempty,datetime=2006-01-02"`
	EffectiveTo           *string `json:"effective_to"   binding:"omitempty,datetime=2006-01-02"`
	Teacher               *string `json:"teacher"        binding:"omitempty,max=100"`
	Room                  *string `json:"room"           binding:"omitempty,max=50"`
}

// WeekScheduleRequest 周视图查询参数
type WeekScheduleRequest struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"` // 周一
	EndDate   string `form:"end_date"   binding:"omitempty,datetime=2006-01-02"` // 周日
}

// ImportICSRequest ICS 课表导入请求（multipart 文件或 URL 二选一）
type ImportICSRequest struct {
	URL           string  `form:"url"            binding:"omitempty,url"`
	GroupID       *string `form:"group_id"       binding:"omitempty,uuid"`
	EffectiveFrom *string `form:"effective_from" binding:"omitempty,datetime=2006-01-02"`
	EffectiveTo   *string `form:"effective_to"   binding:"omitempty,datetime=2006-01-02"`
}

// ScheduleResponse 排课信息响应
type ScheduleResponse struct {
	ID                    string      `json:"id"`
	Name                  string      `json:"name"`
	DayOfWeek             int         `json:"day_of_week"`
	StartTime             string      `json:"start_time"`
	EndTime               string      `json:"end_time"`
	GroupID               *string     `json:"group_id,omitempty"`
	Group                 *GroupBrief `json:"group,omitempty"`
	IsActive              bool        `json:"is_active"`
	LateThresholdMinutes  *int        `json:"late_threshold_minutes,omitempty"`
	DuplicateCheckMinutes *int        `json:"duplicate_check_minutes,omitempty"`
	EffectiveFrom         *string     `json:"effective_from,omitempty"`
	EffectiveTo           *string     `json:"effective_to,omitempty"`
	Teacher               *string     `json:"teacher,omitempty"`
	Room                  *string     `json:"room,omitempty"`
}

// WeekScheduleResponse 周视图响应：day_of_week → 当日排课（按开始时间升序）
type WeekScheduleResponse struct {
	Days map[int][]ScheduleResponse `json:"days"`
}

// ScheduleStatsResponse 单次排课考勤统计
type ScheduleStatsResponse struct {
	TotalUsers     int     `json:"total_users"`
	Present        int     `json:"present"`
	Late           int     `json:"late"`
	Absent         int     `json:"absent"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// ImportICSResponse ICS 导入响应
type ImportICSResponse struct {
	ImportedCount int                `json:"imported_count"`
	Schedules     []ScheduleResponse `json:"schedules"`
}
