package dto

// ── 考勤模块 DTO ──

// AttendanceEventRequest 识别终端上报的考勤事件
// UserID 为空时走人脸识别服务；Timestamp 为空时取服务器当前时间（RFC3339）
type AttendanceEventRequest struct {
	UserID     string   `json:"user_id"    binding:"omitempty,uuid"`
	Image      string   `json:"image"      binding:"omitempty"` // base64 抓拍图
	Confidence *float64 `json:"confidence" binding:"omitempty,min=0,max=1"`
	Timestamp  string   `json:"timestamp"  binding:"omitempty"`
}

// 事件处理结果类型
const (
	OutcomeCreated          = "created"
	OutcomeUpdated          = "updated"
	OutcomeDuplicate        = "duplicate"
	OutcomeNoActiveSchedule = "no_schedule"
	OutcomeUnauthorized     = "unauthorized"
)

// AttendanceEventResponse 事件处理结果
type AttendanceEventResponse struct {
	Outcome      string              `json:"outcome"`
	ScheduleName string              `json:"schedule_name,omitempty"`
	Attendance   *AttendanceResponse `json:"attendance,omitempty"`
}

// AttendanceResponse 考勤记录响应
type AttendanceResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	User           *UserBrief `json:"user,omitempty"`
	ScheduleID     *string    `json:"schedule_id,omitempty"`
	ScheduleName   *string    `json:"schedule_name,omitempty"`
	OccurrenceDate string     `json:"occurrence_date"`
	CheckInTime    string     `json:"check_in_time"`
	LastSeenTime   string     `json:"last_seen_time"`
	DetectionCount int        `json:"detection_count"`
	Confidence     *float64   `json:"confidence,omitempty"`
	ImagePath      *string    `json:"image_path,omitempty"`
	Status         string     `json:"status"`
}

// AttendanceRangeRequest 区间查询参数
type AttendanceRangeRequest struct {
	PaginationRequest
	StartDate  string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string `form:"end_date"   binding:"required,datetime=2006-01-02"`
	UserID     string `form:"user_id"    binding:"omitempty,uuid"`
	ScheduleID string `form:"schedule_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=present late"`
}

// AttendanceExportRequest 导出查询参数
type AttendanceExportRequest struct {
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"required,datetime=2006-01-02"`
	GroupID   string `form:"group_id"   binding:"omitempty,uuid"`
}

// AttendanceStatsResponse 按日统计响应
type AttendanceStatsResponse struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
}
