package dto

// ── 全局时间设置 DTO ──

// CreateTimeSettingsRequest 写入新的全局时间设置（追加一行并激活，不做原地更新）
type CreateTimeSettingsRequest struct {
	WorkStartTime         string `json:"work_start_time"         binding:"required"` // "HH:MM"
	LateThresholdMinutes  *int   `json:"late_threshold_minutes"  binding:"required,min=0,max=1440"`
	DuplicateCheckMinutes *int   `json:"duplicate_check_minutes" binding:"required,min=1,max=1440"`
}

// TimeSettingsResponse 当前生效的全局时间设置
type TimeSettingsResponse struct {
	ID                    string `json:"id"`
	WorkStartTime         string `json:"work_start_time"`
	LateThresholdMinutes  int    `json:"late_threshold_minutes"`
	DuplicateCheckMinutes int    `json:"duplicate_check_minutes"`
	CreatedAt             string `json:"created_at"`
}
