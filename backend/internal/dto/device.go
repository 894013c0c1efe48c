package dto

// ── 识别终端 DTO ──

// RegisterDeviceRequest 注册识别终端请求
type RegisterDeviceRequest struct {
	Name      string `json:"name"       binding:"required,min=1,max=100"`
	DeviceKey string `json:"device_key" binding:"required,min=8,max=64"`
	Location  string `json:"location"   binding:"omitempty,max=100"`
}

// DeviceResponse 终端信息响应
type DeviceResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DeviceKey  string  `json:"device_key"`
	Location   *string `json:"location,omitempty"`
	IsActive   bool    `json:"is_active"`
	LastSeenAt *string `json:"last_seen_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// DeviceTokenResponse 终端令牌响应
type DeviceTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // 秒
}
