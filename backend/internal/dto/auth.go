package dto

// ── 认证模块 DTO ──

// LoginRequest 管理端登录请求
type LoginRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,max=50"`
	Password   string `json:"password"    binding:"required,min=6,max=72"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}
