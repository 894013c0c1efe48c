package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/service"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 管理端登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tokens, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, 20002, "工号或密码错误")
		case errors.Is(err, service.ErrAccountDisabled):
			response.Forbidden(c, 20003, "账号已停用")
		case errors.Is(err, service.ErrNotAdminAccount):
			response.Forbidden(c, 20004, "该人员不是管理端账号")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, tokens)
}

// RefreshToken 刷新 Token 对
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tokens, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) || errors.Is(err, service.ErrAccountDisabled) {
			response.Unauthorized(c, 20005, "refresh token 无效或已过期")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, tokens)
}

// Me 获取当前登录账号信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "人员不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, user)
}
