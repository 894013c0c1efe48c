package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/service"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

// SettingsHandler 全局时间设置 HTTP 处理器
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler 创建 SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// GetCurrent 当前生效设置
// GET /api/v1/settings/time
func (h *SettingsHandler) GetCurrent(c *gin.Context) {
	settings, err := h.settingsSvc.GetCurrent(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, settings)
}

// Update 写入新设置（追加并激活）
// PUT /api/v1/settings/time
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.CreateTimeSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	settings, err := h.settingsSvc.Update(c.Request.Context(), &req, userID)
	if err != nil {
		if errors.Is(err, service.ErrBadClockFormat) {
			response.BadRequest(c, 10001, "work_start_time 格式错误，应为 HH:MM")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, settings)
}

// History 设置变更历史
// GET /api/v1/settings/time/history?limit=20
func (h *SettingsHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	rows, err := h.settingsSvc.History(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, rows)
}
