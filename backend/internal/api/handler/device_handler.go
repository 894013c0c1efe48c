package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/service"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

// DeviceHandler 识别终端模块 HTTP 处理器
type DeviceHandler struct {
	deviceSvc service.DeviceService
}

// NewDeviceHandler 创建 DeviceHandler
func NewDeviceHandler(deviceSvc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc}
}

// Register 注册识别终端（管理端）
// POST /api/v1/devices
func (h *DeviceHandler) Register(c *gin.Context) {
	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	device, err := h.deviceSvc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDeviceKeyTaken) {
			response.BadRequest(c, 50009, "终端标识已被注册")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, device)
}

// IssueToken 终端用 device_key 换取终端令牌
// POST /api/v1/devices/token
func (h *DeviceHandler) IssueToken(c *gin.Context) {
	var req struct {
		DeviceKey string `json:"device_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	token, err := h.deviceSvc.IssueToken(c.Request.Context(), req.DeviceKey)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) || errors.Is(err, service.ErrDeviceDisabled) {
			response.Unauthorized(c, 50001, "识别终端无效或已停用")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, token)
}

// ListDevices 终端列表
// GET /api/v1/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, devices)
}

// DisableDevice 停用终端
// DELETE /api/v1/devices/:id
func (h *DeviceHandler) DisableDevice(c *gin.Context) {
	if err := h.deviceSvc.Disable(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			response.NotFound(c, 50010, "识别终端不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
