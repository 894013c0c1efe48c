package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/service"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

const maxFaceImageSize = 10 * 1024 * 1024

// UserHandler 人员模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// CreateUser 创建人员
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmployeeIDTaken) {
			response.BadRequest(c, 20006, "工号已被注册")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, user)
}

// GetUser 获取人员信息
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
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

// ListUsers 人员列表
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// UpdateUser 更新人员信息
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req)
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

// DeleteUser 停用人员
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "人员不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// RegisterFace 注册人脸底库照片
// POST /api/v1/users/:id/face
func (h *UserHandler) RegisterFace(c *gin.Context) {
	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		response.BadRequest(c, 10001, "缺少 photo 文件")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxFaceImageSize))
	if err != nil {
		response.BadRequest(c, 10001, "读取照片失败")
		return
	}

	if err := h.userSvc.RegisterFace(c.Request.Context(), c.Param("id"), image); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "人员不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// parseDaysQuery 公用的 days 查询参数解析
func parseDaysQuery(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 || days > 365 {
		return 30
	}
	return days
}
