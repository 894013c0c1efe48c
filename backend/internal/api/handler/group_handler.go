package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/service"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

// GroupHandler 班组模块 HTTP 处理器
type GroupHandler struct {
	groupSvc service.GroupService
}

// NewGroupHandler 创建 GroupHandler
func NewGroupHandler(groupSvc service.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// CreateGroup 创建班组
// POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	group, err := h.groupSvc.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrGroupNameTaken) {
			response.BadRequest(c, 30002, "班组名称已存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, group)
}

// GetGroup 获取班组详情（含成员）
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			response.NotFound(c, 30001, "班组不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, group)
}

// ListGroups 班组列表
// GET /api/v1/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	groups, total, err := h.groupSvc.List(c.Request.Context(), &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, groups, total, page.GetPage(), page.GetPageSize())
}

// UpdateGroup 更新班组
// PUT /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	group, err := h.groupSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupNotFound):
			response.NotFound(c, 30001, "班组不存在")
		case errors.Is(err, service.ErrGroupNameTaken):
			response.BadRequest(c, 30002, "班组名称已存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, group)
}

// DeleteGroup 停用班组
// DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.groupSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			response.NotFound(c, 30001, "班组不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// AddMember 加入成员
// POST /api/v1/groups/:id/members
func (h *GroupHandler) AddMember(c *gin.Context) {
	var req dto.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.groupSvc.AddMember(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrGroupNotFound):
			response.NotFound(c, 30001, "班组不存在")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "人员不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// RemoveMember 移出成员
// DELETE /api/v1/groups/:id/members/:user_id
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.groupSvc.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("user_id")); err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			response.NotFound(c, 30001, "班组不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
