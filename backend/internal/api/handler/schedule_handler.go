package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/service"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

const maxICSFileSize = 5 * 1024 * 1024

// ScheduleHandler 排课模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// CreateSchedule 创建排课
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeScheduleError(c, err)
		return
	}

	response.Created(c, schedule)
}

// GetSchedule 获取排课详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.scheduleSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// ListSchedules 排课列表
// GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schedules, total, err := h.scheduleSvc.List(c.Request.Context(), c.Query("group_id"), &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, schedules, total, page.GetPage(), page.GetPageSize())
}

// WeekView 周视图
// GET /api/v1/schedules/week
func (h *ScheduleHandler) WeekView(c *gin.Context) {
	week, err := h.scheduleSvc.WeekView(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, week)
}

// UpdateSchedule 更新排课
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schedule, err := h.scheduleSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// DeleteSchedule 删除排课（既有考勤记录保留，仅解除关联）
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	if err := h.scheduleSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// Stats 单次排课到场统计
// GET /api/v1/schedules/:id/stats?date=2026-09-01
func (h *ScheduleHandler) Stats(c *gin.Context) {
	dateStr := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		response.BadRequest(c, 10001, "日期格式错误")
		return
	}

	stats, err := h.scheduleSvc.Stats(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		h.writeScheduleError(c, err)
		return
	}

	response.OK(c, stats)
}

// ImportICS 从 iCalendar 批量导入排课（multipart 文件或 url 二选一）
// POST /api/v1/schedules/import
func (h *ScheduleHandler) ImportICS(c *gin.Context) {
	var req dto.ImportICSRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var reader io.Reader
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		reader = io.LimitReader(file, maxICSFileSize)
	} else if req.URL != "" {
		body, err := service.FetchICSContent(req.URL)
		if err != nil {
			response.BadRequest(c, 40002, "ICS 获取失败")
			return
		}
		defer body.Close()
		reader = body
	} else {
		response.BadRequest(c, 40001, "需提供 file 或 url")
		return
	}

	result, err := h.scheduleSvc.ImportICS(c.Request.Context(), reader, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportNoSchedules):
			response.UnprocessableEntity(c, 40003, "ICS 中未解析出任何排课")
		case errors.Is(err, service.ErrGroupNotFound):
			response.NotFound(c, 30001, "班组不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

func (h *ScheduleHandler) writeScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 40004, "排课不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 30001, "班组不存在")
	case errors.Is(err, service.ErrBadTimeRange):
		response.BadRequest(c, 40005, "开始时间必须早于结束时间")
	case errors.Is(err, service.ErrBadClockFormat):
		response.BadRequest(c, 40005, "时间格式错误，应为 HH:MM")
	case errors.Is(err, service.ErrBadEffectiveRange):
		response.BadRequest(c, 40006, "生效日期范围无效")
	default:
		response.InternalError(c)
	}
}
