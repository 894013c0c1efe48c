package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/recognition"
	"github.com/axmedovx0430/davomatai/backend/internal/service"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	exportSvc     service.ExportService
	deviceSvc     service.DeviceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, exportSvc service.ExportService, deviceSvc service.DeviceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceSvc: attendanceSvc,
		exportSvc:     exportSvc,
		deviceSvc:     deviceSvc,
	}
}

// ReportEvent 识别终端上报考勤事件
// POST /api/v1/attendance/events
//
// HTTP 状态按引擎判定结果区分：
//
//	created/updated → 200；duplicate/no_schedule/unauthorized → 422
func (h *AttendanceHandler) ReportEvent(c *gin.Context) {
	deviceKey, ok := MustGetDeviceKey(c)
	if !ok {
		return
	}

	deviceID, err := h.deviceSvc.Authorize(c.Request.Context(), deviceKey)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) || errors.Is(err, service.ErrDeviceDisabled) {
			response.Unauthorized(c, 50001, "识别终端无效或已停用")
			return
		}
		response.InternalError(c)
		return
	}

	var req dto.AttendanceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.ProcessEvent(c.Request.Context(), &req, deviceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "人员不存在")
		case errors.Is(err, service.ErrEventNeedsIdentity):
			response.BadRequest(c, 50002, "事件缺少 user_id 且未携带抓拍图")
		case errors.Is(err, service.ErrBadTimestamp):
			response.BadRequest(c, 50003, "时间戳格式错误")
		case errors.Is(err, recognition.ErrNoMatch),
			errors.Is(err, recognition.ErrLowConfidence):
			response.UnprocessableEntity(c, 50004, "人脸识别未通过")
		case errors.Is(err, recognition.ErrDisabled):
			response.BadRequest(c, 50005, "人脸识别服务未启用，需携带 user_id")
		default:
			response.InternalError(c)
		}
		return
	}

	switch result.Outcome {
	case dto.OutcomeCreated, dto.OutcomeUpdated:
		response.OK(c, result)
	default:
		c.JSON(http.StatusUnprocessableEntity, response.Response{
			Code:    50006,
			Message: result.Outcome,
			Data:    result,
		})
	}
}

// GetAttendance 获取考勤记录详情
// GET /api/v1/attendance/:id
func (h *AttendanceHandler) GetAttendance(c *gin.Context) {
	record, err := h.attendanceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAttendanceNotFound) {
			response.NotFound(c, 50007, "考勤记录不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, record)
}

// ListToday 当日考勤
// GET /api/v1/attendance/today
func (h *AttendanceHandler) ListToday(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, total, err := h.attendanceSvc.ListToday(c.Request.Context(), &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, records, total, page.GetPage(), page.GetPageSize())
}

// ListRange 区间考勤查询
// GET /api/v1/attendance
func (h *AttendanceHandler) ListRange(c *gin.Context) {
	var req dto.AttendanceRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, total, err := h.attendanceSvc.ListRange(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrBadTimestamp) {
			response.BadRequest(c, 10001, "日期格式错误")
			return
		}
		response.InternalError(c)
		return
	}

	response.OKPage(c, records, total, req.GetPage(), req.GetPageSize())
}

// StatsByDay 按日统计
// GET /api/v1/attendance/stats?start_date=&end_date=
func (h *AttendanceHandler) StatsByDay(c *gin.Context) {
	from, to, ok := parseDateRangeQuery(c)
	if !ok {
		return
	}

	stats, err := h.attendanceSvc.StatsByDay(c.Request.Context(), from, to)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// UserStats 个人考勤统计
// GET /api/v1/attendance/users/:id/stats?days=30
func (h *AttendanceHandler) UserStats(c *gin.Context) {
	stats, err := h.attendanceSvc.UserStats(c.Request.Context(), c.Param("id"), parseDaysQuery(c))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// Export 导出考勤 Excel
// GET /api/v1/attendance/export?start_date=&end_date=&group_id=
func (h *AttendanceHandler) Export(c *gin.Context) {
	var req dto.AttendanceExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	from, _ := time.Parse("2006-01-02", req.StartDate)
	to, _ := time.Parse("2006-01-02", req.EndDate)

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), from, to, req.GroupID)
	if err != nil {
		if errors.Is(err, service.ErrExportNoRecords) {
			response.NotFound(c, 50008, "指定区间内无考勤记录")
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

func parseDateRangeQuery(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		response.BadRequest(c, 10001, "start_date 格式错误")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		response.BadRequest(c, 10001, "end_date 格式错误")
		return time.Time{}, time.Time{}, false
	}
	if from.After(to) {
		response.BadRequest(c, 10001, "start_date 不能晚于 end_date")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
