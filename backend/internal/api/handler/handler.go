package handler

import "github.com/axmedovx0430/davomatai/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Group      *GroupHandler
	Schedule   *ScheduleHandler
	Attendance *AttendanceHandler
	Settings   *SettingsHandler
	Device     *DeviceHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Group:      NewGroupHandler(svc.Group),
		Schedule:   NewScheduleHandler(svc.Schedule),
		Attendance: NewAttendanceHandler(svc.Attendance, svc.Export, svc.Device),
		Settings:   NewSettingsHandler(svc.Settings),
		Device:     NewDeviceHandler(svc.Device),
	}
}
