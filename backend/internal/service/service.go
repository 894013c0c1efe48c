package service

import (
	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/config"
	"github.com/axmedovx0430/davomatai/backend/internal/notify"
	"github.com/axmedovx0430/davomatai/backend/internal/recognition"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
	"github.com/axmedovx0430/davomatai/backend/pkg/jwt"
	"github.com/axmedovx0430/davomatai/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Group      GroupService
	Schedule   ScheduleService
	Attendance AttendanceService
	Settings   SettingsService
	Device     DeviceService
	Export     ExportService
}

// NewService 创建 Service 聚合
// rdb 允许为 nil（Redis 不可用时考勤互斥锁退化为数据库唯一索引兜底）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	recog recognition.Client,
	notifier notify.Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, logger),
		User:       NewUserService(repo, recog, logger),
		Group:      NewGroupService(repo, logger),
		Schedule:   NewScheduleService(repo, logger),
		Attendance: NewAttendanceService(repo, rdb, recog, notifier, logger),
		Settings:   NewSettingsService(repo, logger),
		Device:     NewDeviceService(cfg, repo, jwtMgr, logger),
		Export:     NewExportService(repo, logger),
	}
}
