package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User         UserRepository
	Group        GroupRepository
	Schedule     ScheduleRepository
	Attendance   AttendanceRepository
	TimeSettings TimeSettingsRepository
	Device       DeviceRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Group:        NewGroupRepo(db),
		Schedule:     NewScheduleRepo(db),
		Attendance:   NewAttendanceRepo(db),
		TimeSettings: NewTimeSettingsRepo(db),
		Device:       NewDeviceRepo(db),
	}
}
