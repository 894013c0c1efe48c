package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.EmployeeID
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmployeeID(_ context.Context, employeeID string) (*model.User, error) {
	for _, u := range m.users {
		if u.EmployeeID == employeeID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByTelegramChatID(_ context.Context, chatID string) (*model.User, error) {
	for _, u := range m.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		u.IsActive = false
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context, groupID, keyword string, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if !u.IsActive {
			continue
		}
		if groupID != "" && !u.GroupIDs()[groupID] {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) CountActiveByGroupIDs(_ context.Context, groupIDs []string) (int64, error) {
	var count int64
	for _, u := range m.users {
		if !u.IsActive {
			continue
		}
		ids := u.GroupIDs()
		for _, gid := range groupIDs {
			if ids[gid] {
				count++
				break
			}
		}
	}
	return count, nil
}

func (m *mockUserRepo) CountActive(_ context.Context) (int64, error) {
	var count int64
	for _, u := range m.users {
		if u.IsActive {
			count++
		}
	}
	return count, nil
}

// ── Mock GroupRepository ──

type mockGroupRepo struct {
	groups  map[string]*model.Group
	members map[string]map[string]bool // groupID → userID 集合
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		groups:  make(map[string]*model.Group),
		members: make(map[string]map[string]bool),
	}
}

func (m *mockGroupRepo) Create(_ context.Context, group *model.Group) error {
	if group.GroupID == "" {
		group.GroupID = "group-" + group.Name
	}
	m.groups[group.GroupID] = group
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) GetByName(_ context.Context, name string) (*model.Group, error) {
	for _, g := range m.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) Update(_ context.Context, group *model.Group) error {
	m.groups[group.GroupID] = group
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id string) error {
	if g, ok := m.groups[id]; ok {
		g.IsActive = false
	}
	return nil
}

func (m *mockGroupRepo) List(_ context.Context, offset, limit int) ([]model.Group, int64, error) {
	var result []model.Group
	for _, g := range m.groups {
		if g.IsActive {
			result = append(result, *g)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockGroupRepo) AddMember(_ context.Context, groupID, userID string) error {
	if m.members[groupID] == nil {
		m.members[groupID] = make(map[string]bool)
	}
	m.members[groupID][userID] = true
	return nil
}

func (m *mockGroupRepo) RemoveMember(_ context.Context, groupID, userID string) error {
	delete(m.members[groupID], userID)
	return nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	schedules map[string]*model.Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*model.Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	if schedule.ScheduleID == "" {
		schedule.ScheduleID = fmt.Sprintf("sch-%d", len(m.schedules)+1)
	}
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockScheduleRepo) CreateBatch(ctx context.Context, schedules []model.Schedule) error {
	for i := range schedules {
		if err := m.Create(ctx, &schedules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.Schedule) error {
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	delete(m.schedules, id)
	return nil
}

func (m *mockScheduleRepo) List(_ context.Context, groupID string, offset, limit int) ([]model.Schedule, int64, error) {
	var result []model.Schedule
	for _, s := range m.schedules {
		if groupID != "" && (s.GroupID == nil || *s.GroupID != groupID) {
			continue
		}
		result = append(result, *s)
	}
	return result, int64(len(result)), nil
}

func (m *mockScheduleRepo) ListAllActive(_ context.Context) ([]model.Schedule, error) {
	var result []model.Schedule
	for _, s := range m.schedules {
		if s.IsActive {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (m *mockScheduleRepo) ListForDay(_ context.Context, dayOfWeek int, date time.Time) ([]model.Schedule, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var result []model.Schedule
	for _, s := range m.schedules {
		if !s.IsActive || s.DayOfWeek != dayOfWeek {
			continue
		}
		if s.EffectiveFrom != nil {
			from := time.Date(s.EffectiveFrom.Year(), s.EffectiveFrom.Month(), s.EffectiveFrom.Day(), 0, 0, 0, 0, time.UTC)
			if from.After(day) {
				continue
			}
		}
		if s.EffectiveTo != nil {
			to := time.Date(s.EffectiveTo.Year(), s.EffectiveTo.Month(), s.EffectiveTo.Day(), 0, 0, 0, 0, time.UTC)
			if to.Before(day) {
				continue
			}
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.Attendance
	nextID  int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.Attendance)}
}

func (m *mockAttendanceRepo) occurrenceKey(userID string, scheduleID *string, date time.Time) string {
	sid := "<nil>"
	if scheduleID != nil {
		sid = *scheduleID
	}
	return userID + "|" + sid + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) InsertOrGet(_ context.Context, record *model.Attendance) (*model.Attendance, bool, error) {
	if record.ScheduleID != nil {
		key := m.occurrenceKey(record.UserID, record.ScheduleID, record.OccurrenceDate)
		for _, r := range m.records {
			if r.ScheduleID != nil && m.occurrenceKey(r.UserID, r.ScheduleID, r.OccurrenceDate) == key {
				return r, false, nil
			}
		}
	}
	m.nextID++
	record.AttendanceID = fmt.Sprintf("att-%d", m.nextID)
	m.records[record.AttendanceID] = record
	return record, true, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, record *model.Attendance) error {
	m.records[record.AttendanceID] = record
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.Attendance, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) FindInWindow(_ context.Context, userID, scheduleID string, from, to time.Time) (*model.Attendance, error) {
	var latest *model.Attendance
	for _, r := range m.records {
		if r.UserID != userID || r.ScheduleID == nil || *r.ScheduleID != scheduleID {
			continue
		}
		if r.CheckInTime.Before(from) || r.CheckInTime.After(to) {
			continue
		}
		if latest == nil || r.CheckInTime.After(latest.CheckInTime) {
			latest = r
		}
	}
	return latest, nil
}

func (m *mockAttendanceRepo) FindByOccurrence(_ context.Context, userID, scheduleID string, date time.Time) (*model.Attendance, error) {
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		if scheduleID != "" && (r.ScheduleID == nil || *r.ScheduleID != scheduleID) {
			continue
		}
		if scheduleID == "" && r.ScheduleID != nil {
			continue
		}
		if r.OccurrenceDate.Format("2006-01-02") == date.Format("2006-01-02") {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockAttendanceRepo) ListByDate(_ context.Context, date time.Time, offset, limit int) ([]model.Attendance, int64, error) {
	var result []model.Attendance
	for _, r := range m.records {
		if r.OccurrenceDate.Format("2006-01-02") == date.Format("2006-01-02") {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockAttendanceRepo) ListByRange(_ context.Context, q repository.AttendanceQuery) ([]model.Attendance, int64, error) {
	var result []model.Attendance
	for _, r := range m.records {
		day := r.OccurrenceDate.Format("2006-01-02")
		if day < q.From.Format("2006-01-02") || day > q.To.Format("2006-01-02") {
			continue
		}
		if q.UserID != "" && r.UserID != q.UserID {
			continue
		}
		if q.ScheduleID != "" && (r.ScheduleID == nil || *r.ScheduleID != q.ScheduleID) {
			continue
		}
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CheckInTime.After(result[j].CheckInTime)
	})
	return result, int64(len(result)), nil
}

func (m *mockAttendanceRepo) ListByScheduleDate(_ context.Context, scheduleID string, date time.Time) ([]model.Attendance, error) {
	var result []model.Attendance
	for _, r := range m.records {
		if r.ScheduleID == nil || *r.ScheduleID != scheduleID {
			continue
		}
		if r.OccurrenceDate.Format("2006-01-02") != date.Format("2006-01-02") {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockAttendanceRepo) CountByUserAndRange(_ context.Context, userID string, from, to time.Time) (int64, int64, error) {
	var total, late int64
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		day := r.OccurrenceDate.Format("2006-01-02")
		if day < from.Format("2006-01-02") || day > to.Format("2006-01-02") {
			continue
		}
		total++
		if r.Status == model.StatusLate {
			late++
		}
	}
	return total, late, nil
}

func (m *mockAttendanceRepo) StatsByDay(_ context.Context, from, to time.Time) ([]repository.DayStats, error) {
	byDay := make(map[string]*repository.DayStats)
	for _, r := range m.records {
		day := r.OccurrenceDate.Format("2006-01-02")
		if day < from.Format("2006-01-02") || day > to.Format("2006-01-02") {
			continue
		}
		st, ok := byDay[day]
		if !ok {
			st = &repository.DayStats{Date: r.OccurrenceDate}
			byDay[day] = st
		}
		st.Total++
		if r.Status == model.StatusLate {
			st.Late++
		} else {
			st.Present++
		}
	}

	var result []repository.DayStats
	for _, st := range byDay {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// ── Mock TimeSettingsRepository ──

type mockTimeSettingsRepo struct {
	rows []*model.TimeSettings
}

func newMockTimeSettingsRepo() *mockTimeSettingsRepo {
	return &mockTimeSettingsRepo{}
}

func (m *mockTimeSettingsRepo) GetActive(_ context.Context) (*model.TimeSettings, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].IsActive {
			return m.rows[i], nil
		}
	}
	return nil, nil
}

func (m *mockTimeSettingsRepo) CreateAndActivate(_ context.Context, settings *model.TimeSettings) error {
	for _, r := range m.rows {
		r.IsActive = false
	}
	settings.IsActive = true
	if settings.SettingsID == "" {
		settings.SettingsID = fmt.Sprintf("ts-%d", len(m.rows)+1)
	}
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = time.Now()
	}
	m.rows = append(m.rows, settings)
	return nil
}

func (m *mockTimeSettingsRepo) ListHistory(_ context.Context, limit int) ([]model.TimeSettings, error) {
	var result []model.TimeSettings
	for i := len(m.rows) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, *m.rows[i])
	}
	return result, nil
}

// ── Mock DeviceRepository ──

type mockDeviceRepo struct {
	devices map[string]*model.Device
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]*model.Device)}
}

func (m *mockDeviceRepo) Create(_ context.Context, device *model.Device) error {
	if device.DeviceID == "" {
		device.DeviceID = "dev-" + device.DeviceKey
	}
	m.devices[device.DeviceID] = device
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id string) (*model.Device, error) {
	if d, ok := m.devices[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRepo) GetByDeviceKey(_ context.Context, deviceKey string) (*model.Device, error) {
	for _, d := range m.devices {
		if d.DeviceKey == deviceKey {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRepo) Update(_ context.Context, device *model.Device) error {
	m.devices[device.DeviceID] = device
	return nil
}

func (m *mockDeviceRepo) List(_ context.Context) ([]model.Device, error) {
	var result []model.Device
	for _, d := range m.devices {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDeviceRepo) TouchLastSeen(_ context.Context, id string, at time.Time) error {
	if d, ok := m.devices[id]; ok {
		d.LastSeenAt = &at
	}
	return nil
}

// newMockRepository 组装全 Mock 的 Repository 聚合
func newMockRepository() *repository.Repository {
	return &repository.Repository{
		User:         newMockUserRepo(),
		Group:        newMockGroupRepo(),
		Schedule:     newMockScheduleRepo(),
		Attendance:   newMockAttendanceRepo(),
		TimeSettings: newMockTimeSettingsRepo(),
		Device:       newMockDeviceRepo(),
	}
}
