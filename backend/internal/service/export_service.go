package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("指定区间内无考勤记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// Excel 格式：按日期分 Sheet，每行一条考勤记录。
type ExportService interface {
	// ExportAttendance 导出指定日期区间的考勤记录为 Excel
	ExportAttendance(ctx context.Context, from, to time.Time, groupID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var exportHeaders = []string{"工号", "姓名", "排课", "日期", "首次识别", "最后识别", "识别次数", "状态"}

func (s *exportService) ExportAttendance(ctx context.Context, from, to time.Time, groupID string) (*bytes.Buffer, string, error) {
	records, _, err := s.repo.Attendance.ListByRange(ctx, repository.AttendanceQuery{
		From:    from,
		To:      to,
		GroupID: groupID,
	})
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrExportNoRecords
	}

	// 按日期分组，保持查询返回的时间倒序
	byDate := make(map[string][]model.Attendance)
	var dateOrder []string
	for _, r := range records {
		day := r.OccurrenceDate.Format("2006-01-02")
		if _, ok := byDate[day]; !ok {
			dateOrder = append(dateOrder, day)
		}
		byDate[day] = append(byDate[day], r)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}

	for si, day := range dateOrder {
		sheet := day
		if si == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, "", ErrExportGenerateFail
			}
		}

		for ci, h := range exportHeaders {
			cell, _ := excelize.CoordinatesToCellName(ci+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
		f.SetCellStyle(sheet, "A1", endCell, headerStyle)

		for ri, r := range byDate[day] {
			row := ri + 2
			employeeID, fullName := "", ""
			if r.User != nil {
				employeeID = r.User.EmployeeID
				fullName = r.User.FullName
			}
			scheduleName := ""
			if r.Schedule != nil {
				scheduleName = r.Schedule.Name
			}
			statusText := "准时"
			if r.Status == model.StatusLate {
				statusText = "迟到"
			}

			values := []interface{}{
				employeeID,
				fullName,
				scheduleName,
				day,
				r.CheckInTime.Format("15:04:05"),
				r.LastSeenTime.Format("15:04:05"),
				r.DetectionCount,
				statusText,
			}
			for ci, v := range values {
				cell, _ := excelize.CoordinatesToCellName(ci+1, row)
				f.SetCellValue(sheet, cell, v)
			}
		}

		f.SetColWidth(sheet, "A", "C", 18)
		f.SetColWidth(sheet, "D", "F", 14)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("attendance_%s_%s.xlsx",
		from.Format("20060102"), to.Format("20060102"))
	return &buf, filename, nil
}
