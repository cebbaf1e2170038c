package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	"shiftgov/pkg/timeofday"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
//   - 周排班导出为 Excel，包含“排班”与“人工成本”两个 Sheet
//   - 员工日历导出为 iCalendar，仅包含已发布班次上的已批准指派
//   - 文件内容由 Handler 层设置响应头后写出
type ExportService interface {
	ExportWeek(ctx context.Context, req *dto.ExportWeekRequest, caller Caller) (*bytes.Buffer, string, error)
	EmployeeCalendar(ctx context.Context, req *dto.CalendarExportRequest, caller Caller) (string, string, error)
}

type exportService struct {
	repo   *repository.Repository
	labor  LaborService
	tz     *time.Location
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, labor LaborService, tz *time.Location, logger *zap.Logger) ExportService {
	if tz == nil {
		tz = time.UTC
	}
	return &exportService{repo: repo, labor: labor, tz: tz, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportWeek 导出门店周排班为 Excel
// ═══════════════════════════════════════════════════════════
//
// Sheet "排班"：每行一个班次，员工列列出已批准与待审批员工
// Sheet "人工成本"：每日工时、成本、营业额与占比，末行为合计

func (s *exportService) ExportWeek(ctx context.Context, req *dto.ExportWeekRequest, caller Caller) (*bytes.Buffer, string, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, "", err
	}
	loc, err := loadLocation(ctx, s.repo, s.logger, req.LocationID, caller)
	if err != nil {
		return nil, "", err
	}
	weekStart := timeofday.WeekStart(date)

	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		CompanyID:  caller.CompanyID,
		LocationID: loc.LocationID,
		From:       weekStart,
		To:         weekStart.AddDate(0, 0, 6),
	})
	if err != nil {
		s.logger.Error("查询周班次失败", zap.Error(err))
		return nil, "", err
	}

	labor, err := s.labor.Weekly(ctx, &dto.LaborQueryRequest{LocationID: loc.LocationID, Date: req.Date}, caller)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── 排班 ──
	schedule := "排班"
	idx, _ := f.NewSheet(schedule)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(schedule, "A1", fmt.Sprintf("%s %s 周排班", loc.Name, formatDate(weekStart)))
	f.MergeCell(schedule, "A1", "J1")
	f.SetCellStyle(schedule, "A1", "A1", headerStyle)

	headers := []string{"日期", "星期", "开始", "结束", "岗位", "需求人数", "已批准", "员工", "发布状态", "开放班次"}
	for i, h := range headers {
		f.SetCellValue(schedule, cell(colName(i), 2), h)
	}
	f.SetCellStyle(schedule, "A2", cell(colName(len(headers)-1), 2), headerStyle)
	f.SetColWidth(schedule, "A", "A", 12)
	f.SetColWidth(schedule, "E", "E", 14)
	f.SetColWidth(schedule, "H", "H", 36)

	row := 3
	for i := range shifts {
		sh := &shifts[i]
		values := []interface{}{
			formatDate(sh.ShiftDate),
			weekdayNames[timeofday.WeekdayIndex(sh.ShiftDate)],
			clockHHMM(sh.StartTime),
			clockHHMM(sh.EndTime),
			sh.RoleName,
			sh.RequiredCount,
			sh.ApprovedCount(),
			assigneeText(sh),
			yesNo(sh.IsPublished, "已发布", "未发布"),
			yesNo(sh.IsOpenShift, "是", "否"),
		}
		for c, v := range values {
			f.SetCellValue(schedule, cell(colName(c), row), v)
		}
		row++
	}

	// ── 人工成本 ──
	laborSheet := "人工成本"
	f.NewSheet(laborSheet)
	laborHeaders := []string{"日期", "排班工时", "排班成本", "预测营业额", "实际营业额", "人工成本占比(%)"}
	for i, h := range laborHeaders {
		f.SetCellValue(laborSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(laborSheet, "A1", cell(colName(len(laborHeaders)-1), 1), headerStyle)
	f.SetColWidth(laborSheet, "A", "F", 16)

	row = 2
	writeLabor := func(label string, d dto.LaborDayResponse) {
		f.SetCellValue(laborSheet, cell("A", row), label)
		f.SetCellValue(laborSheet, cell("B", row), d.ScheduledHours)
		f.SetCellValue(laborSheet, cell("C", row), d.ScheduledCost)
		f.SetCellValue(laborSheet, cell("D", row), d.ProjectedSales)
		f.SetCellValue(laborSheet, cell("E", row), d.ActualSales)
		if d.LaborPercent != nil {
			f.SetCellValue(laborSheet, cell("F", row), *d.LaborPercent)
		} else {
			f.SetCellValue(laborSheet, cell("F", row), "-")
		}
		row++
	}
	for _, d := range labor.Days {
		writeLabor(d.Date, d)
	}
	writeLabor("合计", labor.Total)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排班_%s_%s.xlsx", loc.Name, formatDate(weekStart))
	return buf, filename, nil
}

// ── 辅助函数 ──

var weekdayNames = [7]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// assigneeText 已批准员工在前，待审批员工标注
func assigneeText(sh *model.Shift) string {
	var approved, pending []string
	for _, a := range sh.Assignments {
		name := a.EmployeeID
		if a.Employee != nil {
			name = a.Employee.FullName
		}
		switch a.Status {
		case model.AssignmentApproved:
			approved = append(approved, name)
		case model.AssignmentPending:
			pending = append(pending, name+"(待审批)")
		}
	}
	all := append(approved, pending...)
	if len(all) == 0 {
		return "-"
	}
	return strings.Join(all, "、")
}

func clockHHMM(clock string) string {
	if n, err := timeofday.Normalize(clock); err == nil {
		return n[:5]
	}
	return clock
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
