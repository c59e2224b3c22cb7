package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/storage"
)

const (
	ExportDir       = "exports"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	fixedColumns    = 3 // employee id, name, department
)

var stateFills = map[string]string{
	"present": "#C6EFCE",
	"late":    "#FFEB9C",
	"ongoing": "#BDD7EE",
	"leave":   "#E4DFEC",
	"absent":  "#FFC7CE",
	"weekend": "#D9D9D9",
}

type ReportServiceImpl struct {
	calendarService calendar.CalendarService
	storage         storage.FileStorage
	now             func() time.Time
}

func NewReportService(calendarService calendar.CalendarService, fileStorage storage.FileStorage) report.ReportService {
	return &ReportServiceImpl{
		calendarService: calendarService,
		storage:         fileStorage,
		now:             time.Now,
	}
}

// ExportMonth implements report.ReportService.
func (s *ReportServiceImpl) ExportMonth(ctx context.Context, req report.MonthExportRequest) (*report.MonthExport, error) {
	grid, err := s.calendarService.GetMonthGrid(ctx, req.Query())
	if err != nil {
		return nil, err
	}

	f, err := renderMonth(grid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}

	fileName := fmt.Sprintf("attendance-%s.xlsx", grid.Month)
	key := fmt.Sprintf("%s/%s/%s-%s", ExportDir, grid.Month, uuid.NewString(), fileName)
	key, err = s.storage.Upload(ctx, buf, key, xlsxContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportStorageFailed, err)
	}

	url, err := s.storage.GetURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportStorageFailed, err)
	}

	slog.Info("Month export generated", "month", grid.Month, "rows", len(grid.Rows), "key", key)

	return &report.MonthExport{
		Month:       grid.Month,
		FileName:    fileName,
		Key:         key,
		URL:         url,
		Rows:        len(grid.Rows),
		GeneratedAt: s.now().Format(time.RFC3339),
	}, nil
}

// PruneExports removes exports older than maxAge.
func (s *ReportServiceImpl) PruneExports(ctx context.Context, maxAge time.Duration) error {
	removed, err := s.storage.Prune(ctx, ExportDir, s.now().Add(-maxAge))
	if err != nil {
		return err
	}
	if removed > 0 {
		slog.Info("Old exports pruned", "removed", removed)
	}
	return nil
}

// renderMonth lays the grid out as one sheet: a header row with the days,
// one row per employee with the cell state per day, and the two totals.
func renderMonth(grid *calendar.MonthGrid) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Attendance " + grid.Month
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	stateStyles := make(map[string]int, len(stateFills))
	for state, color := range stateFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			f.Close()
			return nil, err
		}
		stateStyles[state] = id
	}

	header := []interface{}{"Employee ID", "Name", "Department"}
	for _, day := range grid.Days {
		header = append(header, fmt.Sprintf("%d %s", day.Day, day.Weekday))
	}
	header = append(header, "Total Work (h)", "Total Overtime (h)")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range grid.Rows {
		r := i + 2
		values := []interface{}{row.Employee.EmployeeID, row.Employee.Name, row.Employee.Department}
		for _, cell := range row.Cells {
			values = append(values, cellText(cell))
		}
		values = append(values, row.TotalWork, row.TotalOvertime)

		start, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			f.Close()
			return nil, err
		}

		for j, cell := range row.Cells {
			style, ok := stateStyles[string(cell.State)]
			if !ok {
				continue
			}
			name, _ := excelize.CoordinatesToCellName(fixedColumns+j+1, r)
			if err := f.SetCellStyle(sheet, name, name, style); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	dayFrom, _ := excelize.ColumnNumberToName(fixedColumns + 1)
	dayTo, _ := excelize.ColumnNumberToName(fixedColumns + len(grid.Days))
	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "C", 18)
	if len(grid.Days) > 0 {
		_ = f.SetColWidth(sheet, dayFrom, dayTo, 20)
	}
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      fixedColumns,
		YSplit:      1,
		TopLeftCell: dayFrom + "2",
		ActivePane:  "bottomRight",
	})

	return f, nil
}

// cellText is the state followed by each session's label.
func cellText(cell calendar.MonthCell) string {
	if len(cell.Blocks) == 0 {
		return string(cell.State)
	}
	labels := make([]string, 0, len(cell.Blocks))
	for _, b := range cell.Blocks {
		labels = append(labels, b.Label)
	}
	return fmt.Sprintf("%s %s", cell.State, strings.Join(labels, ", "))
}
