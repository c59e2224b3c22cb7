package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/memo"
)

type CalendarServiceImpl struct {
	attendanceService attendance.AttendanceService
	layout            Layout
	indexes           *memo.Cache[uint64, *Index]
	now               func() time.Time
}

func NewCalendarService(attendanceService attendance.AttendanceService, hourHeight float64, loc *time.Location) calendar.CalendarService {
	return &CalendarServiceImpl{
		attendanceService: attendanceService,
		layout:            NewLayout(hourHeight, loc),
		indexes:           memo.New[uint64, *Index](16),
		now:               time.Now,
	}
}

// GetTimeline implements calendar.CalendarService.
func (s *CalendarServiceImpl) GetTimeline(ctx context.Context, filter attendance.Filter) (*calendar.Timeline, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := s.attendanceService.Current(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance working set: %w", err)
	}

	timeline := s.layout.BuildTimeline(snapshot.Records, snapshot.Employees, snapshot.Range, s.now())
	timeline.Version = snapshot.Version
	return &timeline, nil
}

// GetMonthGrid implements calendar.CalendarService.
func (s *CalendarServiceImpl) GetMonthGrid(ctx context.Context, query calendar.MonthQuery) (*calendar.MonthGrid, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	now := s.now().In(s.layout.Location)
	month, err := dateutil.ParseMonth(query.Month, now)
	if err != nil {
		return nil, fmt.Errorf("invalid month: %w", err)
	}

	snapshot, err := s.attendanceService.Current(ctx, query.Filter(month))
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance working set: %w", err)
	}

	index, err := s.indexes.Get(snapshot.Version, func() (*Index, error) {
		return BuildIndex(snapshot.Records), nil
	})
	if err != nil {
		return nil, err
	}

	totalRows := len(snapshot.Employees)
	employees := snapshot.Employees
	page, limit, totalPages := 1, totalRows, 1
	if !query.All {
		page, limit = query.Page, query.Limit
		totalPages = (totalRows + limit - 1) / limit
		employees = paginate(snapshot.Employees, page, limit)
	}

	days := s.layout.MonthDays(month, now)
	grid := &calendar.MonthGrid{
		Month:          month.Start.Format(dateutil.MonthLayout),
		Days:           days,
		Rows:           make([]calendar.MonthRow, 0, len(employees)),
		Page:           page,
		Limit:          limit,
		TotalRows:      totalRows,
		TotalPages:     totalPages,
		SkippedRecords: index.Skipped(),
		Version:        snapshot.Version,
	}

	for _, emp := range employees {
		row, skipped := s.layout.BuildRow(index, emp, days, now)
		grid.Rows = append(grid.Rows, row)
		grid.SkippedRecords += skipped
	}

	grid.Showing = showing(page, limit, len(employees), totalRows)
	return grid, nil
}

func paginate(employees []attendance.Employee, page, limit int) []attendance.Employee {
	offset := (page - 1) * limit
	if offset >= len(employees) {
		return nil
	}
	end := offset + limit
	if end > len(employees) {
		end = len(employees)
	}
	return employees[offset:end]
}

// showing renders "Showing 11-20 of 57".
func showing(page, limit, count, total int) string {
	if count == 0 {
		return fmt.Sprintf("Showing 0 of %d", total)
	}
	from := (page-1)*limit + 1
	return fmt.Sprintf("Showing %d-%d of %d", from, from+count-1, total)
}
