package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAttendanceService serves one fixed snapshot.
type fakeAttendanceService struct {
	attendance.AttendanceService
	snapshot *attendance.Snapshot
	err      error
	filters  []attendance.Filter
}

func (f *fakeAttendanceService) Current(_ context.Context, filter attendance.Filter) (*attendance.Snapshot, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snapshot
	snap.Filter = filter
	r, err := filter.Range(time.UTC)
	if err != nil {
		return nil, err
	}
	snap.Range = r
	return &snap, nil
}

func newTestService(fake *fakeAttendanceService, now time.Time) *CalendarServiceImpl {
	svc := NewCalendarService(fake, 40, time.UTC).(*CalendarServiceImpl)
	svc.now = func() time.Time { return now }
	return svc
}

func roster(ids ...string) []attendance.Employee {
	out := make([]attendance.Employee, len(ids))
	for i, id := range ids {
		out[i] = attendance.Employee{ID: attendance.ID("pk-" + id), EmployeeID: id, FullName: "Employee " + id}
	}
	return out
}

func TestGetMonthGrid_PaginationDoesNotChangeWorkingSet(t *testing.T) {
	fake := &fakeAttendanceService{snapshot: &attendance.Snapshot{
		Version:   7,
		Employees: roster("A", "B", "C", "D", "E"),
		Records: []attendance.Record{
			session("1", "A", "2024-03-04", "09:00", "17:00"),
			session("2", "E", "2024-03-05", "09:00", "17:00"),
		},
	}}
	svc := newTestService(fake, time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC))

	first, err := svc.GetMonthGrid(context.Background(), calendar.MonthQuery{Month: "2024-03", Page: 1, Limit: 2})
	require.NoError(t, err)
	last, err := svc.GetMonthGrid(context.Background(), calendar.MonthQuery{Month: "2024-03", Page: 3, Limit: 2})
	require.NoError(t, err)

	require.Len(t, fake.filters, 2)
	assert.Equal(t, fake.filters[0].Key(), fake.filters[1].Key())
	assert.Equal(t, "2024-03-01", fake.filters[0].StartDate)
	assert.Equal(t, "2024-03-31", fake.filters[0].EndDate)

	hits, misses := svc.indexes.Stats()
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, uint64(1), hits)

	assert.Equal(t, 5, first.TotalRows)
	assert.Equal(t, 3, first.TotalPages)
	assert.Len(t, first.Rows, 2)
	assert.Equal(t, "A", first.Rows[0].Employee.EmployeeID)
	assert.Equal(t, "Showing 1-2 of 5", first.Showing)

	require.Len(t, last.Rows, 1)
	assert.Equal(t, "E", last.Rows[0].Employee.EmployeeID)
	assert.Equal(t, "Showing 5-5 of 5", last.Showing)
	assert.Equal(t, 1, last.Rows[0].Cells[4].Sessions)
}

func TestGetMonthGrid_DefaultsAndExport(t *testing.T) {
	ids := make([]string, 25)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	fake := &fakeAttendanceService{snapshot: &attendance.Snapshot{Version: 1, Employees: roster(ids...)}}
	svc := newTestService(fake, time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC))

	grid, err := svc.GetMonthGrid(context.Background(), calendar.MonthQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2024-02", grid.Month)
	assert.Len(t, grid.Days, 29)
	assert.Equal(t, 1, grid.Page)
	assert.Equal(t, 10, grid.Limit)
	assert.Len(t, grid.Rows, 10)

	all, err := svc.GetMonthGrid(context.Background(), calendar.MonthQuery{Month: "2024-02", All: true})
	require.NoError(t, err)
	assert.Len(t, all.Rows, 25)
	assert.Equal(t, 1, all.TotalPages)
}

func TestGetMonthGrid_PageBeyondEnd(t *testing.T) {
	fake := &fakeAttendanceService{snapshot: &attendance.Snapshot{Version: 1, Employees: roster("A")}}
	svc := newTestService(fake, time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC))

	grid, err := svc.GetMonthGrid(context.Background(), calendar.MonthQuery{Page: 4})
	require.NoError(t, err)
	assert.Empty(t, grid.Rows)
	assert.Equal(t, "Showing 0 of 1", grid.Showing)
}

func TestGetMonthGrid_InvalidQuery(t *testing.T) {
	svc := newTestService(&fakeAttendanceService{}, time.Now())

	_, err := svc.GetMonthGrid(context.Background(), calendar.MonthQuery{Month: "March", Limit: 500})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestGetTimeline(t *testing.T) {
	fake := &fakeAttendanceService{snapshot: &attendance.Snapshot{
		Version:   3,
		Employees: roster("A"),
		Records:   []attendance.Record{session("1", "A", "2024-03-04", "09:00", "")},
	}}
	svc := newTestService(fake, time.Date(2024, 3, 4, 9, 5, 0, 0, time.UTC))

	timeline, err := svc.GetTimeline(context.Background(), attendance.Filter{StartDate: "2024-03-04", EndDate: "2024-03-10"})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), timeline.Version)
	require.Len(t, timeline.Columns, 7)
	require.Len(t, timeline.Columns[0].Blocks, 1)
	block := timeline.Columns[0].Blocks[0]
	assert.Equal(t, "Employee A", block.EmployeeName)
	assert.Equal(t, MinDurationMinutes, block.DurationMinutes)
}

func TestGetTimeline_SourceError(t *testing.T) {
	fake := &fakeAttendanceService{err: attendance.ErrSourceUnavailable}
	svc := newTestService(fake, time.Now())

	_, err := svc.GetTimeline(context.Background(), attendance.Filter{StartDate: "2024-03-04", EndDate: "2024-03-10"})
	assert.True(t, errors.Is(err, attendance.ErrSourceUnavailable))
}
