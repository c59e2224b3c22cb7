package calendar

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
)

const (
	DefaultHourHeight  = 40.0
	MinDurationMinutes = 15
	minutesPerDay      = 24 * 60
	clockLayout        = "15:04"
)

// Layout positions sessions on a 24 hour column.
type Layout struct {
	HourHeight float64
	Location   *time.Location
}

func NewLayout(hourHeight float64, loc *time.Location) Layout {
	if hourHeight <= 0 {
		hourHeight = DefaultHourHeight
	}
	if loc == nil {
		loc = time.Local
	}
	return Layout{HourHeight: hourHeight, Location: loc}
}

// TotalHeight is the pixel height of a full day column.
func (l Layout) TotalHeight() float64 {
	return 24 * l.HourHeight
}

// Place computes the block for one record as seen at now.
//
// The end of a session is its check-out, or now when the session is still
// open today, or the end of the check-in day otherwise. A session never
// extends past the end of its check-in day and never renders shorter than
// MinDurationMinutes.
func (l Layout) Place(rec attendance.Record, now time.Time) (calendar.Block, error) {
	day, err := rec.DayKey()
	if err != nil {
		return calendar.Block{}, fmt.Errorf("%w: %v", calendar.ErrInvalidCheckInDate, err)
	}

	start, err := dateutil.ParseTimestamp(rec.CheckIn, l.Location)
	if err != nil {
		return calendar.Block{}, fmt.Errorf("%w: %v", calendar.ErrInvalidCheckIn, err)
	}
	now = now.In(l.Location)

	open := rec.IsOpen()
	var end time.Time
	if !open {
		end, err = dateutil.ParseTimestamp(*rec.CheckOut, l.Location)
		if err != nil {
			slog.Warn("unparseable check_out, treating session as open",
				"record_id", rec.ID.String(),
				"check_out", *rec.CheckOut,
				"error", err,
			)
			open = true
		}
	}
	if open {
		if dateutil.IsToday(start, now) {
			end = now
		} else {
			end = dateutil.EndOfDay(start)
		}
	}

	clamped := false
	if eod := dateutil.EndOfDay(start); end.After(eod) {
		end = eod
		clamped = true
	}

	worked := 0.0
	if end.After(start) {
		worked = end.Sub(start).Hours()
	}

	duration := dateutil.MinutesBetween(start, end)
	if duration < MinDurationMinutes {
		duration = MinDurationMinutes
	}
	startMinute := dateutil.MinuteOfDay(start)

	width := duration
	if startMinute+width > minutesPerDay {
		width = minutesPerDay - startMinute
	}

	endLabel := end.Format(clockLayout)
	if open && dateutil.IsToday(start, now) {
		endLabel = "now"
	}

	return calendar.Block{
		RecordID:        rec.ID.String(),
		EmployeeID:      rec.EmployeeID,
		EmployeeName:    rec.EmployeeName,
		Date:            day,
		Status:          string(rec.Status),
		Start:           start.Format(time.RFC3339),
		End:             end.Format(time.RFC3339),
		Open:            open,
		Clamped:         clamped,
		StartMinute:     startMinute,
		DurationMinutes: duration,
		Top:             float64(startMinute) * l.HourHeight / 60,
		Height:          float64(duration) * l.HourHeight / 60,
		OffsetPercent:   roundTo(float64(startMinute)/minutesPerDay*100, 2),
		WidthPercent:    roundTo(float64(width)/minutesPerDay*100, 2),
		WorkedHours:     roundTo(worked, 2),
		Label:           fmt.Sprintf("%s - %s (%.1fh)", start.Format(clockLayout), endLabel, worked),
	}, nil
}

// BuildTimeline lays records out on one column per day of r. Records outside
// r are ignored; malformed records are skipped and counted.
func (l Layout) BuildTimeline(records []attendance.Record, employees []attendance.Employee, r dateutil.Range, now time.Time) calendar.Timeline {
	now = now.In(l.Location)
	days := r.Days()

	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.EmployeeID] = e.DisplayName()
	}

	columns := make([]calendar.DayColumn, len(days))
	column := make(map[string]int, len(days))
	for i, d := range days {
		key := dateutil.DayKey(d)
		columns[i] = calendar.DayColumn{
			Date:      key,
			Weekday:   d.Weekday().String(),
			IsWeekend: dateutil.IsWeekend(d),
			IsToday:   dateutil.IsToday(d, now),
			Blocks:    []calendar.Block{},
		}
		column[key] = i
	}

	skipped := 0
	for _, rec := range records {
		day, err := rec.DayKey()
		if err != nil {
			slog.Warn("skipping record with invalid check_in_date",
				"record_id", rec.ID.String(),
				"check_in_date", rec.CheckInDate,
			)
			skipped++
			continue
		}
		i, ok := column[day]
		if !ok {
			continue
		}
		block, err := l.Place(rec, now)
		if err != nil {
			slog.Warn("skipping record that cannot be placed",
				"record_id", rec.ID.String(),
				"error", err,
			)
			skipped++
			continue
		}
		if name, ok := names[rec.EmployeeID]; ok {
			block.EmployeeName = name
		}
		columns[i].Blocks = append(columns[i].Blocks, block)
	}

	for i := range columns {
		sortBlocks(columns[i].Blocks)
	}

	timeline := calendar.Timeline{
		HourHeight:     l.HourHeight,
		TotalHeight:    l.TotalHeight(),
		Columns:        columns,
		SkippedRecords: skipped,
	}
	if len(days) > 0 {
		timeline.StartDate = dateutil.DayKey(days[0])
		timeline.EndDate = dateutil.DayKey(days[len(days)-1])
	}
	return timeline
}

// Index groups records by employee id and day key so a month cell is a map
// lookup instead of a scan over every record.
type Index struct {
	cells   map[string]map[string][]attendance.Record
	skipped int
}

// BuildIndex is linear in len(records).
func BuildIndex(records []attendance.Record) *Index {
	ix := &Index{cells: make(map[string]map[string][]attendance.Record)}
	for _, rec := range records {
		day, err := rec.DayKey()
		if err != nil || rec.EmployeeID == "" {
			ix.skipped++
			continue
		}
		byDay, ok := ix.cells[rec.EmployeeID]
		if !ok {
			byDay = make(map[string][]attendance.Record)
			ix.cells[rec.EmployeeID] = byDay
		}
		byDay[day] = append(byDay[day], rec)
	}
	return ix
}

// Lookup returns the sessions of one employee on one day.
func (ix *Index) Lookup(employeeID, day string) []attendance.Record {
	return ix.cells[employeeID][day]
}

// Skipped counts records that could not be indexed.
func (ix *Index) Skipped() int {
	return ix.skipped
}

// MonthDays returns the column headers of a month grid.
func (l Layout) MonthDays(r dateutil.Range, now time.Time) []calendar.MonthDay {
	now = now.In(l.Location)
	days := r.Days()
	out := make([]calendar.MonthDay, len(days))
	for i, d := range days {
		out[i] = calendar.MonthDay{
			Date:      dateutil.DayKey(d),
			Day:       d.Day(),
			Weekday:   d.Weekday().String()[:3],
			IsWeekend: dateutil.IsWeekend(d),
			IsToday:   dateutil.IsToday(d, now),
		}
	}
	return out
}

// BuildRow renders one employee across the month. Totals cover every session
// of the employee inside the month, independent of which page is shown.
func (l Layout) BuildRow(ix *Index, emp attendance.Employee, days []calendar.MonthDay, now time.Time) (calendar.MonthRow, int) {
	row := calendar.MonthRow{
		Employee: calendar.EmployeeRef{
			ID:         emp.ID.String(),
			EmployeeID: emp.EmployeeID,
			Name:       emp.DisplayName(),
			Department: emp.DepartmentName(),
		},
		Cells: make([]calendar.MonthCell, len(days)),
	}

	totalWork := decimal.Zero
	totalOvertime := decimal.Zero
	skipped := 0

	for i, d := range days {
		sessions := ix.Lookup(emp.EmployeeID, d.Date)
		cell := calendar.MonthCell{Date: d.Date, Sessions: len(sessions)}

		if len(sessions) == 0 {
			if d.IsWeekend {
				cell.State = calendar.CellWeekend
			} else {
				cell.State = calendar.CellAbsent
			}
			row.Cells[i] = cell
			continue
		}

		for _, rec := range sessions {
			totalWork = totalWork.Add(decimal.NewFromFloat(rec.ActualWork))
			totalOvertime = totalOvertime.Add(decimal.NewFromFloat(rec.Overtime))

			block, err := l.Place(rec, now)
			if err != nil {
				slog.Warn("skipping month cell session",
					"record_id", rec.ID.String(),
					"employee_id", emp.EmployeeID,
					"error", err,
				)
				skipped++
				continue
			}
			block.EmployeeName = row.Employee.Name
			cell.Blocks = append(cell.Blocks, block)
		}
		sortBlocks(cell.Blocks)
		cell.State = cellState(cell.Blocks, sessions)
		row.Cells[i] = cell
	}

	row.TotalWork = totalWork.Round(2).InexactFloat64()
	row.TotalOvertime = totalOvertime.Round(2).InexactFloat64()
	return row, skipped
}

// cellState is the status of the first session of the day, or ongoing when
// any session is still open.
func cellState(blocks []calendar.Block, sessions []attendance.Record) calendar.CellState {
	for _, b := range blocks {
		if b.Open {
			return calendar.CellState(attendance.StatusOngoing)
		}
	}
	if len(blocks) > 0 && blocks[0].Status != "" {
		return calendar.CellState(blocks[0].Status)
	}
	if sessions[0].Status != "" {
		return calendar.CellState(sessions[0].Status)
	}
	return calendar.CellState(attendance.StatusPresent)
}

func sortBlocks(blocks []calendar.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].StartMinute < blocks[j].StartMinute
	})
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
