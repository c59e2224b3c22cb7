package calendar

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// Month grid pagination bounds
const (
	DefaultMonthLimit = 10
	MaxMonthLimit     = 100
)

// ========================================
// BLOCK (one rendered session)
// ========================================

// Block is one session positioned on a day column. Top/Height are pixel
// offsets for the timeline; OffsetPercent/WidthPercent place the same
// session inside a month cell.
type Block struct {
	RecordID        string  `json:"record_id"`
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    string  `json:"employee_name,omitempty"`
	Date            string  `json:"date"`
	Status          string  `json:"status"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	Open            bool    `json:"open"`
	Clamped         bool    `json:"clamped"`
	StartMinute     int     `json:"start_minute"`
	DurationMinutes int     `json:"duration_minutes"`
	Top             float64 `json:"top"`
	Height          float64 `json:"height"`
	OffsetPercent   float64 `json:"offset_percent"`
	WidthPercent    float64 `json:"width_percent"`
	WorkedHours     float64 `json:"worked_hours"`
	Label           string  `json:"label"`
}

// ========================================
// DAY / WEEK TIMELINE
// ========================================

type DayColumn struct {
	Date      string  `json:"date"`
	Weekday   string  `json:"weekday"`
	IsWeekend bool    `json:"is_weekend"`
	IsToday   bool    `json:"is_today"`
	Blocks    []Block `json:"blocks"`
}

type Timeline struct {
	StartDate      string      `json:"start_date"`
	EndDate        string      `json:"end_date"`
	HourHeight     float64     `json:"hour_height"`
	TotalHeight    float64     `json:"total_height"`
	Columns        []DayColumn `json:"columns"`
	SkippedRecords int         `json:"skipped_records"`
	Version        uint64      `json:"version"`
}

// ========================================
// MONTH GRID
// ========================================

// CellState is what a month cell shows.
type CellState string

const (
	CellAbsent  CellState = "absent"
	CellWeekend CellState = "weekend"
)

type MonthDay struct {
	Date      string `json:"date"`
	Day       int    `json:"day"`
	Weekday   string `json:"weekday"`
	IsWeekend bool   `json:"is_weekend"`
	IsToday   bool   `json:"is_today"`
}

type MonthCell struct {
	Date     string    `json:"date"`
	State    CellState `json:"state"`
	Sessions int       `json:"sessions"`
	Blocks   []Block   `json:"blocks,omitempty"`
}

type EmployeeRef struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

type MonthRow struct {
	Employee      EmployeeRef `json:"employee"`
	Cells         []MonthCell `json:"cells"`
	TotalWork     float64     `json:"total_work"`
	TotalOvertime float64     `json:"total_overtime"`
}

type MonthGrid struct {
	Month          string     `json:"month"` // Format: "YYYY-MM"
	Days           []MonthDay `json:"days"`
	Rows           []MonthRow `json:"rows"`
	Page           int        `json:"page"`
	Limit          int        `json:"limit"`
	TotalRows      int        `json:"total_rows"`
	TotalPages     int        `json:"total_pages"`
	Showing        string     `json:"showing"`
	SkippedRecords int        `json:"skipped_records"`
	Version        uint64     `json:"version"`
}

// MonthQuery selects a month and a page of roster rows. Page and Limit only
// choose which rows render; they are not part of the working set filter.
type MonthQuery struct {
	Month      string  `json:"month"` // YYYY-MM, default current month
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Department *string `json:"department,omitempty"`
	Shift      *string `json:"shift,omitempty"`
	Search     *string `json:"search,omitempty"`

	// All disables pagination (exports).
	All bool `json:"-"`
}

func (q *MonthQuery) Validate() error {
	var errs validator.ValidationErrors

	if q.Month != "" {
		if _, ok := validator.IsValidMonth(q.Month); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "month",
				Message: "month must be in YYYY-MM format",
			})
		}
	}

	// Page validation
	if q.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if q.Page == 0 {
		q.Page = 1 // Default page
	}

	// Limit validation
	if q.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if q.Limit == 0 {
		q.Limit = DefaultMonthLimit
	}
	if q.Limit > MaxMonthLimit {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must not exceed %d", MaxMonthLimit),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Filter builds the working set filter covering r.
func (q MonthQuery) Filter(r dateutil.Range) attendance.Filter {
	return attendance.Filter{
		StartDate:  dateutil.DayKey(r.Start),
		EndDate:    dateutil.DayKey(r.End),
		EmployeeID: nonEmpty(q.EmployeeID),
		Department: nonEmpty(q.Department),
		Shift:      nonEmpty(q.Shift),
		Search:     nonEmpty(q.Search),
	}
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
