package calendar

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// CalendarService defines the timeline and month grid layouts
type CalendarService interface {
	// GetTimeline places every session of the filter's range on day columns
	GetTimeline(ctx context.Context, filter attendance.Filter) (*Timeline, error)

	// GetMonthGrid returns one page of employee rows for a month
	GetMonthGrid(ctx context.Context, query MonthQuery) (*MonthGrid, error)
}
