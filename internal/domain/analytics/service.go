package analytics

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// AnalyticsService defines the attendance analytics operations
type AnalyticsService interface {
	// GetReport returns the full report for the filter's working set (memoized per snapshot)
	GetReport(ctx context.Context, filter attendance.Filter) (*Report, error)

	// GetSummary returns only the summary metrics
	GetSummary(ctx context.Context, filter attendance.Filter) (*Summary, error)
}
