package report

import (
	"context"
	"time"
)

// ReportService defines the interface for report generation
type ReportService interface {
	// ExportMonth renders the month grid as a workbook and stores it
	ExportMonth(ctx context.Context, req MonthExportRequest) (*MonthExport, error)

	// PruneExports deletes stored exports older than maxAge
	PruneExports(ctx context.Context, maxAge time.Duration) error
}
