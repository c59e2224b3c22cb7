package report

import "github.com/cmlabs-hris/hris-attendance-go/internal/domain/calendar"

// ========================================
// MONTH GRID EXPORT
// ========================================

// MonthExportRequest selects the month and roster filters of an export.
// Pagination is ignored: an export always carries every roster row.
type MonthExportRequest struct {
	Month      string  `json:"month"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Department *string `json:"department,omitempty"`
	Shift      *string `json:"shift,omitempty"`
	Search     *string `json:"search,omitempty"`
}

func (r MonthExportRequest) Query() calendar.MonthQuery {
	return calendar.MonthQuery{
		Month:      r.Month,
		EmployeeID: r.EmployeeID,
		Department: r.Department,
		Shift:      r.Shift,
		Search:     r.Search,
		All:        true,
	}
}

type MonthExport struct {
	Month       string `json:"month"`
	FileName    string `json:"file_name"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Rows        int    `json:"rows"`
	GeneratedAt string `json:"generated_at"`
}
