package attendance

import (
	"context"
)

// AttendanceRepository is the read-only data source behind the working set.
// It is implemented by the HR backend API client and by a direct PostgreSQL
// reader.
type AttendanceRepository interface {
	// ListRecords returns every session matching the filter
	ListRecords(ctx context.Context, filter Filter) ([]Record, error)

	// ListEmployees returns one roster page
	ListEmployees(ctx context.Context, query EmployeeQuery) (EmployeePage, error)

	ListDepartments(ctx context.Context) ([]Department, error)

	ListShifts(ctx context.Context) ([]Shift, error)

	// GetDashboard returns the pre-aggregated summary for today
	GetDashboard(ctx context.Context, query DashboardQuery) (DashboardSummary, error)
}

// DeviceGateway covers the live-activity and device widgets, which only the
// HR backend API can serve.
type DeviceGateway interface {
	ListRecentActivity(ctx context.Context, limit int) ([]Activity, error)
	ListDevices(ctx context.Context) ([]Device, error)
	SyncDevices(ctx context.Context, req SyncDevicesRequest) (SyncDevicesResponse, error)
}
