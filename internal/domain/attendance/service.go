package attendance

import (
	"context"
)

// AttendanceService owns the in-memory working sets
type AttendanceService interface {
	// Load fetches a fresh working set for the filter and publishes it,
	// unless a newer load for the same filter finished first
	Load(ctx context.Context, filter Filter) (*Snapshot, error)

	// Current returns the latest published snapshot for the filter, loading it on first use
	Current(ctx context.Context, filter Filter) (*Snapshot, error)

	// RefreshActive reloads every filter set requested recently
	RefreshActive(ctx context.Context) (int, error)

	// ListRecords returns the raw records of the filter's working set
	ListRecords(ctx context.Context, filter Filter) (ListRecordsResponse, error)

	ListDepartments(ctx context.Context) ([]Department, error)
	ListShifts(ctx context.Context) ([]Shift, error)
	GetDashboard(ctx context.Context, query DashboardQuery) (DashboardSummary, error)

	ListRecentActivity(ctx context.Context, limit int) ([]Activity, error)
	ListDevices(ctx context.Context) ([]Device, error)
	SyncDevices(ctx context.Context, req SyncDevicesRequest) (SyncDevicesResponse, error)
}
