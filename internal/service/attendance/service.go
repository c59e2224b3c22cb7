package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
)

const (
	defaultRosterPageSize = 100
	maxRosterPages        = 1000
	defaultActiveTTL      = 10 * time.Minute
	defaultMaxActive      = 32
	defaultLoadTimeout    = 30 * time.Second
	defaultActivityLimit  = 20
	maxActivityLimit      = 100
)

type Options struct {
	RosterPageSize int
	// ActiveTTL drops a working set from periodic refresh when nobody has
	// asked for it within this long.
	ActiveTTL   time.Duration
	MaxActive   int
	LoadTimeout time.Duration
	Location    *time.Location
}

// workingSet tracks one filter set. applied is the load sequence number of
// the published snapshot.
type workingSet struct {
	filter   attendance.Filter
	applied  uint64
	snapshot *attendance.Snapshot
	lastUsed time.Time
}

type AttendanceServiceImpl struct {
	repo    attendance.AttendanceRepository
	devices attendance.DeviceGateway
	opts    Options

	// mu guards the fields of every workingSet in sets.
	mu   sync.Mutex
	sets *lru.Cache[string, *workingSet]
	// seq numbers loads across all sets, so a load that outlives an
	// evicted set still orders correctly against the recreated one.
	seq     atomic.Uint64
	version atomic.Uint64
	loads   singleflight.Group
	now     func() time.Time
}

// NewAttendanceService builds the working set service. devices may be nil
// when the configured source cannot serve the device widgets.
func NewAttendanceService(repo attendance.AttendanceRepository, devices attendance.DeviceGateway, opts Options) attendance.AttendanceService {
	return newService(repo, devices, opts)
}

func newService(repo attendance.AttendanceRepository, devices attendance.DeviceGateway, opts Options) *AttendanceServiceImpl {
	if opts.RosterPageSize <= 0 {
		opts.RosterPageSize = defaultRosterPageSize
	}
	if opts.ActiveTTL <= 0 {
		opts.ActiveTTL = defaultActiveTTL
	}
	if opts.MaxActive <= 0 {
		opts.MaxActive = defaultMaxActive
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	sets, err := lru.New[string, *workingSet](opts.MaxActive)
	if err != nil {
		panic(fmt.Sprintf("attendance: working set table: %v", err))
	}
	return &AttendanceServiceImpl{
		repo:    repo,
		devices: devices,
		opts:    opts,
		sets:    sets,
		now:     time.Now,
	}
}

// Load implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Load(ctx context.Context, filter attendance.Filter) (*attendance.Snapshot, error) {
	return s.load(ctx, filter, true)
}

// load fetches and publishes. Background refreshes pass touch=false so
// they do not keep an abandoned filter set alive.
func (s *AttendanceServiceImpl) load(ctx context.Context, filter attendance.Filter, touch bool) (*attendance.Snapshot, error) {
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	r, err := filter.Range(s.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", attendance.ErrInvalidDateRange, err)
	}

	key := filter.Key()
	seq := s.begin(key, filter, touch)

	snapshot, err := s.fetch(ctx, filter, r)
	if err != nil {
		return nil, err
	}

	published, err := s.publish(key, seq, snapshot)
	if errors.Is(err, attendance.ErrStaleFetch) {
		slog.Debug("discarding stale working set", "filter", key, "seq", seq)
		return published, nil
	}
	return published, err
}

// begin registers a new load for key and returns its sequence number.
func (s *AttendanceServiceImpl) begin(key string, filter attendance.Filter, touch bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sets.Peek(key)
	if !ok {
		// Add drops the least recently used set when the table is full.
		ws = &workingSet{filter: filter, lastUsed: s.now()}
		s.sets.Add(key, ws)
	}
	if touch {
		s.sets.Get(key)
		ws.lastUsed = s.now()
	}
	return s.seq.Add(1)
}

// publish stores snapshot unless a load that started later already
// published. A stale caller gets the newer snapshot back.
func (s *AttendanceServiceImpl) publish(key string, seq uint64, snapshot *attendance.Snapshot) (*attendance.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sets.Peek(key)
	if !ok {
		// evicted while loading
		snapshot.Version = s.version.Add(1)
		return snapshot, nil
	}
	if seq <= ws.applied {
		return ws.snapshot, attendance.ErrStaleFetch
	}

	snapshot.Version = s.version.Add(1)
	ws.applied = seq
	ws.snapshot = snapshot

	slog.Info("working set published",
		"filter", key,
		"version", snapshot.Version,
		"records", len(snapshot.Records),
		"employees", len(snapshot.Employees),
	)
	return snapshot, nil
}

// fetch loads records, the full roster, departments and shifts together.
// Any failure aborts the whole load so no snapshot is built from partial data.
func (s *AttendanceServiceImpl) fetch(ctx context.Context, filter attendance.Filter, r dateutil.Range) (*attendance.Snapshot, error) {
	var (
		records      []attendance.Record
		todayRecords []attendance.Record
		employees    []attendance.Employee
		departments  []attendance.Department
		shifts       []attendance.Shift
	)

	now := s.now().In(s.opts.Location)
	today := dateutil.DayKey(now)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		records, err = s.repo.ListRecords(gCtx, filter)
		if err != nil {
			return fmt.Errorf("failed to list attendance records: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		employees, err = s.fetchRoster(gCtx, filter)
		return err
	})

	g.Go(func() error {
		var err error
		departments, err = s.repo.ListDepartments(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list departments: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		shifts, err = s.repo.ListShifts(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list shifts: %w", err)
		}
		return nil
	})

	// The currently-in count is always about the viewer's today.
	if !r.Contains(today) {
		g.Go(func() error {
			var err error
			todayRecords, err = s.repo.ListRecords(gCtx, filter.ForDay(today))
			if err != nil {
				return fmt.Errorf("failed to list today's records: %w", err)
			}
			if todayRecords == nil {
				todayRecords = []attendance.Record{}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &attendance.Snapshot{
		Filter:       filter,
		Range:        r,
		Records:      records,
		Employees:    narrowRoster(employees, filter),
		Departments:  departments,
		Shifts:       shifts,
		TodayRecords: todayRecords,
		FetchedAt:    now,
	}, nil
}

// fetchRoster pages through the roster endpoint until every employee is in.
func (s *AttendanceServiceImpl) fetchRoster(ctx context.Context, filter attendance.Filter) ([]attendance.Employee, error) {
	var employees []attendance.Employee
	seen := make(map[string]struct{})

	for page := 1; page <= maxRosterPages; page++ {
		result, err := s.repo.ListEmployees(ctx, attendance.EmployeeQuery{
			Page:       page,
			Limit:      s.opts.RosterPageSize,
			Department: filter.Department,
			Shift:      filter.Shift,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list employees (page %d): %w", page, err)
		}

		for _, e := range result.Employees {
			if _, dup := seen[e.EmployeeID]; dup {
				continue
			}
			seen[e.EmployeeID] = struct{}{}
			employees = append(employees, e)
		}

		if len(result.Employees) < s.opts.RosterPageSize || (result.Total > 0 && len(employees) >= result.Total) {
			return employees, nil
		}
	}

	slog.Warn("roster paging stopped at page limit", "pages", maxRosterPages, "employees", len(employees))
	return employees, nil
}

// narrowRoster applies the employee and search filters, which the roster
// endpoint does not support, so absence is only synthesized for employees
// the view actually covers.
func narrowRoster(employees []attendance.Employee, filter attendance.Filter) []attendance.Employee {
	employeeID := trimmed(filter.EmployeeID)
	search := strings.ToLower(trimmed(filter.Search))
	if employeeID == "" && search == "" {
		return employees
	}

	out := make([]attendance.Employee, 0, len(employees))
	for _, e := range employees {
		if employeeID != "" && e.EmployeeID != employeeID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.DisplayName()), search) &&
			!strings.Contains(strings.ToLower(e.EmployeeID), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Current implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Current(ctx context.Context, filter attendance.Filter) (*attendance.Snapshot, error) {
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	key := filter.Key()

	s.mu.Lock()
	if ws, ok := s.sets.Get(key); ok && ws.snapshot != nil {
		ws.lastUsed = s.now()
		snapshot := ws.snapshot
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	// Concurrent first requests share one load, detached from any single
	// caller's cancellation.
	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
		defer cancel()
		return s.Load(loadCtx, filter)
	})
	if err != nil {
		return nil, err
	}
	return v.(*attendance.Snapshot), nil
}

// RefreshActive implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RefreshActive(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.opts.ActiveTTL)

	s.mu.Lock()
	keys := s.sets.Keys()
	filters := make([]attendance.Filter, 0, len(keys))
	for _, key := range keys {
		ws, ok := s.sets.Peek(key)
		if !ok {
			continue
		}
		if ws.lastUsed.Before(cutoff) {
			s.sets.Remove(key)
			continue
		}
		filters = append(filters, ws.filter)
	}
	s.mu.Unlock()

	sort.Slice(filters, func(i, j int) bool { return filters[i].Key() < filters[j].Key() })

	var (
		mu        sync.Mutex
		refreshed int
		errs      []error
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, f := range filters {
		g.Go(func() error {
			_, err := s.load(gCtx, f, false)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("refresh %s: %w", f.Key(), err))
				return nil
			}
			refreshed++
			return nil
		})
	}
	_ = g.Wait()

	return refreshed, errors.Join(errs...)
}

// ListRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.Filter) (attendance.ListRecordsResponse, error) {
	snapshot, err := s.Current(ctx, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	records := snapshot.Records
	if records == nil {
		records = []attendance.Record{}
	}
	return attendance.ListRecordsResponse{
		StartDate:   filter.StartDate,
		EndDate:     filter.EndDate,
		TotalCount:  len(records),
		Version:     snapshot.Version,
		FetchedAt:   snapshot.FetchedAt.Format(time.RFC3339),
		Attendances: records,
	}, nil
}

// ListDepartments implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDepartments(ctx context.Context) ([]attendance.Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	if departments == nil {
		departments = []attendance.Department{}
	}
	return departments, nil
}

// ListShifts implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListShifts(ctx context.Context) ([]attendance.Shift, error) {
	shifts, err := s.repo.ListShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	if shifts == nil {
		shifts = []attendance.Shift{}
	}
	return shifts, nil
}

// GetDashboard implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDashboard(ctx context.Context, query attendance.DashboardQuery) (attendance.DashboardSummary, error) {
	summary, err := s.repo.GetDashboard(ctx, query)
	if err != nil {
		return attendance.DashboardSummary{}, fmt.Errorf("failed to get dashboard summary: %w", err)
	}
	return summary, nil
}

// ListRecentActivity implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecentActivity(ctx context.Context, limit int) ([]attendance.Activity, error) {
	if s.devices == nil {
		return nil, attendance.ErrNotSupported
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	activity, err := s.devices.ListRecentActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	if activity == nil {
		activity = []attendance.Activity{}
	}
	return activity, nil
}

// ListDevices implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDevices(ctx context.Context) ([]attendance.Device, error) {
	if s.devices == nil {
		return nil, attendance.ErrNotSupported
	}
	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if devices == nil {
		devices = []attendance.Device{}
	}
	return devices, nil
}

// SyncDevices implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SyncDevices(ctx context.Context, req attendance.SyncDevicesRequest) (attendance.SyncDevicesResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SyncDevicesResponse{}, err
	}
	if s.devices == nil {
		return attendance.SyncDevicesResponse{}, attendance.ErrNotSupported
	}

	resp, err := s.devices.SyncDevices(ctx, req)
	if err != nil {
		return attendance.SyncDevicesResponse{}, fmt.Errorf("failed to sync devices: %w", err)
	}
	slog.Info("devices synced", "count", len(req.DeviceIDs))
	return resp, nil
}
