package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/analytics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/memo"
)

// reportKey identifies a report: the snapshot it was computed from plus the
// viewer's day, which the currently-in count depends on.
type reportKey struct {
	version uint64
	today   string
}

type AnalyticsServiceImpl struct {
	attendanceService attendance.AttendanceService
	loc               *time.Location
	cache             *memo.Cache[reportKey, *analytics.Report]
	now               func() time.Time
}

func NewAnalyticsService(attendanceService attendance.AttendanceService, loc *time.Location) analytics.AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsServiceImpl{
		attendanceService: attendanceService,
		loc:               loc,
		cache:             memo.New[reportKey, *analytics.Report](32),
		now:               time.Now,
	}
}

// GetReport implements analytics.AnalyticsService.
func (s *AnalyticsServiceImpl) GetReport(ctx context.Context, filter attendance.Filter) (*analytics.Report, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := s.attendanceService.Current(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance working set: %w", err)
	}

	now := s.now().In(s.loc)
	key := reportKey{version: snapshot.Version, today: dateutil.DayKey(now)}

	return s.cache.Get(key, func() (*analytics.Report, error) {
		report := Compute(Input{
			Records:      snapshot.Records,
			Employees:    snapshot.Employees,
			Range:        snapshot.Range,
			Now:          now,
			TodayRecords: snapshot.TodayRecords,
		})
		report.Version = snapshot.Version
		return &report, nil
	})
}

// GetSummary implements analytics.AnalyticsService.
func (s *AnalyticsServiceImpl) GetSummary(ctx context.Context, filter attendance.Filter) (*analytics.Summary, error) {
	report, err := s.GetReport(ctx, filter)
	if err != nil {
		return nil, err
	}
	summary := report.Summary
	return &summary, nil
}
