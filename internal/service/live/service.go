package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
)

const (
	JobSummary  = "live_summary"
	JobActivity = "live_activity"
	JobRecords  = "live_records"

	ActivityLimit = 20
)

type Intervals struct {
	Summary  time.Duration
	Activity time.Duration
	Records  time.Duration
}

// RecordsRefreshed is the payload of the records topic.
type RecordsRefreshed struct {
	Refreshed   int    `json:"refreshed"`
	RefreshedAt string `json:"refreshed_at"`
}

// Refresher polls the attendance source and pushes the results to the hub.
type Refresher struct {
	attendanceService attendance.AttendanceService
	hub               *sse.Hub
	now               func() time.Time
}

func NewRefresher(attendanceService attendance.AttendanceService, hub *sse.Hub) *Refresher {
	return &Refresher{
		attendanceService: attendanceService,
		hub:               hub,
		now:               time.Now,
	}
}

// Register adds the three refresh jobs to the scheduler.
func (r *Refresher) Register(s *cron.Scheduler, iv Intervals) error {
	jobs := []struct {
		name     string
		interval time.Duration
		fn       func(ctx context.Context) error
	}{
		{JobSummary, iv.Summary, r.RefreshSummary},
		{JobActivity, iv.Activity, r.RefreshActivity},
		{JobRecords, iv.Records, r.RefreshRecords},
	}
	for _, job := range jobs {
		if err := s.AddJob(job.name, job.interval, job.fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.name, err)
		}
	}
	return nil
}

// RefreshSummary publishes the dashboard summary. It does nothing while
// nobody listens on the summary topic.
func (r *Refresher) RefreshSummary(ctx context.Context) error {
	if r.hub.SubscriberCount(sse.TopicSummary) == 0 {
		return nil
	}
	summary, err := r.attendanceService.GetDashboard(ctx, attendance.DashboardQuery{})
	if err != nil {
		return fmt.Errorf("failed to refresh dashboard summary: %w", err)
	}
	r.hub.Publish(sse.Event{Topic: sse.TopicSummary, Name: "summary", Data: summary})
	return nil
}

// RefreshActivity publishes the most recent device activity.
func (r *Refresher) RefreshActivity(ctx context.Context) error {
	if r.hub.SubscriberCount(sse.TopicActivity) == 0 {
		return nil
	}
	activity, err := r.attendanceService.ListRecentActivity(ctx, ActivityLimit)
	if errors.Is(err, attendance.ErrNotSupported) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refresh recent activity: %w", err)
	}
	r.hub.Publish(sse.Event{Topic: sse.TopicActivity, Name: "activity", Data: activity})
	return nil
}

// RefreshRecords reloads the active working sets. It runs even without
// subscribers so the next request is served from fresh data.
func (r *Refresher) RefreshRecords(ctx context.Context) error {
	n, err := r.attendanceService.RefreshActive(ctx)
	if n > 0 {
		delivered := r.hub.Publish(sse.Event{
			Topic: sse.TopicRecords,
			Name:  "records",
			Data:  RecordsRefreshed{Refreshed: n, RefreshedAt: r.now().Format(time.RFC3339)},
		})
		slog.Debug("Working sets refreshed", "count", n, "delivered", delivered)
	}
	if err != nil {
		return fmt.Errorf("failed to refresh working sets: %w", err)
	}
	return nil
}
