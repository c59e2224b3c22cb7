package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrJobNotFound = errors.New("cron job not found")

// Job represents a scheduled job
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error

	trigger chan struct{}
}

// JobStatus is the last outcome of a job
type JobStatus struct {
	Name     string        `json:"name"`
	Interval string        `json:"interval"`
	Runs     int           `json:"runs"`
	LastRun  *time.Time    `json:"last_run,omitempty"`
	LastErr  string        `json:"last_error,omitempty"`
	Duration time.Duration `json:"-"`
}

// Scheduler runs each job on its own ticker. A job never overlaps itself:
// ticks and triggers that arrive while it runs are coalesced.
type Scheduler struct {
	jobs     []*Job
	status   map[string]*JobStatus
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewScheduler creates a new cron scheduler
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make([]*Job, 0),
		status: make(map[string]*JobStatus),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("cron job %q: interval must be positive", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.status[name]; exists {
		return fmt.Errorf("cron job %q already registered", name)
	}

	job := &Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
		trigger:  make(chan struct{}, 1),
	}
	s.jobs = append(s.jobs, job)
	s.status[name] = &JobStatus{Name: name, Interval: interval.String()}

	if s.started {
		s.wg.Add(1)
		go s.runJob(job)
	}
	slog.Info("Cron job registered", "name", name, "interval", interval)
	return nil
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop gracefully stops all scheduled jobs and waits for running ones
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("Stopping cron scheduler...")
		s.cancel()
		s.wg.Wait()
		slog.Info("Cron scheduler stopped")
	})
}

// Trigger asks a job to run as soon as possible, outside its schedule
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if job.Name == name {
			select {
			case job.trigger <- struct{}{}:
			default:
				// already pending
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrJobNotFound, name)
}

// Status returns a copy of every job's status in registration order
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *s.status[job.Name])
	}
	return out
}

// runJob runs a single job on its schedule
func (s *Scheduler) runJob(job *Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.executeJob(s.ctx, job)

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Cron job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.executeJob(s.ctx, job)
		case <-job.trigger:
			s.executeJob(s.ctx, job)
		}
	}
}

// executeJob executes a job and logs results
func (s *Scheduler) executeJob(ctx context.Context, job *Job) {
	start := time.Now()
	slog.Debug("Cron job starting", "name", job.Name)

	err := job.Fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", err, "duration", elapsed)
	} else {
		slog.Debug("Cron job completed", "name", job.Name, "duration", elapsed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[job.Name]
	st.Runs++
	st.LastRun = &start
	st.Duration = elapsed
	st.LastErr = ""
	if err != nil {
		st.LastErr = err.Error()
	}
}

// RunOnce runs all jobs once, in registration order
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]*Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.executeJob(ctx, job)
	}
}
