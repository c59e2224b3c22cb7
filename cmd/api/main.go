package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/remote"
	analyticsService "github.com/cmlabs-hris/hris-attendance-go/internal/service/analytics"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	calendarService "github.com/cmlabs-hris/hris-attendance-go/internal/service/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/live"
	reportService "github.com/cmlabs-hris/hris-attendance-go/internal/service/report"
)

const (
	appName    = "hris-attendance"
	appVersion = "v1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	var (
		attendanceRepo attendance.AttendanceRepository
		deviceGateway  attendance.DeviceGateway
	)
	switch cfg.Source.Type {
	case config.SourceAPI:
		client, err := remote.NewClient(remote.Config{
			BaseURL:      cfg.Upstream.BaseURL,
			Timeout:      cfg.Upstream.Timeout,
			ClientID:     cfg.Upstream.ClientID,
			ClientSecret: cfg.Upstream.ClientSecret,
			TokenURL:     cfg.Upstream.TokenURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create upstream client: %w", err)
		}
		attendanceRepo = remote.NewAttendanceRepository(client)
		deviceGateway = remote.NewDeviceGateway(client)
		slog.Info("Using HR backend API as attendance source", "base_url", cfg.Upstream.BaseURL)

	case config.SourcePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.Options{
			MaxConns: cfg.Database.MaxConns,
			ReadOnly: true,
		})
		if err != nil {
			return fmt.Errorf("error connecting to database: %w", err)
		}
		defer db.Close()
		attendanceRepo = postgresql.NewAttendanceRepository(db, loc)
		slog.Info("Using PostgreSQL as attendance source", "host", cfg.Database.Host, "database", cfg.Database.Name)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}

	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, deviceGateway, attendanceService.Options{
		RosterPageSize: cfg.View.RosterPageSize,
		ActiveTTL:      cfg.Refresh.ActiveTTL,
		MaxActive:      cfg.Refresh.MaxActive,
		LoadTimeout:    cfg.Refresh.LoadTimeout,
		Location:       loc,
	})
	analyticsSvc := analyticsService.NewAnalyticsService(attendanceSvc, loc)
	calendarSvc := calendarService.NewCalendarService(attendanceSvc, cfg.View.HourHeight, loc)
	reportSvc := reportService.NewReportService(calendarSvc, fileStorage)

	hub := sse.NewHub()
	scheduler := cron.NewScheduler()
	refresher := live.NewRefresher(attendanceSvc, hub)
	if err := refresher.Register(scheduler, live.Intervals{
		Summary:  cfg.Refresh.Summary,
		Activity: cfg.Refresh.Activity,
		Records:  cfg.Refresh.Records,
	}); err != nil {
		return err
	}
	if err := scheduler.AddJob("prune_exports", time.Hour, func(ctx context.Context) error {
		return reportSvc.PruneExports(ctx, cfg.Storage.ExportMaxAge)
	}); err != nil {
		return err
	}

	router := appHTTP.NewRouter(
		logger,
		appHTTP.RouterOptions{
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       cfg.SlogLevel(),
		},
		appHTTP.NewAttendanceHandler(attendanceSvc, loc),
		appHTTP.NewAnalyticsHandler(analyticsSvc, loc),
		appHTTP.NewCalendarHandler(calendarSvc, loc),
		appHTTP.NewReportHandler(reportSvc),
		appHTTP.NewDashboardHandler(attendanceSvc),
		appHTTP.NewStreamHandler(hub),
		appHTTP.NewFileHandler(fileStorage),
		appHTTP.NewJobHandler(scheduler),
	)

	// Open SSE streams end when shutdown starts instead of holding it up
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ReadHeaderTimeout: 10 * time.Second,
		// SSE streams clear their own write deadline
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	server.RegisterOnShutdown(cancelBase)

	scheduler.Start()
	defer scheduler.Stop()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "source", cfg.Source.Type, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
