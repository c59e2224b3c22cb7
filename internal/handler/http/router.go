package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/bearer"
)

// RouterOptions carries the HTTP concerns configured per environment.
type RouterOptions struct {
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(
	logger *slog.Logger,
	opts RouterOptions,
	attendanceHandler AttendanceHandler,
	analyticsHandler AnalyticsHandler,
	calendarHandler CalendarHandler,
	reportHandler ReportHandler,
	dashboardHandler DashboardHandler,
	streamHandler StreamHandler,
	fileHandler FileHandler,
	jobHandler JobHandler,
) *chi.Mux {
	r := chi.NewRouter()

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	// Tokens are forwarded to the attendance source, never verified here
	r.Use(bearer.Middleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", attendanceHandler.List)
			r.Get("/analytics", analyticsHandler.GetReport)
			r.Get("/analytics/summary", analyticsHandler.GetSummary)
			r.Get("/calendar", calendarHandler.GetTimeline)
			r.Route("/month", func(r chi.Router) {
				r.Get("/", calendarHandler.GetMonthGrid)
				r.Get("/export", reportHandler.ExportMonth)
			})
		})

		r.Get("/departments", attendanceHandler.ListDepartments)
		r.Get("/shifts", attendanceHandler.ListShifts)

		r.Get("/dashboard", dashboardHandler.GetDashboard)
		r.Get("/recent-activity", dashboardHandler.ListRecentActivity)
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", dashboardHandler.ListDevices)
			r.Post("/sync-multiple", dashboardHandler.SyncDevices)
		})

		r.Get("/stream", streamHandler.Stream)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobHandler.List)
			r.Post("/{name}/trigger", jobHandler.Trigger)
		})
	})

	r.Get("/files/*", fileHandler.Serve)

	return r
}
