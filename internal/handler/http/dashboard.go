package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// DashboardHandler serves the widgets next to the attendance views.
type DashboardHandler interface {
	GetDashboard(w http.ResponseWriter, r *http.Request)
	ListRecentActivity(w http.ResponseWriter, r *http.Request)
	ListDevices(w http.ResponseWriter, r *http.Request)
	SyncDevices(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewDashboardHandler(attendanceService attendance.AttendanceService) DashboardHandler {
	return &dashboardHandlerImpl{
		attendanceService: attendanceService,
	}
}

// GetDashboard implements DashboardHandler.
func (h *dashboardHandlerImpl) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := attendance.DashboardQuery{
		Department: optional(q, "department"),
		Shift:      optional(q, "shift"),
	}

	summary, err := h.attendanceService.GetDashboard(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, summary)
}

// ListRecentActivity implements DashboardHandler.
func (h *dashboardHandlerImpl) ListRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit, ok := validator.ParsePositiveInt(r.URL.Query().Get("limit"), defaultActivityLimit)
	if !ok || limit > maxActivityLimit {
		response.HandleError(w, validator.ValidationErrors{{
			Field:   "limit",
			Message: "limit must be between 1 and 100",
		}})
		return
	}

	activity, err := h.attendanceService.ListRecentActivity(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if activity == nil {
		activity = []attendance.Activity{}
	}
	response.Success(w, activity)
}

// ListDevices implements DashboardHandler.
func (h *dashboardHandlerImpl) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.attendanceService.ListDevices(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if devices == nil {
		devices = []attendance.Device{}
	}
	response.Success(w, devices)
}

// SyncDevices implements DashboardHandler.
func (h *dashboardHandlerImpl) SyncDevices(w http.ResponseWriter, r *http.Request) {
	var req attendance.SyncDevicesRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode sync request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.SyncDevices(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Devices synchronized", result)
}
