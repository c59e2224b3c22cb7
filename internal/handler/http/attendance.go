package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	ListDepartments(w http.ResponseWriter, r *http.Request)
	ListShifts(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	location          *time.Location
	now               func() time.Time
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, loc *time.Location) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		location:          loc,
		now:               time.Now,
	}
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r, h.location, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Validate request
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{
		TotalItems: int64(result.TotalCount),
		Version:    result.Version,
	})
}

// ListDepartments implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.attendanceService.ListDepartments(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if departments == nil {
		departments = []attendance.Department{}
	}
	response.Success(w, departments)
}

// ListShifts implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.attendanceService.ListShifts(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if shifts == nil {
		shifts = []attendance.Shift{}
	}
	response.Success(w, shifts)
}
