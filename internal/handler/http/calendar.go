package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type CalendarHandler interface {
	GetTimeline(w http.ResponseWriter, r *http.Request)
	GetMonthGrid(w http.ResponseWriter, r *http.Request)
}

type calendarHandlerImpl struct {
	calendarService calendar.CalendarService
	location        *time.Location
	now             func() time.Time
}

func NewCalendarHandler(calendarService calendar.CalendarService, loc *time.Location) CalendarHandler {
	return &calendarHandlerImpl{
		calendarService: calendarService,
		location:        loc,
		now:             time.Now,
	}
}

// GetTimeline implements CalendarHandler.
func (h *calendarHandlerImpl) GetTimeline(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r, h.location, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	timeline, err := h.calendarService.GetTimeline(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, timeline, &response.Meta{Version: timeline.Version})
}

// GetMonthGrid implements CalendarHandler.
func (h *calendarHandlerImpl) GetMonthGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, limit, errs := pageFromQuery(q, calendar.DefaultMonthLimit)
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	query := calendar.MonthQuery{
		Month:      q.Get("month"),
		Page:       page,
		Limit:      limit,
		EmployeeID: optional(q, "employee_id"),
		Department: optional(q, "department"),
		Shift:      optional(q, "shift"),
		Search:     optional(q, "search"),
	}

	grid, err := h.calendarService.GetMonthGrid(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, grid, &response.Meta{
		Page:       grid.Page,
		Limit:      grid.Limit,
		TotalItems: int64(grid.TotalRows),
		TotalPages: grid.TotalPages,
		Version:    grid.Version,
	})
}
