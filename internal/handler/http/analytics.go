package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/analytics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type AnalyticsHandler interface {
	GetReport(w http.ResponseWriter, r *http.Request)
	GetSummary(w http.ResponseWriter, r *http.Request)
}

type analyticsHandlerImpl struct {
	analyticsService analytics.AnalyticsService
	location         *time.Location
	now              func() time.Time
}

func NewAnalyticsHandler(analyticsService analytics.AnalyticsService, loc *time.Location) AnalyticsHandler {
	return &analyticsHandlerImpl{
		analyticsService: analyticsService,
		location:         loc,
		now:              time.Now,
	}
}

// GetReport implements AnalyticsHandler.
func (h *analyticsHandlerImpl) GetReport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r, h.location, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	report, err := h.analyticsService.GetReport(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, report)
}

// GetSummary implements AnalyticsHandler.
func (h *analyticsHandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r, h.location, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.analyticsService.GetSummary(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, summary)
}
