package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type ReportHandler interface {
	ExportMonth(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// ExportMonth implements ReportHandler.
func (h *reportHandlerImpl) ExportMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := report.MonthExportRequest{
		Month:      q.Get("month"),
		EmployeeID: optional(q, "employee_id"),
		Department: optional(q, "department"),
		Shift:      optional(q, "shift"),
		Search:     optional(q, "search"),
	}

	result, err := h.reportService.ExportMonth(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Export generated", result)
}
