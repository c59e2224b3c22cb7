package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Filter errors
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrDateRangeTooLarge):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrNoDevicesSelected):
		BadRequest(w, err.Error(), nil)

	// Source errors
	case errors.Is(err, attendance.ErrUnauthorized):
		Unauthorized(w, "Missing or invalid credentials")
	case errors.Is(err, attendance.ErrForbidden):
		Forbidden(w, "Access to attendance data denied")
	case errors.Is(err, attendance.ErrDeviceNotFound):
		NotFound(w, "Device not found")
	case errors.Is(err, attendance.ErrNotFound):
		NotFound(w, "Resource not found")
	case errors.Is(err, attendance.ErrUpstreamRejected):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrSourceUnavailable):
		slog.Warn("Attendance source unavailable", "error", err)
		BadGateway(w, "Attendance source unavailable, please retry")
	case errors.Is(err, attendance.ErrNotSupported):
		NotImplemented(w, err.Error())

	// Files and jobs
	case errors.Is(err, storage.ErrFileNotFound), errors.Is(err, storage.ErrInvalidPath):
		NotFound(w, "File not found")
	case errors.Is(err, cron.ErrJobNotFound):
		NotFound(w, "Job not found")
	case errors.Is(err, report.ErrReportStorageFailed), errors.Is(err, report.ErrReportGenerationFailed):
		slog.Error("Report export failed", "error", err)
		InternalServerError(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
