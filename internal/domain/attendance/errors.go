package attendance

import "errors"

// Attendance domain errors
var (
	// Filter errors
	ErrInvalidDateRange  = errors.New("end_date must not be before start_date")
	ErrDateRangeTooLarge = errors.New("date range is too large")

	// Source errors
	ErrSourceUnavailable = errors.New("attendance source unavailable")
	ErrStaleFetch        = errors.New("fetch superseded by a newer request")
	ErrUpstreamRejected  = errors.New("request rejected by attendance source")
	ErrUnauthorized      = errors.New("missing or invalid credentials")
	ErrForbidden         = errors.New("access to attendance data denied")
	ErrNotFound          = errors.New("resource not found")
	ErrNotSupported      = errors.New("operation not supported by the configured source")

	// Device errors
	ErrNoDevicesSelected = errors.New("at least one device must be selected")
	ErrDeviceNotFound    = errors.New("device not found")
)
