package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// filterFromQuery reads the attendance filter parameters. When neither date
// is given the filter covers today in loc. A malformed raw flag is reported
// as a validation error.
func filterFromQuery(r *http.Request, loc *time.Location, now time.Time) (attendance.Filter, error) {
	q := r.URL.Query()
	filter := attendance.Filter{
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	}

	if filter.StartDate == "" && filter.EndDate == "" {
		today := dateutil.DayKey(now.In(loc))
		filter.StartDate, filter.EndDate = today, today
	}

	filter.EmployeeID = optional(q, "employee_id")
	filter.Department = optional(q, "department")
	filter.Status = optional(q, "status")
	filter.Shift = optional(q, "shift")
	filter.Search = optional(q, "search")

	if raw := strings.TrimSpace(q.Get("raw")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, validator.ValidationErrors{
				{Field: "raw", Message: "raw must be true or false"},
			}
		}
		filter.Raw = v
	}

	return filter.Normalize(), nil
}

func optional(q url.Values, key string) *string {
	if v := strings.TrimSpace(q.Get(key)); v != "" {
		return &v
	}
	return nil
}

// pageFromQuery parses page and limit, collecting errors for malformed values.
func pageFromQuery(q url.Values, defLimit int) (page, limit int, errs validator.ValidationErrors) {
	page, ok := validator.ParsePositiveInt(q.Get("page"), 1)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	limit, ok = validator.ParsePositiveInt(q.Get("limit"), defLimit)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	return page, limit, errs
}
