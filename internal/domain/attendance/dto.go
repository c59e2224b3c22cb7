package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// MaxRangeDays bounds how many days a single working set may span.
const MaxRangeDays = 366

// ========================================
// FILTER DTOs
// ========================================

// Filter selects one working set. It mirrors the query parameters of the
// upstream attendance endpoint.
type Filter struct {
	StartDate  string  `json:"start_date"` // YYYY-MM-DD
	EndDate    string  `json:"end_date"`   // YYYY-MM-DD
	EmployeeID *string `json:"employee_id,omitempty"`
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`
	Shift      *string `json:"shift,omitempty"`
	Search     *string `json:"search,omitempty"`
	Raw        bool    `json:"raw,omitempty"`
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(f.StartDate)
	if validator.IsEmpty(f.StartDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	} else if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(f.EndDate)
	if validator.IsEmpty(f.EndDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date is required",
		})
	} else if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: ErrInvalidDateRange.Error(),
			})
		} else if int(end.Sub(start).Hours()/24)+1 > MaxRangeDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: fmt.Sprintf("date range must not exceed %d days", MaxRangeDays),
			})
		}
	}

	if f.Status != nil && *f.Status != "" {
		if !validator.IsInSlice(strings.ToLower(*f.Status), validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + strings.Join(validStatuses, ", "),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Normalize returns f with status lowercased, so differently cased requests
// share one working set and forward the same value upstream.
func (f Filter) Normalize() Filter {
	if f.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*f.Status))
		if status == "" {
			f.Status = nil
		} else {
			f.Status = &status
		}
	}
	return f
}

// Range converts the validated dates to a day range in loc.
func (f Filter) Range(loc *time.Location) (dateutil.Range, error) {
	return dateutil.NewRange(f.StartDate, f.EndDate, loc)
}

// Key identifies the filter set. Two filters with the same key load the same
// working set.
func (f Filter) Key() string {
	f = f.Normalize()
	var b strings.Builder
	b.WriteString(f.StartDate)
	b.WriteString("|")
	b.WriteString(f.EndDate)
	for _, p := range []*string{f.EmployeeID, f.Department, f.Status, f.Shift, f.Search} {
		b.WriteString("|")
		if p != nil {
			b.WriteString(*p)
		}
	}
	if f.Raw {
		b.WriteString("|raw")
	}
	return b.String()
}

// ForDay returns a copy of f narrowed to a single day.
func (f Filter) ForDay(day string) Filter {
	f.StartDate = day
	f.EndDate = day
	return f
}

// EmployeeQuery pages through the roster.
type EmployeeQuery struct {
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Department *string `json:"department,omitempty"`
	Shift      *string `json:"shift,omitempty"`
}

type DashboardQuery struct {
	Department *string `json:"department,omitempty"`
	Shift      *string `json:"shift,omitempty"`
}

// ========================================
// RESPONSE DTOs
// ========================================

type ListRecordsResponse struct {
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	TotalCount  int      `json:"total_count"`
	Version     uint64   `json:"version"`
	FetchedAt   string   `json:"fetched_at"`
	Attendances []Record `json:"attendances"`
}

// ========================================
// DEVICE DTOs
// ========================================

type SyncDevicesRequest struct {
	DeviceIDs []string `json:"device_ids"`
}

func (r *SyncDevicesRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.DeviceIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "device_ids",
			Message: ErrNoDevicesSelected.Error(),
		})
	}
	for _, id := range r.DeviceIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "device_ids",
				Message: "device_ids must not contain empty values",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DeviceSyncResult struct {
	DeviceID ID     `json:"device_id"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
}

type SyncDevicesResponse struct {
	Results []DeviceSyncResult `json:"results"`
}
