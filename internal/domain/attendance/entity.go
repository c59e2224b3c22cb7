package attendance

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
)

// ID accepts both JSON strings and numbers, since upstream ids are not
// consistently typed across endpoints.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Status string

const (
	StatusPresent    Status = "present"
	StatusLate       Status = "late"
	StatusEarlyLeave Status = "early_leave"
	StatusOngoing    Status = "ongoing"
	StatusAbsent     Status = "absent"
	StatusOvertime   Status = "overtime"
)

var validStatuses = []string{
	string(StatusPresent),
	string(StatusLate),
	string(StatusEarlyLeave),
	string(StatusOngoing),
	string(StatusAbsent),
	string(StatusOvertime),
}

// DefaultCapacity is the expected shift length in hours when upstream omits it.
const DefaultCapacity = 8.0

// Record is one check-in/check-out session, already paired upstream.
// Timestamps stay as received; the engines parse them and skip the
// record when they cannot.
type Record struct {
	ID                ID       `json:"id"`
	EmployeeID        string   `json:"employee_id"`
	EmployeeName      string   `json:"employee_name,omitempty"`
	Department        string   `json:"department,omitempty"`
	CheckInDate       string   `json:"check_in_date"`
	CheckIn           string   `json:"check_in"`
	CheckOut          *string  `json:"check_out,omitempty"`
	ActualWork        float64  `json:"actual_work"`
	Capacity          *float64 `json:"capacity,omitempty"`
	Overtime          float64  `json:"overtime"`
	Status            Status   `json:"status"`
	LateMinutes       *int     `json:"late_minutes,omitempty"`
	EarlyLeaveMinutes *int     `json:"early_leave_minutes,omitempty"`
}

// IsOpen reports a session without a check-out (employee currently in).
func (r Record) IsOpen() bool {
	return r.CheckOut == nil || strings.TrimSpace(*r.CheckOut) == ""
}

func (r Record) ExpectedHours() float64 {
	if r.Capacity == nil || *r.Capacity <= 0 {
		return DefaultCapacity
	}
	return *r.Capacity
}

// DayKey returns the normalized business day key of the record.
func (r Record) DayKey() (string, error) {
	return dateutil.NormalizeDayKey(r.CheckInDate)
}

// Employee is a roster entry. Records reference EmployeeID, not ID.
type Employee struct {
	ID           ID      `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	Name         string  `json:"name,omitempty"`
	FullName     string  `json:"full_name,omitempty"`
	Department   *string `json:"department,omitempty"`
	DepartmentID *ID     `json:"department_id,omitempty"`
}

func (e Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	if e.Name != "" {
		return e.Name
	}
	return e.EmployeeID
}

// DepartmentName is empty for employees without a department.
func (e Employee) DepartmentName() string {
	if e.Department == nil {
		return ""
	}
	return strings.TrimSpace(*e.Department)
}

type Department struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Shift struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// EmployeePage is one page of the roster endpoint.
type EmployeePage struct {
	Employees   []Employee `json:"employees"`
	Total       int        `json:"total"`
	ActiveTotal int        `json:"active_total"`
}

// DashboardSummary is the pre-aggregated "today" summary served upstream.
type DashboardSummary struct {
	TotalEmployees  int `json:"total_employees"`
	PresentToday    int `json:"present_today"`
	LateToday       int `json:"late_today"`
	EarlyLeaveToday int `json:"early_leave_today"`
	AbsentToday     int `json:"absent_today"`
	CurrentlyIn     int `json:"currently_in"`
}

type Activity struct {
	ID           ID     `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Type         string `json:"type"`
	Timestamp    string `json:"timestamp"`
	Device       string `json:"device,omitempty"`
}

type Device struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	IP       string  `json:"ip,omitempty"`
	Status   string  `json:"status,omitempty"`
	LastSync *string `json:"last_sync,omitempty"`
}

// Snapshot is one successfully loaded working set. It is never mutated
// after being published; a refresh produces a new snapshot with a higher
// Version, which is what derived results are memoized against.
type Snapshot struct {
	Version     uint64
	Filter      Filter
	Range       dateutil.Range
	Records     []Record
	Employees   []Employee
	Departments []Department
	Shifts      []Shift
	// TodayRecords is set when Range does not contain today.
	TodayRecords []Record
	FetchedAt    time.Time
}

// RecordsForToday returns the records the currently-in count is taken from.
func (s *Snapshot) RecordsForToday() []Record {
	if s.TodayRecords != nil {
		return s.TodayRecords
	}
	return s.Records
}
