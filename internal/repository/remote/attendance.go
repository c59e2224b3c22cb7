package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

type attendanceRepositoryImpl struct {
	client *Client
}

func NewAttendanceRepository(client *Client) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{client: client}
}

// ListRecords implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	q := url.Values{}
	q.Set("start_date", filter.StartDate)
	q.Set("end_date", filter.EndDate)
	setIf(q, "employee_id", filter.EmployeeID)
	setIf(q, "department", filter.Department)
	setIf(q, "status", filter.Status)
	setIf(q, "shift", filter.Shift)
	setIf(q, "search", filter.Search)
	if filter.Raw {
		q.Set("raw", "true")
	}

	var records []attendance.Record
	if err := r.client.do(ctx, http.MethodGet, "attendance", q, nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return records, nil
}

// ListEmployees implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListEmployees(ctx context.Context, query attendance.EmployeeQuery) (attendance.EmployeePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(query.Page))
	q.Set("limit", strconv.Itoa(query.Limit))
	setIf(q, "department", query.Department)
	setIf(q, "shift", query.Shift)

	var page attendance.EmployeePage
	if err := r.client.do(ctx, http.MethodGet, "employees", q, nil, &page); err != nil {
		return attendance.EmployeePage{}, err
	}
	return page, nil
}

// ListDepartments implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListDepartments(ctx context.Context) ([]attendance.Department, error) {
	var departments []attendance.Department
	if err := r.client.do(ctx, http.MethodGet, "departments", nil, nil, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// ListShifts implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListShifts(ctx context.Context) ([]attendance.Shift, error) {
	var shifts []attendance.Shift
	if err := r.client.do(ctx, http.MethodGet, "shifts", nil, nil, &shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

// GetDashboard implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetDashboard(ctx context.Context, query attendance.DashboardQuery) (attendance.DashboardSummary, error) {
	q := url.Values{}
	setIf(q, "department", query.Department)
	setIf(q, "shift", query.Shift)

	var summary attendance.DashboardSummary
	if err := r.client.do(ctx, http.MethodGet, "dashboard", q, nil, &summary); err != nil {
		return attendance.DashboardSummary{}, err
	}
	return summary, nil
}
