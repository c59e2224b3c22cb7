package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
)

// Departments are read from branches and shifts from work_schedules.
const employeeJoins = `
		FROM employees e
		LEFT JOIN branches b ON e.branch_id = b.id
		LEFT JOIN work_schedules ws ON e.work_schedule_id = ws.id`

type attendanceRepositoryImpl struct {
	db  *database.DB
	loc *time.Location
}

func NewAttendanceRepository(db *database.DB, loc *time.Location) attendance.AttendanceRepository {
	if loc == nil {
		loc = time.Local
	}
	return &attendanceRepositoryImpl{db: db, loc: loc}
}

// whereBuilder numbers placeholders as clauses are added. Clauses use
// %[1]d for the placeholder index so one argument can appear twice.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) add(clause string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *whereBuilder) addIf(clause string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		w.add(clause, strings.TrimSpace(*v))
	}
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func rosterFilter(department, shift *string) *whereBuilder {
	w := &whereBuilder{}
	w.clauses = append(w.clauses, "e.deleted_at IS NULL")
	w.addIf("b.name = $%[1]d", department)
	w.addIf("ws.name = $%[1]d", shift)
	return w
}

// normalizeStatus maps stored statuses onto the record status vocabulary.
func normalizeStatus(status string, open bool) attendance.Status {
	switch strings.ToLower(status) {
	case "on_time", "present", "approved":
		if open {
			return attendance.StatusOngoing
		}
		return attendance.StatusPresent
	case "late":
		return attendance.StatusLate
	case "early_leave":
		return attendance.StatusEarlyLeave
	case "absent", "rejected":
		return attendance.StatusAbsent
	case "overtime":
		return attendance.StatusOvertime
	case "":
		if open {
			return attendance.StatusOngoing
		}
		return attendance.StatusPresent
	default:
		return attendance.Status(strings.ToLower(status))
	}
}

// ListRecords implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	w := &whereBuilder{}
	w.add("a.date >= $%[1]d", filter.StartDate)
	w.add("a.date <= $%[1]d", filter.EndDate)
	w.addIf("e.employee_code = $%[1]d", filter.EmployeeID)
	w.addIf("b.name = $%[1]d", filter.Department)
	w.addIf("ws.name = $%[1]d", filter.Shift)
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		w.add("(e.full_name ILIKE $%[1]d OR e.employee_code ILIKE $%[1]d)", "%"+strings.TrimSpace(*filter.Search)+"%")
	}

	query := `
		SELECT a.id::text, e.employee_code, e.full_name, COALESCE(b.name, ''),
			   a.date, a.clock_in, a.clock_out,
			   COALESCE(a.work_hours_in_minutes, 0), COALESCE(a.overtime_minutes, 0),
			   COALESCE(a.status, ''), a.late_minutes, a.early_leave_minutes
		FROM attendances a
		JOIN employees e ON a.employee_id = e.id
		LEFT JOIN branches b ON e.branch_id = b.id
		LEFT JOIN work_schedules ws ON e.work_schedule_id = ws.id` + w.sql() + `
		ORDER BY a.date ASC, a.clock_in ASC
	`

	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		var (
			id, code, name, dept, status string
			date, clockIn                time.Time
			clockOut                     *time.Time
			workMinutes, overtimeMinutes int
			late, early                  *int
		)
		if err := rows.Scan(
			&id, &code, &name, &dept,
			&date, &clockIn, &clockOut,
			&workMinutes, &overtimeMinutes,
			&status, &late, &early,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}

		rec := attendance.Record{
			ID:                attendance.ID(id),
			EmployeeID:        code,
			EmployeeName:      name,
			Department:        dept,
			CheckInDate:       date.Format(dateutil.DayLayout),
			CheckIn:           clockIn.In(r.loc).Format(time.RFC3339),
			ActualWork:        float64(workMinutes) / 60,
			Overtime:          float64(overtimeMinutes) / 60,
			LateMinutes:       late,
			EarlyLeaveMinutes: early,
		}
		if clockOut != nil {
			out := clockOut.In(r.loc).Format(time.RFC3339)
			rec.CheckOut = &out
		}
		rec.Status = normalizeStatus(status, rec.IsOpen())

		// Status filtering happens after normalization so it matches the
		// vocabulary callers filter with.
		if filter.Status != nil && *filter.Status != "" && !strings.EqualFold(string(rec.Status), *filter.Status) {
			continue
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ListEmployees implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListEmployees(ctx context.Context, query attendance.EmployeeQuery) (attendance.EmployeePage, error) {
	page := attendance.EmployeePage{Employees: []attendance.Employee{}}

	err := WithReadSnapshot(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)
		w := rosterFilter(query.Department, query.Shift)

		countQuery := `
			SELECT COUNT(*), COALESCE(SUM(CASE WHEN e.employment_status = 'active' THEN 1 ELSE 0 END), 0)` +
			employeeJoins + w.sql()
		if err := q.QueryRow(ctx, countQuery, w.args...).Scan(&page.Total, &page.ActiveTotal); err != nil {
			return fmt.Errorf("failed to count employees: %w", err)
		}

		limit := query.Limit
		if limit <= 0 {
			limit = 100
		}
		offset := 0
		if query.Page > 1 {
			offset = (query.Page - 1) * limit
		}

		args := append(append([]interface{}{}, w.args...), limit, offset)
		listQuery := fmt.Sprintf(`
			SELECT e.id::text, e.employee_code, e.full_name, b.name, b.id::text`+
			employeeJoins+w.sql()+`
			ORDER BY e.full_name ASC, e.employee_code ASC
			LIMIT $%d OFFSET $%d`, len(w.args)+1, len(w.args)+2)

		rows, err := q.Query(ctx, listQuery, args...)
		if err != nil {
			return fmt.Errorf("failed to list employees: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				emp    attendance.Employee
				id     string
				deptID *string
			)
			if err := rows.Scan(&id, &emp.EmployeeID, &emp.FullName, &emp.Department, &deptID); err != nil {
				return fmt.Errorf("failed to scan employee: %w", err)
			}
			emp.ID = attendance.ID(id)
			if deptID != nil {
				d := attendance.ID(*deptID)
				emp.DepartmentID = &d
			}
			page.Employees = append(page.Employees, emp)
		}
		return rows.Err()
	})
	if err != nil {
		return attendance.EmployeePage{}, err
	}

	return page, nil
}

// ListDepartments implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListDepartments(ctx context.Context) ([]attendance.Department, error) {
	rows, err := GetQuerier(ctx, r.db).Query(ctx, `SELECT id::text, name FROM branches ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	departments := []attendance.Department{}
	for rows.Next() {
		var d attendance.Department
		var id string
		if err := rows.Scan(&id, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		d.ID = attendance.ID(id)
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// ListShifts implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListShifts(ctx context.Context) ([]attendance.Shift, error) {
	rows, err := GetQuerier(ctx, r.db).Query(ctx, `SELECT id::text, name FROM work_schedules WHERE deleted_at IS NULL ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	shifts := []attendance.Shift{}
	for rows.Next() {
		var s attendance.Shift
		var id string
		if err := rows.Scan(&id, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		s.ID = attendance.ID(id)
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}
