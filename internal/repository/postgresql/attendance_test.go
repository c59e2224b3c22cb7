package postgresql

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

func strPtr(s string) *string { return &s }

func TestWhereBuilder(t *testing.T) {
	w := &whereBuilder{}
	w.add("a.date >= $%[1]d", "2024-03-01")
	w.addIf("b.name = $%[1]d", strPtr("Ops"))
	w.addIf("ws.name = $%[1]d", strPtr("  "))
	w.addIf("ws.name = $%[1]d", nil)
	w.add("(e.full_name ILIKE $%[1]d OR e.employee_code ILIKE $%[1]d)", "%ali%")

	assert.Equal(t, " WHERE a.date >= $1 AND b.name = $2 AND (e.full_name ILIKE $3 OR e.employee_code ILIKE $3)", w.sql())
	assert.Equal(t, []interface{}{"2024-03-01", "Ops", "%ali%"}, w.args)
	assert.Empty(t, (&whereBuilder{}).sql())
}

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		status string
		open   bool
		want   attendance.Status
	}{
		{"on_time", false, attendance.StatusPresent},
		{"on_time", true, attendance.StatusOngoing},
		{"", true, attendance.StatusOngoing},
		{"LATE", false, attendance.StatusLate},
		{"early_leave", false, attendance.StatusEarlyLeave},
		{"rejected", false, attendance.StatusAbsent},
		{"waiting_approval", false, attendance.Status("waiting_approval")},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizeStatus(c.status, c.open), "%q open=%v", c.status, c.open)
	}
}

const testSchema = `
CREATE TABLE branches (id serial PRIMARY KEY, name text NOT NULL);
CREATE TABLE work_schedules (id serial PRIMARY KEY, name text NOT NULL, deleted_at timestamptz);
CREATE TABLE employees (
	id serial PRIMARY KEY,
	employee_code text NOT NULL,
	full_name text NOT NULL,
	branch_id int REFERENCES branches(id),
	work_schedule_id int REFERENCES work_schedules(id),
	employment_status text NOT NULL DEFAULT 'active',
	deleted_at timestamptz
);
CREATE TABLE attendances (
	id serial PRIMARY KEY,
	employee_id int NOT NULL REFERENCES employees(id),
	date date NOT NULL,
	clock_in timestamptz NOT NULL,
	clock_out timestamptz,
	work_hours_in_minutes int,
	overtime_minutes int,
	status text,
	late_minutes int,
	early_leave_minutes int
);
INSERT INTO branches (name) VALUES ('Engineering'), ('Ops');
INSERT INTO work_schedules (name) VALUES ('Morning');
INSERT INTO employees (employee_code, full_name, branch_id, work_schedule_id) VALUES
	('E1', 'Alice', 1, 1), ('E2', 'Bob', 1, 1), ('E3', 'Cara', 2, NULL);
INSERT INTO attendances (employee_id, date, clock_in, clock_out, work_hours_in_minutes, overtime_minutes, status, late_minutes) VALUES
	(1, '2024-03-04', '2024-03-04 09:00:00+00', '2024-03-04 17:00:00+00', 480, 0, 'on_time', NULL),
	(2, '2024-03-04', '2024-03-04 09:20:00+00', '2024-03-04 17:00:00+00', 460, 30, 'late', 20),
	(3, '2024-03-05', '2024-03-05 08:00:00+00', NULL, NULL, NULL, 'on_time', NULL);
`

// setupTestDB creates a throwaway schema; it needs TEST_DATABASE_URL.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	schema := fmt.Sprintf("attendance_test_%d", time.Now().UnixNano())

	admin, err := database.NewPostgreSQLDB(ctx, dsn, database.Options{MaxConns: 1})
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "SET search_path TO "+schema+"; "+testSchema)
	require.NoError(t, err)

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := database.NewPostgreSQLDB(ctx, dsn+sep+"search_path="+schema, database.Options{MaxConns: 4, ReadOnly: true})
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})
	return db
}

func TestAttendanceRepository_PostgreSQL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db, time.UTC)
	ctx := context.Background()

	t.Run("ListRecords", func(t *testing.T) {
		records, err := repo.ListRecords(ctx, attendance.Filter{StartDate: "2024-03-04", EndDate: "2024-03-05"})
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, "E1", records[0].EmployeeID)
		assert.Equal(t, "2024-03-04", records[0].CheckInDate)
		assert.Equal(t, "2024-03-04T09:00:00Z", records[0].CheckIn)
		assert.Equal(t, attendance.StatusPresent, records[0].Status)
		assert.InDelta(t, 8.0, records[0].ActualWork, 0.001)

		assert.Equal(t, attendance.StatusLate, records[1].Status)
		assert.InDelta(t, 0.5, records[1].Overtime, 0.001)

		assert.True(t, records[2].IsOpen())
		assert.Equal(t, attendance.StatusOngoing, records[2].Status)
	})

	t.Run("ListRecords filters", func(t *testing.T) {
		records, err := repo.ListRecords(ctx, attendance.Filter{
			StartDate:  "2024-03-04",
			EndDate:    "2024-03-05",
			Department: strPtr("Engineering"),
			Status:     strPtr("late"),
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "E2", records[0].EmployeeID)

		records, err = repo.ListRecords(ctx, attendance.Filter{StartDate: "2024-03-04", EndDate: "2024-03-05", Search: strPtr("car")})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Cara", records[0].EmployeeName)
	})

	t.Run("ListEmployees pages", func(t *testing.T) {
		page, err := repo.ListEmployees(ctx, attendance.EmployeeQuery{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 3, page.ActiveTotal)
		require.Len(t, page.Employees, 1)
		assert.Equal(t, "Cara", page.Employees[0].DisplayName())
		assert.Equal(t, "Ops", page.Employees[0].DepartmentName())
	})

	t.Run("ListDepartments and ListShifts", func(t *testing.T) {
		departments, err := repo.ListDepartments(ctx)
		require.NoError(t, err)
		assert.Len(t, departments, 2)

		shifts, err := repo.ListShifts(ctx)
		require.NoError(t, err)
		require.Len(t, shifts, 1)
		assert.Equal(t, "Morning", shifts[0].Name)
	})

	t.Run("GetDashboard", func(t *testing.T) {
		summary, err := repo.GetDashboard(ctx, attendance.DashboardQuery{Department: strPtr("Engineering")})
		require.NoError(t, err)
		assert.Equal(t, 2, summary.TotalEmployees)
		assert.Equal(t, 2, summary.AbsentToday+summary.PresentToday)
	})
}
