package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// GetDashboard implements attendance.AttendanceRepository. It summarizes
// today in the repository's location for active employees only.
func (r *attendanceRepositoryImpl) GetDashboard(ctx context.Context, query attendance.DashboardQuery) (attendance.DashboardSummary, error) {
	q := GetQuerier(ctx, r.db)

	w := rosterFilter(query.Department, query.Shift)
	w.clauses = append(w.clauses, "e.employment_status = 'active'")
	today := time.Now().In(r.loc).Format("2006-01-02")

	sql := fmt.Sprintf(`
		WITH roster AS (
			SELECT e.id`+employeeJoins+w.sql()+`
		),
		today AS (
			SELECT a.employee_id, a.status, a.clock_out, a.early_leave_minutes
			FROM attendances a
			JOIN roster ON roster.id = a.employee_id
			WHERE a.date = $%d
		)
		SELECT
			(SELECT COUNT(*) FROM roster),
			COUNT(DISTINCT employee_id),
			COUNT(DISTINCT employee_id) FILTER (WHERE status = 'late'),
			COUNT(DISTINCT employee_id) FILTER (WHERE status = 'early_leave' OR COALESCE(early_leave_minutes, 0) > 0),
			COUNT(DISTINCT employee_id) FILTER (WHERE clock_out IS NULL)
		FROM today
	`, len(w.args)+1)

	var summary attendance.DashboardSummary
	args := append(append([]interface{}{}, w.args...), today)
	err := q.QueryRow(ctx, sql, args...).Scan(
		&summary.TotalEmployees,
		&summary.PresentToday,
		&summary.LateToday,
		&summary.EarlyLeaveToday,
		&summary.CurrentlyIn,
	)
	if err != nil {
		return attendance.DashboardSummary{}, fmt.Errorf("failed to get dashboard summary: %w", err)
	}

	summary.AbsentToday = summary.TotalEmployees - summary.PresentToday
	if summary.AbsentToday < 0 {
		summary.AbsentToday = 0
	}
	return summary, nil
}
