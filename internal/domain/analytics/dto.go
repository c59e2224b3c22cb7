package analytics

// ========== TREND (line chart) ==========

// TrendRow is one day of the attendance trend. Rates are rounded for
// display; summary means are taken over the unrounded values.
type TrendRow struct {
	Date           string `json:"date"` // Format: "YYYY-MM-DD"
	PresentCount   int    `json:"present_count"`
	LateCount      int    `json:"late_count"`
	AttendanceRate int    `json:"attendance_rate"` // percent
	LateRate       int    `json:"late_rate"`       // percent of present
}

// ========== DISTRIBUTIONS (pie / bar charts) ==========

// StatusBucket counts records of one status. The absent bucket is
// synthesized from (employee, day) pairs without any session.
type StatusBucket struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// OvertimeBucket counts records whose overtime falls in (Min, Max] hours.
type OvertimeBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// ========== SUMMARY ==========

type Summary struct {
	AvgAttendanceRate float64 `json:"avg_attendance_rate"`
	AvgWorkHours      float64 `json:"avg_work_hours"`
	AvgLateRate       float64 `json:"avg_late_rate"`
	TotalOvertime     float64 `json:"total_overtime"`
	TotalRecords      int     `json:"total_records"`
	TotalEmployees    int     `json:"total_employees"`
	NumberOfDays      int     `json:"number_of_days"`
	PresentCount      int     `json:"present_count"`
	LateCount         int     `json:"late_count"`
	AbsentCount       int     `json:"absent_count"`
	CurrentlyIn       int     `json:"currently_in"`
}

// ========== DEPARTMENT RANKING ==========

type DepartmentRank struct {
	Department     string `json:"department"`
	EmployeeCount  int    `json:"employee_count"`
	PresentCount   int    `json:"present_count"`
	AttendanceRate int    `json:"attendance_rate"`
}

// ========== COMBINED REPORT ==========

// Report is everything the analytics screen renders for one working set.
type Report struct {
	StartDate            string           `json:"start_date"`
	EndDate              string           `json:"end_date"`
	Trend                []TrendRow       `json:"trend"`
	StatusDistribution   []StatusBucket   `json:"status_distribution"`
	OvertimeDistribution []OvertimeBucket `json:"overtime_distribution"`
	Summary              Summary          `json:"summary"`
	DepartmentRanking    []DepartmentRank `json:"department_ranking"`
	SkippedRecords       int              `json:"skipped_records"`
	Version              uint64           `json:"version"`
}
