package analytics

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/analytics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testRange(t *testing.T, start, end string) dateutil.Range {
	t.Helper()
	r, err := dateutil.NewRange(start, end, time.UTC)
	require.NoError(t, err)
	return r
}

func employee(id, dept string) attendance.Employee {
	e := attendance.Employee{ID: attendance.ID("pk-" + id), EmployeeID: id, FullName: "Employee " + id}
	if dept != "" {
		e.Department = strPtr(dept)
	}
	return e
}

func record(id, employeeID, day, in, out string, status attendance.Status, work, overtime float64) attendance.Record {
	r := attendance.Record{
		ID:          attendance.ID(id),
		EmployeeID:  employeeID,
		CheckInDate: day,
		CheckIn:     day + "T" + in + ":00Z",
		Status:      status,
		ActualWork:  work,
		Overtime:    overtime,
	}
	if out != "" {
		r.CheckOut = strPtr(day + "T" + out + ":00Z")
	}
	return r
}

func bucketCount(buckets []analytics.StatusBucket, status string) int {
	for _, b := range buckets {
		if b.Status == status {
			return b.Count
		}
	}
	return 0
}

func TestCompute_ExampleScenario(t *testing.T) {
	employees := []attendance.Employee{
		employee("A", "Engineering"),
		employee("B", "Engineering"),
		employee("C", "Engineering"),
	}
	records := []attendance.Record{
		record("1", "A", "2024-03-04", "09:00", "17:00", attendance.StatusPresent, 8, 0),
		record("2", "B", "2024-03-04", "09:20", "17:00", attendance.StatusLate, 7.5, 0),
	}

	report := Compute(Input{
		Records:   records,
		Employees: employees,
		Range:     testRange(t, "2024-03-04", "2024-03-05"),
		Now:       time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	})

	require.Len(t, report.Trend, 2)
	assert.Equal(t, "2024-03-04", report.Trend[0].Date)
	assert.Equal(t, 2, report.Trend[0].PresentCount)
	assert.Equal(t, 1, report.Trend[0].LateCount)
	assert.Equal(t, 67, report.Trend[0].AttendanceRate)
	assert.Equal(t, 50, report.Trend[0].LateRate)
	assert.Equal(t, 0, report.Trend[1].AttendanceRate)
	assert.Equal(t, 0, report.Trend[1].LateRate)

	assert.Equal(t, 4, bucketCount(report.StatusDistribution, "absent"))
	assert.Equal(t, 1, bucketCount(report.StatusDistribution, "present"))
	assert.Equal(t, 1, bucketCount(report.StatusDistribution, "late"))
	assert.Equal(t, 4, report.Summary.AbsentCount)

	require.Len(t, report.DepartmentRanking, 1)
	assert.Equal(t, "Engineering", report.DepartmentRanking[0].Department)
	assert.Equal(t, 33, report.DepartmentRanking[0].AttendanceRate)

	assert.InDelta(t, 33.3, report.Summary.AvgAttendanceRate, 0.001)
	assert.InDelta(t, 25.0, report.Summary.AvgLateRate, 0.001)
	assert.InDelta(t, 7.75, report.Summary.AvgWorkHours, 0.001)
	assert.Equal(t, 0.0, report.Summary.TotalOvertime)
	assert.Equal(t, 2, report.Summary.NumberOfDays)
	assert.Equal(t, 2, report.Summary.TotalRecords)
	assert.Equal(t, 0, report.SkippedRecords)
}

func TestCompute_ZeroEmployeesAndZeroDays(t *testing.T) {
	records := []attendance.Record{
		record("1", "A", "2024-03-04", "09:00", "17:00", attendance.StatusPresent, 8, 1),
	}

	t.Run("no employees", func(t *testing.T) {
		report := Compute(Input{
			Records: records,
			Range:   testRange(t, "2024-03-04", "2024-03-04"),
			Now:     time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
		})
		require.Len(t, report.Trend, 1)
		assert.Equal(t, 0, report.Trend[0].AttendanceRate)
		assert.Equal(t, 0.0, report.Summary.AvgAttendanceRate)
		assert.Equal(t, 0, report.Summary.AbsentCount)
		assert.Empty(t, report.DepartmentRanking)
	})

	t.Run("empty range", func(t *testing.T) {
		report := Compute(Input{
			Records:   records,
			Employees: []attendance.Employee{employee("A", "Ops")},
			Range:     testRange(t, "2024-03-05", "2024-03-04"),
			Now:       time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
		})
		assert.Empty(t, report.Trend)
		assert.Equal(t, analytics.Summary{
			TotalEmployees: 1,
			CurrentlyIn:    0,
		}, report.Summary)
		assert.Empty(t, report.StatusDistribution)
		assert.Empty(t, report.OvertimeDistribution)
		require.Len(t, report.DepartmentRanking, 1)
		assert.Equal(t, 0, report.DepartmentRanking[0].AttendanceRate)
	})
}

func TestCompute_LateRateWithNoPresence(t *testing.T) {
	report := Compute(Input{
		Employees: []attendance.Employee{employee("A", "")},
		Range:     testRange(t, "2024-03-04", "2024-03-06"),
		Now:       time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	})
	for _, row := range report.Trend {
		assert.Equal(t, 0, row.LateRate)
		assert.Equal(t, 0, row.AttendanceRate)
	}
	assert.Equal(t, []analytics.StatusBucket{{Status: "absent", Count: 3}}, report.StatusDistribution)
}

func TestOvertimeBuckets(t *testing.T) {
	cases := []struct {
		overtime float64
		want     string
	}{
		{0, ""},
		{-1, ""},
		{0.25, "0-1h"},
		{1.0, "0-1h"},
		{1.01, "1-2h"},
		{2.0, "1-2h"},
		{2.5, "2-4h"},
		{4.0, "2-4h"},
		{4.5, "4h+"},
		{24, "4h+"},
		{25, ""},
	}
	for _, c := range cases {
		got := ""
		if i := overtimeBucket(c.overtime); i >= 0 {
			got = overtimeRanges[i].label
		}
		if got != c.want {
			t.Errorf("overtimeBucket(%v) = %q, want %q", c.overtime, got, c.want)
		}
	}
}

func TestCompute_OvertimeDistributionOmitsEmptyBuckets(t *testing.T) {
	records := []attendance.Record{
		record("1", "A", "2024-03-04", "09:00", "18:00", attendance.StatusOvertime, 9, 1.0),
		record("2", "B", "2024-03-04", "09:00", "19:00", attendance.StatusOvertime, 10, 2.0),
		record("3", "C", "2024-03-04", "09:00", "17:00", attendance.StatusPresent, 8, 0),
	}
	report := Compute(Input{
		Records: records,
		Employees: []attendance.Employee{
			employee("A", ""), employee("B", ""), employee("C", ""),
		},
		Range: testRange(t, "2024-03-04", "2024-03-04"),
		Now:   time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, []analytics.OvertimeBucket{
		{Label: "0-1h", Min: 0, Max: 1, Count: 1},
		{Label: "1-2h", Min: 1, Max: 2, Count: 1},
	}, report.OvertimeDistribution)
	assert.InDelta(t, 3.0, report.Summary.TotalOvertime, 0.0001)
}

func TestCompute_StatusReconciliation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := []attendance.Status{
		attendance.StatusPresent, attendance.StatusLate, attendance.StatusEarlyLeave,
		attendance.StatusOngoing, attendance.StatusOvertime,
	}
	r := testRange(t, "2024-03-01", "2024-03-14")
	days := r.Days()

	for trial := 0; trial < 20; trial++ {
		n := 1 + rng.Intn(12)
		var employees []attendance.Employee
		var records []attendance.Record
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("E%02d", i)
			employees = append(employees, employee(id, "Dept"))
			for _, d := range days {
				if rng.Intn(3) == 0 {
					continue
				}
				status := statuses[rng.Intn(len(statuses))]
				records = append(records, record(fmt.Sprintf("%s-%s", id, dateutil.DayKey(d)), id, dateutil.DayKey(d), "09:00", "17:00", status, 8, 0))
			}
		}

		report := Compute(Input{Records: records, Employees: employees, Range: r, Now: days[0]})

		sum := 0
		for _, b := range report.StatusDistribution {
			assert.Positive(t, b.Count, "zero buckets must be omitted")
			sum += b.Count
		}
		assert.Equal(t, n*len(days), sum, "trial %d", trial)
	}
}

func TestCompute_MultipleSessionsCountOncePerDay(t *testing.T) {
	records := []attendance.Record{
		record("1", "A", "2024-03-04", "08:00", "12:00", attendance.StatusPresent, 4, 0),
		record("2", "A", "2024-03-04", "13:00", "17:00", attendance.StatusPresent, 4, 0),
	}
	report := Compute(Input{
		Records:   records,
		Employees: []attendance.Employee{employee("A", ""), employee("B", "")},
		Range:     testRange(t, "2024-03-04", "2024-03-04"),
		Now:       time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, 1, report.Trend[0].PresentCount)
	assert.Equal(t, 50, report.Trend[0].AttendanceRate)
	assert.Equal(t, 1, report.Summary.AbsentCount)
	assert.Equal(t, 2, bucketCount(report.StatusDistribution, "present"))
}

func TestCompute_SkipsMalformedRecords(t *testing.T) {
	good := record("1", "A", "2024-03-04", "09:00", "17:00", attendance.StatusPresent, 8, 0)
	badDay := good
	badDay.ID = "2"
	badDay.CheckInDate = "04/03/2024"
	noEmployee := good
	noEmployee.ID = "3"
	noEmployee.EmployeeID = ""
	outside := record("4", "A", "2024-04-01", "09:00", "17:00", attendance.StatusPresent, 8, 0)

	report := Compute(Input{
		Records:   []attendance.Record{good, badDay, noEmployee, outside},
		Employees: []attendance.Employee{employee("A", "")},
		Range:     testRange(t, "2024-03-04", "2024-03-04"),
		Now:       time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, 2, report.SkippedRecords)
	assert.Equal(t, 1, report.Summary.TotalRecords)
	assert.Equal(t, 100, report.Trend[0].AttendanceRate)
}

func TestCompute_UnknownEmployeesStayOutOfDepartmentRollups(t *testing.T) {
	records := []attendance.Record{
		record("1", "GHOST", "2024-03-04", "09:00", "17:00", attendance.StatusPresent, 8, 0),
	}
	report := Compute(Input{
		Records:   records,
		Employees: []attendance.Employee{employee("A", "Ops")},
		Range:     testRange(t, "2024-03-04", "2024-03-04"),
		Now:       time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, 1, report.Summary.TotalRecords)
	assert.Equal(t, 1, report.Summary.AbsentCount)
	assert.Equal(t, 0, report.Summary.PresentCount)
	assert.Equal(t, 0, report.Trend[0].PresentCount)
	assert.Equal(t, 0, report.Trend[0].AttendanceRate)
	require.Len(t, report.DepartmentRanking, 1)
	assert.Equal(t, 0, report.DepartmentRanking[0].AttendanceRate)
}

func TestCompute_StrayRecordDoesNotHideRosterAbsence(t *testing.T) {
	records := []attendance.Record{
		record("1", "A", "2024-03-04", "09:00", "17:00", attendance.StatusPresent, 8, 0),
		record("2", "GHOST", "2024-03-04", "09:30", "17:00", attendance.StatusLate, 7.5, 0.5),
	}
	report := Compute(Input{
		Records:   records,
		Employees: []attendance.Employee{employee("A", "Ops"), employee("B", "Ops")},
		Range:     testRange(t, "2024-03-04", "2024-03-04"),
		Now:       time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, 1, report.Summary.AbsentCount)
	assert.Equal(t, 1, bucketCount(report.StatusDistribution, "absent"))
	require.Len(t, report.Trend, 1)
	assert.Equal(t, 1, report.Trend[0].PresentCount)
	assert.Equal(t, 0, report.Trend[0].LateCount)
	assert.Equal(t, 50, report.Trend[0].AttendanceRate)

	// Unmatched records still feed the record totals.
	assert.Equal(t, 2, report.Summary.TotalRecords)
	assert.Equal(t, 1, report.Summary.LateCount)
	assert.Equal(t, 1, bucketCount(report.StatusDistribution, "late"))
	assert.InDelta(t, 0.5, report.Summary.TotalOvertime, 0.0001)
	require.Len(t, report.DepartmentRanking, 1)
	assert.Equal(t, 50, report.DepartmentRanking[0].AttendanceRate)
}

func TestDepartmentRanking_StableOnTies(t *testing.T) {
	employees := []attendance.Employee{
		employee("A", "Finance"),
		employee("B", "Engineering"),
		employee("C", "Operations"),
		employee("D", "HR"),
		employee("E", "Engineering"),
		employee("F", ""),
	}
	withRecords := map[string]struct{}{"A": {}, "B": {}, "C": {}, "E": {}}

	ranking := DepartmentRanking(employees, withRecords, 1)

	got := make([]string, 0, len(ranking))
	for _, r := range ranking {
		got = append(got, fmt.Sprintf("%s=%d", r.Department, r.AttendanceRate))
	}
	assert.Equal(t, []string{"Finance=100", "Engineering=100", "Operations=100", "HR=0"}, got)
}

func TestCurrentlyIn_UsesViewerToday(t *testing.T) {
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	today := []attendance.Record{
		record("1", "A", "2024-03-10", "08:00", "", attendance.StatusOngoing, 0, 0),
		record("2", "B", "2024-03-10", "08:30", "", attendance.StatusOngoing, 0, 0),
		record("3", "C", "2024-03-10", "07:00", "09:00", attendance.StatusEarlyLeave, 2, 0),
		record("4", "D", "2024-03-09", "08:00", "", attendance.StatusOngoing, 0, 0),
	}
	empty := ""
	today[1].CheckOut = &empty

	assert.Equal(t, 2, CurrentlyIn(today, now))

	rangeRecords := []attendance.Record{
		record("5", "A", "2024-03-04", "08:00", "", attendance.StatusOngoing, 0, 0),
	}
	report := Compute(Input{
		Records:      rangeRecords,
		Employees:    []attendance.Employee{employee("A", "")},
		Range:        testRange(t, "2024-03-04", "2024-03-05"),
		Now:          now,
		TodayRecords: today,
	})
	assert.Equal(t, 2, report.Summary.CurrentlyIn)

	report = Compute(Input{
		Records:   rangeRecords,
		Employees: []attendance.Employee{employee("A", "")},
		Range:     testRange(t, "2024-03-04", "2024-03-05"),
		Now:       now,
	})
	assert.Equal(t, 0, report.Summary.CurrentlyIn)
}

func TestPercent(t *testing.T) {
	for total := 0; total <= 20; total++ {
		for present := 0; present <= total; present++ {
			got := percent(present, total)
			if total == 0 {
				assert.Equal(t, 0.0, got)
				continue
			}
			assert.InDelta(t, float64(present)/float64(total)*100, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	}
}
