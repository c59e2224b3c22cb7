package analytics

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/analytics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/dateutil"
)

// StatusUnknown groups records that arrive without a status.
const StatusUnknown = "unknown"

// statusOrder fixes the order of distribution buckets. Statuses outside this
// list follow in discovery order.
var statusOrder = []string{
	string(attendance.StatusPresent),
	string(attendance.StatusLate),
	string(attendance.StatusEarlyLeave),
	string(attendance.StatusOngoing),
	string(attendance.StatusOvertime),
	string(attendance.StatusAbsent),
}

type overtimeRange struct {
	label    string
	min, max float64
}

// overtimeRanges are lower-exclusive, upper-inclusive, in hours.
var overtimeRanges = []overtimeRange{
	{"0-1h", 0, 1},
	{"1-2h", 1, 2},
	{"2-4h", 2, 4},
	{"4h+", 4, 24},
}

// Input is everything a report is derived from. Now is passed explicitly so
// the currently-in count stays deterministic.
type Input struct {
	Records   []attendance.Record
	Employees []attendance.Employee
	Range     dateutil.Range
	Now       time.Time
	// TodayRecords feeds the currently-in count; nil means Records.
	TodayRecords []attendance.Record
}

type dayRecord struct {
	attendance.Record
	day string
}

type employeeDay struct {
	employeeID string
	day        string
}

type dayAggregate struct {
	present map[string]struct{}
	late    int
}

// Compute derives the full analytics report. It never fails: malformed
// records are logged and skipped, empty inputs produce zero metrics.
func Compute(in Input) analytics.Report {
	days := in.Range.Days()
	numDays := len(days)
	totalEmployees := len(in.Employees)

	records, skipped := normalizeRecords(in.Records, in.Range)

	roster := make(map[string]struct{}, totalEmployees)
	for _, emp := range in.Employees {
		roster[emp.EmployeeID] = struct{}{}
	}

	byDay := make(map[string]*dayAggregate, numDays)
	statusCounts := make(map[string]int)
	var extraStatuses []string
	pairs := make(map[employeeDay]struct{}, len(records))
	withRecords := make(map[string]struct{})
	overtimeCounts := make([]int, len(overtimeRanges))
	var workSum, overtimeSum float64
	lateTotal := 0

	for _, rec := range records {
		status := string(rec.Status)
		if status == "" {
			status = StatusUnknown
		}
		if rec.Status == attendance.StatusLate {
			lateTotal++
		}
		if _, seen := statusCounts[status]; !seen && !isOrderedStatus(status) {
			extraStatuses = append(extraStatuses, status)
		}
		statusCounts[status]++

		// Records of employees outside the roster count toward totals only.
		if _, ok := roster[rec.EmployeeID]; ok {
			agg, ok := byDay[rec.day]
			if !ok {
				agg = &dayAggregate{present: make(map[string]struct{})}
				byDay[rec.day] = agg
			}
			agg.present[rec.EmployeeID] = struct{}{}
			if rec.Status == attendance.StatusLate {
				agg.late++
			}
			pairs[employeeDay{rec.EmployeeID, rec.day}] = struct{}{}
			withRecords[rec.EmployeeID] = struct{}{}
		}

		if i := overtimeBucket(rec.Overtime); i >= 0 {
			overtimeCounts[i]++
		}
		workSum += rec.ActualWork
		overtimeSum += rec.Overtime
	}

	trend := make([]analytics.TrendRow, 0, numDays)
	var attendanceRateSum, lateRateSum float64
	for _, d := range days {
		key := dateutil.DayKey(d)
		present, late := 0, 0
		if agg, ok := byDay[key]; ok {
			present = len(agg.present)
			late = agg.late
		}
		attendanceRate := percent(present, totalEmployees)
		lateRate := percent(late, present)
		attendanceRateSum += attendanceRate
		lateRateSum += lateRate

		trend = append(trend, analytics.TrendRow{
			Date:           key,
			PresentCount:   present,
			LateCount:      late,
			AttendanceRate: int(math.Round(attendanceRate)),
			LateRate:       int(math.Round(lateRate)),
		})
	}

	absent := totalEmployees*numDays - len(pairs)
	if absent < 0 {
		absent = 0
	}

	summary := analytics.Summary{
		TotalOvertime:  roundTo(overtimeSum, 2),
		TotalRecords:   len(records),
		TotalEmployees: totalEmployees,
		NumberOfDays:   numDays,
		PresentCount:   len(pairs),
		LateCount:      lateTotal,
		AbsentCount:    absent,
		CurrentlyIn:    CurrentlyIn(in.todayRecords(), in.Now),
	}
	if numDays > 0 {
		summary.AvgAttendanceRate = roundTo(attendanceRateSum/float64(numDays), 1)
		summary.AvgLateRate = roundTo(lateRateSum/float64(numDays), 1)
	}
	if len(records) > 0 {
		summary.AvgWorkHours = roundTo(workSum/float64(len(records)), 2)
	}

	return analytics.Report{
		StartDate:            dateutil.DayKey(in.Range.Start),
		EndDate:              dateutil.DayKey(in.Range.End),
		Trend:                trend,
		StatusDistribution:   statusDistribution(statusCounts, extraStatuses, absent),
		OvertimeDistribution: overtimeDistribution(overtimeCounts),
		Summary:              summary,
		DepartmentRanking:    DepartmentRanking(in.Employees, withRecords, numDays),
		SkippedRecords:       skipped,
	}
}

func (in Input) todayRecords() []attendance.Record {
	if in.TodayRecords != nil {
		return in.TodayRecords
	}
	return in.Records
}

// normalizeRecords keeps records with a usable employee and day key inside r.
// Records outside the range are dropped silently; malformed ones are counted.
func normalizeRecords(records []attendance.Record, r dateutil.Range) ([]dayRecord, int) {
	out := make([]dayRecord, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.EmployeeID == "" {
			slog.Warn("Skipping attendance record without employee_id", "record_id", rec.ID)
			skipped++
			continue
		}
		day, err := rec.DayKey()
		if err != nil {
			slog.Warn("Skipping attendance record with invalid check_in_date",
				"record_id", rec.ID,
				"check_in_date", rec.CheckInDate,
				"error", err)
			skipped++
			continue
		}
		if !r.Contains(day) {
			continue
		}
		out = append(out, dayRecord{Record: rec, day: day})
	}
	return out, skipped
}

// CurrentlyIn counts open sessions whose business day is now's calendar day.
// It ignores the selected range on purpose: "currently in" always means today.
func CurrentlyIn(records []attendance.Record, now time.Time) int {
	today := dateutil.DayKey(now)
	count := 0
	for _, rec := range records {
		if !rec.IsOpen() {
			continue
		}
		day, err := rec.DayKey()
		if err != nil || day != today {
			continue
		}
		count++
	}
	return count
}

// DepartmentRanking rates each department by how many of its employees have
// at least one record, against employees × days. The rate uses the current
// roster for the whole range, so mid-range joiners lower it.
func DepartmentRanking(employees []attendance.Employee, withRecords map[string]struct{}, numDays int) []analytics.DepartmentRank {
	var order []string
	members := make(map[string]map[string]struct{})
	for _, emp := range employees {
		dept := emp.DepartmentName()
		if dept == "" {
			continue
		}
		set, ok := members[dept]
		if !ok {
			set = make(map[string]struct{})
			members[dept] = set
			order = append(order, dept)
		}
		set[emp.EmployeeID] = struct{}{}
	}

	ranking := make([]analytics.DepartmentRank, 0, len(order))
	for _, dept := range order {
		present := 0
		for id := range members[dept] {
			if _, ok := withRecords[id]; ok {
				present++
			}
		}
		count := len(members[dept])
		ranking = append(ranking, analytics.DepartmentRank{
			Department:     dept,
			EmployeeCount:  count,
			PresentCount:   present,
			AttendanceRate: int(math.Round(percent(present, count*numDays))),
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].AttendanceRate > ranking[j].AttendanceRate
	})
	return ranking
}

func statusDistribution(counts map[string]int, extra []string, synthesizedAbsent int) []analytics.StatusBucket {
	counts[string(attendance.StatusAbsent)] += synthesizedAbsent

	buckets := make([]analytics.StatusBucket, 0, len(statusOrder)+len(extra))
	for _, status := range append(append([]string{}, statusOrder...), extra...) {
		if n := counts[status]; n > 0 {
			buckets = append(buckets, analytics.StatusBucket{Status: status, Count: n})
		}
	}
	return buckets
}

func overtimeDistribution(counts []int) []analytics.OvertimeBucket {
	buckets := make([]analytics.OvertimeBucket, 0, len(counts))
	for i, n := range counts {
		if n == 0 {
			continue
		}
		r := overtimeRanges[i]
		buckets = append(buckets, analytics.OvertimeBucket{Label: r.label, Min: r.min, Max: r.max, Count: n})
	}
	return buckets
}

// overtimeBucket returns the index of the (min, max] range holding hours, or
// -1 when hours is not positive or beyond the last range.
func overtimeBucket(hours float64) int {
	if !(hours > 0) {
		return -1
	}
	for i, r := range overtimeRanges {
		if hours > r.min && hours <= r.max {
			return i
		}
	}
	return -1
}

func isOrderedStatus(status string) bool {
	for _, s := range statusOrder {
		if s == status {
			return true
		}
	}
	return false
}

// percent returns n/d*100, or 0 when d is zero.
func percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
