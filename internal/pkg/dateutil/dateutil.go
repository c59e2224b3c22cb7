// Package dateutil is the single place that decides which calendar day a
// timestamp belongs to. Analytics, the timeline and the month grid all join
// records to cells through DayKey, so they must never format days themselves.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the canonical business day key format (yyyy-MM-dd).
const DayLayout = "2006-01-02"

// MonthLayout is the month selector format (yyyy-MM).
const MonthLayout = "2006-01"

var ErrEmptyTimestamp = errors.New("empty timestamp")

// timestampLayouts are tried in order. Layouts without an offset are
// interpreted in the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Range is an inclusive span of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a range from two day keys in loc.
func NewRange(start, end string, loc *time.Location) (Range, error) {
	s, err := ParseDay(start, loc)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start date: %w", err)
	}
	e, err := ParseDay(end, loc)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end date: %w", err)
	}
	return Range{Start: s, End: e}, nil
}

// MonthRange returns [startOfMonth, endOfMonth] for the month containing t.
func MonthRange(t time.Time) Range {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, -1)
	return Range{Start: start, End: end}
}

// ParseMonth parses a yyyy-MM selector, falling back to the month of now
// when the value is empty.
func ParseMonth(month string, now time.Time) (Range, error) {
	if month == "" {
		return MonthRange(now), nil
	}
	t, err := time.ParseInLocation(MonthLayout, month, now.Location())
	if err != nil {
		return Range{}, err
	}
	return MonthRange(t), nil
}

// Days lists every calendar day of r, inclusive on both ends. A range whose
// end precedes its start has no days.
func (r Range) Days() []time.Time {
	start := StartOfDay(r.Start)
	end := StartOfDay(r.End)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, 31)
	// AddDate instead of Add(24h) so DST transitions never skip or repeat a day.
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// NumDays is len(r.Days()) without allocating.
func (r Range) NumDays() int {
	start := StartOfDay(r.Start)
	end := StartOfDay(r.End)
	if end.Before(start) {
		return 0
	}
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Contains reports whether the day key falls inside r.
func (r Range) Contains(key string) bool {
	return key >= DayKey(r.Start) && key <= DayKey(r.End)
}

// DayKey formats t as yyyy-MM-dd in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a yyyy-MM-dd key at midnight in loc. Keys carrying a time
// part (e.g. "2024-03-01T00:00:00Z") are truncated to their date prefix.
func ParseDay(key string, loc *time.Location) (time.Time, error) {
	key = strings.TrimSpace(key)
	if len(key) > len(DayLayout) {
		key = key[:len(DayLayout)]
	}
	return time.ParseInLocation(DayLayout, key, loc)
}

// NormalizeDayKey returns the canonical key for a raw check_in_date value.
func NormalizeDayKey(raw string) (string, error) {
	t, err := ParseDay(raw, time.UTC)
	if err != nil {
		return "", err
	}
	return DayKey(t), nil
}

// ParseTimestamp parses a wall-clock timestamp and converts it to loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrEmptyTimestamp
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.In(loc), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsToday compares calendar days in now's location.
func IsToday(t, now time.Time) bool {
	return SameDay(t.In(now.Location()), now)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MinutesBetween truncates toward zero, like a whole-minute difference.
func MinutesBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// MinuteOfDay is hours*60 + minutes of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
