package engine

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DAY KEYS AND DATE MATH
// =============================================================================
// All calendar arithmetic is done at UTC midnight, stepped by whole days.
// A day key is the ISO date string "2006-01-02"; it is the canonical map key
// for anything grouped by day.

const dayKeyLayout = "2006-01-02"

// DayKey returns the ISO date key for the UTC day containing t.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

// DateOnly truncates t to UTC midnight.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a strict "YYYY-MM-DD" date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s)}
	}
	return t, nil
}

// ParseClock parses a strict "HH:MM" wall-clock time into hour and minute.
// Override events are minute-grained; a seconds component rejects.
func ParseClock(s string) (hour, minute int, err error) {
	t, e := time.Parse("15:04", s)
	if e != nil || len(s) != len("15:04") {
		return 0, 0, &ValidationError{Field: "time", Message: fmt.Sprintf("invalid time %q (use HH:MM)", s)}
	}
	return t.Hour(), t.Minute(), nil
}

// DayStart returns the inclusive start of the UTC day containing t.
func DayStart(t time.Time) time.Time { return DateOnly(t) }

// DayEnd returns the inclusive end of the UTC day containing t,
// 23:59:59.999.
func DayEnd(t time.Time) time.Time {
	return DateOnly(t).Add(24*time.Hour - time.Millisecond)
}

// DaysBetween returns the number of whole days from a to b (negative when b
// is before a). Both are truncated to their UTC day first.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// EachDay returns every UTC day in [start, end] inclusive, day-stepped.
// Returns nil when end is before start.
func EachDay(start, end time.Time) []time.Time {
	var days []time.Time
	for d := DateOnly(start); !d.After(DateOnly(end)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MonthStart returns UTC midnight on the first day of the month.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the inclusive end of the month's last day.
func MonthEnd(year int, month time.Month) time.Time {
	return MonthStart(year, month).AddDate(0, 1, 0).Add(-time.Millisecond)
}

// LastDayOfMonth returns the day number (28..31) of the month's last day.
func LastDayOfMonth(year int, month time.Month) int {
	return MonthStart(year, month).AddDate(0, 1, -1).Day()
}

// YearStart and YearEnd bound a calendar year inclusively.
func YearStart(year int) time.Time { return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC) }
func YearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 23, 59, 59, 999000000, time.UTC)
}

// =============================================================================
// HOLIDAY AND WORKING-DAY SETS
// =============================================================================

// HolidaySet is a day-key lookup built from holiday rows.
type HolidaySet map[string]struct{}

// NewHolidaySet indexes holidays by day key.
func NewHolidaySet(holidays []Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[DayKey(h.Date)] = struct{}{}
	}
	return set
}

// Contains reports whether t's day is a holiday.
func (s HolidaySet) Contains(t time.Time) bool {
	_, ok := s[DayKey(t)]
	return ok
}

// WorkingDaySet holds the weekdays that count as working days.
type WorkingDaySet map[time.Weekday]struct{}

var dayCodes = map[string]time.Weekday{
	"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
	"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
}

// ParseWorkingDaySet parses a comma-separated day-code list such as
// "MON,TUE,WED,THU,FRI". Unknown codes are ignored; an empty input yields
// the Monday-to-Friday default.
func ParseWorkingDaySet(value string) WorkingDaySet {
	if value == "" {
		value = "MON,TUE,WED,THU,FRI"
	}
	set := make(WorkingDaySet)
	for _, part := range strings.Split(value, ",") {
		if wd, ok := dayCodes[strings.ToUpper(strings.TrimSpace(part))]; ok {
			set[wd] = struct{}{}
		}
	}
	return set
}

// Contains reports whether t's weekday is a working day.
func (s WorkingDaySet) Contains(t time.Time) bool {
	_, ok := s[t.UTC().Weekday()]
	return ok
}

var codeOrder = []struct {
	Day  time.Weekday
	Code string
}{
	{time.Monday, "MON"}, {time.Tuesday, "TUE"}, {time.Wednesday, "WED"},
	{time.Thursday, "THU"}, {time.Friday, "FRI"}, {time.Saturday, "SAT"},
	{time.Sunday, "SUN"},
}

// Codes renders the set back to its comma-separated day-code form, Monday
// first. The inverse of ParseWorkingDaySet for well-formed inputs.
func (s WorkingDaySet) Codes() string {
	codes := make([]string, 0, len(s))
	for _, c := range codeOrder {
		if _, ok := s[c.Day]; ok {
			codes = append(codes, c.Code)
		}
	}
	return strings.Join(codes, ",")
}

// IsWorkingDay reports whether the date is in the working-day set and not a
// holiday. This is the planned-hours rule.
func IsWorkingDay(t time.Time, working WorkingDaySet, holidays HolidaySet) bool {
	return working.Contains(t) && !holidays.Contains(t)
}

// CountWorkingDaysInRange counts working-day-set, non-holiday days in the
// inclusive range. Used for planned-hours style calculations.
func CountWorkingDaysInRange(start, end time.Time, working WorkingDaySet, holidays HolidaySet) int {
	count := 0
	for _, d := range EachDay(start, end) {
		if IsWorkingDay(d, working, holidays) {
			count++
		}
	}
	return count
}

// CountVacationDaysInRange counts weekday, non-holiday days in the inclusive
// range. Vacation consumption deliberately uses the Monday-to-Friday weekday
// rule rather than the configured working-day set.
func CountVacationDaysInRange(start, end time.Time, holidays HolidaySet) int {
	count := 0
	for _, d := range EachDay(start, end) {
		if !IsWeekend(d) && !holidays.Contains(d) {
			count++
		}
	}
	return count
}
