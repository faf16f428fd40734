package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stechuhr/attendance-engine/engine"
)

// =============================================================================
// DATE MATH TESTS
// =============================================================================

func TestEachDay_InclusiveRange(t *testing.T) {
	start := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)

	days := engine.EachDay(start, end)

	require.Len(t, days, 3)
	assert.Equal(t, "2024-06-10", engine.DayKey(days[0]))
	assert.Equal(t, "2024-06-12", engine.DayKey(days[2]))
}

func TestEachDay_SingleDay(t *testing.T) {
	day := time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

	days := engine.EachDay(day, day)

	require.Len(t, days, 1)
}

func TestEachDay_EndBeforeStart_Empty(t *testing.T) {
	start := time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, engine.EachDay(start, end))
}

func TestDaysBetween_Signs(t *testing.T) {
	a := time.Date(2024, time.June, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.June, 6, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, -4, engine.DaysBetween(a, b))
	assert.Equal(t, 4, engine.DaysBetween(b, a))
	assert.Equal(t, 0, engine.DaysBetween(a, a))
}

func TestDayEnd_LastMillisecondOfDay(t *testing.T) {
	day := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

	end := engine.DayEnd(day)

	assert.Equal(t, "2024-06-10", engine.DayKey(end))
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Second())
}

func TestParseDate_Valid(t *testing.T) {
	got, err := engine.ParseDate("2024-06-10")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Malformed(t *testing.T) {
	for _, input := range []string{"", "10.06.2024", "2024-13-01", "not-a-date"} {
		_, err := engine.ParseDate(input)
		assert.True(t, engine.IsValidation(err), "input %q", input)
	}
}

func TestParseClock_Formats(t *testing.T) {
	h, m, err := engine.ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8, h)
	assert.Equal(t, 30, m)

	h, m, err = engine.ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23, h)
	assert.Equal(t, 59, m)

	_, _, err = engine.ParseClock("25:00")
	assert.True(t, engine.IsValidation(err))

	_, _, err = engine.ParseClock("08:00:30")
	assert.True(t, engine.IsValidation(err), "seconds are not minute-grained")

	_, _, err = engine.ParseClock("8:30")
	assert.True(t, engine.IsValidation(err), "hours must be zero-padded")
}

// =============================================================================
// WORKING DAY AND HOLIDAY TESTS
// =============================================================================

func TestParseWorkingDaySet_DefaultAndCustom(t *testing.T) {
	monday := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC)

	std := engine.ParseWorkingDaySet("")
	assert.True(t, std.Contains(monday))
	assert.False(t, std.Contains(saturday))

	withSat := engine.ParseWorkingDaySet("mon, tue, wed, thu, fri, sat")
	assert.True(t, withSat.Contains(saturday))
}

func TestIsWorkingDay_HolidayExcluded(t *testing.T) {
	monday := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	working := engine.ParseWorkingDaySet("")
	holidays := engine.NewHolidaySet([]engine.Holiday{{Date: monday, Name: "Pfingstmontag"}})

	assert.False(t, engine.IsWorkingDay(monday, working, holidays))
	assert.True(t, engine.IsWorkingDay(monday.AddDate(0, 0, 1), working, holidays))
}

func TestCountVacationDaysInRange_WeekdayRule(t *testing.T) {
	// GIVEN: Fri 2024-06-07 through Mon 2024-06-10, Monday a holiday
	// WHEN: Counting vacation days
	// THEN: Only the Friday counts; weekend and holiday are free

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{Date: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), Name: "Pfingstmontag"},
	})
	start := time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, engine.CountVacationDaysInRange(start, end, holidays))
}
