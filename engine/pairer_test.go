package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stechuhr/attendance-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func clockEntry(typ engine.EntryType, t time.Time) engine.TimeEntry {
	return engine.TimeEntry{
		UserID:     "user-1",
		Type:       typ,
		OccurredAt: t,
		Source:     engine.SourceWeb,
	}
}

var testDay = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

// =============================================================================
// PAIRING TESTS
// =============================================================================

func TestPairEntries_TwoIntervals_SameDay(t *testing.T) {
	// GIVEN: IN 08:00, OUT 12:00, IN 13:00, OUT 17:00 on one day
	// WHEN: Pairing the entries
	// THEN: Gross minutes for the day are 480 (4h + 4h)

	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 8, 0)),
		clockEntry(engine.ClockOut, at(testDay, 12, 0)),
		clockEntry(engine.ClockIn, at(testDay, 13, 0)),
		clockEntry(engine.ClockOut, at(testDay, 17, 0)),
	}

	result := engine.PairEntries(entries)

	assert.Equal(t, int64(480), result.GrossMinutes(testDay))
	assert.False(t, result.CrossesMidnight(testDay))
}

func TestPairEntries_UnorderedInput_SortedBeforePairing(t *testing.T) {
	// GIVEN: The same entries handed over out of order
	// WHEN: Pairing
	// THEN: The result matches the chronological pairing

	entries := []engine.TimeEntry{
		clockEntry(engine.ClockOut, at(testDay, 17, 0)),
		clockEntry(engine.ClockIn, at(testDay, 8, 0)),
		clockEntry(engine.ClockIn, at(testDay, 13, 0)),
		clockEntry(engine.ClockOut, at(testDay, 12, 0)),
	}

	result := engine.PairEntries(entries)

	assert.Equal(t, int64(480), result.GrossMinutes(testDay))
}

func TestPairEntries_DuplicateClockIn_OverwritesOpenSlot(t *testing.T) {
	// GIVEN: IN 08:00, IN 09:00, OUT 10:00
	// WHEN: Pairing
	// THEN: The second IN overwrites the first; gross minutes = 60

	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 8, 0)),
		clockEntry(engine.ClockIn, at(testDay, 9, 0)),
		clockEntry(engine.ClockOut, at(testDay, 10, 0)),
	}

	result := engine.PairEntries(entries)

	assert.Equal(t, int64(60), result.GrossMinutes(testDay))
}

func TestPairEntries_ClockOutWithoutOpenIn_Ignored(t *testing.T) {
	// GIVEN: A lone OUT followed by a regular IN/OUT pair
	// WHEN: Pairing
	// THEN: Only the pair contributes minutes

	entries := []engine.TimeEntry{
		clockEntry(engine.ClockOut, at(testDay, 7, 0)),
		clockEntry(engine.ClockIn, at(testDay, 8, 0)),
		clockEntry(engine.ClockOut, at(testDay, 9, 30)),
	}

	result := engine.PairEntries(entries)

	assert.Equal(t, int64(90), result.GrossMinutes(testDay))
}

func TestPairEntries_TrailingOpenIn_YieldsNoMinutes(t *testing.T) {
	// GIVEN: A closed pair and a trailing open IN
	// WHEN: Pairing
	// THEN: The open shift is not counted yet

	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 8, 0)),
		clockEntry(engine.ClockOut, at(testDay, 12, 0)),
		clockEntry(engine.ClockIn, at(testDay, 13, 0)),
	}

	result := engine.PairEntries(entries)

	assert.Equal(t, int64(240), result.GrossMinutes(testDay))
}

func TestPairEntries_CrossMidnight_CreditedToStartDay(t *testing.T) {
	// GIVEN: IN 22:00 on day one, OUT 02:00 on day two
	// WHEN: Pairing
	// THEN: All 240 minutes land on day one and the day is flagged

	nextDay := testDay.AddDate(0, 0, 1)
	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 22, 0)),
		clockEntry(engine.ClockOut, at(nextDay, 2, 0)),
	}

	result := engine.PairEntries(entries)

	assert.Equal(t, int64(240), result.GrossMinutes(testDay))
	assert.Equal(t, int64(0), result.GrossMinutes(nextDay))
	assert.True(t, result.CrossesMidnight(testDay))
	assert.False(t, result.CrossesMidnight(nextDay))
}

func TestPairEntries_SubMinuteRemainder_Floored(t *testing.T) {
	// GIVEN: An interval of 59 minutes 59 seconds
	// WHEN: Pairing
	// THEN: Only whole minutes are credited

	out := at(testDay, 9, 0).Add(-time.Second)
	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 8, 0)),
		clockEntry(engine.ClockOut, out),
	}

	result := engine.PairEntries(entries)

	assert.Equal(t, int64(59), result.GrossMinutes(testDay))
}

func TestPairEntries_Empty(t *testing.T) {
	result := engine.PairEntries(nil)

	assert.Empty(t, result.MinutesByDay)
	assert.Empty(t, result.CrossMidnightStartDays)
}

// =============================================================================
// LONG SHIFT DETECTION
// =============================================================================

func TestHasShiftLongerThan_ThirteenHourShift_Detected(t *testing.T) {
	// GIVEN: IN 06:00, OUT 19:30 (13.5 hours)
	// WHEN: Checking against the 12 hour limit
	// THEN: The shift is flagged

	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 6, 0)),
		clockEntry(engine.ClockOut, at(testDay, 19, 30)),
	}

	assert.True(t, engine.HasShiftLongerThan(entries, 12*time.Hour))
}

func TestHasShiftLongerThan_NormalDay_NotFlagged(t *testing.T) {
	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 8, 0)),
		clockEntry(engine.ClockOut, at(testDay, 17, 0)),
	}

	assert.False(t, engine.HasShiftLongerThan(entries, 12*time.Hour))
}

func TestHasShiftLongerThan_OpenShift_NotFlagged(t *testing.T) {
	// GIVEN: An IN with no matching OUT
	// WHEN: Checking the limit
	// THEN: No alert; only closed pairs count

	entries := []engine.TimeEntry{
		clockEntry(engine.ClockIn, at(testDay, 6, 0)),
	}

	assert.False(t, engine.HasShiftLongerThan(entries, 12*time.Hour))
}
