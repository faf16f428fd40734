package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stechuhr/attendance-engine/engine"
)

// =============================================================================
// MONTH ACCOUNTANT TESTS
// =============================================================================

func TestAccountMonth_EmptyMonth_FullDayListZeroWorked(t *testing.T) {
	// GIVEN: A month with no clock events at all
	// WHEN: Accounting June 2024
	// THEN: All 30 days are present with zero worked hours; planned hours
	//       cover the 19 working days (20 weekdays minus one holiday)

	cfg := engine.DefaultConfig()
	holidays := engine.NewHolidaySet([]engine.Holiday{
		{Date: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), Name: "Betriebsfeiertag"},
	})

	view := engine.AccountMonth(engine.MonthInput{
		User:     engine.User{ID: "user-1", TimeTrackingEnabled: true},
		Year:     2024,
		Month:    time.June,
		Holidays: holidays,
	}, cfg)

	require.Len(t, view.Days, 30)
	assert.True(t, view.WorkedHours.IsZero())
	assert.True(t, view.PlannedHours.Equal(decimal.NewFromInt(19*8)))
}

func TestAccountMonth_Totals_SumOfDays(t *testing.T) {
	// GIVEN: Two full workdays of clock events in June 2024
	// WHEN: Accounting the month
	// THEN: Worked total is the sum of both days' net hours

	cfg := engine.DefaultConfig()
	mon := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)

	view := engine.AccountMonth(engine.MonthInput{
		User:  engine.User{ID: "user-1", TimeTrackingEnabled: true},
		Year:  2024,
		Month: time.June,
		Entries: []engine.TimeEntry{
			clockEntry(engine.ClockIn, at(mon, 8, 0)),
			clockEntry(engine.ClockOut, at(mon, 16, 0)),
			clockEntry(engine.ClockIn, at(tue, 8, 0)),
			clockEntry(engine.ClockOut, at(tue, 16, 0)),
		},
		Holidays: engine.HolidaySet{},
	}, cfg)

	// 480 gross minutes per day, 30 minute break each
	assert.True(t, view.WorkedHours.Equal(decimal.NewFromInt(15)), "got %s", view.WorkedHours)
}

func TestAccountMonth_TrackingDisabled_WorkedMirrorsPlanned(t *testing.T) {
	// GIVEN: A user with time tracking disabled and no clock events
	// WHEN: Accounting the month
	// THEN: Every day's worked hours equal its planned hours

	cfg := engine.DefaultConfig()

	view := engine.AccountMonth(engine.MonthInput{
		User:     engine.User{ID: "user-1", TimeTrackingEnabled: false},
		Year:     2024,
		Month:    time.June,
		Holidays: engine.HolidaySet{},
	}, cfg)

	assert.True(t, view.WorkedHours.Equal(view.PlannedHours))
	for _, day := range view.Days {
		assert.True(t, day.WorkedHours.Equal(day.PlannedHours))
	}
}

func TestAccountMonth_SickDays_CountPlannedOnWorkdays(t *testing.T) {
	cfg := engine.DefaultConfig()
	sick := map[string]struct{}{
		"2024-06-10": {}, // Monday
		"2024-06-09": {}, // Sunday
	}

	view := engine.AccountMonth(engine.MonthInput{
		User:     engine.User{ID: "user-1", TimeTrackingEnabled: true},
		Year:     2024,
		Month:    time.June,
		Holidays: engine.HolidaySet{},
		SickDays: sick,
	}, cfg)

	assert.True(t, view.WorkedHours.Equal(decimal.NewFromInt(8)), "only the sick Monday credits hours")
}

func TestAccountMonth_CrossMidnightEntries_CreditedToStartDayWithinMonth(t *testing.T) {
	// GIVEN: A shift from June 10 22:00 into June 11 02:00
	// WHEN: Accounting June
	// THEN: June 10 carries all 4 hours and is flagged; June 11 carries none

	cfg := engine.DefaultConfig()
	mon := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	view := engine.AccountMonth(engine.MonthInput{
		User:  engine.User{ID: "user-1", TimeTrackingEnabled: true},
		Year:  2024,
		Month: time.June,
		Entries: []engine.TimeEntry{
			clockEntry(engine.ClockIn, at(mon, 22, 0)),
			clockEntry(engine.ClockOut, at(mon.AddDate(0, 0, 1), 2, 0)),
		},
		Holidays: engine.HolidaySet{},
	}, cfg)

	day10 := view.Days[9]
	day11 := view.Days[10]
	assert.True(t, day10.WorkedHours.Equal(decimal.NewFromInt(4)))
	assert.True(t, day10.CrossesMidnight)
	assert.True(t, day11.WorkedHours.IsZero())
}
