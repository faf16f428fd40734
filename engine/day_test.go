package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stechuhr/attendance-engine/engine"
)

// =============================================================================
// BREAK RULE TESTS
// =============================================================================

func TestApplyAutoBreak_AtThreshold_Deducted(t *testing.T) {
	// GIVEN: 480 gross minutes, break after 6 hours, 30 minute break
	// WHEN: Applying the automatic break
	// THEN: 450 net minutes remain

	cfg := engine.DefaultConfig()

	assert.Equal(t, int64(450), engine.ApplyAutoBreak(480, cfg))
}

func TestApplyAutoBreak_BelowThreshold_NoDeduction(t *testing.T) {
	cfg := engine.DefaultConfig()

	assert.Equal(t, int64(300), engine.ApplyAutoBreak(300, cfg))
}

func TestApplyAutoBreak_ExactThreshold_Deducted(t *testing.T) {
	// GIVEN: Gross minutes exactly at the 6 hour threshold
	// WHEN: Applying the break
	// THEN: The deduction applies (threshold is inclusive)

	cfg := engine.DefaultConfig()

	assert.Equal(t, int64(330), engine.ApplyAutoBreak(360, cfg))
}

func TestApplyAutoBreak_NeverNegative(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.AutoBreakAfterHours = decimal.NewFromInt(0)
	cfg.AutoBreakMinutes = 30

	assert.Equal(t, int64(0), engine.ApplyAutoBreak(10, cfg))
	assert.Equal(t, int64(0), engine.ApplyAutoBreak(0, cfg))
}

// =============================================================================
// DAY ACCOUNTANT TESTS
// =============================================================================

func dayInput(grossMinutes int64) engine.DayInput {
	return engine.DayInput{
		Date:         testDay, // Monday 2024-06-10
		User:         engine.User{ID: "user-1", TimeTrackingEnabled: true},
		GrossMinutes: grossMinutes,
		Holidays:     engine.HolidaySet{},
	}
}

func TestAccountDay_Workday_PlannedAndWorked(t *testing.T) {
	// GIVEN: A Monday with 480 gross minutes and default config
	// WHEN: Accounting the day
	// THEN: Planned 8h, worked 7.5h after the automatic break

	cfg := engine.DefaultConfig()
	rec := engine.AccountDay(dayInput(480), cfg)

	assert.True(t, rec.PlannedHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, rec.WorkedHours.Equal(decimal.NewFromFloat(7.5)))
	assert.Equal(t, int64(450), rec.NetMinutes)
	assert.False(t, rec.IsWeekend)
	assert.False(t, rec.IsHoliday)
}

func TestAccountDay_Weekend_NoPlannedHours(t *testing.T) {
	// GIVEN: A Saturday with clocked time
	// WHEN: Accounting the day
	// THEN: Planned hours are zero, worked hours still count

	cfg := engine.DefaultConfig()
	saturday := time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC)
	in := dayInput(240)
	in.Date = saturday

	rec := engine.AccountDay(in, cfg)

	assert.True(t, rec.PlannedHours.IsZero())
	assert.True(t, rec.WorkedHours.Equal(decimal.NewFromInt(4)))
	assert.True(t, rec.IsWeekend)
}

func TestAccountDay_Holiday_NoPlannedHours(t *testing.T) {
	cfg := engine.DefaultConfig()
	in := dayInput(0)
	in.Holidays = engine.NewHolidaySet([]engine.Holiday{{Date: testDay, Name: "Pfingstmontag"}})

	rec := engine.AccountDay(in, cfg)

	assert.True(t, rec.PlannedHours.IsZero())
	assert.True(t, rec.IsHoliday)
}

func TestAccountDay_BreakCredit_AddedAfterDeduction(t *testing.T) {
	// GIVEN: 480 gross minutes and a 30 minute break credit
	// WHEN: Accounting the day
	// THEN: The credit restores the deducted break

	cfg := engine.DefaultConfig()
	in := dayInput(480)
	in.BreakCredits = []engine.BreakCredit{{UserID: "user-1", Date: testDay, Minutes: 30}}

	rec := engine.AccountDay(in, cfg)

	assert.Equal(t, int64(480), rec.NetMinutes)
	assert.True(t, rec.WorkedHours.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, int64(30), rec.BreakCreditMinutes)
}

func TestAccountDay_NegativeCredit_FlooredAtZero(t *testing.T) {
	cfg := engine.DefaultConfig()
	in := dayInput(60)
	in.BreakCredits = []engine.BreakCredit{{UserID: "user-1", Date: testDay, Minutes: -120}}

	rec := engine.AccountDay(in, cfg)

	assert.Equal(t, int64(0), rec.NetMinutes)
	assert.True(t, rec.WorkedHours.IsZero())
}

func TestAccountDay_UserDailyHours_OverridesDefault(t *testing.T) {
	// GIVEN: A user with individual 6 hour days
	// WHEN: Accounting a workday
	// THEN: Planned hours come from the user, not the config

	cfg := engine.DefaultConfig()
	six := decimal.NewFromInt(6)
	in := dayInput(0)
	in.User.DailyWorkHours = &six

	rec := engine.AccountDay(in, cfg)

	assert.True(t, rec.PlannedHours.Equal(six))
}

func TestAccountDay_SickWorkday_PlannedCountsAsWorked(t *testing.T) {
	// GIVEN: A sick Monday with no clock events
	// WHEN: Accounting the day
	// THEN: Worked hours equal planned hours, keeping the day overtime-neutral

	cfg := engine.DefaultConfig()
	in := dayInput(0)
	in.IsSick = true

	rec := engine.AccountDay(in, cfg)

	assert.True(t, rec.WorkedHours.Equal(rec.PlannedHours))
	assert.Equal(t, int64(480), rec.NetMinutes)
	assert.True(t, rec.IsSick)
}

func TestAccountDay_SickWeekend_NothingCredited(t *testing.T) {
	cfg := engine.DefaultConfig()
	in := dayInput(0)
	in.Date = time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC) // Sunday
	in.IsSick = true

	rec := engine.AccountDay(in, cfg)

	assert.True(t, rec.WorkedHours.IsZero())
}

func TestAccountDay_ManualCorrection_Flagged(t *testing.T) {
	cfg := engine.DefaultConfig()
	in := dayInput(60)
	in.Entries = []engine.TimeEntry{
		{Type: engine.ClockIn, OccurredAt: at(testDay, 8, 0), IsManualCorrection: true, Source: engine.SourceManualCorrection},
		{Type: engine.ClockOut, OccurredAt: at(testDay, 9, 0), IsManualCorrection: true, Source: engine.SourceManualCorrection},
	}

	rec := engine.AccountDay(in, cfg)

	assert.True(t, rec.HasManualCorrection)
}
