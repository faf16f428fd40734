/*
overtime.go - Running overtime ledger

The ledger balance is the stored starting balance plus the sum of per-day
deltas (worked minus planned hours) plus manual adjustments. The current
month variant backs the personal summary view; the overview variant runs the
same per-day loop across the user's full history and partitions the sums at
the current month boundary for the supervisor screen.

Absence counts toward worked time: sick days and approved vacation days
contribute the day's planned hours as worked-equivalent, so an absence never
drains the balance.

Users with time tracking disabled report the stored balance unchanged.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// OvertimeInput carries one user's stored state for ledger computation. The
// caller supplies entries, credits, adjustments and absence days covering
// the window it wants computed.
type OvertimeInput struct {
	User         User
	Now          time.Time
	Entries      []TimeEntry
	BreakCredits []BreakCredit
	Adjustments  []OvertimeAdjustment
	Holidays     HolidaySet
	SickDays     map[string]struct{}
	// AbsenceDays holds the day keys of approved vacation leave. These days
	// are worked-equivalent on workdays, like sick days.
	AbsenceDays map[string]struct{}
}

// OvertimeSummary splits the ledger balance at the current month boundary.
type OvertimeSummary struct {
	BeforeCurrentMonth decimal.Decimal `json:"beforeCurrentMonth"`
	CurrentMonth       decimal.Decimal `json:"currentMonth"`
	Total              decimal.Decimal `json:"total"`
}

// CurrentMonthOvertime computes the balance through the current month:
// stored balance, plus each day's worked-minus-planned delta, plus the
// month's manual adjustments.
func CurrentMonthOvertime(in OvertimeInput, cfg Config) decimal.Decimal {
	stored := Round2(in.User.OvertimeBalanceHours)
	if !in.User.TimeTrackingEnabled {
		return stored
	}

	monthStart := MonthStart(in.Now.UTC().Year(), in.Now.UTC().Month())
	monthEnd := MonthEnd(in.Now.UTC().Year(), in.Now.UTC().Month())

	sum := sumDayDeltas(in, cfg, monthStart, monthEnd)
	sum = sum.Add(sumAdjustments(in.Adjustments, monthStart, monthEnd))
	return Round2(stored.Add(sum))
}

// OvertimeOverview computes the balance over the user's full history, split
// into the portion accrued before the current month and the current month
// itself. The historical loop starts at the user's earliest stored record;
// with no records at all the stored balance is reported as-is.
func OvertimeOverview(in OvertimeInput, cfg Config) OvertimeSummary {
	stored := Round2(in.User.OvertimeBalanceHours)
	if !in.User.TimeTrackingEnabled {
		return OvertimeSummary{BeforeCurrentMonth: stored, CurrentMonth: decimal.Zero, Total: stored}
	}

	now := in.Now.UTC()
	monthStart := MonthStart(now.Year(), now.Month())
	monthEnd := MonthEnd(now.Year(), now.Month())

	start, ok := earliestRecordDay(in)
	if !ok {
		return OvertimeSummary{BeforeCurrentMonth: stored, CurrentMonth: decimal.Zero, Total: stored}
	}

	before := decimal.Zero
	current := decimal.Zero
	if start.Before(monthStart) {
		before = sumDayDeltas(in, cfg, start, monthStart.AddDate(0, 0, -1))
	}
	currentStart := start
	if currentStart.Before(monthStart) {
		currentStart = monthStart
	}
	current = sumDayDeltas(in, cfg, currentStart, monthEnd)

	before = before.Add(sumAdjustments(in.Adjustments, time.Time{}, monthStart.Add(-time.Millisecond)))
	current = current.Add(sumAdjustments(in.Adjustments, monthStart, monthEnd))

	before = Round2(stored.Add(before))
	current = Round2(current)
	return OvertimeSummary{
		BeforeCurrentMonth: before,
		CurrentMonth:       current,
		Total:              Round2(before.Add(current)),
	}
}

// sumDayDeltas runs the day accountant over [start, end] and sums worked
// minus planned hours. Sick and absence days on workdays count their planned
// hours as worked.
func sumDayDeltas(in OvertimeInput, cfg Config, start, end time.Time) decimal.Decimal {
	paired := PairEntries(in.Entries)
	byDay := GroupByDay(in.Entries)
	creditsByDay := make(map[string][]BreakCredit)
	for _, c := range in.BreakCredits {
		key := DayKey(c.Date)
		creditsByDay[key] = append(creditsByDay[key], c)
	}

	sum := decimal.Zero
	for _, day := range EachDay(start, end) {
		key := DayKey(day)
		_, sick := in.SickDays[key]
		_, absent := in.AbsenceDays[key]
		rec := AccountDay(DayInput{
			Date:            day,
			User:            in.User,
			Entries:         byDay[key],
			GrossMinutes:    paired.MinutesByDay[key],
			CrossesMidnight: paired.CrossesMidnight(day),
			BreakCredits:    creditsByDay[key],
			Holidays:        in.Holidays,
			IsSick:          sick || absent,
		}, cfg)
		sum = sum.Add(rec.WorkedHours.Sub(rec.PlannedHours))
	}
	return sum
}

// sumAdjustments totals adjustments whose date falls in [start, end]. A zero
// start means unbounded on the left.
func sumAdjustments(adjustments []OvertimeAdjustment, start, end time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range adjustments {
		d := a.Date.UTC()
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if d.After(end) {
			continue
		}
		sum = sum.Add(a.Hours)
	}
	return sum
}

// earliestRecordDay finds the first day with any stored record for the user.
func earliestRecordDay(in OvertimeInput) (time.Time, bool) {
	var earliest time.Time
	consider := func(t time.Time) {
		d := DateOnly(t)
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	for _, e := range in.Entries {
		consider(e.OccurredAt)
	}
	for _, c := range in.BreakCredits {
		consider(c.Date)
	}
	for _, a := range in.Adjustments {
		consider(a.Date)
	}
	for key := range in.SickDays {
		if t, err := ParseDate(key); err == nil {
			consider(t)
		}
	}
	for key := range in.AbsenceDays {
		if t, err := ParseDate(key); err == nil {
			consider(t)
		}
	}
	if earliest.IsZero() {
		return time.Time{}, false
	}
	return earliest, true
}
