/*
month.go - Calendar-month aggregation

Runs the day accountant once per calendar day of a month and accumulates the
planned and worked totals. Months with no clock events at all still yield a
full day list with zero worked hours; reporting never depends on the presence
of entries.

For users with time tracking disabled, worked hours mirror planned hours day
by day so the month view stays neutral.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthView is the aggregated result for one user and calendar month.
type MonthView struct {
	Year         int             `json:"year"`
	Month        time.Month      `json:"month"`
	PlannedHours decimal.Decimal `json:"plannedHours"`
	WorkedHours  decimal.Decimal `json:"workedHours"`
	Days         []DayRecord     `json:"days"`
}

// MonthInput carries the stored state for one user's month.
type MonthInput struct {
	User         User
	Year         int
	Month        time.Month
	Entries      []TimeEntry
	BreakCredits []BreakCredit
	Holidays     HolidaySet
	SickDays     map[string]struct{}
}

// AccountMonth computes the per-day records and totals for a month.
func AccountMonth(in MonthInput, cfg Config) MonthView {
	first := MonthStart(in.Year, in.Month)
	last := MonthEnd(in.Year, in.Month)

	paired := PairEntries(in.Entries)
	byDay := GroupByDay(in.Entries)
	creditsByDay := make(map[string][]BreakCredit)
	for _, c := range in.BreakCredits {
		key := DayKey(c.Date)
		creditsByDay[key] = append(creditsByDay[key], c)
	}

	view := MonthView{
		Year:         in.Year,
		Month:        in.Month,
		PlannedHours: decimal.Zero,
		WorkedHours:  decimal.Zero,
	}

	for _, day := range EachDay(first, last) {
		key := DayKey(day)
		_, sick := in.SickDays[key]
		rec := AccountDay(DayInput{
			Date:            day,
			User:            in.User,
			Entries:         byDay[key],
			GrossMinutes:    paired.MinutesByDay[key],
			CrossesMidnight: paired.CrossesMidnight(day),
			BreakCredits:    creditsByDay[key],
			Holidays:        in.Holidays,
			IsSick:          sick,
		}, cfg)

		if !in.User.TimeTrackingEnabled {
			rec.WorkedHours = rec.PlannedHours
			rec.NetMinutes = rec.PlannedHours.Mul(decimal.NewFromInt(60)).IntPart()
		}

		view.PlannedHours = view.PlannedHours.Add(rec.PlannedHours)
		view.WorkedHours = view.WorkedHours.Add(rec.WorkedHours)
		view.Days = append(view.Days, rec)
	}

	view.PlannedHours = Round2(view.PlannedHours)
	view.WorkedHours = Round2(view.WorkedHours)
	return view
}
