/*
vacation.go - Vacation ledger and year-end rollover

Available days = carry-over + annual allotment - consumed. Consumed days are
the weekday, non-holiday days of approved vacation requests lying fully
within the year. Requests that straddle a year boundary consume nothing in
either year; the rollover of the earlier year settles them implicitly.

Rollover folds the year's unconsumed (or over-drawn) days into the carry-over
and never floors at zero: a negative balance rolls forward and is charged
against the next year's allotment. The annual allotment itself is never
touched.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedVacationDays is reported for users with time tracking disabled.
// It bypasses every vacation-depletion warning.
var UnlimitedVacationDays = decimal.NewFromInt(999999)

// ConsumedVacationDays counts the weekday, non-holiday days of approved
// vacation requests lying fully within the given year.
func ConsumedVacationDays(requests []LeaveRequest, year int, holidays HolidaySet) int {
	yearStart := YearStart(year)
	yearEnd := YearEnd(year)

	consumed := 0
	for _, r := range requests {
		if r.Kind != KindVacation || r.Status != StatusApproved {
			continue
		}
		if r.StartDate.Before(yearStart) || r.EndDate.After(yearEnd) {
			continue
		}
		consumed += CountVacationDaysInRange(r.StartDate, r.EndDate, holidays)
	}
	return consumed
}

// AvailableVacationDays computes the user's remaining days for the year.
// Users with time tracking disabled report the unlimited sentinel.
func AvailableVacationDays(user User, requests []LeaveRequest, year int, holidays HolidaySet) decimal.Decimal {
	if !user.TimeTrackingEnabled {
		return UnlimitedVacationDays
	}
	consumed := decimal.NewFromInt(int64(ConsumedVacationDays(requests, year, holidays)))
	return user.CarryOverVacationDays.Add(user.AnnualVacationDays).Sub(consumed)
}

// RolloverChange records one user's carry-over update from a year-end
// rollover.
type RolloverChange struct {
	UserID          string          `json:"userId"`
	ConsumedDays    int             `json:"consumedDays"`
	PreviousCarry   decimal.Decimal `json:"previousCarryOverDays"`
	NewCarry        decimal.Decimal `json:"newCarryOverDays"`
	AnnualAllotment decimal.Decimal `json:"annualVacationDays"`
}

// RolloverCarryOver computes a user's new carry-over for the year being
// closed. The result may be negative.
func RolloverCarryOver(user User, requests []LeaveRequest, year int, holidays HolidaySet) RolloverChange {
	consumed := ConsumedVacationDays(requests, year, holidays)
	newCarry := user.CarryOverVacationDays.
		Add(user.AnnualVacationDays).
		Sub(decimal.NewFromInt(int64(consumed)))
	return RolloverChange{
		UserID:          user.ID,
		ConsumedDays:    consumed,
		PreviousCarry:   user.CarryOverVacationDays,
		NewCarry:        newCarry,
		AnnualAllotment: user.AnnualVacationDays,
	}
}

// RequestedVacationDays counts the days a vacation request would consume,
// for the overdraw advisory at booking time.
func RequestedVacationDays(start, end time.Time, holidays HolidaySet) int {
	return CountVacationDaysInRange(start, end, holidays)
}
