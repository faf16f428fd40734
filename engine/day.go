/*
day.go - Per-day accounting

The day accountant combines paired gross minutes, the automatic break rule,
manual break credits, the holiday calendar, and the planned-hours rule into
one per-day record. Sick days on workdays are credited the planned hours as
a worked-equivalent so that the overtime ledger stays neutral through an
illness.

Planned hours come from the user's individual daily hours when set, otherwise
from the configured default, and apply only on working days (configured
weekday set, not a holiday).
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayRecord is the accounting outcome for one user on one calendar day.
type DayRecord struct {
	Date                time.Time       `json:"date"`
	PlannedHours        decimal.Decimal `json:"plannedHours"`
	WorkedHours         decimal.Decimal `json:"workedHours"`
	GrossMinutes        int64           `json:"grossMinutes"`
	NetMinutes          int64           `json:"netMinutes"`
	BreakCreditMinutes  int64           `json:"breakCreditMinutes"`
	IsHoliday           bool            `json:"isHoliday"`
	IsWeekend           bool            `json:"isWeekend"`
	IsSick              bool            `json:"isSick"`
	CrossesMidnight     bool            `json:"crossesMidnight"`
	HasManualCorrection bool            `json:"hasManualCorrection"`
	Entries             []TimeEntry     `json:"entries"`
}

// DayInput carries the stored state the day accountant needs for one day.
type DayInput struct {
	Date            time.Time
	User            User
	Entries         []TimeEntry
	GrossMinutes    int64
	CrossesMidnight bool
	BreakCredits    []BreakCredit
	Holidays        HolidaySet
	IsSick          bool
}

// AccountDay computes the full record for one day.
func AccountDay(in DayInput, cfg Config) DayRecord {
	rec := DayRecord{
		Date:      DateOnly(in.Date),
		IsHoliday: in.Holidays.Contains(in.Date),
		IsWeekend: IsWeekend(in.Date),
		IsSick:    in.IsSick,
		Entries:   in.Entries,
	}

	if IsWorkingDay(in.Date, cfg.WorkingDays, in.Holidays) {
		rec.PlannedHours = in.User.DailyHours(cfg)
	} else {
		rec.PlannedHours = decimal.Zero
	}

	rec.GrossMinutes = in.GrossMinutes
	rec.BreakCreditMinutes = SumBreakCredits(in.BreakCredits)
	net := ApplyAutoBreak(in.GrossMinutes, cfg) + rec.BreakCreditMinutes
	if net < 0 {
		net = 0
	}
	rec.NetMinutes = net
	rec.WorkedHours = HoursFromMinutes(net)
	rec.CrossesMidnight = in.CrossesMidnight

	for _, e := range in.Entries {
		if e.IsManualCorrection {
			rec.HasManualCorrection = true
			break
		}
	}

	// A sick workday counts its planned hours as worked so the day is
	// overtime-neutral. Clocked minutes on a sick day are superseded.
	if in.IsSick && rec.PlannedHours.IsPositive() {
		rec.WorkedHours = rec.PlannedHours
		rec.NetMinutes = rec.PlannedHours.Mul(decimal.NewFromInt(60)).IntPart()
	}

	return rec
}
