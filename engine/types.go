/*
Package engine implements the time and leave accounting core.

PURPOSE:
  This package turns raw clock punches into worked hours and maintains the
  running overtime and vacation balances derived from them. It is pure
  computation: every function is a total function over values handed in by
  the caller. Persistence, HTTP, and authorization live elsewhere.

KEY CONCEPTS:
  - TimeEntry: a single clock punch (in or out). The multiset of entries for
    a user and day is the sole source of truth for worked minutes.
  - BreakCredit / OvertimeAdjustment: additive side channels. They never
    mutate entries.
  - Config: an immutable snapshot of the system configuration. It is passed
    explicitly into every accountant and ledger call, never fetched
    mid-computation.

PRECISION:
  Durations are whole minutes (int64). Hours and day balances use
  decimal.Decimal and are rounded to two places at the reporting boundary.

SEE ALSO:
  - pairer.go: clock event pairing
  - day.go / month.go: per-day and per-month accounting
  - overtime.go / vacation.go: running balances
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLOCK EVENTS
// =============================================================================

// EntryType distinguishes clock-in from clock-out punches.
type EntryType string

const (
	ClockIn  EntryType = "CLOCK_IN"
	ClockOut EntryType = "CLOCK_OUT"
)

// EntrySource records where a punch came from.
type EntrySource string

const (
	SourceWeb              EntrySource = "WEB"
	SourceRFID             EntrySource = "RFID"
	SourceManualCorrection EntrySource = "MANUAL_CORRECTION"
)

// TimeEntry is a single clock punch. Entries are immutable once created;
// the only way to change a day is to delete and rewrite all of its entries
// (see the day override operation in the service layer).
type TimeEntry struct {
	ID                 string
	UserID             string
	Type               EntryType
	OccurredAt         time.Time // UTC
	Source             EntrySource
	IsManualCorrection bool
	ReasonText         string
	CorrectionComment  string
	CreatedByID        string
	CreatedAt          time.Time
}

// =============================================================================
// ADDITIVE SIDE CHANNELS
// =============================================================================

// BreakCredit adds minutes back to one day's net worked time, typically to
// compensate an automatic break deduction that did not actually happen.
type BreakCredit struct {
	ID          string
	UserID      string
	Date        time.Time // UTC midnight
	Minutes     int64
	Reason      string
	CreatedByID string
	CreatedAt   time.Time
}

// OvertimeAdjustment is a manual signed correction to the overtime ledger.
// It counts toward the month containing Date.
type OvertimeAdjustment struct {
	ID          string
	UserID      string
	Date        time.Time // UTC
	Hours       decimal.Decimal
	Reason      string
	CreatedByID string
	CreatedAt   time.Time
}

// =============================================================================
// USERS AND CALENDAR DATA
// =============================================================================

// User carries the subset of the employee record the engine consumes.
// OvertimeBalanceHours is the stored ledger starting balance as of setup or
// the last manual reset. When TimeTrackingEnabled is false the user is frozen
// out of hour computation entirely: balances are reported as stored.
type User struct {
	ID                    string
	Name                  string
	AnnualVacationDays    decimal.Decimal
	CarryOverVacationDays decimal.Decimal
	OvertimeBalanceHours  decimal.Decimal
	DailyWorkHours        *decimal.Decimal // nil = use config default
	TimeTrackingEnabled   bool
	IsActive              bool
}

// DailyHours resolves the user's planned hours per working day against the
// configured default.
func (u User) DailyHours(cfg Config) decimal.Decimal {
	if u.DailyWorkHours != nil {
		return *u.DailyWorkHours
	}
	return cfg.DefaultDailyHours
}

// Holiday is excluded from both planned hours and vacation-day consumption.
type Holiday struct {
	ID   string
	Date time.Time // UTC midnight
	Name string
}

// SickLeave marks an inclusive date range during which workdays contribute
// planned hours as worked-equivalent time.
type SickLeave struct {
	ID              string
	UserID          string
	StartDate       time.Time
	EndDate         time.Time
	PartialDayHours *decimal.Decimal
	Note            string
	CreatedByID     string
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// LeaveKind distinguishes vacation from overtime compensation leave.
type LeaveKind string

const (
	KindVacation LeaveKind = "VACATION"
	KindOvertime LeaveKind = "OVERTIME"
)

// LeaveStatus is the request lifecycle. SUBMITTED is the only non-terminal
// state; APPROVED, REJECTED and CANCELED permit no further transitions.
type LeaveStatus string

const (
	StatusSubmitted LeaveStatus = "SUBMITTED"
	StatusApproved  LeaveStatus = "APPROVED"
	StatusRejected  LeaveStatus = "REJECTED"
	StatusCanceled  LeaveStatus = "CANCELED"
)

// Terminal reports whether the status permits no further transitions.
func (s LeaveStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCanceled
}

// LeaveRequest is a booking over an inclusive date range.
type LeaveRequest struct {
	ID           string
	UserID       string
	Kind         LeaveKind
	Status       LeaveStatus
	StartDate    time.Time // UTC midnight
	EndDate      time.Time // UTC midnight
	Note         string
	DecisionNote string
	DecidedByID  string
	DecidedAt    *time.Time
	RequestedAt  time.Time
}

// =============================================================================
// HOUR HELPERS
// =============================================================================

var minutesPerHour = decimal.NewFromInt(60)

// HoursFromMinutes converts whole minutes to hours rounded to two decimals.
func HoursFromMinutes(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).Div(minutesPerHour).Round(2)
}

// Round2 rounds an hour or day balance at the reporting boundary.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
