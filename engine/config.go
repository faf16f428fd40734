package engine

import "github.com/shopspring/decimal"

// Config is an immutable snapshot of the system configuration consumed by
// the accountants and ledgers. It is loaded once per operation and passed
// explicitly; computations never reach back into storage for settings.
type Config struct {
	DefaultDailyHours   decimal.Decimal
	WorkingDays         WorkingDaySet
	AutoBreakMinutes    int64
	AutoBreakAfterHours decimal.Decimal

	// SelfCorrectionMaxDays bounds how far back a non-supervisor may
	// rewrite their own clock events.
	SelfCorrectionMaxDays int

	CompanyName string
}

// DefaultConfig returns the factory settings: 8h days, Monday to Friday,
// a 30 minute break after 6 hours, and a 3 day self-correction window.
func DefaultConfig() Config {
	return Config{
		DefaultDailyHours:     decimal.NewFromInt(8),
		WorkingDays:           ParseWorkingDaySet("MON,TUE,WED,THU,FRI"),
		AutoBreakMinutes:      30,
		AutoBreakAfterHours:   decimal.NewFromInt(6),
		SelfCorrectionMaxDays: 3,
		CompanyName:           "Musterfirma",
	}
}

// AutoBreakThresholdMinutes is the gross-minute threshold at which the
// automatic break deduction applies.
func (c Config) AutoBreakThresholdMinutes() int64 {
	return c.AutoBreakAfterHours.Mul(minutesPerHour).IntPart()
}
