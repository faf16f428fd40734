/*
breakrule.go - Statutory automatic break deduction

Once a day's gross presence reaches the configured threshold, the configured
break is deducted. The deduction never drives a day negative. Break credits
compensate individual days where the automatic deduction was wrong (worked
through the break, shorter break by agreement) and are applied after the
deduction by the day accountant.
*/
package engine

// ApplyAutoBreak deducts the automatic break from a day's gross minutes when
// the gross reaches the configured threshold. The result is floored at zero.
func ApplyAutoBreak(grossMinutes int64, cfg Config) int64 {
	if grossMinutes <= 0 {
		return 0
	}
	net := grossMinutes
	if grossMinutes >= cfg.AutoBreakThresholdMinutes() {
		net -= cfg.AutoBreakMinutes
	}
	if net < 0 {
		return 0
	}
	return net
}

// SumBreakCredits totals the credited minutes of a day's break credits.
func SumBreakCredits(credits []BreakCredit) int64 {
	var total int64
	for _, c := range credits {
		total += c.Minutes
	}
	return total
}
