/*
views.go - Aggregate read operations

Month view, personal summary, availability and the supervisor overview. All
of them recompute from stored rows on every call; nothing derived is cached,
so there is no invalidation to get wrong.
*/
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stechuhr/attendance-engine/engine"
)

// historyStart bounds the all-history supervisor loop on the left when a
// user's records reach further back than the system ever ran.
var historyStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// =============================================================================
// MONTH VIEW
// =============================================================================

// GetMonthView computes the per-day records and totals for one user's
// calendar month.
func (s *Service) GetMonthView(ctx context.Context, userID string, year int, month time.Month) (engine.MonthView, error) {
	if month < time.January || month > time.December {
		return engine.MonthView{}, &engine.ValidationError{Field: "month", Message: "month must be 1..12"}
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return engine.MonthView{}, err
	}
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return engine.MonthView{}, err
	}

	from := engine.MonthStart(year, month)
	to := engine.MonthEnd(year, month)

	in, err := s.loadMonthInput(ctx, user, year, month, from, to)
	if err != nil {
		return engine.MonthView{}, err
	}
	return engine.AccountMonth(in, cfg), nil
}

func (s *Service) loadMonthInput(ctx context.Context, user engine.User, year int, month time.Month, from, to time.Time) (engine.MonthInput, error) {
	entries, err := s.store.EntriesInRange(ctx, user.ID, from, to)
	if err != nil {
		return engine.MonthInput{}, err
	}
	credits, err := s.store.BreakCreditsInRange(ctx, user.ID, from, to)
	if err != nil {
		return engine.MonthInput{}, err
	}
	holidayRows, err := s.store.HolidaysInRange(ctx, from, to)
	if err != nil {
		return engine.MonthInput{}, err
	}
	sickLeaves, err := s.store.SickLeavesInWindow(ctx, user.ID, from, to)
	if err != nil {
		return engine.MonthInput{}, err
	}

	return engine.MonthInput{
		User:         user,
		Year:         year,
		Month:        month,
		Entries:      entries,
		BreakCredits: credits,
		Holidays:     engine.NewHolidaySet(holidayRows),
		SickDays:     sickDayKeys(sickLeaves, from, to),
	}, nil
}

// sickDayKeys expands sick leave ranges into day keys clamped to [from, to].
func sickDayKeys(leaves []engine.SickLeave, from, to time.Time) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, sl := range leaves {
		start := sl.StartDate
		if start.Before(from) {
			start = from
		}
		end := sl.EndDate
		if end.After(to) {
			end = to
		}
		for _, day := range engine.EachDay(start, end) {
			keys[engine.DayKey(day)] = struct{}{}
		}
	}
	return keys
}

// leaveDayKeys expands approved leave ranges into day keys clamped to
// [from, to].
func leaveDayKeys(requests []engine.LeaveRequest, from, to time.Time) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, r := range requests {
		start := r.StartDate
		if start.Before(from) {
			start = from
		}
		end := r.EndDate
		if end.After(to) {
			end = to
		}
		for _, day := range engine.EachDay(start, end) {
			keys[engine.DayKey(day)] = struct{}{}
		}
	}
	return keys
}

// =============================================================================
// PERSONAL SUMMARY
// =============================================================================

// Summary is the personal dashboard payload for the current month.
type Summary struct {
	Month                 string          `json:"month"`
	PlannedHours          decimal.Decimal `json:"plannedHours"`
	WorkedHours           decimal.Decimal `json:"workedHours"`
	OvertimeHours         decimal.Decimal `json:"overtimeHours"`
	ManualAdjustmentHours decimal.Decimal `json:"manualAdjustmentHours"`
	LongShiftAlert        bool            `json:"longShiftAlert"`
}

// GetSummary computes the current-month dashboard for one user. The
// overtime figure includes sick and approved-vacation days as
// worked-equivalent time; a closed in/out pair above 12 hours raises the
// long-shift alert.
func (s *Service) GetSummary(ctx context.Context, userID string) (Summary, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	year, month := now.Year(), now.Month()
	from := engine.MonthStart(year, month)
	to := engine.MonthEnd(year, month)

	in, err := s.loadMonthInput(ctx, user, year, month, from, to)
	if err != nil {
		return Summary{}, err
	}
	view := engine.AccountMonth(in, cfg)

	summary := Summary{
		Month:                 fmt.Sprintf("%04d-%02d", year, int(month)),
		PlannedHours:          view.PlannedHours,
		WorkedHours:           view.WorkedHours,
		ManualAdjustmentHours: decimal.Zero,
	}

	if !user.TimeTrackingEnabled {
		summary.WorkedHours = view.PlannedHours
		summary.OvertimeHours = engine.Round2(user.OvertimeBalanceHours)
		return summary, nil
	}

	adjustments, err := s.store.AdjustmentsByUser(ctx, userID, 0)
	if err != nil {
		return Summary{}, err
	}
	approved, err := s.store.ApprovedLeavesInWindow(ctx, userID, from, to)
	if err != nil {
		return Summary{}, err
	}

	monthAdjustments := decimal.Zero
	for _, a := range adjustments {
		if !a.Date.Before(from) && !a.Date.After(to) {
			monthAdjustments = monthAdjustments.Add(a.Hours)
		}
	}
	summary.ManualAdjustmentHours = engine.Round2(monthAdjustments)

	summary.OvertimeHours = engine.CurrentMonthOvertime(engine.OvertimeInput{
		User:         user,
		Now:          now,
		Entries:      in.Entries,
		BreakCredits: in.BreakCredits,
		Adjustments:  adjustments,
		Holidays:     in.Holidays,
		SickDays:     in.SickDays,
		AbsenceDays:  leaveDayKeys(approved, from, to),
	}, cfg)

	summary.LongShiftAlert = engine.HasShiftLongerThan(in.Entries, 12*time.Hour)
	return summary, nil
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// Availability is the booking-time account payload.
type Availability struct {
	AvailableVacationDays  decimal.Decimal `json:"availableVacationDays"`
	AvailableOvertimeHours decimal.Decimal `json:"availableOvertimeHours"`
}

// GetAvailability reports the user's remaining vacation days for the
// current year and the overtime balance through the current month.
func (s *Service) GetAvailability(ctx context.Context, userID string) (Availability, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Availability{}, err
	}
	return s.availabilityFor(ctx, user)
}

func (s *Service) availabilityFor(ctx context.Context, user engine.User) (Availability, error) {
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return Availability{}, err
	}

	now := s.now()
	year := now.Year()

	requests, err := s.store.LeavesByUser(ctx, user.ID)
	if err != nil {
		return Availability{}, err
	}
	holidayRows, err := s.store.HolidaysInRange(ctx, engine.YearStart(year), engine.YearEnd(year))
	if err != nil {
		return Availability{}, err
	}
	holidays := engine.NewHolidaySet(holidayRows)

	from := engine.MonthStart(year, now.Month())
	to := engine.MonthEnd(year, now.Month())
	in, err := s.loadMonthInput(ctx, user, year, now.Month(), from, to)
	if err != nil {
		return Availability{}, err
	}
	adjustments, err := s.store.AdjustmentsByUser(ctx, user.ID, 0)
	if err != nil {
		return Availability{}, err
	}
	approved, err := s.store.ApprovedLeavesInWindow(ctx, user.ID, from, to)
	if err != nil {
		return Availability{}, err
	}

	return Availability{
		AvailableVacationDays: engine.AvailableVacationDays(user, requests, year, holidays),
		AvailableOvertimeHours: engine.CurrentMonthOvertime(engine.OvertimeInput{
			User:         user,
			Now:          now,
			Entries:      in.Entries,
			BreakCredits: in.BreakCredits,
			Adjustments:  adjustments,
			Holidays:     in.Holidays,
			SickDays:     in.SickDays,
			AbsenceDays:  leaveDayKeys(approved, from, to),
		}, cfg),
	}, nil
}

// =============================================================================
// SUPERVISOR OVERVIEW
// =============================================================================

// OverviewRow is one user's line on the supervisor screen.
type OverviewRow struct {
	UserID            string          `json:"userId"`
	Name              string          `json:"name"`
	PlannedHours      decimal.Decimal `json:"plannedHours"`
	WorkedHours       decimal.Decimal `json:"workedHours"`
	OvertimeBefore    decimal.Decimal `json:"overtimeBeforeCurrentMonth"`
	OvertimeThisMonth decimal.Decimal `json:"currentMonthOvertime"`
	OvertimeTotal     decimal.Decimal `json:"overtimeTotal"`
}

// Overview is the supervisor screen payload.
type Overview struct {
	Month string        `json:"month"`
	Rows  []OverviewRow `json:"rows"`
}

// SupervisorOverview computes planned/worked current-month hours and the
// all-history overtime split for every active user.
func (s *Service) SupervisorOverview(ctx context.Context) (Overview, error) {
	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		return Overview{}, err
	}
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return Overview{}, err
	}

	now := s.now()
	year, month := now.Year(), now.Month()
	monthFrom := engine.MonthStart(year, month)
	monthTo := engine.MonthEnd(year, month)

	overview := Overview{
		Month: fmt.Sprintf("%04d-%02d", year, int(month)),
		Rows:  make([]OverviewRow, 0, len(users)),
	}

	holidayRows, err := s.store.HolidaysInRange(ctx, historyStart, monthTo)
	if err != nil {
		return Overview{}, err
	}
	holidays := engine.NewHolidaySet(holidayRows)

	for _, user := range users {
		entries, err := s.store.AllEntries(ctx, user.ID)
		if err != nil {
			return Overview{}, err
		}
		credits, err := s.store.BreakCreditsInRange(ctx, user.ID, historyStart, monthTo)
		if err != nil {
			return Overview{}, err
		}
		adjustments, err := s.store.AdjustmentsByUser(ctx, user.ID, 0)
		if err != nil {
			return Overview{}, err
		}
		sickLeaves, err := s.store.SickLeavesInWindow(ctx, user.ID, historyStart, monthTo)
		if err != nil {
			return Overview{}, err
		}
		approved, err := s.store.ApprovedLeavesInWindow(ctx, user.ID, historyStart, monthTo)
		if err != nil {
			return Overview{}, err
		}

		sickDays := sickDayKeys(sickLeaves, historyStart, monthTo)
		absenceDays := leaveDayKeys(approved, historyStart, monthTo)

		monthView := engine.AccountMonth(engine.MonthInput{
			User:         user,
			Year:         year,
			Month:        month,
			Entries:      filterEntriesInWindow(entries, monthFrom, monthTo),
			BreakCredits: credits,
			Holidays:     holidays,
			SickDays:     sickDays,
		}, cfg)

		split := engine.OvertimeOverview(engine.OvertimeInput{
			User:         user,
			Now:          now,
			Entries:      entries,
			BreakCredits: credits,
			Adjustments:  adjustments,
			Holidays:     holidays,
			SickDays:     sickDays,
			AbsenceDays:  absenceDays,
		}, cfg)

		overview.Rows = append(overview.Rows, OverviewRow{
			UserID:            user.ID,
			Name:              user.Name,
			PlannedHours:      monthView.PlannedHours,
			WorkedHours:       monthView.WorkedHours,
			OvertimeBefore:    split.BeforeCurrentMonth,
			OvertimeThisMonth: split.CurrentMonth,
			OvertimeTotal:     split.Total,
		})
	}

	return overview, nil
}

func filterEntriesInWindow(entries []engine.TimeEntry, from, to time.Time) []engine.TimeEntry {
	var filtered []engine.TimeEntry
	for _, e := range entries {
		if !e.OccurredAt.Before(from) && !e.OccurredAt.After(to) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
