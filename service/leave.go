/*
leave.go - Leave booking, decisions, sick leaves and the year-end rollover

Booking and every other read-then-write path here runs under the per-user
lock, so the overlap check and the subsequent insert are atomic with respect
to other requests for the same user.
*/
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stechuhr/attendance-engine/engine"
	"github.com/stechuhr/attendance-engine/leave"
	"github.com/stechuhr/attendance-engine/store/sqlite"
)

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// BookingOutcome is returned to the requester: the created request plus the
// availability payload and the overdraw advisory.
type BookingOutcome struct {
	Request                engine.LeaveRequest `json:"request"`
	WarningOverdrawn       bool                `json:"warningOverdrawn"`
	RequestedVacationDays  int                 `json:"requestedVacationDays"`
	AvailableVacationDays  decimal.Decimal     `json:"availableVacationDays"`
	AvailableOvertimeHours decimal.Decimal     `json:"availableOvertimeHours"`
}

// CreateLeaveRequest books a new vacation or overtime request. Overlaps with
// the user's submitted or approved requests reject; overdrawing the vacation
// account only warns.
func (s *Service) CreateLeaveRequest(ctx context.Context, userID string, kind engine.LeaveKind, startDate, endDate, note string) (BookingOutcome, error) {
	if kind != engine.KindVacation && kind != engine.KindOvertime {
		return BookingOutcome{}, &engine.ValidationError{Field: "kind", Message: "kind must be VACATION or OVERTIME"}
	}
	start, err := engine.ParseDate(startDate)
	if err != nil {
		return BookingOutcome{}, err
	}
	end, err := engine.ParseDate(endDate)
	if err != nil {
		return BookingOutcome{}, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return BookingOutcome{}, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	existing, err := s.store.LeavesByUser(ctx, userID)
	if err != nil {
		return BookingOutcome{}, err
	}
	holidayRows, err := s.store.HolidaysInRange(ctx, engine.YearStart(start.Year()), engine.YearEnd(end.Year()))
	if err != nil {
		return BookingOutcome{}, err
	}
	holidays := engine.NewHolidaySet(holidayRows)

	booking, err := leave.PrepareBooking(user, existing, kind, start, end, note, holidays, s.now())
	if err != nil {
		return BookingOutcome{}, err
	}
	booking.Request.ID = uuid.NewString()
	if err := s.store.SaveLeave(ctx, booking.Request); err != nil {
		return BookingOutcome{}, err
	}

	availability, err := s.availabilityFor(ctx, user)
	if err != nil {
		return BookingOutcome{}, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("kind", string(kind)).
		Str("range", startDate+".."+endDate).
		Bool("overdrawn", booking.WarningOverdrawn).
		Msg("leave request created")
	s.audit(userID, "LEAVE_REQUESTED", "LeaveRequest", booking.Request.ID,
		map[string]any{"kind": kind, "start": startDate, "end": endDate})

	return BookingOutcome{
		Request:                booking.Request,
		WarningOverdrawn:       booking.WarningOverdrawn,
		RequestedVacationDays:  booking.RequestedVacationDays,
		AvailableVacationDays:  availability.AvailableVacationDays,
		AvailableOvertimeHours: availability.AvailableOvertimeHours,
	}, nil
}

// CancelLeave withdraws the user's own still-submitted request.
func (s *Service) CancelLeave(ctx context.Context, userID, leaveID string) (engine.LeaveRequest, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	r, err := s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	if r.UserID != userID {
		return engine.LeaveRequest{}, &engine.NotFoundError{Kind: "leave request", ID: leaveID}
	}
	canceled, err := leave.Cancel(r)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	if err := s.store.SaveLeave(ctx, canceled); err != nil {
		return engine.LeaveRequest{}, err
	}
	s.audit(userID, "LEAVE_CANCELED", "LeaveRequest", leaveID, nil)
	return canceled, nil
}

// DecideLeaveRequest approves or rejects a submitted request.
func (s *Service) DecideLeaveRequest(ctx context.Context, actorID, leaveID string, decision engine.LeaveStatus, decisionNote string) (engine.LeaveRequest, error) {
	r, err := s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return engine.LeaveRequest{}, err
	}

	unlock := s.locks.Lock(r.UserID)
	defer unlock()

	// Reload under the lock; the request may have been decided meanwhile.
	r, err = s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	decided, err := leave.Decide(r, decision, decisionNote, actorID, s.now())
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	if err := s.store.SaveLeave(ctx, decided); err != nil {
		return engine.LeaveRequest{}, err
	}

	s.log.Info().
		Str("leave_id", leaveID).
		Str("decision", string(decision)).
		Str("decided_by", actorID).
		Msg("leave request decided")
	s.audit(actorID, "LEAVE_"+string(decision), "LeaveRequest", leaveID,
		map[string]string{"note": decisionNote})
	return decided, nil
}

// SupervisorUpdateLeave rewrites the range and note of a still-submitted
// request on behalf of a supervisor.
func (s *Service) SupervisorUpdateLeave(ctx context.Context, actorID, leaveID, startDate, endDate, note string) (engine.LeaveRequest, error) {
	start, err := engine.ParseDate(startDate)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	end, err := engine.ParseDate(endDate)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	r, err := s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return engine.LeaveRequest{}, err
	}

	unlock := s.locks.Lock(r.UserID)
	defer unlock()

	r, err = s.store.GetLeave(ctx, leaveID)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	existing, err := s.store.LeavesByUser(ctx, r.UserID)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	updated, err := leave.SupervisorUpdate(r, existing, start, end, note)
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	if err := s.store.SaveLeave(ctx, updated); err != nil {
		return engine.LeaveRequest{}, err
	}
	s.audit(actorID, "LEAVE_UPDATED", "LeaveRequest", leaveID,
		map[string]string{"start": startDate, "end": endDate})
	return updated, nil
}

// ListLeave returns all requests of one user, newest first.
func (s *Service) ListLeave(ctx context.Context, userID string) ([]engine.LeaveRequest, error) {
	return s.store.LeavesByUser(ctx, userID)
}

// ListPendingLeave returns all submitted requests across users, for the
// supervisor inbox.
func (s *Service) ListPendingLeave(ctx context.Context) ([]engine.LeaveRequest, error) {
	return s.store.LeavesByStatus(ctx, engine.StatusSubmitted)
}

// =============================================================================
// SICK LEAVES
// =============================================================================

// RecordSickLeave books an inclusive sick range for a user.
func (s *Service) RecordSickLeave(ctx context.Context, actorID, userID, startDate, endDate, note string) (engine.SickLeave, error) {
	start, err := engine.ParseDate(startDate)
	if err != nil {
		return engine.SickLeave{}, err
	}
	end, err := engine.ParseDate(endDate)
	if err != nil {
		return engine.SickLeave{}, err
	}
	if end.Before(start) {
		return engine.SickLeave{}, &engine.ValidationError{Field: "endDate", Message: "end date must not precede start date"}
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return engine.SickLeave{}, err
	}

	sl := engine.SickLeave{
		ID:          uuid.NewString(),
		UserID:      userID,
		StartDate:   start,
		EndDate:     end,
		Note:        note,
		CreatedByID: actorID,
	}
	if err := s.store.InsertSickLeave(ctx, sl); err != nil {
		return engine.SickLeave{}, err
	}
	s.audit(actorID, "SICK_LEAVE_RECORDED", "SickLeave", sl.ID,
		map[string]string{"user": userID, "start": startDate, "end": endDate})
	return sl, nil
}

// RemoveSickLeaveDay carves one day out of a user's sick leave. A leave
// covering only that day is deleted; a boundary day trims the range; a
// middle day splits the leave in two. The whole edit is one transaction.
func (s *Service) RemoveSickLeaveDay(ctx context.Context, actorID, userID, date string) error {
	day, err := engine.ParseDate(date)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	leaves, err := s.store.SickLeavesInWindow(ctx, userID, day, day)
	if err != nil {
		return err
	}
	if len(leaves) == 0 {
		return &engine.NotFoundError{Kind: "sick leave", ID: userID + ":" + date}
	}
	target := leaves[0]

	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		switch {
		case target.StartDate.Equal(day) && target.EndDate.Equal(day):
			return tx.DeleteSickLeave(ctx, target.ID)
		case target.StartDate.Equal(day):
			return tx.UpdateSickLeaveStart(ctx, target.ID, day.AddDate(0, 0, 1))
		case target.EndDate.Equal(day):
			return tx.UpdateSickLeaveEnd(ctx, target.ID, day.AddDate(0, 0, -1))
		default:
			// Middle day: shorten the original and insert the tail.
			if err := tx.UpdateSickLeaveEnd(ctx, target.ID, day.AddDate(0, 0, -1)); err != nil {
				return err
			}
			tail := target
			tail.ID = uuid.NewString()
			tail.StartDate = day.AddDate(0, 0, 1)
			return tx.InsertSickLeave(ctx, tail)
		}
	})
	if err != nil {
		return err
	}

	s.audit(actorID, "SICK_LEAVE_DAY_REMOVED", "SickLeave", target.ID,
		map[string]string{"user": userID, "date": date})
	return nil
}

// ListSickLeaves returns a user's sick leaves intersecting [from, to].
func (s *Service) ListSickLeaves(ctx context.Context, userID string, from, to time.Time) ([]engine.SickLeave, error) {
	return s.store.SickLeavesInWindow(ctx, userID, from, to)
}

// =============================================================================
// YEAR-END ROLLOVER
// =============================================================================

// RolloverResult reports the outcome of one year-end rollover run.
type RolloverResult struct {
	Year           int                     `json:"year"`
	ProcessedUsers int                     `json:"processedUsers"`
	Changes        []engine.RolloverChange `json:"changes"`
}

// RunYearEndRollover folds every active user's unconsumed vacation days of
// the given year into their carry-over. Negative balances roll forward; the
// annual allotment is never changed.
func (s *Service) RunYearEndRollover(ctx context.Context, actorID string, year int) (RolloverResult, error) {
	if year < 2000 || year > 2100 {
		return RolloverResult{}, &engine.ValidationError{Field: "year", Message: "year out of range"}
	}
	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		return RolloverResult{}, err
	}
	holidayRows, err := s.store.HolidaysInRange(ctx, engine.YearStart(year), engine.YearEnd(year))
	if err != nil {
		return RolloverResult{}, err
	}
	holidays := engine.NewHolidaySet(holidayRows)

	result := RolloverResult{Year: year}
	for _, user := range users {
		unlock := s.locks.Lock(user.ID)

		requests, err := s.store.LeavesByUser(ctx, user.ID)
		if err != nil {
			unlock()
			return result, err
		}
		change := engine.RolloverCarryOver(user, requests, year, holidays)
		if err := s.store.UpdateCarryOver(ctx, user.ID, change.NewCarry); err != nil {
			unlock()
			return result, err
		}
		unlock()

		result.ProcessedUsers++
		result.Changes = append(result.Changes, change)
	}

	s.log.Info().Int("year", year).Int("users", result.ProcessedUsers).Msg("year-end rollover completed")
	s.audit(actorID, "YEAR_END_ROLLOVER", "User", "", result)
	return result, nil
}
