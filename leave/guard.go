/*
Package leave enforces the booking invariants on leave requests.

PURPOSE:
  A request moves SUBMITTED -> APPROVED | REJECTED | CANCELED and never
  leaves a terminal state. Two requests of the same user must not overlap
  while either is SUBMITTED or APPROVED. Overdrawing the vacation account is
  allowed but flagged as an advisory at booking time.

The guard is pure: it validates against request lists handed in by the
caller and returns updated request values. Persistence happens in the
service layer, under the per-user lock that makes check-then-write safe.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stechuhr/attendance-engine/engine"
)

// =============================================================================
// RANGE AND OVERLAP CHECKS
// =============================================================================

// ValidateRange rejects ranges whose end precedes their start.
func ValidateRange(start, end time.Time) error {
	if engine.DateOnly(end).Before(engine.DateOnly(start)) {
		return &engine.ValidationError{Field: "endDate", Message: "end date must not precede start date"}
	}
	return nil
}

// blocking reports whether a request participates in overlap checks.
func blocking(r engine.LeaveRequest) bool {
	return r.Status == engine.StatusSubmitted || r.Status == engine.StatusApproved
}

// overlaps reports inclusive date-range intersection.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !engine.DateOnly(aStart).After(engine.DateOnly(bEnd)) &&
		!engine.DateOnly(bStart).After(engine.DateOnly(aEnd))
}

// CheckOverlap rejects a candidate range that intersects any submitted or
// approved request of the same user. excludeID skips one request, so a
// supervisor update does not collide with the request being updated.
// Canceled and rejected requests never block.
func CheckOverlap(existing []engine.LeaveRequest, userID string, start, end time.Time, excludeID string) error {
	for _, r := range existing {
		if r.UserID != userID || r.ID == excludeID || !blocking(r) {
			continue
		}
		if overlaps(start, end, r.StartDate, r.EndDate) {
			return &engine.OverlapError{
				UserID:     userID,
				ExistingID: r.ID,
				Start:      r.StartDate,
				End:        r.EndDate,
			}
		}
	}
	return nil
}

// =============================================================================
// BOOKING
// =============================================================================

// BookingResult carries the validated request plus the availability payload
// returned to the requester.
type BookingResult struct {
	Request               engine.LeaveRequest
	WarningOverdrawn      bool
	RequestedVacationDays int
	AvailableVacationDays decimal.Decimal
}

// PrepareBooking validates a new request against the user's existing
// requests and computes the overdraw advisory for vacation bookings.
// Overdrawing does not reject; the vacation balance may go negative.
func PrepareBooking(
	user engine.User,
	existing []engine.LeaveRequest,
	kind engine.LeaveKind,
	start, end time.Time,
	note string,
	holidays engine.HolidaySet,
	now time.Time,
) (BookingResult, error) {
	if err := ValidateRange(start, end); err != nil {
		return BookingResult{}, err
	}
	if err := CheckOverlap(existing, user.ID, start, end, ""); err != nil {
		return BookingResult{}, err
	}

	result := BookingResult{
		Request: engine.LeaveRequest{
			UserID:      user.ID,
			Kind:        kind,
			Status:      engine.StatusSubmitted,
			StartDate:   engine.DateOnly(start),
			EndDate:     engine.DateOnly(end),
			Note:        note,
			RequestedAt: now,
		},
	}

	if kind == engine.KindVacation {
		available := engine.AvailableVacationDays(user, existing, start.Year(), holidays)
		requested := engine.RequestedVacationDays(start, end, holidays)
		result.RequestedVacationDays = requested
		result.AvailableVacationDays = available
		result.WarningOverdrawn = decimal.NewFromInt(int64(requested)).GreaterThan(available)
	}

	return result, nil
}

// =============================================================================
// LIFECYCLE TRANSITIONS
// =============================================================================

// Decide transitions a submitted request to APPROVED or REJECTED, recording
// who decided and when. Any other source or target state is rejected.
func Decide(r engine.LeaveRequest, decision engine.LeaveStatus, decisionNote, decidedByID string, now time.Time) (engine.LeaveRequest, error) {
	if decision != engine.StatusApproved && decision != engine.StatusRejected {
		return r, &engine.ValidationError{Field: "decision", Message: "decision must be APPROVED or REJECTED"}
	}
	if r.Status != engine.StatusSubmitted {
		return r, &engine.StateError{ID: r.ID, Status: r.Status}
	}
	r.Status = decision
	r.DecisionNote = decisionNote
	r.DecidedByID = decidedByID
	r.DecidedAt = &now
	return r, nil
}

// Cancel withdraws a request. Only submitted requests can be canceled.
func Cancel(r engine.LeaveRequest) (engine.LeaveRequest, error) {
	if r.Status != engine.StatusSubmitted {
		return r, &engine.StateError{ID: r.ID, Status: r.Status}
	}
	r.Status = engine.StatusCanceled
	return r, nil
}

// SupervisorUpdate rewrites the range and note of a still-submitted request.
// The overlap check excludes the request itself.
func SupervisorUpdate(r engine.LeaveRequest, existing []engine.LeaveRequest, start, end time.Time, note string) (engine.LeaveRequest, error) {
	if r.Status != engine.StatusSubmitted {
		return r, &engine.StateError{ID: r.ID, Status: r.Status}
	}
	if err := ValidateRange(start, end); err != nil {
		return r, err
	}
	if err := CheckOverlap(existing, r.UserID, start, end, r.ID); err != nil {
		return r, err
	}
	r.StartDate = engine.DateOnly(start)
	r.EndDate = engine.DateOnly(end)
	r.Note = note
	return r, nil
}
