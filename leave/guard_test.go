package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stechuhr/attendance-engine/engine"
	"github.com/stechuhr/attendance-engine/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func request(id string, status engine.LeaveStatus, start, end time.Time) engine.LeaveRequest {
	return engine.LeaveRequest{
		ID:        id,
		UserID:    "user-1",
		Kind:      engine.KindVacation,
		Status:    status,
		StartDate: start,
		EndDate:   end,
	}
}

func bookingUser() engine.User {
	return engine.User{
		ID:                    "user-1",
		AnnualVacationDays:    decimal.NewFromInt(30),
		CarryOverVacationDays: decimal.NewFromInt(2),
		TimeTrackingEnabled:   true,
	}
}

var bookedAt = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

// =============================================================================
// OVERLAP TESTS
// =============================================================================

func TestCheckOverlap_SubmittedRequestBlocks(t *testing.T) {
	// GIVEN: A SUBMITTED request 2024-06-01 .. 2024-06-05
	// WHEN: Booking 2024-06-03 .. 2024-06-10 for the same user
	// THEN: The booking is rejected as a conflict

	existing := []engine.LeaveRequest{
		request("leave-1", engine.StatusSubmitted, day(2024, time.June, 1), day(2024, time.June, 5)),
	}

	err := leave.CheckOverlap(existing, "user-1", day(2024, time.June, 3), day(2024, time.June, 10), "")

	require.Error(t, err)
	assert.True(t, engine.IsConflict(err))

	var overlapErr *engine.OverlapError
	require.ErrorAs(t, err, &overlapErr)
	assert.Equal(t, "leave-1", overlapErr.ExistingID)
}

func TestCheckOverlap_CanceledRequestDoesNotBlock(t *testing.T) {
	// GIVEN: A CANCELED request covering the same range
	// WHEN: Booking over it
	// THEN: No conflict

	existing := []engine.LeaveRequest{
		request("leave-1", engine.StatusCanceled, day(2024, time.June, 1), day(2024, time.June, 5)),
		request("leave-2", engine.StatusRejected, day(2024, time.June, 1), day(2024, time.June, 5)),
	}

	err := leave.CheckOverlap(existing, "user-1", day(2024, time.June, 3), day(2024, time.June, 10), "")

	assert.NoError(t, err)
}

func TestCheckOverlap_SharedBoundaryDayConflicts(t *testing.T) {
	// GIVEN: An APPROVED request ending 2024-06-05
	// WHEN: Booking starting 2024-06-05
	// THEN: The shared day conflicts (ranges are inclusive)

	existing := []engine.LeaveRequest{
		request("leave-1", engine.StatusApproved, day(2024, time.June, 1), day(2024, time.June, 5)),
	}

	err := leave.CheckOverlap(existing, "user-1", day(2024, time.June, 5), day(2024, time.June, 7), "")

	assert.True(t, engine.IsConflict(err))
}

func TestCheckOverlap_OtherUserDoesNotBlock(t *testing.T) {
	existing := []engine.LeaveRequest{
		request("leave-1", engine.StatusApproved, day(2024, time.June, 1), day(2024, time.June, 5)),
	}

	err := leave.CheckOverlap(existing, "user-2", day(2024, time.June, 3), day(2024, time.June, 4), "")

	assert.NoError(t, err)
}

func TestCheckOverlap_ExcludeID_SkipsOwnRequest(t *testing.T) {
	existing := []engine.LeaveRequest{
		request("leave-1", engine.StatusSubmitted, day(2024, time.June, 1), day(2024, time.June, 5)),
	}

	err := leave.CheckOverlap(existing, "user-1", day(2024, time.June, 2), day(2024, time.June, 6), "leave-1")

	assert.NoError(t, err)
}

// =============================================================================
// BOOKING TESTS
// =============================================================================

func TestPrepareBooking_EndBeforeStart_Rejected(t *testing.T) {
	_, err := leave.PrepareBooking(bookingUser(), nil, engine.KindVacation,
		day(2024, time.June, 10), day(2024, time.June, 5), "Sommerurlaub", engine.HolidaySet{}, bookedAt)

	assert.True(t, engine.IsValidation(err))
}

func TestPrepareBooking_VacationWithinBalance_NoWarning(t *testing.T) {
	// GIVEN: 32 available days
	// WHEN: Booking one week (5 weekdays)
	// THEN: Submitted, no overdraw warning, availability reported

	result, err := leave.PrepareBooking(bookingUser(), nil, engine.KindVacation,
		day(2024, time.June, 10), day(2024, time.June, 14), "Sommerurlaub", engine.HolidaySet{}, bookedAt)

	require.NoError(t, err)
	assert.Equal(t, engine.StatusSubmitted, result.Request.Status)
	assert.False(t, result.WarningOverdrawn)
	assert.Equal(t, 5, result.RequestedVacationDays)
	assert.True(t, result.AvailableVacationDays.Equal(decimal.NewFromInt(32)))
}

func TestPrepareBooking_Overdraw_WarnsButBooks(t *testing.T) {
	// GIVEN: Only 2 available days left
	// WHEN: Booking a full week
	// THEN: The booking goes through with the overdraw advisory set

	user := bookingUser()
	user.AnnualVacationDays = decimal.NewFromInt(2)
	user.CarryOverVacationDays = decimal.Zero

	result, err := leave.PrepareBooking(user, nil, engine.KindVacation,
		day(2024, time.June, 10), day(2024, time.June, 14), "Sommerurlaub", engine.HolidaySet{}, bookedAt)

	require.NoError(t, err)
	assert.True(t, result.WarningOverdrawn)
	assert.Equal(t, engine.StatusSubmitted, result.Request.Status)
}

func TestPrepareBooking_OvertimeKind_NoVacationAdvisory(t *testing.T) {
	result, err := leave.PrepareBooking(bookingUser(), nil, engine.KindOvertime,
		day(2024, time.June, 10), day(2024, time.June, 10), "Abbummeln", engine.HolidaySet{}, bookedAt)

	require.NoError(t, err)
	assert.False(t, result.WarningOverdrawn)
	assert.Equal(t, 0, result.RequestedVacationDays)
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestDecide_SubmittedToApproved(t *testing.T) {
	r := request("leave-1", engine.StatusSubmitted, day(2024, time.June, 1), day(2024, time.June, 5))
	now := time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)

	decided, err := leave.Decide(r, engine.StatusApproved, "Passt.", "supervisor-1", now)

	require.NoError(t, err)
	assert.Equal(t, engine.StatusApproved, decided.Status)
	assert.Equal(t, "supervisor-1", decided.DecidedByID)
	assert.Equal(t, "Passt.", decided.DecisionNote)
	require.NotNil(t, decided.DecidedAt)
	assert.Equal(t, now, *decided.DecidedAt)
}

func TestDecide_TerminalStates_Rejected(t *testing.T) {
	// GIVEN: Requests in each terminal state
	// WHEN: Deciding them again
	// THEN: Every attempt is rejected as a conflict

	for _, status := range []engine.LeaveStatus{engine.StatusApproved, engine.StatusRejected, engine.StatusCanceled} {
		r := request("leave-1", status, day(2024, time.June, 1), day(2024, time.June, 5))

		_, err := leave.Decide(r, engine.StatusApproved, "", "supervisor-1", bookedAt)

		assert.True(t, engine.IsConflict(err), "status %s", status)
	}
}

func TestDecide_InvalidTargetState_Rejected(t *testing.T) {
	r := request("leave-1", engine.StatusSubmitted, day(2024, time.June, 1), day(2024, time.June, 5))

	_, err := leave.Decide(r, engine.StatusCanceled, "", "supervisor-1", bookedAt)

	assert.True(t, engine.IsValidation(err))
}

func TestCancel_OnlySubmitted(t *testing.T) {
	r := request("leave-1", engine.StatusSubmitted, day(2024, time.June, 1), day(2024, time.June, 5))

	canceled, err := leave.Cancel(r)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCanceled, canceled.Status)

	_, err = leave.Cancel(canceled)
	assert.True(t, engine.IsConflict(err))
}

func TestSupervisorUpdate_WhileSubmitted(t *testing.T) {
	// GIVEN: A submitted request and another booking later in the month
	// WHEN: Moving the submitted request onto a free range
	// THEN: The update succeeds; its own id is excluded from the check

	r := request("leave-1", engine.StatusSubmitted, day(2024, time.June, 1), day(2024, time.June, 5))
	existing := []engine.LeaveRequest{
		r,
		request("leave-2", engine.StatusApproved, day(2024, time.June, 20), day(2024, time.June, 25)),
	}

	updated, err := leave.SupervisorUpdate(r, existing, day(2024, time.June, 3), day(2024, time.June, 7), "Verschoben")

	require.NoError(t, err)
	assert.Equal(t, day(2024, time.June, 3), updated.StartDate)
	assert.Equal(t, "Verschoben", updated.Note)
}

func TestSupervisorUpdate_ApprovedRequest_Rejected(t *testing.T) {
	r := request("leave-1", engine.StatusApproved, day(2024, time.June, 1), day(2024, time.June, 5))

	_, err := leave.SupervisorUpdate(r, nil, day(2024, time.June, 2), day(2024, time.June, 6), "")

	assert.True(t, engine.IsConflict(err))
}

func TestSupervisorUpdate_OntoOccupiedRange_Conflicts(t *testing.T) {
	r := request("leave-1", engine.StatusSubmitted, day(2024, time.June, 1), day(2024, time.June, 5))
	existing := []engine.LeaveRequest{
		r,
		request("leave-2", engine.StatusApproved, day(2024, time.June, 20), day(2024, time.June, 25)),
	}

	_, err := leave.SupervisorUpdate(r, existing, day(2024, time.June, 18), day(2024, time.June, 22), "")

	assert.True(t, engine.IsConflict(err))
}
