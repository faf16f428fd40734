/*
adjustments.go - Additive account corrections

Break credits, manual overtime adjustments and the direct overtime account
set. All three are side channels: they never touch the clock punches, only
add to what the accountants compute from them.
*/
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stechuhr/attendance-engine/engine"
)

// RecordBreakCredit adds minutes back to one day's net worked time.
func (s *Service) RecordBreakCredit(ctx context.Context, actorID, userID, date string, minutes int64, reason string) (engine.BreakCredit, error) {
	day, err := engine.ParseDate(date)
	if err != nil {
		return engine.BreakCredit{}, err
	}
	if minutes < 1 || minutes > 180 {
		return engine.BreakCredit{}, &engine.ValidationError{Field: "minutes", Message: "minutes must lie between 1 and 180"}
	}
	if len(strings.TrimSpace(reason)) < 5 {
		return engine.BreakCredit{}, &engine.ValidationError{Field: "reason", Message: "reason must carry at least 5 characters"}
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return engine.BreakCredit{}, err
	}

	credit := engine.BreakCredit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        day,
		Minutes:     minutes,
		Reason:      reason,
		CreatedByID: actorID,
	}
	if err := s.store.InsertBreakCredit(ctx, credit); err != nil {
		return engine.BreakCredit{}, err
	}
	s.audit(actorID, "BREAK_CREDIT_CREATED", "BreakCredit", credit.ID,
		map[string]any{"user": userID, "date": date, "minutes": minutes})
	return credit, nil
}

// RecordOvertimeAdjustment books a signed manual hour correction into the
// month containing the date.
func (s *Service) RecordOvertimeAdjustment(ctx context.Context, actorID, userID, date string, hours decimal.Decimal, reason string) (engine.OvertimeAdjustment, error) {
	day, err := engine.ParseDate(date)
	if err != nil {
		return engine.OvertimeAdjustment{}, err
	}
	if hours.IsZero() {
		return engine.OvertimeAdjustment{}, &engine.ValidationError{Field: "hours", Message: "hours must not be zero"}
	}
	if strings.TrimSpace(reason) == "" {
		return engine.OvertimeAdjustment{}, &engine.ValidationError{Field: "reason", Message: "reason is mandatory"}
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return engine.OvertimeAdjustment{}, err
	}

	adjustment := engine.OvertimeAdjustment{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        day,
		Hours:       hours,
		Reason:      reason,
		CreatedByID: actorID,
	}
	if err := s.store.InsertAdjustment(ctx, adjustment); err != nil {
		return engine.OvertimeAdjustment{}, err
	}
	s.audit(actorID, "OVERTIME_ADJUSTMENT_CREATED", "OvertimeAdjustment", adjustment.ID,
		map[string]any{"user": userID, "date": date, "hours": hours})
	return adjustment, nil
}

// ListAdjustments returns a user's newest manual adjustments.
func (s *Service) ListAdjustments(ctx context.Context, userID string, limit int) ([]engine.OvertimeAdjustment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.AdjustmentsByUser(ctx, userID, limit)
}

// SetOvertimeAccount resets a user's stored overtime starting balance to a
// target value. The delta is returned and written to the audit trail; it is
// deliberately NOT booked as an adjustment, since adjustments feed the
// monthly overtime sum and the new stored balance already carries the
// change.
func (s *Service) SetOvertimeAccount(ctx context.Context, actorID, userID string, target decimal.Decimal, note string) (decimal.Decimal, error) {
	if strings.TrimSpace(note) == "" {
		return decimal.Zero, &engine.ValidationError{Field: "note", Message: "note is mandatory"}
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	delta := engine.Round2(target.Sub(user.OvertimeBalanceHours))

	if err := s.store.SetOvertimeBalance(ctx, userID, target); err != nil {
		return decimal.Zero, err
	}

	s.audit(actorID, "OVERTIME_ACCOUNT_SET", "User", userID,
		map[string]any{"old": user.OvertimeBalanceHours, "new": target, "delta": delta, "note": note})
	return delta, nil
}
