/*
Package service orchestrates the accounting engine over the SQLite store.

PURPOSE:
  One operation per external contract: clock actions, corrections, day
  overrides, month/summary views, leave booking and decisions, sick leaves,
  manual account adjustments, the year-end rollover and the supervisor
  overview. Each operation loads an immutable config snapshot, runs the pure
  engine functions over stored state, and persists the result.

CONCURRENCY:
  Read-then-write operations take a per-user mutex (see locks.go), so two
  simultaneous bookings or day overrides for the same user serialize.

ERROR CONTRACT:
  Operations reject whole. Every error unwraps to one of the engine's four
  sentinel categories; the API layer maps them to status codes.
*/
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stechuhr/attendance-engine/engine"
	"github.com/stechuhr/attendance-engine/store/sqlite"
)

// Service carries the store, logger and clock shared by all operations.
type Service struct {
	store *sqlite.Store
	log   zerolog.Logger
	now   func() time.Time
	locks *userLocks
}

// New wires a service over the given store.
func New(store *sqlite.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		locks: newUserLocks(),
	}
}

// WithClock pins the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// =============================================================================
// USERS AND CONFIG
// =============================================================================

// CreateUser persists a new employee record.
func (s *Service) CreateUser(ctx context.Context, u engine.User) (engine.User, error) {
	if strings.TrimSpace(u.Name) == "" {
		return engine.User{}, &engine.ValidationError{Field: "name", Message: "name is mandatory"}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return engine.User{}, err
	}
	s.log.Info().Str("user_id", u.ID).Msg("user created")
	return u, nil
}

// UpdateUser rewrites an existing employee record. The id must already
// exist; balances carried on the record are written as given.
func (s *Service) UpdateUser(ctx context.Context, actorID string, u engine.User) (engine.User, error) {
	if strings.TrimSpace(u.Name) == "" {
		return engine.User{}, &engine.ValidationError{Field: "name", Message: "name is mandatory"}
	}
	unlock := s.locks.Lock(u.ID)
	defer unlock()

	if _, err := s.store.GetUser(ctx, u.ID); err != nil {
		return engine.User{}, err
	}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return engine.User{}, err
	}
	s.audit(actorID, "USER_UPDATED", "User", u.ID, nil)
	return u, nil
}

// GetUser loads one user.
func (s *Service) GetUser(ctx context.Context, userID string) (engine.User, error) {
	return s.store.GetUser(ctx, userID)
}

// ListUsers returns all active users.
func (s *Service) ListUsers(ctx context.Context) ([]engine.User, error) {
	return s.store.ListActiveUsers(ctx)
}

// Config returns the current configuration snapshot.
func (s *Service) Config(ctx context.Context) (engine.Config, error) {
	return s.store.LoadConfig(ctx)
}

// UpdateConfig replaces the configuration. workingDayCodes is the
// comma-separated day-code list, e.g. "MON,TUE,WED,THU,FRI".
func (s *Service) UpdateConfig(ctx context.Context, actorID string, cfg engine.Config, workingDayCodes string) error {
	if !cfg.DefaultDailyHours.IsPositive() {
		return &engine.ValidationError{Field: "defaultDailyHours", Message: "must be positive"}
	}
	if cfg.AutoBreakMinutes < 0 {
		return &engine.ValidationError{Field: "autoBreakMinutes", Message: "must not be negative"}
	}
	cfg.WorkingDays = engine.ParseWorkingDaySet(workingDayCodes)
	if err := s.store.SaveConfig(ctx, cfg, workingDayCodes); err != nil {
		return err
	}
	s.audit(actorID, "CONFIG_UPDATED", "SystemConfig", "1", cfg)
	return nil
}

// =============================================================================
// CLOCK ACTIONS
// =============================================================================

// RecordClock books a live punch for the user. The reason text is mandatory.
func (s *Service) RecordClock(ctx context.Context, userID string, typ engine.EntryType, reasonText string) (engine.TimeEntry, error) {
	if err := validateEntryType(typ); err != nil {
		return engine.TimeEntry{}, err
	}
	if strings.TrimSpace(reasonText) == "" {
		return engine.TimeEntry{}, &engine.ValidationError{Field: "reasonText", Message: "reason is mandatory"}
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	if !user.TimeTrackingEnabled {
		return engine.TimeEntry{}, &engine.TrackingDisabledError{UserID: userID}
	}

	entry := engine.TimeEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       typ,
		OccurredAt: s.now(),
		Source:     engine.SourceWeb,
		ReasonText: reasonText,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertEntry(ctx, entry); err != nil {
		return engine.TimeEntry{}, err
	}

	s.log.Info().Str("user_id", userID).Str("type", string(typ)).Msg("clock punch recorded")
	s.audit(userID, "CLOCK_"+string(typ), "TimeEntry", entry.ID, map[string]string{"reason": reasonText})
	return entry, nil
}

// RecordSelfCorrection books a back-dated punch for the user's own account.
// The target day must lie within the configured self-correction window.
func (s *Service) RecordSelfCorrection(ctx context.Context, userID string, typ engine.EntryType, occurredAt time.Time, comment string) (engine.TimeEntry, error) {
	if err := validateEntryType(typ); err != nil {
		return engine.TimeEntry{}, err
	}
	if strings.TrimSpace(comment) == "" {
		return engine.TimeEntry{}, &engine.ValidationError{Field: "comment", Message: "comment is mandatory"}
	}
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	if err := checkSelfWindow(s.now(), occurredAt, cfg.SelfCorrectionMaxDays); err != nil {
		return engine.TimeEntry{}, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	if !user.TimeTrackingEnabled {
		return engine.TimeEntry{}, &engine.TrackingDisabledError{UserID: userID}
	}

	entry := engine.TimeEntry{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Type:               typ,
		OccurredAt:         occurredAt.UTC(),
		Source:             engine.SourceManualCorrection,
		IsManualCorrection: true,
		ReasonText:         comment,
		CorrectionComment:  comment,
		CreatedByID:        userID,
		CreatedAt:          s.now(),
	}
	if err := s.store.InsertEntry(ctx, entry); err != nil {
		return engine.TimeEntry{}, err
	}
	s.audit(userID, "SELF_CORRECTION", "TimeEntry", entry.ID, map[string]string{"comment": comment})
	return entry, nil
}

// RecordSupervisorCorrection books a punch on behalf of another user. The
// comment must carry at least 10 characters.
func (s *Service) RecordSupervisorCorrection(ctx context.Context, actorID, targetUserID string, typ engine.EntryType, occurredAt time.Time, comment string) (engine.TimeEntry, error) {
	if err := validateEntryType(typ); err != nil {
		return engine.TimeEntry{}, err
	}
	if len(strings.TrimSpace(comment)) < 10 {
		return engine.TimeEntry{}, &engine.ValidationError{Field: "comment", Message: "comment must carry at least 10 characters"}
	}
	user, err := s.store.GetUser(ctx, targetUserID)
	if err != nil {
		return engine.TimeEntry{}, err
	}
	if !user.TimeTrackingEnabled {
		return engine.TimeEntry{}, &engine.TrackingDisabledError{UserID: targetUserID}
	}

	entry := engine.TimeEntry{
		ID:                 uuid.NewString(),
		UserID:             targetUserID,
		Type:               typ,
		OccurredAt:         occurredAt.UTC(),
		Source:             engine.SourceManualCorrection,
		IsManualCorrection: true,
		ReasonText:         comment,
		CorrectionComment:  comment,
		CreatedByID:        actorID,
		CreatedAt:          s.now(),
	}
	if err := s.store.InsertEntry(ctx, entry); err != nil {
		return engine.TimeEntry{}, err
	}
	s.audit(actorID, "SUPERVISOR_CORRECTION", "TimeEntry", entry.ID,
		map[string]string{"target_user": targetUserID, "comment": comment})
	return entry, nil
}

// =============================================================================
// DAY OVERRIDE
// =============================================================================

// OverrideEvent is one replacement punch supplied to a day override.
type OverrideEvent struct {
	Type engine.EntryType `json:"type"`
	Time string           `json:"time"` // "HH:MM"
}

// OverrideResult reports the rewrite outcome.
type OverrideResult struct {
	DeletedCount int64 `json:"deletedCount"`
	CreatedCount int   `json:"createdCount"`
}

// OverrideDay replaces every punch of the target user on one day with the
// supplied event list, atomically. Re-running with the same list yields the
// same day state. selfService additionally enforces the back-dating window.
func (s *Service) OverrideDay(ctx context.Context, actorID, targetUserID, date, note string, events []OverrideEvent, selfService bool) (OverrideResult, error) {
	if strings.TrimSpace(note) == "" {
		return OverrideResult{}, &engine.ValidationError{Field: "note", Message: "note is mandatory"}
	}
	day, err := engine.ParseDate(date)
	if err != nil {
		return OverrideResult{}, err
	}
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return OverrideResult{}, err
	}
	if selfService {
		if err := checkSelfWindow(s.now(), day, cfg.SelfCorrectionMaxDays); err != nil {
			return OverrideResult{}, err
		}
	}
	user, err := s.store.GetUser(ctx, targetUserID)
	if err != nil {
		return OverrideResult{}, err
	}
	if !user.TimeTrackingEnabled {
		return OverrideResult{}, &engine.TrackingDisabledError{UserID: targetUserID}
	}

	// Validate and materialize all replacement punches before touching the
	// database, so a malformed event cannot abort a half-rewritten day.
	replacement := make([]engine.TimeEntry, 0, len(events))
	for _, ev := range events {
		if err := validateEntryType(ev.Type); err != nil {
			return OverrideResult{}, err
		}
		hour, minute, err := engine.ParseClock(ev.Time)
		if err != nil {
			return OverrideResult{}, err
		}
		replacement = append(replacement, engine.TimeEntry{
			ID:                 uuid.NewString(),
			UserID:             targetUserID,
			Type:               ev.Type,
			OccurredAt:         day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
			Source:             engine.SourceManualCorrection,
			IsManualCorrection: true,
			ReasonText:         note,
			CorrectionComment:  note,
			CreatedByID:        actorID,
			CreatedAt:          s.now(),
		})
	}

	unlock := s.locks.Lock(targetUserID)
	defer unlock()

	var result OverrideResult
	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		deleted, err := tx.DeleteEntriesInRange(ctx, targetUserID, engine.DayStart(day), engine.DayEnd(day))
		if err != nil {
			return err
		}
		result.DeletedCount = deleted
		for _, e := range replacement {
			if err := tx.InsertEntry(ctx, e); err != nil {
				return err
			}
		}
		result.CreatedCount = len(replacement)
		return nil
	})
	if err != nil {
		return OverrideResult{}, err
	}

	s.log.Info().
		Str("user_id", targetUserID).
		Str("date", date).
		Int64("deleted", result.DeletedCount).
		Int("created", result.CreatedCount).
		Msg("day override applied")
	s.audit(actorID, "DAY_OVERRIDE", "TimeEntry", targetUserID+":"+date,
		map[string]any{"note": note, "events": events, "self_service": selfService})
	return result, nil
}

// BulkEntryResult reports which dates a bulk booking filled and which it
// left alone.
type BulkEntryResult struct {
	CreatedCount  int      `json:"createdCount"`
	InsertedDates []string `json:"insertedDates"`
	SkippedDates  []string `json:"skippedDates"`
}

// BulkEntry books one identical in/out pair on every working day of an
// inclusive date range. Days that already carry punches are skipped so a
// bulk backfill never clobbers recorded time.
func (s *Service) BulkEntry(ctx context.Context, actorID, targetUserID, startDate, endDate, inTime, outTime, note string) (BulkEntryResult, error) {
	if strings.TrimSpace(note) == "" {
		return BulkEntryResult{}, &engine.ValidationError{Field: "note", Message: "note is mandatory"}
	}
	start, err := engine.ParseDate(startDate)
	if err != nil {
		return BulkEntryResult{}, err
	}
	end, err := engine.ParseDate(endDate)
	if err != nil {
		return BulkEntryResult{}, err
	}
	if end.Before(start) {
		return BulkEntryResult{}, &engine.ValidationError{Field: "endDate", Message: "end date must not precede start date"}
	}
	inHour, inMinute, err := engine.ParseClock(inTime)
	if err != nil {
		return BulkEntryResult{}, err
	}
	outHour, outMinute, err := engine.ParseClock(outTime)
	if err != nil {
		return BulkEntryResult{}, err
	}
	if outHour*60+outMinute <= inHour*60+inMinute {
		return BulkEntryResult{}, &engine.ValidationError{Field: "outTime", Message: "out time must follow in time"}
	}
	user, err := s.store.GetUser(ctx, targetUserID)
	if err != nil {
		return BulkEntryResult{}, err
	}
	if !user.TimeTrackingEnabled {
		return BulkEntryResult{}, &engine.TrackingDisabledError{UserID: targetUserID}
	}

	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return BulkEntryResult{}, err
	}
	holidayRows, err := s.store.HolidaysInRange(ctx, start, end)
	if err != nil {
		return BulkEntryResult{}, err
	}
	holidays := engine.NewHolidaySet(holidayRows)

	unlock := s.locks.Lock(targetUserID)
	defer unlock()

	existing, err := s.store.EntriesInRange(ctx, targetUserID, engine.DayStart(start), engine.DayEnd(end))
	if err != nil {
		return BulkEntryResult{}, err
	}
	occupied := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		occupied[engine.DayKey(e.OccurredAt)] = struct{}{}
	}

	result := BulkEntryResult{InsertedDates: []string{}, SkippedDates: []string{}}
	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		for _, day := range engine.EachDay(start, end) {
			if !engine.IsWorkingDay(day, cfg.WorkingDays, holidays) {
				continue
			}
			if _, taken := occupied[engine.DayKey(day)]; taken {
				result.SkippedDates = append(result.SkippedDates, engine.DayKey(day))
				continue
			}
			pair := []engine.TimeEntry{
				{Type: engine.ClockIn, OccurredAt: day.Add(time.Duration(inHour)*time.Hour + time.Duration(inMinute)*time.Minute)},
				{Type: engine.ClockOut, OccurredAt: day.Add(time.Duration(outHour)*time.Hour + time.Duration(outMinute)*time.Minute)},
			}
			for _, e := range pair {
				e.ID = uuid.NewString()
				e.UserID = targetUserID
				e.Source = engine.SourceManualCorrection
				e.IsManualCorrection = true
				e.ReasonText = note
				e.CorrectionComment = note
				e.CreatedByID = actorID
				e.CreatedAt = s.now()
				if err := tx.InsertEntry(ctx, e); err != nil {
					return err
				}
				result.CreatedCount++
			}
			result.InsertedDates = append(result.InsertedDates, engine.DayKey(day))
		}
		return nil
	})
	if err != nil {
		return BulkEntryResult{}, err
	}

	s.audit(actorID, "BULK_ENTRY", "TimeEntry", targetUserID,
		map[string]string{"start": startDate, "end": endDate, "note": note})
	return result, nil
}

// =============================================================================
// VALIDATION HELPERS
// =============================================================================

func validateEntryType(typ engine.EntryType) error {
	if typ != engine.ClockIn && typ != engine.ClockOut {
		return &engine.ValidationError{Field: "type", Message: "type must be CLOCK_IN or CLOCK_OUT"}
	}
	return nil
}

// checkSelfWindow rejects self-service targets in the future or with more
// than maxDays days strictly between the target and today.
func checkSelfWindow(now, target time.Time, maxDays int) error {
	diff := engine.DaysBetween(target, now)
	if diff < 0 {
		return &engine.WindowError{Date: target, MaxDays: maxDays, Future: true}
	}
	if diff-1 > maxDays {
		return &engine.WindowError{Date: target, MaxDays: maxDays}
	}
	return nil
}
