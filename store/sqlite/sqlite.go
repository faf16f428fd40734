/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Stores the raw facts the accounting engine computes over: clock punches,
  break credits, overtime adjustments, leave requests, sick leaves, holidays,
  users and the single system configuration row. All accounting is recomputed
  from these rows on every read; nothing derived is persisted.

KEY TABLES:
  users:                 Employee records incl. vacation and overtime balances
  system_config:         Single-row (id=1) global configuration
  time_entries:          Clock punches, the source of truth for worked time
  break_credits:         Per-day additive minute corrections
  overtime_adjustments:  Manual signed ledger corrections
  leave_requests:        Vacation/overtime bookings with lifecycle state
  sick_leaves:           Inclusive sick date ranges
  holidays:              Company holidays
  audit_logs:            Append-only action trail

DAY OVERRIDE:
  Rewriting a user's day (delete all punches, insert the replacement list)
  runs inside one database transaction via WithTx. A mid-operation failure
  can never leave a day half-deleted.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's single-writer
  model. The database is opened in WAL mode so readers do not block.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/stechuhr/attendance-engine/engine"
)

// timeLayout is a fixed-width RFC3339 form for sub-second timestamps.
// RFC3339Nano trims trailing fraction zeros, which breaks lexicographic
// range comparisons over the TEXT column at sub-second boundaries.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements persistence for the attendance engine using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		annual_vacation_days TEXT NOT NULL DEFAULT '30',
		carry_over_vacation_days TEXT NOT NULL DEFAULT '0',
		overtime_balance_hours TEXT NOT NULL DEFAULT '0',
		daily_work_hours TEXT,
		time_tracking_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS system_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		default_daily_hours TEXT NOT NULL,
		default_weekly_working_days TEXT NOT NULL,
		auto_break_minutes INTEGER NOT NULL,
		auto_break_after_hours TEXT NOT NULL,
		self_correction_max_days INTEGER NOT NULL,
		company_name TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		source TEXT NOT NULL,
		is_manual_correction BOOLEAN NOT NULL DEFAULT FALSE,
		reason_text TEXT,
		correction_comment TEXT,
		created_by_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: month windows and day-override deletes
	CREATE INDEX IF NOT EXISTS idx_time_entries_user_occurred
		ON time_entries(user_id, occurred_at);

	CREATE TABLE IF NOT EXISTS break_credits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		reason TEXT,
		created_by_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_break_credits_user_date
		ON break_credits(user_id, date);

	CREATE TABLE IF NOT EXISTS overtime_adjustments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		reason TEXT,
		created_by_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_overtime_adjustments_user_date
		ON overtime_adjustments(user_id, date);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		note TEXT,
		decision_note TEXT,
		decided_by_id TEXT,
		decided_at TEXT,
		requested_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_user
		ON leave_requests(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_leave_requests_range
		ON leave_requests(user_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS sick_leaves (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		partial_day_hours TEXT,
		note TEXT,
		created_by_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sick_leaves_user_range
		ON sick_leaves(user_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_date_name
		ON holidays(date, name);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		actor_user_id TEXT,
		action TEXT NOT NULL,
		target_type TEXT,
		target_id TEXT,
		payload_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_logs_created
		ON audit_logs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

// SaveUser inserts or replaces a user record.
func (s *Store) SaveUser(ctx context.Context, u engine.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users
		(id, name, annual_vacation_days, carry_over_vacation_days, overtime_balance_hours,
		 daily_work_hours, time_tracking_enabled, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			annual_vacation_days = excluded.annual_vacation_days,
			carry_over_vacation_days = excluded.carry_over_vacation_days,
			overtime_balance_hours = excluded.overtime_balance_hours,
			daily_work_hours = excluded.daily_work_hours,
			time_tracking_enabled = excluded.time_tracking_enabled,
			is_active = excluded.is_active
	`

	var daily sql.NullString
	if u.DailyWorkHours != nil {
		daily = sql.NullString{String: u.DailyWorkHours.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name,
		u.AnnualVacationDays.String(),
		u.CarryOverVacationDays.String(),
		u.OvertimeBalanceHours.String(),
		daily,
		u.TimeTrackingEnabled, u.IsActive,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser loads one user by id.
func (s *Store) GetUser(ctx context.Context, id string) (engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, annual_vacation_days, carry_over_vacation_days,
		       overtime_balance_hours, daily_work_hours, time_tracking_enabled, is_active
		FROM users WHERE id = ?
	`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return engine.User{}, &engine.NotFoundError{Kind: "user", ID: id}
	}
	if err != nil {
		return engine.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListActiveUsers returns all active users ordered by name.
func (s *Store) ListActiveUsers(ctx context.Context) ([]engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, annual_vacation_days, carry_over_vacation_days,
		       overtime_balance_hours, daily_work_hours, time_tracking_enabled, is_active
		FROM users WHERE is_active = TRUE ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []engine.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateCarryOver sets a user's carry-over vacation days. Used by the
// year-end rollover; negative values are stored as-is.
func (s *Store) UpdateCarryOver(ctx context.Context, userID string, days decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET carry_over_vacation_days = ? WHERE id = ?",
		days.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to update carry-over: %w", err)
	}
	return requireRowAffected(res, "user", userID)
}

// SetOvertimeBalance sets a user's stored overtime starting balance.
func (s *Store) SetOvertimeBalance(ctx context.Context, userID string, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET overtime_balance_hours = ? WHERE id = ?",
		hours.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to set overtime balance: %w", err)
	}
	return requireRowAffected(res, "user", userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (engine.User, error) {
	var (
		u        engine.User
		annual   string
		carry    string
		overtime string
		daily    sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &annual, &carry, &overtime, &daily,
		&u.TimeTrackingEnabled, &u.IsActive); err != nil {
		return u, err
	}
	u.AnnualVacationDays = mustDecimal(annual)
	u.CarryOverVacationDays = mustDecimal(carry)
	u.OvertimeBalanceHours = mustDecimal(overtime)
	if daily.Valid {
		d := mustDecimal(daily.String)
		u.DailyWorkHours = &d
	}
	return u, nil
}

// =============================================================================
// SYSTEM CONFIG
// =============================================================================

// LoadConfig reads the single configuration row. A missing row yields the
// factory defaults.
func (s *Store) LoadConfig(ctx context.Context) (engine.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT default_daily_hours, default_weekly_working_days, auto_break_minutes,
		       auto_break_after_hours, self_correction_max_days, company_name
		FROM system_config WHERE id = 1
	`

	var (
		dailyHours      string
		workingDays     string
		breakMinutes    int64
		breakAfterHours string
		maxDays         int
		companyName     string
	)
	err := s.db.QueryRowContext(ctx, query).Scan(
		&dailyHours, &workingDays, &breakMinutes, &breakAfterHours, &maxDays, &companyName)
	if err == sql.ErrNoRows {
		return engine.DefaultConfig(), nil
	}
	if err != nil {
		return engine.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return engine.Config{
		DefaultDailyHours:     mustDecimal(dailyHours),
		WorkingDays:           engine.ParseWorkingDaySet(workingDays),
		AutoBreakMinutes:      breakMinutes,
		AutoBreakAfterHours:   mustDecimal(breakAfterHours),
		SelfCorrectionMaxDays: maxDays,
		CompanyName:           companyName,
	}, nil
}

// SaveConfig writes the single configuration row.
func (s *Store) SaveConfig(ctx context.Context, cfg engine.Config, workingDayCodes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO system_config
		(id, default_daily_hours, default_weekly_working_days, auto_break_minutes,
		 auto_break_after_hours, self_correction_max_days, company_name, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			default_daily_hours = excluded.default_daily_hours,
			default_weekly_working_days = excluded.default_weekly_working_days,
			auto_break_minutes = excluded.auto_break_minutes,
			auto_break_after_hours = excluded.auto_break_after_hours,
			self_correction_max_days = excluded.self_correction_max_days,
			company_name = excluded.company_name,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		cfg.DefaultDailyHours.String(), workingDayCodes, cfg.AutoBreakMinutes,
		cfg.AutoBreakAfterHours.String(), cfg.SelfCorrectionMaxDays, cfg.CompanyName,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

// InsertEntry persists one clock punch.
func (s *Store) InsertEntry(ctx context.Context, e engine.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertEntry(ctx, s.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEntry(ctx context.Context, db execer, e engine.TimeEntry) error {
	query := `
		INSERT INTO time_entries
		(id, user_id, entry_type, occurred_at, source, is_manual_correction,
		 reason_text, correction_comment, created_by_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		e.ID, e.UserID, string(e.Type),
		e.OccurredAt.UTC().Format(timeLayout),
		string(e.Source), e.IsManualCorrection,
		nullString(e.ReasonText), nullString(e.CorrectionComment), nullString(e.CreatedByID),
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert time entry: %w", err)
	}
	return nil
}

// EntriesInRange returns a user's punches with occurred_at in [from, to],
// ordered chronologically.
func (s *Store) EntriesInRange(ctx context.Context, userID string, from, to time.Time) ([]engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, entry_type, occurred_at, source, is_manual_correction,
		       reason_text, correction_comment, created_by_id, created_at
		FROM time_entries
		WHERE user_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC
	`

	return s.queryEntries(ctx, query, userID,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
}

// AllEntries returns every punch of one user, oldest first.
func (s *Store) AllEntries(ctx context.Context, userID string) ([]engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, entry_type, occurred_at, source, is_manual_correction,
		       reason_text, correction_comment, created_by_id, created_at
		FROM time_entries
		WHERE user_id = ?
		ORDER BY occurred_at ASC
	`

	return s.queryEntries(ctx, query, userID)
}

// EntriesInRangeAllUsers returns every user's punches in a window, for the
// supervisor overview.
func (s *Store) EntriesInRangeAllUsers(ctx context.Context, from, to time.Time) ([]engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, entry_type, occurred_at, source, is_manual_correction,
		       reason_text, correction_comment, created_by_id, created_at
		FROM time_entries
		WHERE occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC
	`

	return s.queryEntries(ctx, query,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]engine.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []engine.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (engine.TimeEntry, error) {
	var (
		e          engine.TimeEntry
		entryType  string
		occurredAt string
		source     string
		reason     sql.NullString
		comment    sql.NullString
		createdBy  sql.NullString
		createdAt  string
	)
	err := rows.Scan(&e.ID, &e.UserID, &entryType, &occurredAt, &source,
		&e.IsManualCorrection, &reason, &comment, &createdBy, &createdAt)
	if err != nil {
		return e, fmt.Errorf("failed to scan time entry: %w", err)
	}
	e.Type = engine.EntryType(entryType)
	e.Source = engine.EntrySource(source)
	e.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.ReasonText = reason.String
	e.CorrectionComment = comment.String
	e.CreatedByID = createdBy.String
	return e, nil
}

// =============================================================================
// DAY OVERRIDE TRANSACTION
// =============================================================================

// Tx exposes the write operations that participate in a database
// transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx executes fn within one database transaction. A returned error rolls
// everything back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// DeleteEntriesInRange removes all punches of one user within [from, to].
func (t *Tx) DeleteEntriesInRange(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		"DELETE FROM time_entries WHERE user_id = ? AND occurred_at >= ? AND occurred_at <= ?",
		userID, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete time entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// InsertEntry persists one punch inside the transaction.
func (t *Tx) InsertEntry(ctx context.Context, e engine.TimeEntry) error {
	return insertEntry(ctx, t.tx, e)
}

// UpdateSickLeaveEnd shortens a sick leave inside the transaction.
func (t *Tx) UpdateSickLeaveEnd(ctx context.Context, id string, end time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE sick_leaves SET end_date = ? WHERE id = ?",
		engine.DayKey(end), id)
	if err != nil {
		return fmt.Errorf("failed to update sick leave: %w", err)
	}
	return nil
}

// UpdateSickLeaveStart moves a sick leave's start inside the transaction.
func (t *Tx) UpdateSickLeaveStart(ctx context.Context, id string, start time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE sick_leaves SET start_date = ? WHERE id = ?",
		engine.DayKey(start), id)
	if err != nil {
		return fmt.Errorf("failed to update sick leave: %w", err)
	}
	return nil
}

// DeleteSickLeave removes a sick leave inside the transaction.
func (t *Tx) DeleteSickLeave(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM sick_leaves WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sick leave: %w", err)
	}
	return nil
}

// InsertSickLeave persists a sick leave inside the transaction.
func (t *Tx) InsertSickLeave(ctx context.Context, sl engine.SickLeave) error {
	return insertSickLeave(ctx, t.tx, sl)
}

// =============================================================================
// BREAK CREDITS
// =============================================================================

// InsertBreakCredit persists one break credit.
func (s *Store) InsertBreakCredit(ctx context.Context, c engine.BreakCredit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO break_credits (id, user_id, date, minutes, reason, created_by_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.UserID, engine.DayKey(c.Date), c.Minutes,
		nullString(c.Reason), nullString(c.CreatedByID),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert break credit: %w", err)
	}
	return nil
}

// BreakCreditsInRange returns a user's credits with date in [from, to].
func (s *Store) BreakCreditsInRange(ctx context.Context, userID string, from, to time.Time) ([]engine.BreakCredit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, date, minutes, reason, created_by_id
		FROM break_credits
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, engine.DayKey(from), engine.DayKey(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query break credits: %w", err)
	}
	defer rows.Close()

	var credits []engine.BreakCredit
	for rows.Next() {
		var (
			c         engine.BreakCredit
			date      string
			reason    sql.NullString
			createdBy sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.UserID, &date, &c.Minutes, &reason, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan break credit: %w", err)
		}
		c.Date, _ = engine.ParseDate(date)
		c.Reason = reason.String
		c.CreatedByID = createdBy.String
		credits = append(credits, c)
	}
	return credits, rows.Err()
}

// =============================================================================
// OVERTIME ADJUSTMENTS
// =============================================================================

// InsertAdjustment persists one manual overtime adjustment.
func (s *Store) InsertAdjustment(ctx context.Context, a engine.OvertimeAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO overtime_adjustments (id, user_id, date, hours, reason, created_by_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.UserID, engine.DayKey(a.Date), a.Hours.String(),
		nullString(a.Reason), nullString(a.CreatedByID),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert overtime adjustment: %w", err)
	}
	return nil
}

// AdjustmentsByUser returns a user's adjustments, newest first, capped at
// limit (0 = all).
func (s *Store) AdjustmentsByUser(ctx context.Context, userID string, limit int) ([]engine.OvertimeAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, date, hours, reason, created_by_id
		FROM overtime_adjustments
		WHERE user_id = ?
		ORDER BY date DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overtime adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []engine.OvertimeAdjustment
	for rows.Next() {
		var (
			a         engine.OvertimeAdjustment
			date      string
			hours     string
			reason    sql.NullString
			createdBy sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &date, &hours, &reason, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan overtime adjustment: %w", err)
		}
		a.Date, _ = engine.ParseDate(date)
		a.Hours = mustDecimal(hours)
		a.Reason = reason.String
		a.CreatedByID = createdBy.String
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SaveLeave inserts or replaces a leave request.
func (s *Store) SaveLeave(ctx context.Context, r engine.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_requests
		(id, user_id, kind, status, start_date, end_date, note,
		 decision_note, decided_by_id, decided_at, requested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			note = excluded.note,
			decision_note = excluded.decision_note,
			decided_by_id = excluded.decided_by_id,
			decided_at = excluded.decided_at
	`

	var decidedAt sql.NullString
	if r.DecidedAt != nil {
		decidedAt = sql.NullString{String: r.DecidedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID, string(r.Kind), string(r.Status),
		engine.DayKey(r.StartDate), engine.DayKey(r.EndDate),
		nullString(r.Note), nullString(r.DecisionNote), nullString(r.DecidedByID),
		decidedAt, r.RequestedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save leave request: %w", err)
	}
	return nil
}

// GetLeave loads one leave request by id.
func (s *Store) GetLeave(ctx context.Context, id string) (engine.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := leaveSelect + " WHERE id = ?"

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return engine.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return engine.LeaveRequest{}, &engine.NotFoundError{Kind: "leave request", ID: id}
	}
	return scanLeave(rows)
}

// LeavesByUser returns all requests of one user, newest first.
func (s *Store) LeavesByUser(ctx context.Context, userID string) ([]engine.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLeaves(ctx, leaveSelect+" WHERE user_id = ? ORDER BY start_date DESC", userID)
}

// LeavesByStatus returns all requests in one status across users.
func (s *Store) LeavesByStatus(ctx context.Context, status engine.LeaveStatus) ([]engine.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLeaves(ctx, leaveSelect+" WHERE status = ? ORDER BY start_date ASC", string(status))
}

// ApprovedLeavesInWindow returns approved requests of a user intersecting
// [from, to].
func (s *Store) ApprovedLeavesInWindow(ctx context.Context, userID string, from, to time.Time) ([]engine.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := leaveSelect + `
		WHERE user_id = ? AND status = 'APPROVED' AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC`

	return s.queryLeaves(ctx, query, userID, engine.DayKey(to), engine.DayKey(from))
}

const leaveSelect = `
	SELECT id, user_id, kind, status, start_date, end_date, note,
	       decision_note, decided_by_id, decided_at, requested_at
	FROM leave_requests`

func (s *Store) queryLeaves(ctx context.Context, query string, args ...any) ([]engine.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []engine.LeaveRequest
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func scanLeave(rows *sql.Rows) (engine.LeaveRequest, error) {
	var (
		r            engine.LeaveRequest
		kind         string
		status       string
		startDate    string
		endDate      string
		note         sql.NullString
		decisionNote sql.NullString
		decidedBy    sql.NullString
		decidedAt    sql.NullString
		requestedAt  string
	)
	err := rows.Scan(&r.ID, &r.UserID, &kind, &status, &startDate, &endDate,
		&note, &decisionNote, &decidedBy, &decidedAt, &requestedAt)
	if err != nil {
		return r, fmt.Errorf("failed to scan leave request: %w", err)
	}
	r.Kind = engine.LeaveKind(kind)
	r.Status = engine.LeaveStatus(status)
	r.StartDate, _ = engine.ParseDate(startDate)
	r.EndDate, _ = engine.ParseDate(endDate)
	r.Note = note.String
	r.DecisionNote = decisionNote.String
	r.DecidedByID = decidedBy.String
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		r.DecidedAt = &t
	}
	r.RequestedAt, _ = time.Parse(time.RFC3339, requestedAt)
	return r, nil
}

// =============================================================================
// SICK LEAVES
// =============================================================================

// InsertSickLeave persists one sick leave range.
func (s *Store) InsertSickLeave(ctx context.Context, sl engine.SickLeave) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertSickLeave(ctx, s.db, sl)
}

func insertSickLeave(ctx context.Context, db execer, sl engine.SickLeave) error {
	query := `
		INSERT INTO sick_leaves (id, user_id, start_date, end_date, partial_day_hours, note, created_by_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var partial sql.NullString
	if sl.PartialDayHours != nil {
		partial = sql.NullString{String: sl.PartialDayHours.String(), Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		sl.ID, sl.UserID, engine.DayKey(sl.StartDate), engine.DayKey(sl.EndDate),
		partial, nullString(sl.Note), nullString(sl.CreatedByID),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert sick leave: %w", err)
	}
	return nil
}

// SickLeavesInWindow returns a user's sick leaves intersecting [from, to].
func (s *Store) SickLeavesInWindow(ctx context.Context, userID string, from, to time.Time) ([]engine.SickLeave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, start_date, end_date, partial_day_hours, note, created_by_id
		FROM sick_leaves
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, engine.DayKey(to), engine.DayKey(from))
	if err != nil {
		return nil, fmt.Errorf("failed to query sick leaves: %w", err)
	}
	defer rows.Close()

	var leaves []engine.SickLeave
	for rows.Next() {
		var (
			sl        engine.SickLeave
			startDate string
			endDate   string
			partial   sql.NullString
			note      sql.NullString
			createdBy sql.NullString
		)
		if err := rows.Scan(&sl.ID, &sl.UserID, &startDate, &endDate, &partial, &note, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan sick leave: %w", err)
		}
		sl.StartDate, _ = engine.ParseDate(startDate)
		sl.EndDate, _ = engine.ParseDate(endDate)
		if partial.Valid {
			d := mustDecimal(partial.String)
			sl.PartialDayHours = &d
		}
		sl.Note = note.String
		sl.CreatedByID = createdBy.String
		leaves = append(leaves, sl)
	}
	return leaves, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday inserts a holiday. The (date, name) pair is unique.
func (s *Store) SaveHoliday(ctx context.Context, h engine.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, name) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID, engine.DayKey(h.Date), h.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes a holiday by id.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return requireRowAffected(res, "holiday", id)
}

// HolidaysInRange returns holidays with date in [from, to].
func (s *Store) HolidaysInRange(ctx context.Context, from, to time.Time) ([]engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, date, name FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, engine.DayKey(from), engine.DayKey(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []engine.Holiday
	for rows.Next() {
		var (
			h    engine.Holiday
			date string
		)
		if err := rows.Scan(&h.ID, &date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date, _ = engine.ParseDate(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// AuditRecord is one append-only audit trail row.
type AuditRecord struct {
	ID          string
	ActorUserID string
	Action      string
	TargetType  string
	TargetID    string
	PayloadJSON string
	CreatedAt   time.Time
}

// InsertAudit appends one audit record.
func (s *Store) InsertAudit(ctx context.Context, rec AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO audit_logs (id, actor_user_id, action, target_type, target_id, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, nullString(rec.ActorUserID), rec.Action,
		nullString(rec.TargetType), nullString(rec.TargetID), nullString(rec.PayloadJSON),
		rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// RecentAudits returns the newest audit records, capped at limit.
func (s *Store) RecentAudits(ctx context.Context, limit int) ([]AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, actor_user_id, action, target_type, target_id, payload_json, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var (
			rec       AuditRecord
			actor     sql.NullString
			target    sql.NullString
			targetID  sql.NullString
			payload   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &actor, &rec.Action, &target, &targetID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.ActorUserID = actor.String
		rec.TargetType = target.String
		rec.TargetID = targetID.String
		rec.PayloadJSON = payload.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// BACKUP
// =============================================================================

// BackupTo writes a consistent snapshot of the whole database to path,
// using SQLite's VACUUM INTO. The target file must not exist.
func (s *Store) BackupTo(ctx context.Context, path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func requireRowAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &engine.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
