/*
Package sqlite provides the SQLite-backed implementation of the
storage interfaces.

PURPOSE:
  Persists employees, templates, schedules with their shifts, punches,
  leaves, alert rules and alerts. Implements the attendance recomputer
  source interfaces (ShiftSource, PunchSource, LeaveSource, RuleSource,
  AlertStore) plus the schedule persistence the API layer needs.

INVARIANTS ENFORCED HERE:
  - Per-employee schedule overlap is refused on save.
  - Schedules with locked or confirmed shifts cannot be deleted.
  - idx_alerts_natural_key makes alert inserts idempotent: InsertAlert
    is an INSERT OR IGNORE and reports whether a row actually landed.

MIGRATIONS:
  Versioned goose migrations embedded in the binary, applied on New().

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, a single writer at a
  time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/schedule.db", logger)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - attendance/recompute.go: interfaces this store satisfies
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/warp/schedule-engine/attendance"
	"github.com/warp/schedule-engine/schedule"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	mu  sync.RWMutex
}

// New opens the database, applies pending migrations and returns the
// store. Use ":memory:" for an in-memory database. A nil logger is
// replaced with a no-op one.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db, log: logger}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return err
	}
	s.log.Debug("migrations applied")
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employee is an employee record. Timezone is the IANA name the
// employee's shifts are generated in; EffectiveStart is the contract
// start date (zero when open-ended into the past).
type Employee struct {
	ID             schedule.EmployeeID
	Name           string
	Timezone       string
	TemplateID     schedule.TemplateID
	EffectiveStart time.Time
	CreatedAt      time.Time
}

// SaveEmployee upserts an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, timezone, template_id, effective_start, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			template_id = excluded.template_id,
			effective_start = excluded.effective_start
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Timezone, emp.TemplateID,
		fmtDate(emp.EffectiveStart),
		time.Now().UTC().Format(timeLayout),
	)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id schedule.EmployeeID) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp Employee
	var effectiveStart, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, timezone, template_id, effective_start, created_at FROM employees WHERE id = ?",
		id,
	).Scan(&emp.ID, &emp.Name, &emp.Timezone, &emp.TemplateID, &effectiveStart, &createdAt)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	emp.EffectiveStart = parseDate(effectiveStart)
	emp.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, timezone, template_id, effective_start, created_at FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		var effectiveStart, createdAt string
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Timezone, &emp.TemplateID, &effectiveStart, &createdAt); err != nil {
			return nil, err
		}
		emp.EffectiveStart = parseDate(effectiveStart)
		emp.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, emp)
	}
	return out, rows.Err()
}

// =============================================================================
// TEMPLATES
// =============================================================================

// SaveTemplate upserts a template and replaces its work-time rules.
func (s *Store) SaveTemplate(ctx context.Context, t *schedule.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	restdays, _ := json.Marshal(t.RestDays)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO templates (id, name, restdays_json, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			restdays_json = excluded.restdays_json
	`, t.ID, t.Name, string(restdays), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM worktimes WHERE template_id = ?", t.ID); err != nil {
		return err
	}
	for _, r := range t.Worktimes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO worktimes (template_id, name, week, dayofweek, hour_from, hour_to)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.ID, r.Name, r.Week, r.DayOfWeek, r.HourFrom, r.HourTo)
		if err != nil {
			if isUniqueConstraintError(err) {
				return schedule.NewValidationError("rule-duplicate",
					"template %s week %d day %d duplicates a rule boundary", t.ID, r.Week, r.DayOfWeek)
			}
			return err
		}
	}
	return tx.Commit()
}

// GetTemplate retrieves a template with its rules in generation order.
func (s *Store) GetTemplate(ctx context.Context, id schedule.TemplateID) (*schedule.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t schedule.Template
	var restdays string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, restdays_json FROM templates WHERE id = ?", id,
	).Scan(&t.ID, &t.Name, &restdays)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(restdays), &t.RestDays)

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, week, dayofweek, hour_from, hour_to
		FROM worktimes WHERE template_id = ?
		ORDER BY week, dayofweek, hour_from
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r schedule.WorkTimeRule
		if err := rows.Scan(&r.Name, &r.Week, &r.DayOfWeek, &r.HourFrom, &r.HourTo); err != nil {
			return nil, err
		}
		t.Worktimes = append(t.Worktimes, r)
	}
	return &t, rows.Err()
}

// ListTemplates returns all templates without their rules.
func (s *Store) ListTemplates(ctx context.Context) ([]schedule.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, restdays_json FROM templates ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Template
	for rows.Next() {
		var t schedule.Template
		var restdays string
		if err := rows.Scan(&t.ID, &t.Name, &restdays); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(restdays), &t.RestDays)
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// SCHEDULES
// =============================================================================

// SaveSchedule upserts the schedule and replaces its shifts, refusing
// overlap with another schedule of the same employee.
func (s *Store) SaveSchedule(ctx context.Context, sched *schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clash string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM schedules
		WHERE employee_id = ? AND id != ? AND date_start <= ? AND ? <= date_end
		LIMIT 1
	`, sched.EmployeeID, sched.ID, fmtDate(sched.DateEnd), fmtDate(sched.DateStart)).Scan(&clash)
	if err == nil {
		return schedule.NewValidationError("schedule-overlap",
			"schedule %q overlaps schedule %q for employee %q", sched.Name, clash, sched.EmployeeID)
	}
	if err != sql.ErrNoRows {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	restdays, _ := json.Marshal(sched.RestDayWeeks)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (id, employee_id, template_id, name, date_start, date_end, state, restdays_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			date_start = excluded.date_start,
			date_end = excluded.date_end,
			state = excluded.state,
			restdays_json = excluded.restdays_json
	`, sched.ID, sched.EmployeeID, sched.TemplateID, sched.Name,
		fmtDate(sched.DateStart), fmtDate(sched.DateEnd),
		sched.State, string(restdays), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM shifts WHERE schedule_id = ?", sched.ID); err != nil {
		return err
	}
	for _, sh := range sched.Shifts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shifts (id, schedule_id, employee_id, name, dayofweek, day, date_start, date_end, state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sh.ID, sched.ID, sched.EmployeeID, sh.Name, sh.DayOfWeek,
			fmtDate(sh.Day), sh.Start.UTC().Format(timeLayout), sh.End.UTC().Format(timeLayout), sh.State)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSchedule retrieves a schedule with its shifts.
func (s *Store) GetSchedule(ctx context.Context, id schedule.ScheduleID) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSchedule(ctx, id)
}

func (s *Store) getSchedule(ctx context.Context, id schedule.ScheduleID) (*schedule.Schedule, error) {
	var sched schedule.Schedule
	var dateStart, dateEnd, restdays string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, template_id, name, date_start, date_end, state, restdays_json
		FROM schedules WHERE id = ?
	`, id).Scan(&sched.ID, &sched.EmployeeID, &sched.TemplateID, &sched.Name,
		&dateStart, &dateEnd, &sched.State, &restdays)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	sched.DateStart = parseDate(dateStart)
	sched.DateEnd = parseDate(dateEnd)
	json.Unmarshal([]byte(restdays), &sched.RestDayWeeks)

	shifts, err := s.queryShifts(ctx, `
		SELECT id, schedule_id, name, dayofweek, day, date_start, date_end, state
		FROM shifts WHERE schedule_id = ?
		ORDER BY date_start, dayofweek
	`, id)
	if err != nil {
		return nil, err
	}
	sched.Shifts = shifts
	return &sched, nil
}

// GetScheduleByShift resolves the schedule owning a shift.
func (s *Store) GetScheduleByShift(ctx context.Context, shiftID schedule.ShiftID) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var schedID schedule.ScheduleID
	err := s.db.QueryRowContext(ctx,
		"SELECT schedule_id FROM shifts WHERE id = ?", shiftID,
	).Scan(&schedID)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrShiftNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.getSchedule(ctx, schedID)
}

// SchedulesForEmployee returns the employee's schedules with shifts,
// ordered by start date.
func (s *Store) SchedulesForEmployee(ctx context.Context, emp schedule.EmployeeID) ([]*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM schedules WHERE employee_id = ? ORDER BY date_start", emp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []schedule.ScheduleID
	for rows.Next() {
		var id schedule.ScheduleID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*schedule.Schedule, 0, len(ids))
	for _, id := range ids {
		sched, err := s.getSchedule(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	return out, nil
}

// DeleteSchedule removes a schedule and its shifts, refusing when any
// shift has left the draft/unlocked states.
func (s *Store) DeleteSchedule(ctx context.Context, id schedule.ScheduleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, err := s.getSchedule(ctx, id)
	if err != nil {
		return err
	}
	if !sched.Deletable() {
		return &schedule.StateError{Op: "delete schedule", ID: string(id), State: sched.State}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM shifts WHERE schedule_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ShiftsOnDay returns one employee's shifts for a local calendar day,
// sorted by start. Satisfies attendance.ShiftSource.
func (s *Store) ShiftsOnDay(ctx context.Context, emp schedule.EmployeeID, day time.Time) ([]schedule.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryShifts(ctx, `
		SELECT id, schedule_id, name, dayofweek, day, date_start, date_end, state
		FROM shifts WHERE employee_id = ? AND day = ?
		ORDER BY date_start
	`, emp, fmtDate(day))
}

func (s *Store) queryShifts(ctx context.Context, query string, args ...any) ([]schedule.Shift, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Shift
	for rows.Next() {
		var sh schedule.Shift
		var day, start, end string
		if err := rows.Scan(&sh.ID, &sh.ScheduleID, &sh.Name, &sh.DayOfWeek, &day, &start, &end, &sh.State); err != nil {
			return nil, err
		}
		sh.Day = parseDate(day)
		sh.Start, _ = time.Parse(timeLayout, start)
		sh.End, _ = time.Parse(timeLayout, end)
		out = append(out, sh)
	}
	return out, rows.Err()
}

// =============================================================================
// PUNCHES
// =============================================================================

// SavePunch upserts a punch pair.
func (s *Store) SavePunch(ctx context.Context, p attendance.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkOut := ""
	if p.HasCheckOut() {
		checkOut = p.CheckOut.UTC().Format(timeLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO punches (id, employee_id, check_in, check_out)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET check_out = excluded.check_out
	`, p.ID, p.EmployeeID, p.CheckIn.UTC().Format(timeLayout), checkOut)
	return err
}

// PunchesBetween returns punches with check-in inside [from, to),
// sorted by check-in. Satisfies attendance.PunchSource.
func (s *Store) PunchesBetween(ctx context.Context, emp schedule.EmployeeID, from, to time.Time) ([]attendance.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, check_in, check_out
		FROM punches
		WHERE employee_id = ? AND check_in >= ? AND check_in < ?
		ORDER BY check_in
	`, emp, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []attendance.Punch{}
	for rows.Next() {
		var p attendance.Punch
		var checkIn, checkOut string
		if err := rows.Scan(&p.ID, &p.EmployeeID, &checkIn, &checkOut); err != nil {
			return nil, err
		}
		p.CheckIn, _ = time.Parse(timeLayout, checkIn)
		if checkOut != "" {
			p.CheckOut, _ = time.Parse(timeLayout, checkOut)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVES
// =============================================================================

// LeaveRecord is a stored leave request.
type LeaveRecord struct {
	ID         attendance.LeaveID
	EmployeeID schedule.EmployeeID
	DateFrom   time.Time
	DateTo     time.Time
	State      string // requested, approved, refused
}

const (
	LeaveRequested = "requested"
	LeaveApproved  = "approved"
	LeaveRefused   = "refused"
)

// SaveLeave upserts a leave request.
func (s *Store) SaveLeave(ctx context.Context, lv LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaves (id, employee_id, date_from, date_to, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date_from = excluded.date_from,
			date_to = excluded.date_to,
			state = excluded.state
	`, lv.ID, lv.EmployeeID,
		lv.DateFrom.UTC().Format(timeLayout), lv.DateTo.UTC().Format(timeLayout),
		lv.State, time.Now().UTC().Format(timeLayout))
	return err
}

// GetLeave retrieves a leave by ID.
func (s *Store) GetLeave(ctx context.Context, id attendance.LeaveID) (*LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lv LeaveRecord
	var from, to string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, employee_id, date_from, date_to, state FROM leaves WHERE id = ?", id,
	).Scan(&lv.ID, &lv.EmployeeID, &from, &to, &lv.State)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("leave %q: %w", id, schedule.ErrValidation)
	}
	if err != nil {
		return nil, err
	}
	lv.DateFrom, _ = time.Parse(timeLayout, from)
	lv.DateTo, _ = time.Parse(timeLayout, to)
	return &lv, nil
}

// ApprovedLeaves returns approved leave intervals touching [from, to].
// Satisfies attendance.LeaveSource.
func (s *Store) ApprovedLeaves(ctx context.Context, emp schedule.EmployeeID, from, to time.Time) ([]schedule.LeaveInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date_from, date_to FROM leaves
		WHERE employee_id = ? AND state = ? AND date_from <= ? AND date_to >= ?
		ORDER BY date_from
	`, emp, LeaveApproved, to.UTC().Format(timeLayout), from.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []schedule.LeaveInterval{}
	for rows.Next() {
		var f, t string
		if err := rows.Scan(&f, &t); err != nil {
			return nil, err
		}
		var lv schedule.LeaveInterval
		lv.Start, _ = time.Parse(timeLayout, f)
		lv.End, _ = time.Parse(timeLayout, t)
		out = append(out, lv)
	}
	return out, rows.Err()
}

// =============================================================================
// ALERT RULES
// =============================================================================

// SaveRule upserts an alert rule.
func (s *Store) SaveRule(ctx context.Context, r attendance.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_rules (id, name, code, severity, window, grace_period, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			severity = excluded.severity,
			window = excluded.window,
			grace_period = excluded.grace_period,
			active = excluded.active
	`, r.ID, r.Name, r.Kind.Code(), r.Severity, r.Window, r.GracePeriod, r.Active)
	return err
}

// ListRules returns every rule, active or not.
func (s *Store) ListRules(ctx context.Context) ([]attendance.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryRules(ctx, "SELECT id, name, code, severity, window, grace_period, active FROM alert_rules ORDER BY code")
}

// ActiveRules returns the active rule set. Satisfies
// attendance.RuleSource.
func (s *Store) ActiveRules(ctx context.Context) ([]attendance.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryRules(ctx, "SELECT id, name, code, severity, window, grace_period, active FROM alert_rules WHERE active ORDER BY code")
}

func (s *Store) queryRules(ctx context.Context, query string, args ...any) ([]attendance.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []attendance.Rule{}
	for rows.Next() {
		var r attendance.Rule
		var code string
		if err := rows.Scan(&r.ID, &r.Name, &code, &r.Severity, &r.Window, &r.GracePeriod, &r.Active); err != nil {
			return nil, err
		}
		kind, err := attendance.ParseRuleKind(code)
		if err != nil {
			return nil, err
		}
		r.Kind = kind
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// ALERTS
// =============================================================================

// InsertAlert inserts a finding, ignoring duplicates of the natural
// key. Satisfies attendance.AlertStore.
func (s *Store) InsertAlert(ctx context.Context, a attendance.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO alerts (id, employee_id, rule_id, severity, timestamp, punch_id, shift_id, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.EmployeeID, a.RuleID, a.Severity,
		a.Timestamp.UTC().Format(timeLayout), a.PunchID, a.ShiftID, a.State)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAlertsBetween removes one employee's alerts stamped inside
// [from, to). Satisfies attendance.AlertStore.
func (s *Store) DeleteAlertsBetween(ctx context.Context, emp schedule.EmployeeID, from, to time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM alerts WHERE employee_id = ? AND timestamp >= ? AND timestamp < ?
	`, emp, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	return err
}

// ListAlerts returns one employee's alerts stamped inside [from, to),
// oldest first.
func (s *Store) ListAlerts(ctx context.Context, emp schedule.EmployeeID, from, to time.Time) ([]attendance.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, rule_id, severity, timestamp, punch_id, shift_id, state
		FROM alerts
		WHERE employee_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp
	`, emp, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []attendance.Alert{}
	for rows.Next() {
		var a attendance.Alert
		var ts string
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.RuleID, &a.Severity, &ts, &a.PunchID, &a.ShiftID, &a.State); err != nil {
			return nil, err
		}
		a.Timestamp, _ = time.Parse(timeLayout, ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAlert marks one alert resolved.
func (s *Store) ResolveAlert(ctx context.Context, id attendance.AlertID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE alerts SET state = ? WHERE id = ?", attendance.AlertResolved, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return schedule.NewValidationError("alert-unknown", "alert %q does not exist", id)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"alerts", "alert_rules", "leaves", "punches", "shifts", "schedules", "worktimes", "templates", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
