/*
Package schedule contains the shift-generation engine.

PURPOSE:
  This package expands reusable weekly templates into concrete,
  timezone-correct shift intervals. It is pure computation: templates,
  leave intervals and existing shifts are supplied as collections, and
  generated shifts are returned for the caller to persist.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: One concrete worked interval, owned by a Schedule
  - LeaveInterval: An approved absence that punches holes into shifts
  - State: The draft/confirmed/locked/unlocked lifecycle
  - Date helpers: Calendar dates are midnight-UTC time.Time values

DESIGN PRINCIPLES:
  1. Explicit timezone: every conversion goes through WeekdayClock;
     there is no ambient user-timezone state.
  2. One-directional ownership: a Shift carries its Schedule's ID only,
     never a pointer back to the aggregate.
  3. Half-open intervals: a shift occupies [Start, End) in UTC.

SEE ALSO:
  - clock.go: wall-clock to UTC conversion
  - generate.go: template expansion
  - schedule.go: the Schedule aggregate and its state machine
*/
package schedule

import (
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type TemplateID string
type ScheduleID string
type ShiftID string

// =============================================================================
// LIFECYCLE STATE
// =============================================================================

// State is the lifecycle of a Schedule or Shift:
// draft → confirmed → locked, locked → unlocked, unlocked → locked.
type State string

const (
	StateDraft     State = "draft"
	StateConfirmed State = "confirmed"
	StateLocked    State = "locked"
	StateUnlocked  State = "unlocked"
)

// Deletable reports whether a record in this state may be deleted.
func (s State) Deletable() bool {
	return s == StateDraft || s == StateUnlocked
}

// Lockable reports whether a record in this state may transition to locked.
func (s State) Lockable() bool {
	return s == StateConfirmed || s == StateUnlocked
}

// =============================================================================
// SHIFT - One concrete worked interval
// =============================================================================

// Shift is a single generated work interval. Start and End are UTC
// instants; Day is the local calendar date the shift belongs to, which
// can differ from the UTC date of Start.
type Shift struct {
	ID         ShiftID
	ScheduleID ScheduleID
	Name       string
	DayOfWeek  int       // 0 = Monday .. 6 = Sunday
	Day        time.Time // local calendar date (midnight-UTC encoding)
	Start      time.Time // UTC, inclusive
	End        time.Time // UTC, exclusive; always after Start
	State      State
}

// Duration returns the worked length of the shift.
func (s Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// =============================================================================
// LEAVE - Approved absence interval
// =============================================================================

// LeaveInterval is an approved removal-type leave in UTC, treated as
// the half-open interval [Start, End).
type LeaveInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the leave touches the interval [from, to].
func (l LeaveInterval) Overlaps(from, to time.Time) bool {
	return !l.Start.After(to) && !l.End.Before(from)
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// NewDate returns the calendar date as a midnight-UTC time.Time.
// Dates in this package (schedule boundaries, shift days) are always
// encoded this way; only Start/End instants carry time-of-day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in t's own location,
// re-encoded as midnight UTC.
func DateOf(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// MondayIndex returns the weekday of t with Monday = 0 .. Sunday = 6.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// StartOfWeek returns the Monday of the week containing the date t.
func StartOfWeek(t time.Time) time.Time {
	return DateOf(t).AddDate(0, 0, -MondayIndex(t))
}

// SameDate reports whether two date-encoded times are the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the whole days from one date to another.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
