/*
recompute.go - Delete-then-regenerate alert maintenance

PURPOSE:
  The Recomputer rebuilds the alerts of one (employee, local day):
  it deletes the day's alerts, gathers that day's shifts, punches and
  leaves, runs every active rule, and inserts the findings. Inserts
  are idempotent on the alert's natural key, so concurrent or repeated
  recomputation converges instead of duplicating.

RULES OF THE ROAD:
  - Days on or after "today" in the employee's zone are never
    recomputed; punches are still arriving.
  - An overnight pair whose check-out lands in the target day is
    borrowed from the previous day so checkout rules see it.
*/
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// ShiftSource yields one employee's shifts for a local calendar day,
// sorted by start.
type ShiftSource interface {
	ShiftsOnDay(ctx context.Context, employee schedule.EmployeeID, day time.Time) ([]schedule.Shift, error)
}

// PunchSource yields punches whose check-in falls in [from, to),
// sorted by check-in.
type PunchSource interface {
	PunchesBetween(ctx context.Context, employee schedule.EmployeeID, from, to time.Time) ([]Punch, error)
}

// LeaveSource yields approved removal-type leaves touching [from, to].
type LeaveSource interface {
	ApprovedLeaves(ctx context.Context, employee schedule.EmployeeID, from, to time.Time) ([]schedule.LeaveInterval, error)
}

// RuleSource yields the active rule set.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]Rule, error)
}

// AlertStore persists findings. InsertAlert returns false when an
// alert with the same natural key already exists.
type AlertStore interface {
	InsertAlert(ctx context.Context, a Alert) (bool, error)
	DeleteAlertsBetween(ctx context.Context, employee schedule.EmployeeID, from, to time.Time) error
}

// =============================================================================
// RECOMPUTER
// =============================================================================

// Recomputer wires the sources together. Logger and Now are optional.
type Recomputer struct {
	Clock   schedule.WeekdayClock
	Shifts  ShiftSource
	Punches PunchSource
	Leaves  LeaveSource
	Rules   RuleSource
	Alerts  AlertStore
	Logger  *zap.Logger
	Now     func() time.Time
}

func (rc *Recomputer) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}

func (rc *Recomputer) logger() *zap.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}
	return zap.NewNop()
}

// RecomputeDay rebuilds the alerts of one employee and local day and
// returns how many alerts were inserted. Today and future days are
// skipped silently.
func (rc *Recomputer) RecomputeDay(ctx context.Context, employee schedule.EmployeeID, day time.Time) (int, error) {
	day = schedule.DateOf(day)
	today := rc.Clock.LocalDate(rc.now())
	if !day.Before(today) {
		return 0, nil
	}

	from, to := rc.Clock.DayWindow(day)
	if err := rc.Alerts.DeleteAlertsBetween(ctx, employee, from, to); err != nil {
		return 0, fmt.Errorf("delete alerts: %w", err)
	}

	shifts, err := rc.Shifts.ShiftsOnDay(ctx, employee, day)
	if err != nil {
		return 0, fmt.Errorf("load shifts: %w", err)
	}
	punches, err := rc.punchesForDay(ctx, employee, day)
	if err != nil {
		return 0, fmt.Errorf("load punches: %w", err)
	}
	leaves, err := rc.Leaves.ApprovedLeaves(ctx, employee, from, to)
	if err != nil {
		return 0, fmt.Errorf("load leaves: %w", err)
	}
	rules, err := rc.Rules.ActiveRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rules: %w", err)
	}

	in := CheckInput{Shifts: shifts, Punches: punches, Leaves: leaves}
	inserted := 0
	for _, rule := range rules {
		res := rule.Check(in)
		for _, m := range res.Punches {
			n, err := rc.insert(ctx, Alert{
				ID:         AlertID(uuid.NewString()),
				EmployeeID: employee,
				RuleID:     rule.ID,
				Severity:   rule.Severity,
				Timestamp:  m.At,
				PunchID:    m.PunchID,
				State:      AlertUnresolved,
			})
			if err != nil {
				return inserted, err
			}
			inserted += n
		}
		for _, m := range res.Shifts {
			n, err := rc.insert(ctx, Alert{
				ID:         AlertID(uuid.NewString()),
				EmployeeID: employee,
				RuleID:     rule.ID,
				Severity:   rule.Severity,
				Timestamp:  m.At,
				ShiftID:    m.ShiftID,
				State:      AlertUnresolved,
			})
			if err != nil {
				return inserted, err
			}
			inserted += n
		}
	}

	rc.logger().Debug("recomputed alerts",
		zap.String("employee", string(employee)),
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("inserted", inserted))
	return inserted, nil
}

func (rc *Recomputer) insert(ctx context.Context, a Alert) (int, error) {
	ok, err := rc.Alerts.InsertAlert(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}

// RecomputeRange rebuilds alerts for several employees over the local
// days [from, to], clamping the end to yesterday.
func (rc *Recomputer) RecomputeRange(ctx context.Context, employees []schedule.EmployeeID, from, to time.Time) (int, error) {
	from, to = schedule.DateOf(from), schedule.DateOf(to)
	yesterday := rc.Clock.LocalDate(rc.now()).AddDate(0, 0, -1)
	if to.After(yesterday) {
		to = yesterday
	}
	total := 0
	for _, emp := range employees {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			n, err := rc.RecomputeDay(ctx, emp, d)
			if err != nil {
				return total, err
			}
			total += n
		}
	}
	return total, nil
}

// punchesForDay loads the day's punches and borrows the previous
// day's trailing punch when its check-out spills into this day, so
// overnight pairs reach the checkout rules.
func (rc *Recomputer) punchesForDay(ctx context.Context, employee schedule.EmployeeID, day time.Time) ([]Punch, error) {
	from, to := rc.Clock.DayWindow(day)
	punches, err := rc.Punches.PunchesBetween(ctx, employee, from, to)
	if err != nil {
		return nil, err
	}
	prevFrom, _ := rc.Clock.DayWindow(day.AddDate(0, 0, -1))
	prev, err := rc.Punches.PunchesBetween(ctx, employee, prevFrom, from)
	if err != nil {
		return nil, err
	}
	if n := len(prev); n > 0 {
		last := prev[n-1]
		if last.HasCheckOut() && !last.CheckOut.Before(from) {
			punches = append([]Punch{last}, punches...)
		}
	}
	return punches, nil
}
