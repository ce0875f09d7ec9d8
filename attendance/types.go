/*
Package attendance evaluates punches against scheduled shifts and
maintains attendance alerts.

PURPOSE:
  The rule engine (rules.go) checks one employee-day's sorted shifts
  and punches against a closed set of rule kinds; the recomputer
  (recompute.go) drives delete-then-regenerate alert maintenance per
  employee and local day.

KEY CONCEPTS IN THIS FILE (types.go):
  - RuleKind: the closed enum of things that can go wrong
  - Rule: one configured check with grace/window minute bounds
  - Punch: a paired check-in/check-out record
  - Alert: one finding, unique per (punch, shift, timestamp, rule)
*/
package attendance

import (
	"fmt"
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RuleID string
type PunchID string
type AlertID string
type LeaveID string

// =============================================================================
// RULE KINDS
// =============================================================================

// RuleKind enumerates every check the engine knows. The set is closed:
// parsing an unknown code fails instead of degrading to a no-op rule.
type RuleKind int

const (
	UnscheduledAttendance RuleKind = iota
	MissedAttendance
	Tardy
	LeaveEarly
	LeaveLate
	OverlapWithLeave
)

var ruleKindCodes = map[RuleKind]string{
	UnscheduledAttendance: "UNSCHEDATT",
	MissedAttendance:      "MISSATT",
	Tardy:                 "TARDY",
	LeaveEarly:            "OUTEARLY",
	LeaveLate:             "OUTLATE",
	OverlapWithLeave:      "OVRLP",
}

// Code returns the stable storage/wire code of the kind.
func (k RuleKind) Code() string {
	if c, ok := ruleKindCodes[k]; ok {
		return c
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

func (k RuleKind) String() string { return k.Code() }

// ParseRuleKind resolves a storage code back to its kind.
func ParseRuleKind(code string) (RuleKind, error) {
	for k, c := range ruleKindCodes {
		if c == code {
			return k, nil
		}
	}
	return 0, schedule.NewValidationError("rule-kind", "unknown alert rule code %q", code)
}

// =============================================================================
// SEVERITY
// =============================================================================

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// =============================================================================
// RULE
// =============================================================================

// Rule is one configured attendance check. Window and GracePeriod are
// minutes; a deviation is flagged when it lies strictly inside
// (GracePeriod, Window).
type Rule struct {
	ID          RuleID
	Name        string
	Kind        RuleKind
	Severity    Severity
	Window      int
	GracePeriod int
	Active      bool
}

// =============================================================================
// PUNCH
// =============================================================================

// Punch is one paired attendance record. A zero CheckOut means the
// employee has not punched out yet; checkout-based rules skip such
// punches.
type Punch struct {
	ID         PunchID
	EmployeeID schedule.EmployeeID
	CheckIn    time.Time // UTC
	CheckOut   time.Time // UTC, zero when still open
}

// HasCheckOut reports whether the punch pair is complete.
func (p Punch) HasCheckOut() bool {
	return !p.CheckOut.IsZero()
}

// =============================================================================
// ALERT
// =============================================================================

type AlertState string

const (
	AlertUnresolved AlertState = "unresolved"
	AlertResolved   AlertState = "resolved"
)

// Alert is one rule finding. PunchID or ShiftID is empty depending on
// what triggered it; the (PunchID, ShiftID, Timestamp, RuleID) tuple
// is the natural key the store deduplicates on.
type Alert struct {
	ID         AlertID
	EmployeeID schedule.EmployeeID
	RuleID     RuleID
	Severity   Severity
	Timestamp  time.Time // UTC trigger instant
	PunchID    PunchID
	ShiftID    schedule.ShiftID
	State      AlertState
}

// Key returns the natural uniqueness tuple as a string, for stores
// without index support.
func (a Alert) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s",
		a.PunchID, a.ShiftID, a.Timestamp.UTC().Format(time.RFC3339), a.RuleID)
}
