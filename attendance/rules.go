/*
rules.go - The attendance rule engine

PURPOSE:
  Check evaluates one rule against one employee-day of sorted shifts
  and punches and returns the triggering punches or shifts. All
  distances are wall-independent UTC differences measured in minutes.
  Shift-punch matching uses the window alone; a deviation rule fires
  when the deviation lies strictly between grace period and window.
*/
package attendance

import (
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// CheckInput is one employee-day snapshot. Shifts are sorted by Start,
// punches by CheckIn; leaves are approved absences touching the day.
type CheckInput struct {
	Shifts  []schedule.Shift
	Punches []Punch
	Leaves  []schedule.LeaveInterval
}

// ShiftMatch and PunchMatch carry the trigger reference plus the
// instant the resulting alert is stamped with.
type ShiftMatch struct {
	ShiftID schedule.ShiftID
	At      time.Time
}

type PunchMatch struct {
	PunchID PunchID
	At      time.Time
}

// Result is the outcome of one rule check.
type Result struct {
	Shifts  []ShiftMatch
	Punches []PunchMatch
}

// Empty reports whether the check found nothing.
func (r Result) Empty() bool {
	return len(r.Shifts) == 0 && len(r.Punches) == 0
}

// Check dispatches on the rule kind. The switch is exhaustive over
// RuleKind; an out-of-range kind returns an empty result.
func (r Rule) Check(in CheckInput) Result {
	switch r.Kind {
	case UnscheduledAttendance:
		return r.checkUnscheduled(in)
	case MissedAttendance:
		return r.checkMissed(in)
	case Tardy:
		return r.checkTardy(in)
	case LeaveEarly:
		return r.checkLeaveEarly(in)
	case LeaveLate:
		return r.checkLeaveLate(in)
	case OverlapWithLeave:
		return r.checkOverlapWithLeave(in)
	}
	return Result{}
}

// minutesApart returns b - a in fractional minutes.
func minutesApart(a, b time.Time) float64 {
	return b.Sub(a).Minutes()
}

// withinWindow reports whether two instants are closer than the
// rule's window. This is the symmetric match used to pair punches
// with shifts; the grace period plays no part in matching.
func (r Rule) withinWindow(sched, actual time.Time) bool {
	d := minutesApart(sched, actual)
	if d < 0 {
		d = -d
	}
	return d < float64(r.Window)
}

// exceedsGrace reports whether a one-sided deviation d (minutes,
// already oriented so positive means "in the bad direction") falls
// strictly inside (grace, window).
func (r Rule) exceedsGrace(d float64) bool {
	return d > float64(r.GracePeriod) && d < float64(r.Window)
}

// A punch with no shift start within the window on either side.
func (r Rule) checkUnscheduled(in CheckInput) Result {
	var res Result
	for _, p := range in.Punches {
		scheduled := false
		for _, sh := range in.Shifts {
			if r.withinWindow(sh.Start, p.CheckIn) {
				scheduled = true
				break
			}
		}
		if !scheduled {
			res.Punches = append(res.Punches, PunchMatch{PunchID: p.ID, At: p.CheckIn})
		}
	}
	return res
}

// A shift with no punch-in within the window. Only fires while there
// are more shifts than punches, so a single mismatched punch reads as
// tardiness rather than absence.
func (r Rule) checkMissed(in CheckInput) Result {
	if len(in.Shifts) <= len(in.Punches) {
		return Result{}
	}
	var res Result
	for _, sh := range in.Shifts {
		matched := false
		for _, p := range in.Punches {
			if r.withinWindow(sh.Start, p.CheckIn) {
				matched = true
				break
			}
		}
		if !matched {
			res.Shifts = append(res.Shifts, ShiftMatch{ShiftID: sh.ID, At: sh.Start})
		}
	}
	return res
}

// Punch-in after the shift start, beyond grace but inside the window.
func (r Rule) checkTardy(in CheckInput) Result {
	var res Result
	for _, sh := range in.Shifts {
		for _, p := range in.Punches {
			if r.exceedsGrace(minutesApart(sh.Start, p.CheckIn)) {
				res.Punches = append(res.Punches, PunchMatch{PunchID: p.ID, At: p.CheckIn})
				break
			}
		}
	}
	return res
}

// Punch-out before the shift end, beyond grace but inside the window.
func (r Rule) checkLeaveEarly(in CheckInput) Result {
	var res Result
	for _, sh := range in.Shifts {
		for _, p := range in.Punches {
			if !p.HasCheckOut() {
				continue
			}
			if r.exceedsGrace(minutesApart(p.CheckOut, sh.End)) {
				res.Punches = append(res.Punches, PunchMatch{PunchID: p.ID, At: p.CheckIn})
				break
			}
		}
	}
	return res
}

// Punch-out after the shift end, beyond grace but inside the window.
func (r Rule) checkLeaveLate(in CheckInput) Result {
	var res Result
	for _, sh := range in.Shifts {
		for _, p := range in.Punches {
			if !p.HasCheckOut() {
				continue
			}
			if r.exceedsGrace(minutesApart(sh.End, p.CheckOut)) {
				res.Punches = append(res.Punches, PunchMatch{PunchID: p.ID, At: p.CheckIn})
				break
			}
		}
	}
	return res
}

// A completed punch pair intersecting an approved leave.
func (r Rule) checkOverlapWithLeave(in CheckInput) Result {
	var res Result
	for _, p := range in.Punches {
		if !p.HasCheckOut() {
			continue
		}
		for _, lv := range in.Leaves {
			if lv.Overlaps(p.CheckIn, p.CheckOut) {
				res.Punches = append(res.Punches, PunchMatch{PunchID: p.ID, At: p.CheckIn})
				break
			}
		}
	}
	return res
}
