/*
schedule.go - The Schedule aggregate and its lifecycle

PURPOSE:
  A Schedule owns the concrete shifts generated for one employee over
  one date range. It enforces the Monday-start and no-overlap
  invariants, runs the draft → confirmed → locked → unlocked workflow,
  and derives its own lock state bottom-up from its shifts.

LIFECYCLE:
  - Confirm moves a draft schedule (and its draft shifts) to confirmed.
  - Shifts are locked and unlocked individually; the schedule becomes
    locked when every shift is locked and unlocked again as soon as
    any shift is.
  - A schedule is deletable only while every shift is still draft or
    unlocked. Deletion is all-or-nothing.
*/
package schedule

import (
	"sort"
	"time"
)

// Schedule is the per-employee aggregate of generated shifts.
type Schedule struct {
	ID         ScheduleID
	EmployeeID EmployeeID
	TemplateID TemplateID
	Name       string
	DateStart  time.Time // Monday, inclusive
	DateEnd    time.Time // inclusive
	State      State

	// RestDayWeeks overrides rest days per rotation week. A nil entry
	// means no override for that week.
	RestDayWeeks [MaxRotationWeeks][]int

	Shifts []Shift
}

// NewSchedule validates the range and returns a draft schedule.
func NewSchedule(id ScheduleID, employee EmployeeID, template TemplateID, name string, dateStart, dateEnd time.Time) (*Schedule, error) {
	dateStart, dateEnd = DateOf(dateStart), DateOf(dateEnd)
	if MondayIndex(dateStart) != 0 {
		return nil, NewValidationError("schedule-monday-start",
			"schedule starts on %s, not Monday", dateStart.Weekday())
	}
	if dateEnd.Before(dateStart) {
		return nil, NewValidationError("schedule-range",
			"schedule ends %s before it starts %s",
			dateEnd.Format("2006-01-02"), dateStart.Format("2006-01-02"))
	}
	return &Schedule{
		ID:         id,
		EmployeeID: employee,
		TemplateID: template,
		Name:       name,
		DateStart:  dateStart,
		DateEnd:    dateEnd,
		State:      StateDraft,
	}, nil
}

// =============================================================================
// INVARIANTS
// =============================================================================

// Overlaps reports whether two schedules share any calendar day.
func (s *Schedule) Overlaps(o *Schedule) bool {
	return !s.DateStart.After(o.DateEnd) && !o.DateStart.After(s.DateEnd)
}

// CheckOverlap refuses a candidate schedule that shares days with an
// existing schedule of the same employee.
func CheckOverlap(existing []*Schedule, candidate *Schedule) error {
	for _, have := range existing {
		if have.ID == candidate.ID || have.EmployeeID != candidate.EmployeeID {
			continue
		}
		if have.Overlaps(candidate) {
			return NewValidationError("schedule-overlap",
				"schedule %q overlaps schedule %q for employee %q",
				candidate.Name, have.Name, candidate.EmployeeID)
		}
	}
	return nil
}

// Validate checks the internal shift set: no two shifts of the
// schedule may overlap in time.
func (s *Schedule) Validate() error {
	shifts := append([]Shift(nil), s.Shifts...)
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].Start.Before(shifts[j].Start) })
	for i := 1; i < len(shifts); i++ {
		if shifts[i].Start.Before(shifts[i-1].End) {
			return NewValidationError("shift-overlap",
				"shift starting %s overlaps the previous shift ending %s",
				shifts[i].Start.Format(time.RFC3339), shifts[i-1].End.Format(time.RFC3339))
		}
	}
	return nil
}

// RotationWeekIndex maps a week-start date onto the 0-based rotation
// week slot, or -1 when weekStart is not a rotation boundary of this
// schedule.
func (s *Schedule) RotationWeekIndex(weekStart time.Time) int {
	days := DaysBetween(s.DateStart, weekStart)
	if days < 0 || days%7 != 0 {
		return -1
	}
	if idx := days / 7; idx < MaxRotationWeeks {
		return idx
	}
	return -1
}

// =============================================================================
// WORKFLOW
// =============================================================================

// Confirm moves a draft schedule and its draft shifts to confirmed.
func (s *Schedule) Confirm() error {
	if s.State != StateDraft {
		return &StateError{Op: "confirm schedule", ID: string(s.ID), State: s.State}
	}
	s.State = StateConfirmed
	for i := range s.Shifts {
		if s.Shifts[i].State == StateDraft {
			s.Shifts[i].State = StateConfirmed
		}
	}
	return nil
}

// LockShift locks one shift and refreshes the aggregate state.
func (s *Schedule) LockShift(id ShiftID) error {
	sh := s.shift(id)
	if sh == nil {
		return ErrShiftNotFound
	}
	if !sh.State.Lockable() {
		return &StateError{Op: "lock shift", ID: string(id), State: sh.State}
	}
	sh.State = StateLocked
	s.refreshLockState()
	return nil
}

// UnlockShift unlocks one locked shift and refreshes the aggregate.
func (s *Schedule) UnlockShift(id ShiftID) error {
	sh := s.shift(id)
	if sh == nil {
		return ErrShiftNotFound
	}
	if sh.State != StateLocked {
		return &StateError{Op: "unlock shift", ID: string(id), State: sh.State}
	}
	sh.State = StateUnlocked
	s.refreshLockState()
	return nil
}

// DetailsLocked reports whether every shift is locked. An empty
// schedule is never considered locked.
func (s *Schedule) DetailsLocked() bool {
	if len(s.Shifts) == 0 {
		return false
	}
	for _, sh := range s.Shifts {
		if sh.State != StateLocked {
			return false
		}
	}
	return true
}

// Deletable reports whether the schedule may be removed: every shift
// still draft or unlocked, and the schedule itself not locked.
func (s *Schedule) Deletable() bool {
	for _, sh := range s.Shifts {
		if !sh.State.Deletable() {
			return false
		}
	}
	return s.State != StateLocked
}

func (s *Schedule) shift(id ShiftID) *Shift {
	for i := range s.Shifts {
		if s.Shifts[i].ID == id {
			return &s.Shifts[i]
		}
	}
	return nil
}

// The aggregate state is pulled from the shifts: all locked means
// locked, any unlocked means unlocked.
func (s *Schedule) refreshLockState() {
	if s.DetailsLocked() {
		s.State = StateLocked
		return
	}
	for _, sh := range s.Shifts {
		if sh.State == StateUnlocked {
			s.State = StateUnlocked
			return
		}
	}
}

// =============================================================================
// LEAVE APPLICATION
// =============================================================================

// ApplyLeave punches the approved leave into the existing shifts:
// covered shifts are removed, partially covered ones truncated at the
// leave boundary. Locked shifts are left untouched. Returns the number
// of shifts changed or removed.
func (s *Schedule) ApplyLeave(leave LeaveInterval) int {
	changed := 0
	kept := s.Shifts[:0]
	for _, sh := range s.Shifts {
		if sh.State == StateLocked {
			kept = append(kept, sh)
			continue
		}
		cs, ce, dropped := ClipToLeaves(sh.Start, sh.End, []LeaveInterval{leave})
		if dropped {
			changed++
			continue
		}
		if !cs.Equal(sh.Start) || !ce.Equal(sh.End) {
			sh.Start, sh.End = cs, ce
			changed++
		}
		kept = append(kept, sh)
	}
	s.Shifts = kept
	return changed
}

// ShiftsInWeek returns the shifts whose local day falls in the week
// starting weekStart.
func (s *Schedule) ShiftsInWeek(weekStart time.Time) []Shift {
	next := DateOf(weekStart).AddDate(0, 0, 7)
	var out []Shift
	for _, sh := range s.Shifts {
		if !sh.Day.Before(weekStart) && sh.Day.Before(next) {
			out = append(out, sh)
		}
	}
	return out
}
