/*
restday.go - Rest-day resolution

PURPOSE:
  Answers "which weekdays does this employee rest in the week starting
  on this Monday". Explicit per-rotation-week overrides on the schedule
  win; otherwise the rest days are the complement of the weekdays that
  actually carry shifts that week.
*/
package schedule

import (
	"sort"
	"time"
)

// RestDays resolves the rest weekdays of the week starting weekStart.
// A week with an explicit non-empty override returns that set. A week
// with no shifts at all returns an empty set, not all seven days.
func (s *Schedule) RestDays(weekStart time.Time) []int {
	weekStart = DateOf(weekStart)
	if idx := s.RotationWeekIndex(weekStart); idx >= 0 && len(s.RestDayWeeks[idx]) > 0 {
		out := append([]int(nil), s.RestDayWeeks[idx]...)
		sort.Ints(out)
		return out
	}

	worked := make(map[int]bool, 7)
	for _, sh := range s.ShiftsInWeek(weekStart) {
		worked[sh.DayOfWeek] = true
	}
	if len(worked) == 0 {
		return []int{}
	}
	out := []int{}
	for d := 0; d < 7; d++ {
		if !worked[d] {
			out = append(out, d)
		}
	}
	return out
}

// FindScheduleFor picks the schedule covering the given day from a
// set, usually one employee's schedules. Exactly zero matches returns
// nil without error; more than one is an overlap the store should have
// refused.
func FindScheduleFor(schedules []*Schedule, day time.Time) (*Schedule, error) {
	day = DateOf(day)
	var found *Schedule
	for _, s := range schedules {
		if day.Before(s.DateStart) || day.After(s.DateEnd) {
			continue
		}
		if found != nil {
			return nil, NewValidationError("schedule-overlap",
				"schedules %q and %q both cover %s", found.Name, s.Name, day.Format("2006-01-02"))
		}
		found = s
	}
	return found, nil
}

// RestDaysOn resolves rest days for the week containing day. Without a
// covering schedule the answer is an empty set.
func RestDaysOn(schedules []*Schedule, day time.Time) ([]int, error) {
	s, err := FindScheduleFor(schedules, day)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return []int{}, nil
	}
	return s.RestDays(StartOfWeek(day)), nil
}
