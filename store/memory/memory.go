/*
Package memory is the in-memory store used by tests and local
development. It implements the same contracts as the SQLite store:
schedule persistence with the overlap invariant, punch/leave/rule
lookups and idempotent alert inserts.

All methods copy on the way in and out; callers never share slices
with the store.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/schedule-engine/attendance"
	"github.com/warp/schedule-engine/schedule"
)

// Store holds everything behind one RWMutex. Good enough for tests
// and single-process demos.
type Store struct {
	mu        sync.RWMutex
	templates map[schedule.TemplateID]schedule.Template
	schedules map[schedule.ScheduleID]schedule.Schedule
	punches   map[schedule.EmployeeID][]attendance.Punch
	leaves    map[schedule.EmployeeID][]schedule.LeaveInterval
	rules     map[attendance.RuleID]attendance.Rule
	alerts    map[attendance.AlertID]attendance.Alert
	alertKeys map[string]attendance.AlertID
}

// New returns an empty store.
func New() *Store {
	return &Store{
		templates: make(map[schedule.TemplateID]schedule.Template),
		schedules: make(map[schedule.ScheduleID]schedule.Schedule),
		punches:   make(map[schedule.EmployeeID][]attendance.Punch),
		leaves:    make(map[schedule.EmployeeID][]schedule.LeaveInterval),
		rules:     make(map[attendance.RuleID]attendance.Rule),
		alerts:    make(map[attendance.AlertID]attendance.Alert),
		alertKeys: make(map[string]attendance.AlertID),
	}
}

// =============================================================================
// TEMPLATES
// =============================================================================

func (s *Store) SaveTemplate(_ context.Context, t *schedule.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = copyTemplate(t)
	return nil
}

func (s *Store) GetTemplate(_ context.Context, id schedule.TemplateID) (*schedule.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, schedule.ErrTemplateNotFound
	}
	out := copyTemplate(&t)
	return &out, nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

// SaveSchedule upserts after enforcing the per-employee overlap
// invariant.
func (s *Store) SaveSchedule(_ context.Context, sched *schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make([]*schedule.Schedule, 0, len(s.schedules))
	for id := range s.schedules {
		have := s.schedules[id]
		existing = append(existing, &have)
	}
	if err := schedule.CheckOverlap(existing, sched); err != nil {
		return err
	}
	s.schedules[sched.ID] = copySchedule(sched)
	return nil
}

func (s *Store) GetSchedule(_ context.Context, id schedule.ScheduleID) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[id]
	if !ok {
		return nil, schedule.ErrScheduleNotFound
	}
	out := copySchedule(&sched)
	return &out, nil
}

// DeleteSchedule refuses schedules with locked or confirmed shifts.
func (s *Store) DeleteSchedule(_ context.Context, id schedule.ScheduleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[id]
	if !ok {
		return schedule.ErrScheduleNotFound
	}
	if !sched.Deletable() {
		return &schedule.StateError{Op: "delete schedule", ID: string(id), State: sched.State}
	}
	delete(s.schedules, id)
	return nil
}

func (s *Store) SchedulesForEmployee(_ context.Context, emp schedule.EmployeeID) ([]*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schedule.Schedule
	for id := range s.schedules {
		if s.schedules[id].EmployeeID != emp {
			continue
		}
		sched := copySchedule(ptr(s.schedules[id]))
		out = append(out, &sched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateStart.Before(out[j].DateStart) })
	return out, nil
}

// ShiftsOnDay returns the employee's shifts for one local day, sorted
// by start.
func (s *Store) ShiftsOnDay(_ context.Context, emp schedule.EmployeeID, day time.Time) ([]schedule.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schedule.Shift
	for _, sched := range s.schedules {
		if sched.EmployeeID != emp {
			continue
		}
		for _, sh := range sched.Shifts {
			if schedule.SameDate(sh.Day, day) {
				out = append(out, sh)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// =============================================================================
// PUNCHES
// =============================================================================

func (s *Store) SavePunch(_ context.Context, p attendance.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.punches[p.EmployeeID] = append(s.punches[p.EmployeeID], p)
	sort.Slice(s.punches[p.EmployeeID], func(i, j int) bool {
		return s.punches[p.EmployeeID][i].CheckIn.Before(s.punches[p.EmployeeID][j].CheckIn)
	})
	return nil
}

func (s *Store) PunchesBetween(_ context.Context, emp schedule.EmployeeID, from, to time.Time) ([]attendance.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []attendance.Punch{}
	for _, p := range s.punches[emp] {
		if !p.CheckIn.Before(from) && p.CheckIn.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

// =============================================================================
// LEAVES
// =============================================================================

func (s *Store) AddLeave(_ context.Context, emp schedule.EmployeeID, lv schedule.LeaveInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[emp] = append(s.leaves[emp], lv)
	return nil
}

func (s *Store) ApprovedLeaves(_ context.Context, emp schedule.EmployeeID, from, to time.Time) ([]schedule.LeaveInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []schedule.LeaveInterval{}
	for _, lv := range s.leaves[emp] {
		if lv.Overlaps(from, to) {
			out = append(out, lv)
		}
	}
	return out, nil
}

// =============================================================================
// RULES
// =============================================================================

func (s *Store) SaveRule(_ context.Context, r attendance.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
	return nil
}

func (s *Store) ActiveRules(_ context.Context) ([]attendance.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []attendance.Rule{}
	for _, r := range s.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// ALERTS
// =============================================================================

// InsertAlert is idempotent on the alert's natural key.
func (s *Store) InsertAlert(_ context.Context, a attendance.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := a.Key()
	if _, dup := s.alertKeys[key]; dup {
		return false, nil
	}
	s.alerts[a.ID] = a
	s.alertKeys[key] = a.ID
	return true, nil
}

func (s *Store) DeleteAlertsBetween(_ context.Context, emp schedule.EmployeeID, from, to time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.alerts {
		if a.EmployeeID != emp {
			continue
		}
		if !a.Timestamp.Before(from) && a.Timestamp.Before(to) {
			delete(s.alerts, id)
			delete(s.alertKeys, a.Key())
		}
	}
	return nil
}

func (s *Store) ListAlerts(_ context.Context, emp schedule.EmployeeID) ([]attendance.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []attendance.Alert{}
	for _, a := range s.alerts {
		if a.EmployeeID == emp {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// =============================================================================
// COPY HELPERS
// =============================================================================

func ptr(s schedule.Schedule) *schedule.Schedule { return &s }

func copyTemplate(t *schedule.Template) schedule.Template {
	out := *t
	out.Worktimes = append([]schedule.WorkTimeRule(nil), t.Worktimes...)
	out.RestDays = append([]int(nil), t.RestDays...)
	return out
}

func copySchedule(s *schedule.Schedule) schedule.Schedule {
	out := *s
	out.Shifts = append([]schedule.Shift(nil), s.Shifts...)
	for i, days := range s.RestDayWeeks {
		out.RestDayWeeks[i] = append([]int(nil), days...)
	}
	return out
}
