/*
template.go - Reusable weekly work-time templates

PURPOSE:
  A Template is a timezone-agnostic rotation of work-time rules, up to
  five weeks long. Each WorkTimeRule addresses one interval by rotation
  week, weekday and fractional start/end hours. An end hour smaller
  than the start hour means the interval crosses midnight into the next
  day. Two rules on the same day model a lunch break.

INVARIANTS:
  - No two rules of a template share (week, dayOfWeek, hourFrom) or
    (week, dayOfWeek, hourTo).
  - Hours lie in [0, 24); a rule never has zero length.
  - Worktimes stay sorted by (week, dayOfWeek, hourFrom); the generator
    depends on this ordering.
*/
package schedule

import (
	"sort"
)

// MaxRotationWeeks caps the template rotation length.
const MaxRotationWeeks = 5

// =============================================================================
// WORK-TIME RULE
// =============================================================================

// WorkTimeRule is one interval of a template, addressed in local
// wall-clock hours.
type WorkTimeRule struct {
	Name      string
	Week      int     // rotation week, 1-based
	DayOfWeek int     // 0 = Monday .. 6 = Sunday
	HourFrom  float64 // [0, 24)
	HourTo    float64 // [0, 24); < HourFrom means overnight
}

// Overnight reports whether the rule crosses midnight.
func (r WorkTimeRule) Overnight() bool {
	return r.HourTo < r.HourFrom
}

// Validate checks the rule's own ranges.
func (r WorkTimeRule) Validate() error {
	if r.Week < 1 || r.Week > MaxRotationWeeks {
		return NewValidationError("rule-week", "week %d outside 1..%d", r.Week, MaxRotationWeeks)
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return NewValidationError("rule-day", "day of week %d outside 0..6", r.DayOfWeek)
	}
	if r.HourFrom < 0 || r.HourFrom >= 24 {
		return NewValidationError("rule-hours", "hour from %.2f outside [0, 24)", r.HourFrom)
	}
	if r.HourTo < 0 || r.HourTo >= 24 {
		return NewValidationError("rule-hours", "hour to %.2f outside [0, 24)", r.HourTo)
	}
	if r.HourFrom == r.HourTo {
		return NewValidationError("rule-zero-length", "rule %q starts and ends at %.2f", r.Name, r.HourFrom)
	}
	return nil
}

// =============================================================================
// TEMPLATE
// =============================================================================

// Template is a named rotation of work-time rules plus the explicit
// rest days its schedules default to.
type Template struct {
	ID        TemplateID
	Name      string
	Worktimes []WorkTimeRule
	RestDays  []int // explicit weekday indexes; empty means infer from rules
}

// AddRule validates r against the template and inserts it in order.
func (t *Template) AddRule(r WorkTimeRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, have := range t.Worktimes {
		if have.Week != r.Week || have.DayOfWeek != r.DayOfWeek {
			continue
		}
		if have.HourFrom == r.HourFrom || have.HourTo == r.HourTo {
			return NewValidationError("rule-duplicate",
				"week %d day %d already has a rule starting %.2f or ending %.2f",
				r.Week, r.DayOfWeek, r.HourFrom, r.HourTo)
		}
	}
	t.Worktimes = append(t.Worktimes, r)
	sort.SliceStable(t.Worktimes, func(i, j int) bool {
		a, b := t.Worktimes[i], t.Worktimes[j]
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		return a.HourFrom < b.HourFrom
	})
	return nil
}

// Weeks returns the rotation length, the highest week any rule names.
// An empty template rotates weekly.
func (t *Template) Weeks() int {
	weeks := 1
	for _, r := range t.Worktimes {
		if r.Week > weeks {
			weeks = r.Week
		}
	}
	return weeks
}

// RulesForWeek returns the rules of one rotation week, in order.
func (t *Template) RulesForWeek(week int) []WorkTimeRule {
	var out []WorkTimeRule
	for _, r := range t.Worktimes {
		if r.Week == week {
			out = append(out, r)
		}
	}
	return out
}

// continuesOvernight reports whether r is the after-break half of an
// overnight rule on the same rotation day, which is the case when a
// later-starting rule of that day crosses midnight.
func (t *Template) continuesOvernight(r WorkTimeRule) bool {
	for _, have := range t.Worktimes {
		if have.Week == r.Week && have.DayOfWeek == r.DayOfWeek &&
			have.Overnight() && have.HourFrom > r.HourFrom {
			return true
		}
	}
	return false
}

// RestDaysInferred returns the template's rest days: the explicit set
// when configured, otherwise the weekdays no rule schedules. A
// template with no rules at all rests nowhere rather than everywhere.
func (t *Template) RestDaysInferred() []int {
	if len(t.RestDays) > 0 {
		out := append([]int(nil), t.RestDays...)
		sort.Ints(out)
		return out
	}
	scheduled := make(map[int]bool, 7)
	for _, r := range t.Worktimes {
		scheduled[r.DayOfWeek] = true
	}
	if len(scheduled) == 0 {
		return []int{}
	}
	out := []int{}
	for d := 0; d < 7; d++ {
		if !scheduled[d] {
			out = append(out, d)
		}
	}
	return out
}
