/*
generate.go - Template expansion into concrete shifts

PURPOSE:
  The Generator walks a template's rotation cycle-by-cycle over a date
  range and emits one Shift per applicable work-time rule, localized
  through the WeekdayClock and clipped against approved leaves.

EXPANSION RULES:
  - Overnight rules (hourTo < hourFrom) end on the following day.
  - A rule sharing its (week, day) with an overnight rule that starts
    later is that night shift's after-break half: it is pushed a full
    day forward on the clock and keeps the night shift's calendar day.
  - Candidates before the employee's effective start date are skipped.
  - Slots already covered by a locked shift are not regenerated, which
    makes generation idempotent over locked work.
  - Leaves drop fully covered candidates and truncate partially
    covered ones at the leave boundary; a leave reaching exactly the
    candidate's end consumes the whole candidate.
*/
package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// GENERATOR
// =============================================================================

// Generator expands templates for one timezone.
type Generator struct {
	Clock WeekdayClock

	// NewShiftID mints IDs for generated shifts. Nil means random UUIDs.
	NewShiftID func() ShiftID
}

// GenerateInput is one expansion request.
type GenerateInput struct {
	ScheduleID ScheduleID
	Name       string
	Template   *Template
	DateStart  time.Time // Monday, inclusive
	DateEnd    time.Time // inclusive

	// EffectiveStart skips candidates on earlier local days, typically
	// the employee's contract start. Zero means no cutoff.
	EffectiveStart time.Time

	// Leaves are approved absences to punch holes with.
	Leaves []LeaveInterval

	// Existing holds previously generated shifts; locked ones keep
	// their slots and are never re-emitted.
	Existing []Shift
}

func (g Generator) newID() ShiftID {
	if g.NewShiftID != nil {
		return g.NewShiftID()
	}
	return ShiftID(uuid.NewString())
}

// Generate expands the template over [DateStart, DateEnd] and returns
// the new shifts in (Start, DayOfWeek) order. A template that yields
// nothing returns an empty slice, not an error.
func (g Generator) Generate(in GenerateInput) ([]Shift, error) {
	if in.Template == nil {
		return []Shift{}, nil
	}
	if MondayIndex(in.DateStart) != 0 {
		return nil, NewValidationError("schedule-monday-start",
			"range starts on %s, not Monday", in.DateStart.Weekday())
	}
	if in.DateEnd.Before(in.DateStart) {
		return nil, NewValidationError("schedule-range",
			"range end %s precedes start %s",
			in.DateEnd.Format("2006-01-02"), in.DateStart.Format("2006-01-02"))
	}

	locked := make(map[string]bool)
	for _, sh := range in.Existing {
		if sh.State == StateLocked {
			locked[slotKey(sh.Day, sh.Start)] = true
		}
	}

	weeks := in.Template.Weeks()
	var out []Shift

	cycleStart := DateOf(in.DateStart)
	for !cycleStart.After(in.DateEnd) {
		for _, rule := range in.Template.Worktimes {
			// A rule sharing its day with a later overnight rule is the
			// half that resumes after that night shift's break. It lands
			// a full day forward on the clock but keeps the night
			// shift's calendar day.
			dayShift := 0
			if in.Template.continuesOvernight(rule) {
				dayShift = 1
			}
			endDay := rule.DayOfWeek + dayShift
			if rule.Overnight() {
				endDay++
			}
			start := g.Clock.ToInstant(cycleStart, rule.Week, rule.DayOfWeek+dayShift, rule.HourFrom)
			end := g.Clock.ToInstant(cycleStart, rule.Week, endDay, rule.HourTo)
			day := g.Clock.LocalDate(start)
			if dayShift != 0 {
				day = DateOf(cycleStart.AddDate(0, 0, (rule.Week-1)*7+rule.DayOfWeek))
			}

			candidate := Shift{
				ID:         g.newID(),
				ScheduleID: in.ScheduleID,
				Name:       in.Name,
				DayOfWeek:  rule.DayOfWeek,
				Day:        day,
				Start:      start,
				End:        end,
				State:      StateDraft,
			}

			if day.After(in.DateEnd) {
				continue
			}
			if !in.EffectiveStart.IsZero() && day.Before(DateOf(in.EffectiveStart)) {
				continue
			}
			if locked[slotKey(day, start)] {
				continue
			}

			cs, ce, dropped := ClipToLeaves(start, end, in.Leaves)
			if dropped {
				continue
			}
			candidate.Start, candidate.End = cs, ce
			out = append(out, candidate)
		}

		cycleStart = cycleStart.AddDate(0, 0, 7*weeks)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].DayOfWeek < out[j].DayOfWeek
	})
	if out == nil {
		out = []Shift{}
	}
	return out, nil
}

func slotKey(day, start time.Time) string {
	return day.Format("2006-01-02") + "|" + start.UTC().Format(time.RFC3339)
}

// =============================================================================
// LEAVE CLIPPING
// =============================================================================

// ClipToLeaves applies the first overlapping leave to the interval
// [start, end) and reports whether the interval was consumed entirely.
// A leave covering the interval, or reaching exactly its end, drops
// it; otherwise the overlapped side is truncated at the leave
// boundary. Only the first matching leave applies.
func ClipToLeaves(start, end time.Time, leaves []LeaveInterval) (time.Time, time.Time, bool) {
	for _, lv := range leaves {
		switch {
		case !lv.Start.After(start) && !lv.End.Before(end):
			return start, end, true
		case start.Before(lv.Start) && !lv.Start.After(end):
			if lv.End.Equal(end) {
				return start, end, true
			}
			return start, lv.Start, false
		case !lv.End.Before(start) && lv.End.Before(end):
			return lv.End, end, false
		}
	}
	return start, end, false
}
