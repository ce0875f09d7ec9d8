package schedule_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTemplate(t *testing.T, rules ...schedule.WorkTimeRule) *schedule.Template {
	t.Helper()
	tmpl := &schedule.Template{ID: "tmpl-test", Name: "test template"}
	for _, r := range rules {
		if err := tmpl.AddRule(r); err != nil {
			t.Fatalf("AddRule(%+v): %v", r, err)
		}
	}
	return tmpl
}

func rule(week, day int, from, to float64) schedule.WorkTimeRule {
	return schedule.WorkTimeRule{Name: "work", Week: week, DayOfWeek: day, HourFrom: from, HourTo: to}
}

// sequentialIDs makes generated shift IDs deterministic.
func sequentialIDs() func() schedule.ShiftID {
	n := 0
	return func() schedule.ShiftID {
		n++
		return schedule.ShiftID(fmt.Sprintf("shift-%d", n))
	}
}

func mondayFridayTemplate(t *testing.T) *schedule.Template {
	t.Helper()
	tmpl := &schedule.Template{ID: "tmpl-week", Name: "Mon-Fri"}
	for day := 0; day < 5; day++ {
		if err := tmpl.AddRule(rule(1, day, 9, 13)); err != nil {
			t.Fatal(err)
		}
		if err := tmpl.AddRule(rule(1, day, 14, 18)); err != nil {
			t.Fatal(err)
		}
	}
	return tmpl
}

// =============================================================================
// BASIC EXPANSION
// =============================================================================

func TestGenerate_SingleWeek(t *testing.T) {
	// GIVEN: a Mon-Fri template and the week of Monday 2017-10-30
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)

	// WHEN: generating one week
	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-1",
		Name:       "week 44",
		Template:   mondayFridayTemplate(t),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: ten shifts, two per weekday, first one Monday 09:00 EDT
	if len(shifts) != 10 {
		t.Fatalf("got %d shifts, want 10", len(shifts))
	}
	first := shifts[0]
	if !first.Start.Equal(utc(2017, time.October, 30, 13, 0)) {
		t.Errorf("first start = %v, want 13:00Z", first.Start)
	}
	if !first.End.Equal(utc(2017, time.October, 30, 17, 0)) {
		t.Errorf("first end = %v, want 17:00Z", first.End)
	}
	if !schedule.SameDate(first.Day, monday) {
		t.Errorf("first day = %v, want %v", first.Day, monday)
	}
	if first.State != schedule.StateDraft {
		t.Errorf("first state = %v, want draft", first.State)
	}
	// Sorted by start time.
	for i := 1; i < len(shifts); i++ {
		if shifts[i].Start.Before(shifts[i-1].Start) {
			t.Fatalf("shifts out of order at %d", i)
		}
	}
}

func TestGenerate_RotationRepeatsAcrossDSTEnd(t *testing.T) {
	// GIVEN: a two-week rotation spanning the Nov 5 2017 DST end
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)
	tmpl := newTemplate(t,
		rule(1, 0, 9, 17), // week 1 Monday
		rule(2, 1, 9, 17), // week 2 Tuesday
	)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-rot",
		Template:   tmpl,
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 13),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: one shift per rotation week, both at 09:00 local wall time
	if len(shifts) != 2 {
		t.Fatalf("got %d shifts, want 2", len(shifts))
	}
	if !shifts[0].Start.Equal(utc(2017, time.October, 30, 13, 0)) {
		t.Errorf("week 1 start = %v, want 13:00Z (EDT)", shifts[0].Start)
	}
	if !shifts[1].Start.Equal(utc(2017, time.November, 7, 14, 0)) {
		t.Errorf("week 2 start = %v, want 14:00Z (EST)", shifts[1].Start)
	}
}

func TestGenerate_PartialRangeStopsAtDateEnd(t *testing.T) {
	// GIVEN: a Mon-Fri template but a range ending Wednesday
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-part",
		Template:   mondayFridayTemplate(t),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 2),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: Thursday and Friday are not emitted
	if len(shifts) != 6 {
		t.Fatalf("got %d shifts, want 6", len(shifts))
	}
	last := shifts[len(shifts)-1]
	if !schedule.SameDate(last.Day, monday.AddDate(0, 0, 2)) {
		t.Errorf("last day = %v, want Wednesday", last.Day)
	}
}

func TestGenerate_EffectiveStartSkipsEarlierDays(t *testing.T) {
	// GIVEN: an employee whose contract starts Wednesday
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID:     "sched-eff",
		Template:       mondayFridayTemplate(t),
		DateStart:      monday,
		DateEnd:        monday.AddDate(0, 0, 6),
		EffectiveStart: monday.AddDate(0, 0, 2),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: Monday and Tuesday are skipped
	if len(shifts) != 6 {
		t.Fatalf("got %d shifts, want 6", len(shifts))
	}
	if !schedule.SameDate(shifts[0].Day, monday.AddDate(0, 0, 2)) {
		t.Errorf("first day = %v, want Wednesday", shifts[0].Day)
	}
}

func TestGenerate_NilTemplateYieldsNothing(t *testing.T) {
	gen := schedule.Generator{Clock: newYorkClock(t)}
	shifts, err := gen.Generate(schedule.GenerateInput{
		DateStart: schedule.NewDate(2017, time.October, 30),
		DateEnd:   schedule.NewDate(2017, time.November, 5),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(shifts) != 0 {
		t.Errorf("got %d shifts, want 0", len(shifts))
	}
}

func TestGenerate_RejectsNonMondayStart(t *testing.T) {
	gen := schedule.Generator{Clock: newYorkClock(t)}
	tuesday := schedule.NewDate(2017, time.October, 31)

	_, err := gen.Generate(schedule.GenerateInput{
		Template:  mondayFridayTemplate(t),
		DateStart: tuesday,
		DateEnd:   tuesday.AddDate(0, 0, 6),
	})

	if !schedule.IsValidation(err) {
		t.Fatalf("got %v, want a validation error", err)
	}
}

func TestGenerate_RejectsInvertedRange(t *testing.T) {
	gen := schedule.Generator{Clock: newYorkClock(t)}
	monday := schedule.NewDate(2017, time.October, 30)

	_, err := gen.Generate(schedule.GenerateInput{
		Template:  mondayFridayTemplate(t),
		DateStart: monday,
		DateEnd:   monday.AddDate(0, 0, -1),
	})

	if !schedule.IsValidation(err) {
		t.Fatalf("got %v, want a validation error", err)
	}
}

func TestGenerate_IdenticalInputYieldsIdenticalInstants(t *testing.T) {
	// GIVEN: one input expanded twice by independent generators
	clock := newYorkClock(t)
	monday := schedule.NewDate(2017, time.October, 30)
	in := schedule.GenerateInput{
		ScheduleID: "sched-idem",
		Template:   mondayFridayTemplate(t),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
	}

	first, err := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}.Generate(in)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}.Generate(in)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	// THEN: both expansions cover the same instants and days
	if len(first) != len(second) {
		t.Fatalf("got %d then %d shifts", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Errorf("shift %d: [%v, %v) then [%v, %v)",
				i, first[i].Start, first[i].End, second[i].Start, second[i].End)
		}
		if !schedule.SameDate(first[i].Day, second[i].Day) {
			t.Errorf("shift %d: day %v then %v", i, first[i].Day, second[i].Day)
		}
	}
}

// =============================================================================
// OVERNIGHT AND CONTINUATION SHIFTS
// =============================================================================

func TestGenerate_OvernightShiftEndsNextDay(t *testing.T) {
	// GIVEN: a Monday 22:00 - 01:30 night rule
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-night",
		Template:   newTemplate(t, rule(1, 0, 22, 1.5)),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: the shift starts 22:00 EDT Monday and ends 01:30 EDT Tuesday
	if len(shifts) != 1 {
		t.Fatalf("got %d shifts, want 1", len(shifts))
	}
	sh := shifts[0]
	if !sh.Start.Equal(utc(2017, time.October, 31, 2, 0)) {
		t.Errorf("start = %v, want Oct 31 02:00Z", sh.Start)
	}
	if !sh.End.Equal(utc(2017, time.October, 31, 5, 30)) {
		t.Errorf("end = %v, want Oct 31 05:30Z", sh.End)
	}
	if !schedule.SameDate(sh.Day, monday) {
		t.Errorf("day = %v, want Monday %v", sh.Day, monday)
	}
	if sh.DayOfWeek != 0 {
		t.Errorf("day of week = %d, want 0", sh.DayOfWeek)
	}
}

func TestGenerate_NightShiftLunchBreakContinuation(t *testing.T) {
	// GIVEN: a night shift split by a break, both halves addressed to
	// Monday: 22:00-02:00 then 03:00-05:00
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-split",
		Template:   newTemplate(t, rule(1, 0, 22, 2), rule(1, 0, 3, 5)),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: the 03:00 half is pushed onto Tuesday's clock but keeps
	// Monday as its calendar day
	if len(shifts) != 2 {
		t.Fatalf("got %d shifts, want 2", len(shifts))
	}
	second := shifts[1]
	if !second.Start.Equal(utc(2017, time.October, 31, 7, 0)) {
		t.Errorf("second start = %v, want Tue 03:00 EDT = 07:00Z", second.Start)
	}
	if !second.End.Equal(utc(2017, time.October, 31, 9, 0)) {
		t.Errorf("second end = %v, want Tue 05:00 EDT = 09:00Z", second.End)
	}
	if !schedule.SameDate(second.Day, monday) {
		t.Errorf("second day = %v, want Monday %v", second.Day, monday)
	}
}

// =============================================================================
// LEAVES
// =============================================================================

func TestGenerate_LeaveTruncatesShiftTail(t *testing.T) {
	// GIVEN: a Monday 09:00-17:00 shift and a leave starting 09:30 local
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)
	leaveStart := utc(2017, time.October, 30, 13, 30)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-leave",
		Template:   newTemplate(t, rule(1, 0, 9, 17)),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
		Leaves:     []schedule.LeaveInterval{{Start: leaveStart, End: utc(2017, time.November, 1, 0, 0)}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: the shift ends exactly where the leave starts
	if len(shifts) != 1 {
		t.Fatalf("got %d shifts, want 1", len(shifts))
	}
	if !shifts[0].End.Equal(leaveStart) {
		t.Errorf("end = %v, want %v", shifts[0].End, leaveStart)
	}
}

func TestGenerate_LeaveTruncatesShiftHead(t *testing.T) {
	// GIVEN: a leave ending 09:30 local that started before the shift
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)
	leaveEnd := utc(2017, time.October, 30, 13, 30)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-leave",
		Template:   newTemplate(t, rule(1, 0, 9, 17)),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
		Leaves:     []schedule.LeaveInterval{{Start: utc(2017, time.October, 29, 0, 0), End: leaveEnd}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: the shift starts exactly where the leave ends
	if len(shifts) != 1 {
		t.Fatalf("got %d shifts, want 1", len(shifts))
	}
	if !shifts[0].Start.Equal(leaveEnd) {
		t.Errorf("start = %v, want %v", shifts[0].Start, leaveEnd)
	}
}

func TestGenerate_LeaveCoveringShiftDropsIt(t *testing.T) {
	// GIVEN: a leave over the entire Monday
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)

	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID: "sched-leave",
		Template:   newTemplate(t, rule(1, 0, 9, 17), rule(1, 1, 9, 17)),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
		Leaves: []schedule.LeaveInterval{{
			Start: utc(2017, time.October, 30, 0, 0),
			End:   utc(2017, time.October, 31, 0, 0),
		}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// THEN: only Tuesday survives
	if len(shifts) != 1 {
		t.Fatalf("got %d shifts, want 1", len(shifts))
	}
	if shifts[0].DayOfWeek != 1 {
		t.Errorf("surviving day of week = %d, want 1", shifts[0].DayOfWeek)
	}
}

func TestClipToLeaves_LeaveReachingExactEndConsumesShift(t *testing.T) {
	// GIVEN: a leave from mid-shift through exactly the shift's end
	start := utc(2017, time.October, 30, 13, 0)
	end := utc(2017, time.October, 30, 21, 0)
	leaves := []schedule.LeaveInterval{{Start: utc(2017, time.October, 30, 13, 30), End: end}}

	_, _, dropped := schedule.ClipToLeaves(start, end, leaves)

	if !dropped {
		t.Error("expected the shift to be consumed")
	}
}

func TestClipToLeaves_NoOverlapLeavesShiftAlone(t *testing.T) {
	start := utc(2017, time.October, 30, 13, 0)
	end := utc(2017, time.October, 30, 21, 0)
	leaves := []schedule.LeaveInterval{{
		Start: utc(2017, time.November, 2, 0, 0),
		End:   utc(2017, time.November, 3, 0, 0),
	}}

	cs, ce, dropped := schedule.ClipToLeaves(start, end, leaves)

	if dropped || !cs.Equal(start) || !ce.Equal(end) {
		t.Errorf("got (%v, %v, %v), want the interval untouched", cs, ce, dropped)
	}
}

// =============================================================================
// LOCKED SLOTS
// =============================================================================

func TestGenerate_LockedSlotsAreNotRegenerated(t *testing.T) {
	// GIVEN: a first generation with Monday's shift locked afterwards
	clock := newYorkClock(t)
	gen := schedule.Generator{Clock: clock, NewShiftID: sequentialIDs()}
	monday := schedule.NewDate(2017, time.October, 30)
	in := schedule.GenerateInput{
		ScheduleID: "sched-lock",
		Template:   newTemplate(t, rule(1, 0, 9, 17), rule(1, 1, 9, 17)),
		DateStart:  monday,
		DateEnd:    monday.AddDate(0, 0, 6),
	}
	first, err := gen.Generate(in)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("got %d shifts, want 2", len(first))
	}
	first[0].State = schedule.StateLocked

	// WHEN: regenerating with the existing shifts supplied
	in.Existing = first
	second, err := gen.Generate(in)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	// THEN: the locked Monday slot is skipped, Tuesday comes back
	if len(second) != 1 {
		t.Fatalf("got %d shifts, want 1", len(second))
	}
	if second[0].DayOfWeek != 1 {
		t.Errorf("regenerated day of week = %d, want 1", second[0].DayOfWeek)
	}
}
