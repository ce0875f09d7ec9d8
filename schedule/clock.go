/*
clock.go - Wall-clock to UTC conversion for shift generation

PURPOSE:
  A WeekdayClock turns the template coordinate system (rotation week,
  weekday index, fractional hour of day) into concrete UTC instants for
  one employee timezone, and back. It is the only place the engine
  touches time.Location.

DST POLICY:
  Nominal local times are resolved with time.Date in the target zone.
  A wall-clock time skipped by a spring-forward transition is rounded
  forward to the first valid local instant (02:30 in a zone that jumps
  02:00→03:00 resolves to 03:30 local). Wall-clock hours stay stable
  across transitions: a 09:00 rule produces a 09:00 local start in both
  the standard-time and daylight-time halves of a range.
*/
package schedule

import (
	"fmt"
	"math"
	"time"
)

// WeekdayClock converts template coordinates to UTC instants within a
// fixed IANA timezone. The zero value is unusable; build one with
// NewWeekdayClock.
type WeekdayClock struct {
	loc *time.Location
}

// NewWeekdayClock resolves the IANA zone name. An empty name means UTC.
func NewWeekdayClock(tz string) (WeekdayClock, error) {
	if tz == "" {
		return WeekdayClock{loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return WeekdayClock{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return WeekdayClock{loc: loc}, nil
}

// Location exposes the underlying zone, mainly for formatting.
func (c WeekdayClock) Location() *time.Location {
	return c.loc
}

// ToInstant resolves (rotation week, weekday, fractional hour) against
// the Monday date startOfWeek and returns the UTC instant. week counts
// from 1; dayOfWeek counts from 0 (Monday) and may exceed 6 to address
// the following week, which overnight end times rely on.
func (c WeekdayClock) ToInstant(startOfWeek time.Time, week, dayOfWeek int, hourOfDay float64) time.Time {
	d := startOfWeek.AddDate(0, 0, (week-1)*7+dayOfWeek)
	want := int(math.Round(hourOfDay * 60))
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, want, 0, 0, c.loc)
	// Round a skipped wall-clock time forward to the first valid local
	// instant, whichever side of the gap time.Date landed on.
	if got := t.Hour()*60 + t.Minute(); got < want {
		t = t.Add(time.Duration(want-got) * time.Minute)
	}
	return t.UTC()
}

// FromInstant is the inverse of ToInstant relative to startOfWeek:
// the rotation week (from 1), weekday index and fractional local hour
// of the instant.
func (c WeekdayClock) FromInstant(startOfWeek, instant time.Time) (week, dayOfWeek int, hourOfDay float64) {
	lt := instant.In(c.loc)
	days := DaysBetween(startOfWeek, DateOf(lt))
	week = days/7 + 1
	dayOfWeek = ((days % 7) + 7) % 7
	hourOfDay = float64(lt.Hour()) + float64(lt.Minute())/60
	return week, dayOfWeek, hourOfDay
}

// LocalDate returns the calendar date the instant falls on in the
// clock's zone, encoded as midnight UTC.
func (c WeekdayClock) LocalDate(instant time.Time) time.Time {
	return DateOf(instant.In(c.loc))
}

// DayWindow returns the UTC bounds [from, to) of the local calendar
// day. The window is 23, 24 or 25 hours long around DST transitions.
func (c WeekdayClock) DayWindow(day time.Time) (from, to time.Time) {
	y, m, d := day.Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, c.loc).UTC()
	next := NewDate(y, m, d).AddDate(0, 0, 1)
	ny, nm, nd := next.Date()
	to = time.Date(ny, nm, nd, 0, 0, 0, 0, c.loc).UTC()
	return from, to
}
