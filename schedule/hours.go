/*
hours.go - Scheduled-hours accounting

Hours are reported as exact decimals so payroll-adjacent consumers
never see float drift on quarter-hour templates.
*/
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

var hoursPerDay = decimal.NewFromInt(24)

// HoursByWeekday sums the template's scheduled hours on one weekday
// across all rotation weeks' rules for that day. Overnight rules wrap
// past midnight and still count toward their start day.
func (t *Template) HoursByWeekday(dayOfWeek int) decimal.Decimal {
	total := decimal.Zero
	for _, r := range t.Worktimes {
		if r.DayOfWeek != dayOfWeek {
			continue
		}
		h := decimal.NewFromFloat(r.HourTo).Sub(decimal.NewFromFloat(r.HourFrom))
		if h.IsNegative() {
			h = h.Add(hoursPerDay)
		}
		total = total.Add(h)
	}
	return total
}

// ScheduledHoursOnDay sums the durations of the shifts belonging to
// one local calendar day.
func ScheduledHoursOnDay(shifts []Shift, day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, sh := range shifts {
		if !SameDate(sh.Day, day) {
			continue
		}
		minutes := int64(sh.Duration() / time.Minute)
		total = total.Add(decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)))
	}
	return total
}

// ScheduledHoursInRange sums shift hours per day over [from, to],
// keyed by ISO date.
func ScheduledHoursInRange(shifts []Shift, from, to time.Time) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for d := DateOf(from); !d.After(DateOf(to)); d = d.AddDate(0, 0, 1) {
		h := ScheduledHoursOnDay(shifts, d)
		if !h.IsZero() {
			out[d.Format("2006-01-02")] = h
		}
	}
	return out
}
