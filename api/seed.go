/*
seed.go - Demo dataset loader

PURPOSE:
  POST /api/seed wipes the store and loads a small, self-consistent
  demo: one template, one employee, a two-week schedule ending last
  Sunday, punches that trip the tardy and early-out rules, and the
  default rule set, with alerts recomputed over the schedule range.
  Meant for local exploration of the API, not production.
*/
package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/warp/schedule-engine/attendance"
	"github.com/warp/schedule-engine/factory"
	"github.com/warp/schedule-engine/schedule"
	"github.com/warp/schedule-engine/store/sqlite"
)

// DemoSummary reports what the seed created.
type DemoSummary struct {
	EmployeeID string `json:"employee_id"`
	TemplateID string `json:"template_id"`
	ScheduleID string `json:"schedule_id"`
	Shifts     int    `json:"shifts"`
	Punches    int    `json:"punches"`
	Rules      int    `json:"rules"`
	Alerts     int    `json:"alerts_inserted"`
}

// LoadDemo resets the database and loads the demo dataset.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.writeError(w, err)
		return
	}

	tz := h.DefaultTimezone
	if tz == "" {
		tz = "UTC"
	}
	clock, err := schedule.NewWeekdayClock(tz)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Template: Mon-Fri, morning and afternoon halves.
	tmpl := &schedule.Template{
		ID:   "tmpl-standard-week",
		Name: "Standard 40h week",
	}
	for day := 0; day < 5; day++ {
		rules := []schedule.WorkTimeRule{
			{Name: "Morning", Week: 1, DayOfWeek: day, HourFrom: 9, HourTo: 13},
			{Name: "Afternoon", Week: 1, DayOfWeek: day, HourFrom: 14, HourTo: 18},
		}
		for _, rule := range rules {
			if err := tmpl.AddRule(rule); err != nil {
				h.writeError(w, err)
				return
			}
		}
	}
	if err := h.Store.SaveTemplate(ctx, tmpl); err != nil {
		h.writeError(w, err)
		return
	}

	emp := sqlite.Employee{
		ID:         "emp-demo",
		Name:       "Demo Employee",
		Timezone:   tz,
		TemplateID: tmpl.ID,
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		h.writeError(w, err)
		return
	}

	// Two finished weeks ending last Sunday.
	thisMonday := schedule.StartOfWeek(clock.LocalDate(h.now()))
	dateStart := thisMonday.AddDate(0, 0, -14)
	sched, err := h.buildSchedule(r, &emp, dateStart, 2, "")
	if err != nil {
		h.writeError(w, err)
		return
	}

	rules, err := h.seedDefaultRules(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Punches over the first week: on time, tardy, early out; the
	// Thursday shift goes unattended entirely.
	punchAt := func(day time.Time, inHour, outHour float64) attendance.Punch {
		return attendance.Punch{
			ID:         attendance.PunchID(uuid.NewString()),
			EmployeeID: emp.ID,
			CheckIn:    clock.ToInstant(day, 1, 0, inHour),
			CheckOut:   clock.ToInstant(day, 1, 0, outHour),
		}
	}
	punches := []attendance.Punch{
		punchAt(dateStart, 9, 13),                      // Monday morning, on time
		punchAt(dateStart, 14, 18),                     // Monday afternoon, on time
		punchAt(dateStart.AddDate(0, 0, 1), 9.25, 13),  // Tuesday, 15 min tardy
		punchAt(dateStart.AddDate(0, 0, 2), 9, 12.75),  // Wednesday, 15 min early out
	}
	for _, p := range punches {
		if err := h.Store.SavePunch(ctx, p); err != nil {
			h.writeError(w, err)
			return
		}
	}

	inserted, err := h.recomputer(clock).RecomputeRange(ctx,
		[]schedule.EmployeeID{emp.ID}, sched.DateStart, sched.DateEnd)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, DemoSummary{
		EmployeeID: string(emp.ID),
		TemplateID: string(tmpl.ID),
		ScheduleID: string(sched.ID),
		Shifts:     len(sched.Shifts),
		Punches:    len(punches),
		Rules:      len(rules),
		Alerts:     inserted,
	})
}

// seedDefaultRules saves the factory defaults and returns them.
func (h *Handler) seedDefaultRules(r *http.Request) ([]attendance.Rule, error) {
	rules, err := factory.DefaultRules()
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if err := h.Store.SaveRule(r.Context(), rule); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
