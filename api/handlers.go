/*
handlers.go - HTTP handler implementations

PURPOSE:
  Implements the REST endpoints over the SQLite store and the engine
  packages. Handlers parse and validate input, call into schedule/ and
  attendance/, and translate domain errors onto status codes.

ERROR MAPPING:
  ValidationError -> 400
  not found       -> 404
  StateError      -> 409
  anything else   -> 500

SEE ALSO:
  - server.go: route wiring
  - dto.go: request/response shapes
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/schedule-engine/attendance"
	"github.com/warp/schedule-engine/schedule"
	"github.com/warp/schedule-engine/store/sqlite"
)

// Handler carries the dependencies of every endpoint.
type Handler struct {
	Store  *sqlite.Store
	Logger *zap.Logger

	// DefaultTimezone is used for employees created without one.
	DefaultTimezone string

	// Now is replaceable in tests; nil means time.Now.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case schedule.IsNotFound(err):
		status = http.StatusNotFound
	case schedule.IsStateError(err):
		status = http.StatusConflict
	case schedule.IsValidation(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// CreateEmployee registers an employee record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	tz := req.Timezone
	if tz == "" {
		tz = h.DefaultTimezone
	}
	if _, err := schedule.NewWeekdayClock(tz); err != nil {
		badRequest(w, "unknown timezone "+tz)
		return
	}

	emp := sqlite.Employee{
		ID:         schedule.EmployeeID(req.ID),
		Name:       req.Name,
		Timezone:   tz,
		TemplateID: schedule.TemplateID(req.TemplateID),
	}
	if req.EffectiveStart != "" {
		d, ok := parseDate(req.EffectiveStart)
		if !ok {
			badRequest(w, "effective_start must be YYYY-MM-DD")
			return
		}
		emp.EffectiveStart = d
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), schedule.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := []EmployeeDTO{}
	for _, emp := range emps {
		out = append(out, toEmployeeDTO(emp))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetScheduledHours reports decimal scheduled hours per day over
// ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) GetScheduledHours(w http.ResponseWriter, r *http.Request) {
	empID := schedule.EmployeeID(chi.URLParam(r, "id"))
	from, okFrom := parseDate(r.URL.Query().Get("from"))
	to, okTo := parseDate(r.URL.Query().Get("to"))
	if !okFrom || !okTo {
		badRequest(w, "from and to are required as YYYY-MM-DD")
		return
	}
	scheds, err := h.Store.SchedulesForEmployee(r.Context(), empID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var shifts []schedule.Shift
	for _, s := range scheds {
		shifts = append(shifts, s.Shifts...)
	}
	hours := map[string]string{}
	for day, amount := range schedule.ScheduledHoursInRange(shifts, from, to) {
		hours[day] = amount.String()
	}
	writeJSON(w, http.StatusOK, ScheduledHoursDTO{EmployeeID: string(empID), Hours: hours})
}

// =============================================================================
// TEMPLATES
// =============================================================================

// CreateTemplate builds a template, validating every rule.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	t := &schedule.Template{
		ID:       schedule.TemplateID(req.ID),
		Name:     req.Name,
		RestDays: req.RestDays,
	}
	for _, rule := range req.Worktimes {
		err := t.AddRule(schedule.WorkTimeRule{
			Name:      rule.Name,
			Week:      rule.Week,
			DayOfWeek: rule.DayOfWeek,
			HourFrom:  rule.HourFrom,
			HourTo:    rule.HourTo,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	if err := h.Store.SaveTemplate(r.Context(), t); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateDTO(t))
}

// GetTemplate returns one template with its rules.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.GetTemplate(r.Context(), schedule.TemplateID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(t))
}

// ListTemplates returns all templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Store.ListTemplates(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := []TemplateDTO{}
	for i := range ts {
		out = append(out, toTemplateDTO(&ts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// SCHEDULES
// =============================================================================

// CreateSchedule creates a schedule and generates its shifts from the
// employee's template.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	dateStart, ok := parseDate(req.DateStart)
	if !ok {
		badRequest(w, "date_start must be YYYY-MM-DD")
		return
	}
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = 1
	}
	emp, err := h.Store.GetEmployee(r.Context(), schedule.EmployeeID(req.EmployeeID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	sched, err := h.buildSchedule(r, emp, dateStart, weeks, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(sched))
}

// buildSchedule is the shared creation path: validate the range,
// expand the employee's template and persist the aggregate.
func (h *Handler) buildSchedule(r *http.Request, emp *sqlite.Employee, dateStart time.Time, weeks int, name string) (*schedule.Schedule, error) {
	ctx := r.Context()
	dateEnd := schedule.DateOf(dateStart).AddDate(0, 0, 7*weeks-1)
	if name == "" {
		name = emp.Name + " " + dateStart.Format("2006-01-02")
	}
	sched, err := schedule.NewSchedule(
		schedule.ScheduleID(uuid.NewString()),
		emp.ID, emp.TemplateID, name, dateStart, dateEnd)
	if err != nil {
		return nil, err
	}

	clock, err := schedule.NewWeekdayClock(emp.Timezone)
	if err != nil {
		return nil, err
	}
	var tmpl *schedule.Template
	if emp.TemplateID != "" {
		tmpl, err = h.Store.GetTemplate(ctx, emp.TemplateID)
		if err != nil {
			return nil, err
		}
	}

	from, _ := clock.DayWindow(sched.DateStart)
	_, to := clock.DayWindow(sched.DateEnd)
	leaves, err := h.Store.ApprovedLeaves(ctx, emp.ID, from, to)
	if err != nil {
		return nil, err
	}

	gen := schedule.Generator{Clock: clock}
	shifts, err := gen.Generate(schedule.GenerateInput{
		ScheduleID:     sched.ID,
		Name:           sched.Name,
		Template:       tmpl,
		DateStart:      sched.DateStart,
		DateEnd:        sched.DateEnd,
		EffectiveStart: emp.EffectiveStart,
		Leaves:         leaves,
	})
	if err != nil {
		return nil, err
	}
	sched.Shifts = shifts

	// Rest-day overrides default from the template's explicit set.
	if tmpl != nil && len(tmpl.RestDays) > 0 {
		for i := 0; i < schedule.MaxRotationWeeks && i < weeks; i++ {
			sched.RestDayWeeks[i] = append([]int(nil), tmpl.RestDays...)
		}
	}

	if err := sched.Validate(); err != nil {
		return nil, err
	}
	if err := h.Store.SaveSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// GetSchedule returns one schedule with its shifts.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Store.GetSchedule(r.Context(), schedule.ScheduleID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(sched))
}

// DeleteSchedule removes a schedule unless locked work forbids it.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteSchedule(r.Context(), schedule.ScheduleID(chi.URLParam(r, "id"))); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmSchedule moves a draft schedule to confirmed.
func (h *Handler) ConfirmSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Store.GetSchedule(r.Context(), schedule.ScheduleID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := sched.Confirm(); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Store.SaveSchedule(r.Context(), sched); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(sched))
}

// GetRestDays answers ?week_start=YYYY-MM-DD for one schedule.
func (h *Handler) GetRestDays(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Store.GetSchedule(r.Context(), schedule.ScheduleID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	weekStart, ok := parseDate(r.URL.Query().Get("week_start"))
	if !ok {
		badRequest(w, "week_start is required as YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, RestDaysDTO{
		WeekStart: weekStart.Format("2006-01-02"),
		RestDays:  sched.RestDays(weekStart),
	})
}

// MassGenerate creates schedules for many employees at once,
// defaulting to two weeks from next Monday. Employees without a
// template or with overlapping schedules are skipped, not failed.
func (h *Handler) MassGenerate(w http.ResponseWriter, r *http.Request) {
	var req MassGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = 2
	}
	var dateStart time.Time
	if req.DateStart != "" {
		d, ok := parseDate(req.DateStart)
		if !ok {
			badRequest(w, "date_start must be YYYY-MM-DD")
			return
		}
		dateStart = d
	} else {
		today := schedule.DateOf(h.now().UTC())
		dateStart = today.AddDate(0, 0, 7-schedule.MondayIndex(today))
	}

	emps, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	wanted := map[string]bool{}
	for _, id := range req.EmployeeIDs {
		wanted[id] = true
	}

	resp := MassGenerateResponse{Created: []ScheduleDTO{}}
	for i := range emps {
		emp := emps[i]
		if len(wanted) > 0 && !wanted[string(emp.ID)] {
			continue
		}
		if emp.TemplateID == "" {
			resp.Skipped = append(resp.Skipped, string(emp.ID))
			continue
		}
		sched, err := h.buildSchedule(r, &emp, dateStart, weeks, "")
		if err != nil {
			if schedule.IsValidation(err) {
				resp.Skipped = append(resp.Skipped, string(emp.ID))
				continue
			}
			h.writeError(w, err)
			return
		}
		resp.Created = append(resp.Created, toScheduleDTO(sched))
	}
	writeJSON(w, http.StatusCreated, resp)
}

// =============================================================================
// SHIFT WORKFLOW
// =============================================================================

func (h *Handler) LockShift(w http.ResponseWriter, r *http.Request) {
	h.shiftTransition(w, r, (*schedule.Schedule).LockShift)
}

func (h *Handler) UnlockShift(w http.ResponseWriter, r *http.Request) {
	h.shiftTransition(w, r, (*schedule.Schedule).UnlockShift)
}

func (h *Handler) shiftTransition(w http.ResponseWriter, r *http.Request, apply func(*schedule.Schedule, schedule.ShiftID) error) {
	shiftID := schedule.ShiftID(chi.URLParam(r, "id"))
	sched, err := h.Store.GetScheduleByShift(r.Context(), shiftID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := apply(sched, shiftID); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Store.SaveSchedule(r.Context(), sched); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(sched))
}

// =============================================================================
// PUNCHES
// =============================================================================

// CreatePunch records a punch pair and recomputes the punched day's
// alerts (a no-op for today, which is still in flight).
func (h *Handler) CreatePunch(w http.ResponseWriter, r *http.Request) {
	var req CreatePunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	checkIn, err := time.Parse(time.RFC3339, req.CheckIn)
	if err != nil {
		badRequest(w, "check_in must be RFC 3339")
		return
	}
	p := attendance.Punch{
		ID:         attendance.PunchID(uuid.NewString()),
		EmployeeID: schedule.EmployeeID(req.EmployeeID),
		CheckIn:    checkIn.UTC(),
	}
	if req.CheckOut != "" {
		checkOut, err := time.Parse(time.RFC3339, req.CheckOut)
		if err != nil {
			badRequest(w, "check_out must be RFC 3339")
			return
		}
		if !checkOut.After(checkIn) {
			h.writeError(w, schedule.NewValidationError("punch-order",
				"check_out %s does not follow check_in %s", req.CheckOut, req.CheckIn))
			return
		}
		p.CheckOut = checkOut.UTC()
	}

	emp, err := h.Store.GetEmployee(r.Context(), p.EmployeeID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Store.SavePunch(r.Context(), p); err != nil {
		h.writeError(w, err)
		return
	}

	clock, err := schedule.NewWeekdayClock(emp.Timezone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.recomputer(clock).RecomputeDay(r.Context(), p.EmployeeID, clock.LocalDate(p.CheckIn)); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, PunchDTO{
		ID:         string(p.ID),
		EmployeeID: string(p.EmployeeID),
		CheckIn:    p.CheckIn.Format(time.RFC3339),
		CheckOut:   formatOptional(p.CheckOut),
	})
}

// ListPunches answers ?employee_id=&from=&to= (RFC 3339 bounds).
func (h *Handler) ListPunches(w http.ResponseWriter, r *http.Request) {
	empID := schedule.EmployeeID(r.URL.Query().Get("employee_id"))
	if empID == "" {
		badRequest(w, "employee_id is required")
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		badRequest(w, "from must be RFC 3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		badRequest(w, "to must be RFC 3339")
		return
	}
	punches, err := h.Store.PunchesBetween(r.Context(), empID, from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := []PunchDTO{}
	for _, p := range punches {
		out = append(out, PunchDTO{
			ID:         string(p.ID),
			EmployeeID: string(p.EmployeeID),
			CheckIn:    p.CheckIn.Format(time.RFC3339),
			CheckOut:   formatOptional(p.CheckOut),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// =============================================================================
// LEAVES
// =============================================================================

// CreateLeave files a leave request in the requested state.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	from, err := time.Parse(time.RFC3339, req.DateFrom)
	if err != nil {
		badRequest(w, "date_from must be RFC 3339")
		return
	}
	to, err := time.Parse(time.RFC3339, req.DateTo)
	if err != nil {
		badRequest(w, "date_to must be RFC 3339")
		return
	}
	if !to.After(from) {
		h.writeError(w, schedule.NewValidationError("leave-order",
			"date_to %s does not follow date_from %s", req.DateTo, req.DateFrom))
		return
	}
	lv := sqlite.LeaveRecord{
		ID:         attendance.LeaveID(uuid.NewString()),
		EmployeeID: schedule.EmployeeID(req.EmployeeID),
		DateFrom:   from.UTC(),
		DateTo:     to.UTC(),
		State:      sqlite.LeaveRequested,
	}
	if err := h.Store.SaveLeave(r.Context(), lv); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(lv))
}

// ApproveLeave approves the leave and punches the interval into every
// affected non-locked schedule.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	lv, err := h.Store.GetLeave(r.Context(), attendance.LeaveID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	lv.State = sqlite.LeaveApproved
	if err := h.Store.SaveLeave(r.Context(), *lv); err != nil {
		h.writeError(w, err)
		return
	}

	scheds, err := h.Store.SchedulesForEmployee(r.Context(), lv.EmployeeID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	interval := schedule.LeaveInterval{Start: lv.DateFrom, End: lv.DateTo}
	for _, sched := range scheds {
		if sched.State == schedule.StateLocked {
			continue
		}
		if sched.ApplyLeave(interval) == 0 {
			continue
		}
		if err := h.Store.SaveSchedule(r.Context(), sched); err != nil {
			h.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*lv))
}

// RefuseLeave refuses the leave and regenerates the schedules it had
// punched holes into.
func (h *Handler) RefuseLeave(w http.ResponseWriter, r *http.Request) {
	lv, err := h.Store.GetLeave(r.Context(), attendance.LeaveID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	wasApproved := lv.State == sqlite.LeaveApproved
	lv.State = sqlite.LeaveRefused
	if err := h.Store.SaveLeave(r.Context(), *lv); err != nil {
		h.writeError(w, err)
		return
	}
	if wasApproved {
		if err := h.regenerateAround(r, lv.EmployeeID, lv.DateFrom, lv.DateTo); err != nil {
			h.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*lv))
}

// regenerateAround re-expands every non-locked schedule of the
// employee that touches [from, to], preserving locked shifts.
func (h *Handler) regenerateAround(r *http.Request, empID schedule.EmployeeID, from, to time.Time) error {
	ctx := r.Context()
	emp, err := h.Store.GetEmployee(ctx, empID)
	if err != nil {
		return err
	}
	clock, err := schedule.NewWeekdayClock(emp.Timezone)
	if err != nil {
		return err
	}
	scheds, err := h.Store.SchedulesForEmployee(ctx, empID)
	if err != nil {
		return err
	}
	for _, sched := range scheds {
		if sched.State == schedule.StateLocked || sched.TemplateID == "" {
			continue
		}
		if sched.DateStart.After(schedule.DateOf(to)) || sched.DateEnd.Before(schedule.DateOf(from)) {
			continue
		}
		tmpl, err := h.Store.GetTemplate(ctx, sched.TemplateID)
		if err != nil {
			return err
		}
		wFrom, _ := clock.DayWindow(sched.DateStart)
		_, wTo := clock.DayWindow(sched.DateEnd)
		leaves, err := h.Store.ApprovedLeaves(ctx, empID, wFrom, wTo)
		if err != nil {
			return err
		}
		gen := schedule.Generator{Clock: clock}
		shifts, err := gen.Generate(schedule.GenerateInput{
			ScheduleID:     sched.ID,
			Name:           sched.Name,
			Template:       tmpl,
			DateStart:      sched.DateStart,
			DateEnd:        sched.DateEnd,
			EffectiveStart: emp.EffectiveStart,
			Leaves:         leaves,
			Existing:       sched.Shifts,
		})
		if err != nil {
			return err
		}
		var kept []schedule.Shift
		for _, sh := range sched.Shifts {
			if sh.State == schedule.StateLocked {
				kept = append(kept, sh)
			}
		}
		sched.Shifts = append(kept, shifts...)
		// A locked shift that was leave-truncated keeps its clipped
		// start, so the regenerated slot can land next to it; refuse
		// the whole regeneration rather than persist an overlap.
		if err := sched.Validate(); err != nil {
			return err
		}
		if err := h.Store.SaveSchedule(ctx, sched); err != nil {
			return err
		}
	}
	return nil
}

func toLeaveDTO(lv sqlite.LeaveRecord) LeaveDTO {
	return LeaveDTO{
		ID:         string(lv.ID),
		EmployeeID: string(lv.EmployeeID),
		DateFrom:   lv.DateFrom.Format(time.RFC3339),
		DateTo:     lv.DateTo.Format(time.RFC3339),
		State:      lv.State,
	}
}

// =============================================================================
// RULES AND ALERTS
// =============================================================================

// ListRules returns every configured alert rule.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := []RuleDTO{}
	for _, rule := range rules {
		out = append(out, toRuleDTO(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListAlerts answers ?employee_id=&from=&to= (dates, inclusive).
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	empID := schedule.EmployeeID(r.URL.Query().Get("employee_id"))
	if empID == "" {
		badRequest(w, "employee_id is required")
		return
	}
	from, okFrom := parseDate(r.URL.Query().Get("from"))
	to, okTo := parseDate(r.URL.Query().Get("to"))
	if !okFrom || !okTo {
		badRequest(w, "from and to are required as YYYY-MM-DD")
		return
	}
	alerts, err := h.Store.ListAlerts(r.Context(), empID, from, to.AddDate(0, 0, 1))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := []AlertDTO{}
	for _, a := range alerts {
		out = append(out, toAlertDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// ResolveAlert marks one alert resolved.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ResolveAlert(r.Context(), attendance.AlertID(chi.URLParam(r, "id"))); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecomputeAlerts rebuilds alerts for the requested employees and
// date range, clamped to yesterday.
func (h *Handler) RecomputeAlerts(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	from, okFrom := parseDate(req.DateStart)
	to, okTo := parseDate(req.DateEnd)
	if !okFrom || !okTo {
		badRequest(w, "date_start and date_end are required as YYYY-MM-DD")
		return
	}

	emps, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	wanted := map[string]bool{}
	for _, id := range req.EmployeeIDs {
		wanted[id] = true
	}

	inserted := 0
	for _, emp := range emps {
		if len(wanted) > 0 && !wanted[string(emp.ID)] {
			continue
		}
		clock, err := schedule.NewWeekdayClock(emp.Timezone)
		if err != nil {
			h.writeError(w, err)
			return
		}
		n, err := h.recomputer(clock).RecomputeRange(r.Context(), []schedule.EmployeeID{emp.ID}, from, to)
		if err != nil {
			h.writeError(w, err)
			return
		}
		inserted += n
	}
	writeJSON(w, http.StatusOK, RecomputeResponse{Inserted: inserted})
}

// SeedRules loads the default rule set.
func (h *Handler) SeedRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.seedDefaultRules(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := []RuleDTO{}
	for _, rule := range rules {
		out = append(out, toRuleDTO(rule))
	}
	writeJSON(w, http.StatusCreated, out)
}

// recomputer wires the store into the attendance engine for one
// timezone.
func (h *Handler) recomputer(clock schedule.WeekdayClock) *attendance.Recomputer {
	return &attendance.Recomputer{
		Clock:   clock,
		Shifts:  h.Store,
		Punches: h.Store,
		Leaves:  h.Store,
		Rules:   h.Store,
		Alerts:  h.Store,
		Logger:  h.Logger,
		Now:     h.Now,
	}
}
