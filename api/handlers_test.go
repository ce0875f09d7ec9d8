package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/schedule-engine/api"
	"github.com/warp/schedule-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newTestRouter wires a handler over an in-memory database with a fixed
// clock: Friday 2017-11-03, so the fixture week of Monday 2017-10-30 is
// mostly in the recomputable past.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	h := &api.Handler{
		Store:           store,
		Logger:          zap.NewNop(),
		DefaultTimezone: "America/New_York",
		Now:             func() time.Time { return time.Date(2017, time.November, 3, 12, 0, 0, 0, time.UTC) },
	}
	return api.NewRouter(h)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// seedEmployee creates a Mon-Fri 9-17 template and an employee using
// it, returning the employee ID.
func seedEmployee(t *testing.T, router http.Handler, empID string) {
	t.Helper()
	worktimes := []map[string]any{}
	for d := 0; d < 5; d++ {
		worktimes = append(worktimes, map[string]any{
			"name": "day", "week": 1, "day_of_week": d, "hour_from": 9.0, "hour_to": 17.0,
		})
	}
	rec := do(t, router, http.MethodPost, "/api/templates", map[string]any{
		"id": "tmpl-week", "name": "Mon-Fri", "worktimes": worktimes,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/employees", map[string]any{
		"id": empID, "name": "Ada", "timezone": "America/New_York", "template_id": "tmpl-week",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func createWeekSchedule(t *testing.T, router http.Handler, empID, dateStart string) api.ScheduleDTO {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/schedules", map[string]any{
		"employee_id": empID, "date_start": dateStart, "weeks": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sched api.ScheduleDTO
	decode(t, rec, &sched)
	return sched
}

// =============================================================================
// SCHEDULES
// =============================================================================

func TestCreateSchedule_GeneratesShifts(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")

	sched := createWeekSchedule(t, router, "emp-1", "2017-10-30")

	assert.Equal(t, "draft", sched.State)
	require.Len(t, sched.Shifts, 5)
	// Monday 09:00 New York is 13:00 UTC during EDT.
	assert.Equal(t, "2017-10-30T13:00:00Z", sched.Shifts[0].Start)
	assert.Equal(t, "2017-10-30", sched.Shifts[0].Day)

	// The schedule reads back with its shifts.
	rec := do(t, router, http.MethodGet, "/api/schedules/"+sched.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.ScheduleDTO
	decode(t, rec, &got)
	assert.Len(t, got.Shifts, 5)
}

func TestCreateSchedule_RefusesOverlap(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	createWeekSchedule(t, router, "emp-1", "2017-10-30")

	rec := do(t, router, http.MethodPost, "/api/schedules", map[string]any{
		"employee_id": "emp-1", "date_start": "2017-10-30", "weeks": 2,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSchedule_RejectsNonMonday(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")

	rec := do(t, router, http.MethodPost, "/api/schedules", map[string]any{
		"employee_id": "emp-1", "date_start": "2017-10-31",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSchedule_Unknown(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/schedules/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmAndLockWorkflow(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	sched := createWeekSchedule(t, router, "emp-1", "2017-10-30")

	// Confirm cascades to the shifts.
	rec := do(t, router, http.MethodPost, "/api/schedules/"+sched.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var confirmed api.ScheduleDTO
	decode(t, rec, &confirmed)
	assert.Equal(t, "confirmed", confirmed.State)
	assert.Equal(t, "confirmed", confirmed.Shifts[0].State)

	// Confirming twice conflicts.
	rec = do(t, router, http.MethodPost, "/api/schedules/"+sched.ID+"/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Lock one shift; the schedule is not locked yet.
	rec = do(t, router, http.MethodPost, "/api/shifts/"+confirmed.Shifts[0].ID+"/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var locked api.ScheduleDTO
	decode(t, rec, &locked)
	assert.Equal(t, "locked", locked.Shifts[0].State)
	assert.Equal(t, "confirmed", locked.State)

	// A confirmed schedule cannot be deleted.
	rec = do(t, router, http.MethodDelete, "/api/schedules/"+sched.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unlocking brings the shift, and the schedule, to unlocked.
	rec = do(t, router, http.MethodPost, "/api/shifts/"+confirmed.Shifts[0].ID+"/unlock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unlocked api.ScheduleDTO
	decode(t, rec, &unlocked)
	assert.Equal(t, "unlocked", unlocked.Shifts[0].State)
	assert.Equal(t, "unlocked", unlocked.State)
}

func TestDeleteDraftSchedule(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	sched := createWeekSchedule(t, router, "emp-1", "2017-10-30")

	rec := do(t, router, http.MethodDelete, "/api/schedules/"+sched.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/schedules/"+sched.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestDays(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	sched := createWeekSchedule(t, router, "emp-1", "2017-10-30")

	rec := do(t, router, http.MethodGet,
		"/api/schedules/"+sched.ID+"/rest-days?week_start=2017-10-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var restDays api.RestDaysDTO
	decode(t, rec, &restDays)
	assert.Equal(t, []int{5, 6}, restDays.RestDays)
}

func TestMassGenerate_SkipsTemplateless(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	rec := do(t, router, http.MethodPost, "/api/employees", map[string]any{
		"id": "emp-bare", "name": "Bo", "timezone": "UTC",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/schedules/generate", map[string]any{
		"date_start": "2017-11-06", "weeks": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.MassGenerateResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "emp-1", resp.Created[0].EmployeeID)
	assert.Equal(t, []string{"emp-bare"}, resp.Skipped)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestCreateEmployee_RejectsUnknownTimezone(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/employees", map[string]any{
		"id": "emp-1", "name": "Ada", "timezone": "Atlantis/Lost",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduledHours(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	createWeekSchedule(t, router, "emp-1", "2017-10-30")

	rec := do(t, router, http.MethodGet,
		"/api/employees/emp-1/hours?from=2017-10-30&to=2017-11-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var hours api.ScheduledHoursDTO
	decode(t, rec, &hours)
	assert.Len(t, hours.Hours, 5)
	assert.Equal(t, "8", hours.Hours["2017-10-30"])
}

// =============================================================================
// PUNCHES AND ALERTS
// =============================================================================

func TestCreatePunch_RecomputesTheDay(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	createWeekSchedule(t, router, "emp-1", "2017-10-30")
	rec := do(t, router, http.MethodPost, "/api/rules/seed", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// A Tuesday punch, 15 minutes tardy on the 09:00 shift.
	rec = do(t, router, http.MethodPost, "/api/punches", map[string]any{
		"employee_id": "emp-1",
		"check_in":    "2017-10-31T09:15:00-04:00",
		"check_out":   "2017-10-31T17:00:00-04:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet,
		"/api/alerts?employee_id=emp-1&from=2017-10-31&to=2017-10-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var alerts []api.AlertDTO
	decode(t, rec, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "unresolved", alerts[0].State)
	assert.Equal(t, "2017-10-31T13:15:00Z", alerts[0].Timestamp)
}

func TestCreatePunch_RejectsInvertedPair(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")

	rec := do(t, router, http.MethodPost, "/api/punches", map[string]any{
		"employee_id": "emp-1",
		"check_in":    "2017-10-31T17:00:00-04:00",
		"check_out":   "2017-10-31T09:00:00-04:00",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// LEAVES
// =============================================================================

func TestApproveLeave_PunchesHolesIntoSchedule(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	sched := createWeekSchedule(t, router, "emp-1", "2017-10-30")

	// A leave over local Tuesday (midnight to midnight, New York).
	rec := do(t, router, http.MethodPost, "/api/leaves", map[string]any{
		"employee_id": "emp-1",
		"date_from":   "2017-10-31T00:00:00-04:00",
		"date_to":     "2017-11-01T00:00:00-04:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var leave api.LeaveDTO
	decode(t, rec, &leave)
	assert.Equal(t, "requested", leave.State)

	rec = do(t, router, http.MethodPost, "/api/leaves/"+leave.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The Tuesday shift is gone.
	rec = do(t, router, http.MethodGet, "/api/schedules/"+sched.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.ScheduleDTO
	decode(t, rec, &got)
	require.Len(t, got.Shifts, 4)
	for _, sh := range got.Shifts {
		assert.NotEqual(t, "2017-10-31", sh.Day)
	}
}

func TestRefuseLeave_RestoresSchedule(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	sched := createWeekSchedule(t, router, "emp-1", "2017-10-30")

	rec := do(t, router, http.MethodPost, "/api/leaves", map[string]any{
		"employee_id": "emp-1",
		"date_from":   "2017-10-31T00:00:00-04:00",
		"date_to":     "2017-11-01T00:00:00-04:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var leave api.LeaveDTO
	decode(t, rec, &leave)

	rec = do(t, router, http.MethodPost, "/api/leaves/"+leave.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Refusing the approved leave regenerates the punched-out shift.
	rec = do(t, router, http.MethodPost, "/api/leaves/"+leave.ID+"/refuse", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/schedules/"+sched.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.ScheduleDTO
	decode(t, rec, &got)
	assert.Len(t, got.Shifts, 5)
}

func TestRefuseLeave_RefusedWhenLockedClippedShiftWouldOverlap(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1")
	sched := createWeekSchedule(t, router, "emp-1", "2017-10-30")

	// A leave over Tuesday morning; approval clips the shift's start.
	rec := do(t, router, http.MethodPost, "/api/leaves", map[string]any{
		"employee_id": "emp-1",
		"date_from":   "2017-10-31T00:00:00-04:00",
		"date_to":     "2017-10-31T12:00:00-04:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var leave api.LeaveDTO
	decode(t, rec, &leave)
	rec = do(t, router, http.MethodPost, "/api/leaves/"+leave.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Confirm the schedule and lock the clipped Tuesday shift.
	rec = do(t, router, http.MethodPost, "/api/schedules/"+sched.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var confirmed api.ScheduleDTO
	decode(t, rec, &confirmed)
	var tuesday api.ShiftDTO
	for _, sh := range confirmed.Shifts {
		if sh.Day == "2017-10-31" {
			tuesday = sh
		}
	}
	require.NotEmpty(t, tuesday.ID)
	require.Equal(t, "2017-10-31T16:00:00Z", tuesday.Start, "start clipped to the leave end")
	rec = do(t, router, http.MethodPost, "/api/shifts/"+tuesday.ID+"/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Refusing the leave would regenerate the full Tuesday shift next
	// to the locked clipped one; the regeneration is refused whole.
	rec = do(t, router, http.MethodPost, "/api/leaves/"+leave.ID+"/refuse", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// The stored schedule keeps the clipped, locked Tuesday shift.
	rec = do(t, router, http.MethodGet, "/api/schedules/"+sched.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.ScheduleDTO
	decode(t, rec, &got)
	require.Len(t, got.Shifts, 5)
	for _, sh := range got.Shifts {
		if sh.Day == "2017-10-31" {
			assert.Equal(t, "locked", sh.State)
			assert.Equal(t, "2017-10-31T16:00:00Z", sh.Start)
		}
	}
}

// =============================================================================
// DEMO SEED
// =============================================================================

func TestLoadDemo(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/seed", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary api.DemoSummary
	decode(t, rec, &summary)
	assert.Equal(t, 20, summary.Shifts, "two weeks of split Mon-Fri shifts")
	assert.Equal(t, 6, summary.Rules)
	assert.Equal(t, 4, summary.Punches)
	assert.Greater(t, summary.Alerts, 0, "the demo punches trip at least one rule")
}
