/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/schedule-engine/attendance"
	"github.com/warp/schedule-engine/schedule"
	"github.com/warp/schedule-engine/store/sqlite"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Timezone       string `json:"timezone"`
	TemplateID     string `json:"template_id,omitempty"`
	EffectiveStart string `json:"effective_start,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Timezone       string `json:"timezone"`
	TemplateID     string `json:"template_id"`
	EffectiveStart string `json:"effective_start"` // YYYY-MM-DD, optional
}

func toEmployeeDTO(emp sqlite.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:         string(emp.ID),
		Name:       emp.Name,
		Timezone:   emp.Timezone,
		TemplateID: string(emp.TemplateID),
	}
	if !emp.EffectiveStart.IsZero() {
		dto.EffectiveStart = emp.EffectiveStart.Format("2006-01-02")
	}
	return dto
}

// =============================================================================
// TEMPLATES
// =============================================================================

// WorkTimeRuleDTO is one work-time rule of a template.
type WorkTimeRuleDTO struct {
	Name      string  `json:"name"`
	Week      int     `json:"week"`
	DayOfWeek int     `json:"day_of_week"`
	HourFrom  float64 `json:"hour_from"`
	HourTo    float64 `json:"hour_to"`
}

// TemplateDTO represents a template in API responses.
type TemplateDTO struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Worktimes []WorkTimeRuleDTO `json:"worktimes"`
	RestDays  []int             `json:"rest_days,omitempty"`
}

// CreateTemplateRequest is the request to create a template.
type CreateTemplateRequest struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Worktimes []WorkTimeRuleDTO `json:"worktimes"`
	RestDays  []int             `json:"rest_days"`
}

func toTemplateDTO(t *schedule.Template) TemplateDTO {
	dto := TemplateDTO{
		ID:       string(t.ID),
		Name:     t.Name,
		RestDays: t.RestDays,
	}
	for _, r := range t.Worktimes {
		dto.Worktimes = append(dto.Worktimes, WorkTimeRuleDTO{
			Name: r.Name, Week: r.Week, DayOfWeek: r.DayOfWeek,
			HourFrom: r.HourFrom, HourTo: r.HourTo,
		})
	}
	return dto
}

// =============================================================================
// SCHEDULES AND SHIFTS
// =============================================================================

// ShiftDTO represents one generated shift.
type ShiftDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DayOfWeek int    `json:"day_of_week"`
	Day       string `json:"day"`
	Start     string `json:"start"`
	End       string `json:"end"`
	State     string `json:"state"`
}

// ScheduleDTO represents a schedule with its shifts.
type ScheduleDTO struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	TemplateID string     `json:"template_id,omitempty"`
	Name       string     `json:"name"`
	DateStart  string     `json:"date_start"`
	DateEnd    string     `json:"date_end"`
	State      string     `json:"state"`
	Shifts     []ShiftDTO `json:"shifts"`
}

// CreateScheduleRequest creates a schedule and generates its shifts.
type CreateScheduleRequest struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	DateStart  string `json:"date_start"` // Monday, YYYY-MM-DD
	Weeks      int    `json:"weeks"`      // default 1
}

// MassGenerateRequest generates schedules for several employees.
type MassGenerateRequest struct {
	EmployeeIDs []string `json:"employee_ids"` // empty means everyone
	DateStart   string   `json:"date_start"`   // default: next Monday
	Weeks       int      `json:"weeks"`        // default 2
}

// MassGenerateResponse lists what happened per employee.
type MassGenerateResponse struct {
	Created []ScheduleDTO `json:"created"`
	Skipped []string      `json:"skipped,omitempty"` // employee IDs with overlaps or no template
}

// RestDaysDTO is the rest-day answer for one week.
type RestDaysDTO struct {
	WeekStart string `json:"week_start"`
	RestDays  []int  `json:"rest_days"`
}

// ScheduledHoursDTO reports decimal hours per day.
type ScheduledHoursDTO struct {
	EmployeeID string            `json:"employee_id"`
	Hours      map[string]string `json:"hours"` // day -> decimal hours
}

func toScheduleDTO(s *schedule.Schedule) ScheduleDTO {
	dto := ScheduleDTO{
		ID:         string(s.ID),
		EmployeeID: string(s.EmployeeID),
		TemplateID: string(s.TemplateID),
		Name:       s.Name,
		DateStart:  s.DateStart.Format("2006-01-02"),
		DateEnd:    s.DateEnd.Format("2006-01-02"),
		State:      string(s.State),
		Shifts:     []ShiftDTO{},
	}
	for _, sh := range s.Shifts {
		dto.Shifts = append(dto.Shifts, toShiftDTO(sh))
	}
	return dto
}

func toShiftDTO(sh schedule.Shift) ShiftDTO {
	return ShiftDTO{
		ID:        string(sh.ID),
		Name:      sh.Name,
		DayOfWeek: sh.DayOfWeek,
		Day:       sh.Day.Format("2006-01-02"),
		Start:     sh.Start.UTC().Format("2006-01-02T15:04:05Z07:00"),
		End:       sh.End.UTC().Format("2006-01-02T15:04:05Z07:00"),
		State:     string(sh.State),
	}
}

// =============================================================================
// PUNCHES AND LEAVES
// =============================================================================

// PunchDTO represents an attendance punch pair.
type PunchDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out,omitempty"`
}

// CreatePunchRequest records a punch pair.
type CreatePunchRequest struct {
	EmployeeID string `json:"employee_id"`
	CheckIn    string `json:"check_in"`            // RFC 3339
	CheckOut   string `json:"check_out,omitempty"` // RFC 3339, optional
}

// LeaveDTO represents a leave request.
type LeaveDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	State      string `json:"state"`
}

// CreateLeaveRequest files a leave request.
type CreateLeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	DateFrom   string `json:"date_from"` // RFC 3339
	DateTo     string `json:"date_to"`   // RFC 3339
}

// =============================================================================
// RULES AND ALERTS
// =============================================================================

// RuleDTO represents an alert rule.
type RuleDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Severity    string `json:"severity"`
	Window      int    `json:"window"`
	GracePeriod int    `json:"grace_period"`
	Active      bool   `json:"active"`
}

// AlertDTO represents one attendance alert.
type AlertDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	RuleID     string `json:"rule_id"`
	Severity   string `json:"severity"`
	Timestamp  string `json:"timestamp"`
	PunchID    string `json:"punch_id,omitempty"`
	ShiftID    string `json:"shift_id,omitempty"`
	State      string `json:"state"`
}

// RecomputeRequest triggers alert recomputation for a date range.
type RecomputeRequest struct {
	EmployeeIDs []string `json:"employee_ids"` // empty means everyone
	DateStart   string   `json:"date_start"`   // YYYY-MM-DD
	DateEnd     string   `json:"date_end"`     // YYYY-MM-DD
}

// RecomputeResponse reports how many alerts were inserted.
type RecomputeResponse struct {
	Inserted int `json:"inserted"`
}

func toRuleDTO(r attendance.Rule) RuleDTO {
	return RuleDTO{
		ID:          string(r.ID),
		Name:        r.Name,
		Code:        r.Kind.Code(),
		Severity:    string(r.Severity),
		Window:      r.Window,
		GracePeriod: r.GracePeriod,
		Active:      r.Active,
	}
}

func toAlertDTO(a attendance.Alert) AlertDTO {
	return AlertDTO{
		ID:         string(a.ID),
		EmployeeID: string(a.EmployeeID),
		RuleID:     string(a.RuleID),
		Severity:   string(a.Severity),
		Timestamp:  a.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		PunchID:    string(a.PunchID),
		ShiftID:    string(a.ShiftID),
		State:      string(a.State),
	}
}
