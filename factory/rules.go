/*
Package factory builds alert rules from JSON definitions.

PURPOSE:
  Translates declarative rule JSON into attendance.Rule values and
  carries the default rule set the seed endpoints load. Keeping the
  defaults here, as data, means deployments can override them with
  their own JSON without touching the engine.

RULE JSON FORMAT:
  {
    "code": "TARDY",
    "name": "Late check-in",
    "severity": "medium",
    "window": 30,
    "grace_period": 10,
    "active": true
  }

SEE ALSO:
  - attendance/types.go: RuleKind codes and Rule semantics
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/warp/schedule-engine/attendance"
	"github.com/warp/schedule-engine/schedule"
)

// RuleJSON is the declarative form of one alert rule.
type RuleJSON struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Window      int    `json:"window"`
	GracePeriod int    `json:"grace_period"`
	Active      *bool  `json:"active,omitempty"` // nil means active
}

// ParseRule builds one rule from its JSON definition.
func ParseRule(def RuleJSON) (attendance.Rule, error) {
	kind, err := attendance.ParseRuleKind(def.Code)
	if err != nil {
		return attendance.Rule{}, err
	}
	if def.Window <= 0 && kind != attendance.OverlapWithLeave {
		return attendance.Rule{}, schedule.NewValidationError("rule-window",
			"rule %q needs a positive window", def.Code)
	}
	if def.GracePeriod < 0 {
		return attendance.Rule{}, schedule.NewValidationError("rule-grace",
			"rule %q has a negative grace period", def.Code)
	}
	severity := attendance.Severity(def.Severity)
	switch severity {
	case attendance.SeverityLow, attendance.SeverityMedium, attendance.SeverityHigh, attendance.SeverityCritical:
	case "":
		severity = attendance.SeverityMedium
	default:
		return attendance.Rule{}, schedule.NewValidationError("rule-severity",
			"rule %q has unknown severity %q", def.Code, def.Severity)
	}
	active := true
	if def.Active != nil {
		active = *def.Active
	}
	name := def.Name
	if name == "" {
		name = def.Code
	}
	return attendance.Rule{
		ID:          attendance.RuleID(uuid.NewString()),
		Name:        name,
		Kind:        kind,
		Severity:    severity,
		Window:      def.Window,
		GracePeriod: def.GracePeriod,
		Active:      active,
	}, nil
}

// ParseRules builds a rule set from a JSON array.
func ParseRules(data []byte) ([]attendance.Rule, error) {
	var defs []RuleJSON
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse rule definitions: %w", err)
	}
	rules := make([]attendance.Rule, 0, len(defs))
	for _, def := range defs {
		r, err := ParseRule(def)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// DefaultRuleSet mirrors the rule catalogue a fresh deployment starts
// with.
var DefaultRuleSet = []RuleJSON{
	{Code: "UNSCHEDATT", Name: "Unscheduled attendance", Severity: "medium", Window: 60},
	{Code: "MISSATT", Name: "Missed attendance", Severity: "high", Window: 60},
	{Code: "TARDY", Name: "Late check-in", Severity: "medium", Window: 30, GracePeriod: 10},
	{Code: "OUTEARLY", Name: "Early check-out", Severity: "medium", Window: 30, GracePeriod: 10},
	{Code: "OUTLATE", Name: "Late check-out", Severity: "low", Window: 60, GracePeriod: 10},
	{Code: "OVRLP", Name: "Punch overlaps leave", Severity: "high", Window: 1},
}

// DefaultRules returns the parsed default rule set.
func DefaultRules() ([]attendance.Rule, error) {
	rules := make([]attendance.Rule, 0, len(DefaultRuleSet))
	for _, def := range DefaultRuleSet {
		r, err := ParseRule(def)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
