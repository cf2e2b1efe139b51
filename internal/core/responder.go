package core

import (
	"fmt"
	"strings"

	"verbitskysystems.com/website/internal/utils"
)

// RulePredicate matches lowercased message text against substring sets:
// every entry of All must appear, plus at least one entry of Any when Any is
// non-empty.
type RulePredicate struct {
	All []string
	Any []string
}

func (p RulePredicate) Matches(lower string) bool {
	for _, s := range p.All {
		if !strings.Contains(lower, s) {
			return false
		}
	}
	if len(p.Any) == 0 {
		return true
	}
	for _, s := range p.Any {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// ResponseRule pairs a predicate with the troubleshooting script it unlocks.
type ResponseRule struct {
	Name      string
	Predicate RulePredicate
	Script    string
}

// Responder turns a visitor message into a canned assistant reply. Rules are
// evaluated in fixed priority order and the first match wins; when nothing
// matches, the fallback script echoes the visitor's text (HTML-escaped).
// Respond is a pure function, so the whole table is enumerable in tests.
type Responder struct {
	rules []ResponseRule
}

func NewResponder() *Responder {
	return &Responder{rules: defaultRules()}
}

func (r *Responder) Rules() []ResponseRule {
	out := make([]ResponseRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// MatchRule reports which rule would answer the given text, if any.
func (r *Responder) MatchRule(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, rule := range r.rules {
		if rule.Predicate.Matches(lower) {
			return rule.Name, true
		}
	}
	return "", false
}

func (r *Responder) Respond(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range r.rules {
		if rule.Predicate.Matches(lower) {
			return rule.Script
		}
	}
	return fmt.Sprintf(fallbackScript, utils.EscapeHTML(text))
}

func defaultRules() []ResponseRule {
	return []ResponseRule{
		{
			Name:      "plc-hmi-communication",
			Predicate: RulePredicate{All: []string{"plc"}, Any: []string{"hmi", "communication"}},
			Script: `For PLC-HMI communication issues, let's diagnose systematically:

1. **Check physical connections** - Ensure all cables are properly seated
2. **Verify network settings** - IP addresses, subnet masks must match
3. **Test ping connectivity** - Can the HMI ping the PLC?
4. **Review communication drivers** - Ensure correct driver and version

Common causes: IP conflicts, cable issues, or driver mismatches.

What error messages are you seeing on the HMI?`,
		},
		{
			Name:      "motor-overheating",
			Predicate: RulePredicate{All: []string{"motor", "overheat"}},
			Script: `Motor overheating requires immediate attention. Check these items:

1. **Ambient temperature** - Is cooling adequate?
2. **Load conditions** - Verify motor isn't overloaded
3. **VFD parameters** - Check acceleration/deceleration times
4. **Mechanical issues** - Listen for bearing noise

Safety first: Ensure proper lockout/tagout before inspection.

What's the motor's rated capacity versus actual load?`,
		},
		{
			Name:      "safety-system-reset",
			Predicate: RulePredicate{Any: []string{"safety", "e-stop"}},
			Script: `Safety system reset issues are critical. Follow this sequence:

1. **Verify all E-stops** are pulled out/reset
2. **Check safety relay** status LEDs
3. **Review safety circuit** continuity
4. **Inspect door switches** and light curtains

The safety system requires all conditions cleared before reset.

Are there any specific fault codes on the safety relay?`,
		},
		{
			Name:      "sensor-diagnostics",
			Predicate: RulePredicate{Any: []string{"sensor"}},
			Script: `For sensor diagnostic issues:

1. **Check power supply** - Verify correct voltage
2. **Inspect wiring** - Look for damage or interference
3. **Test with multimeter** - Measure output signal
4. **Review mounting** - Ensure proper alignment

Environmental factors like EMI or temperature can affect readings.

What type of sensor and what's the expected vs actual output?`,
		},
	}
}

const fallbackScript = `I understand you're experiencing: "%s"

To provide the most accurate troubleshooting guidance, I need a bit more information:
- Equipment make/model
- Error codes or alarms present
- When the issue started
- Any recent changes to the system

This helps me give you specific, actionable solutions. What additional details can you provide?`
