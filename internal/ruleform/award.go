package ruleform

import (
	"encoding/json"
	"strings"

	"github.com/alexis/lmsadmin/internal/models"
)

// SetAwardPoints sets the points granted by an EVENT rule. Object-shaped
// actions get their points field replaced; array-shaped actions get the
// AWARD_POINTS entry updated or appended. Text that does not parse is left
// untouched.
func (f *Form) SetAwardPoints(points int) {
	if f.rule.RuleType != models.RuleTypeEvent {
		return
	}
	text := f.actions
	if strings.TrimSpace(text) == "" {
		text = "{}"
	}
	v, ok := parseJSON(text)
	if !ok {
		return
	}
	val := number(float64(points))

	switch actions := v.(type) {
	case map[string]interface{}:
		actions["points"] = val
		f.storeActions(actions)
	case []interface{}:
		for _, a := range actions {
			if m, ok := a.(map[string]interface{}); ok && m["type"] == ActionAwardPoints {
				m["points"] = val
				f.storeActions(actions)
				return
			}
		}
		actions = append(actions, map[string]interface{}{
			"type":   ActionAwardPoints,
			"points": val,
		})
		f.storeActions(actions)
	}
}

// AwardPoints reads back the points an EVENT draft grants: the first array
// entry carrying points, or the points field of an object. Zero otherwise.
func (f *Form) AwardPoints() int {
	text := f.actions
	if strings.TrimSpace(text) == "" {
		text = "{}"
	}
	v, ok := parseJSON(text)
	if !ok {
		return 0
	}
	switch actions := v.(type) {
	case map[string]interface{}:
		return toInt(actions["points"])
	case []interface{}:
		for _, a := range actions {
			if m, ok := a.(map[string]interface{}); ok {
				if p, ok := m["points"]; ok {
					return toInt(p)
				}
			}
		}
	}
	return 0
}

func toInt(v interface{}) int {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if fl, err := n.Float64(); err == nil {
		return int(fl)
	}
	return 0
}
