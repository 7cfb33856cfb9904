package ruleform

import (
	"encoding/json"

	"github.com/alexis/lmsadmin/internal/models"
)

// Range fields accepted by UpdateTieredRange.
const (
	RangeMin        = "min"
	RangeMax        = "max"
	RangePoints     = "points"
	RangeMultiplier = "multiplier"
)

// ValidRangeField reports whether name is an editable range field.
func ValidRangeField(name string) bool {
	switch name {
	case RangeMin, RangeMax, RangePoints, RangeMultiplier:
		return true
	}
	return false
}

// AddTieredRange appends a zeroed range to the TIERED_POINTS action,
// creating the action if the draft has none. Only TRANSACTION drafts are
// affected.
func (f *Form) AddTieredRange() {
	if f.rule.RuleType != models.RuleTypeTransaction {
		return
	}
	actions := f.actionList()
	entry, actions := tieredEntry(actions, true)
	ranges := rangesOf(entry)
	ranges = append(ranges, map[string]interface{}{
		RangeMin:        json.Number("0"),
		RangeMax:        json.Number("0"),
		RangePoints:     json.Number("0"),
		RangeMultiplier: json.Number("0"),
	})
	entry["ranges"] = ranges
	f.storeActions(actions)
}

// UpdateTieredRange sets one numeric field of the range at index. Unknown
// fields and indexes outside the range list leave the draft unchanged.
// Ranges are neither sorted nor checked for overlap.
func (f *Form) UpdateTieredRange(index int, field string, value float64) {
	if f.rule.RuleType != models.RuleTypeTransaction || !ValidRangeField(field) {
		return
	}
	actions := f.actionList()
	entry, actions := tieredEntry(actions, false)
	if entry == nil {
		return
	}
	ranges := rangesOf(entry)
	if index < 0 || index >= len(ranges) {
		return
	}
	r, ok := ranges[index].(map[string]interface{})
	if !ok {
		r = map[string]interface{}{}
		ranges[index] = r
	}
	r[field] = number(value)
	entry["ranges"] = ranges
	f.storeActions(actions)
}

// RemoveTieredRange drops the range at index, keeping the order of the rest.
func (f *Form) RemoveTieredRange(index int) {
	if f.rule.RuleType != models.RuleTypeTransaction {
		return
	}
	actions := f.actionList()
	entry, actions := tieredEntry(actions, false)
	if entry == nil {
		return
	}
	ranges := rangesOf(entry)
	if index < 0 || index >= len(ranges) {
		return
	}
	out := make([]interface{}, 0, len(ranges)-1)
	out = append(out, ranges[:index]...)
	out = append(out, ranges[index+1:]...)
	entry["ranges"] = out
	f.storeActions(actions)
}

// TieredRanges returns the ranges of the TIERED_POINTS action in order.
// Malformed entries decode as zero values.
func (f *Form) TieredRanges() []Range {
	entry, _ := tieredEntry(f.actionList(), false)
	if entry == nil {
		return nil
	}
	raw := rangesOf(entry)
	out := make([]Range, 0, len(raw))
	for _, item := range raw {
		var r Range
		if b, err := json.Marshal(item); err == nil {
			_ = json.Unmarshal(b, &r)
		}
		out = append(out, r)
	}
	return out
}

// actionList parses the actions text as an array. Anything else starts over
// from an empty list.
func (f *Form) actionList() []interface{} {
	v, ok := parseJSON(f.actions)
	if !ok {
		return []interface{}{}
	}
	list, ok := v.([]interface{})
	if !ok {
		return []interface{}{}
	}
	return list
}

// tieredEntry finds the TIERED_POINTS object. With create set, a new entry is
// appended when none exists.
func tieredEntry(actions []interface{}, create bool) (map[string]interface{}, []interface{}) {
	for _, a := range actions {
		m, ok := a.(map[string]interface{})
		if ok && m["type"] == ActionTieredPoints {
			return m, actions
		}
	}
	if !create {
		return nil, actions
	}
	entry := map[string]interface{}{
		"type":   ActionTieredPoints,
		"ranges": []interface{}{},
	}
	return entry, append(actions, entry)
}

func rangesOf(entry map[string]interface{}) []interface{} {
	ranges, _ := entry["ranges"].([]interface{})
	if ranges == nil {
		return []interface{}{}
	}
	return ranges
}
