package ruleform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Action types understood by the dashboard. Other types pass through as
// RawAction.
const (
	ActionTieredPoints = "TIERED_POINTS"
	ActionAwardPoints  = "AWARD_POINTS"
)

var (
	ErrMalformedJSON   = errors.New("malformed JSON")
	ErrMalformedAction = errors.New("malformed action")
)

// Action is one entry of a rule's actions.
type Action interface {
	Type() string
}

// Range maps a transaction amount band to a point award. A missing or zero
// Max means the band is open-ended.
type Range struct {
	Min        float64  `json:"min"`
	Max        *float64 `json:"max,omitempty"`
	Points     int      `json:"points"`
	Multiplier float64  `json:"multiplier"`
}

func (r Range) Unbounded() bool {
	return r.Max == nil || *r.Max == 0
}

type TieredPoints struct {
	Ranges []Range
}

func (TieredPoints) Type() string { return ActionTieredPoints }

func (t TieredPoints) MarshalJSON() ([]byte, error) {
	ranges := t.Ranges
	if ranges == nil {
		ranges = []Range{}
	}
	return json.Marshal(struct {
		Type   string  `json:"type"`
		Ranges []Range `json:"ranges"`
	}{ActionTieredPoints, ranges})
}

type AwardPoints struct {
	Points           int
	PointsMultiplier *float64
}

func (AwardPoints) Type() string { return ActionAwardPoints }

func (a AwardPoints) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type             string   `json:"type"`
		Points           int      `json:"points"`
		PointsMultiplier *float64 `json:"pointsMultiplier,omitempty"`
	}{ActionAwardPoints, a.Points, a.PointsMultiplier})
}

// RawAction is an action the dashboard does not model. It is re-encoded
// byte for byte.
type RawAction struct {
	Kind string
	Raw  json.RawMessage
}

func (a RawAction) Type() string { return a.Kind }

func (a RawAction) MarshalJSON() ([]byte, error) { return a.Raw, nil }

// ParseActions decodes rule actions into typed variants. Arrays are decoded
// entry by entry; a single object is treated as a one-entry list and null as
// no actions. Recognised entries with missing or mistyped fields are
// rejected.
func ParseActions(raw []byte) ([]Action, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return nil, ErrMalformedJSON
	}
	switch raw[0] {
	case 'n':
		return nil, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
		}
		out := make([]Action, 0, len(items))
		for i, item := range items {
			a, err := parseAction(item)
			if err != nil {
				return nil, fmt.Errorf("action[%d]: %w", i, err)
			}
			out = append(out, a)
		}
		return out, nil
	case '{':
		a, err := parseAction(raw)
		if err != nil {
			return nil, err
		}
		return []Action{a}, nil
	default:
		return nil, fmt.Errorf("%w: actions must be an array or an object", ErrMalformedAction)
	}
}

// EncodeActions writes actions in array form, the shape the dashboard
// renders decoded actions in.
func EncodeActions(actions []Action) (json.RawMessage, error) {
	if actions == nil {
		actions = []Action{}
	}
	return json.Marshal(actions)
}

func parseAction(raw json.RawMessage) (Action, error) {
	var head struct {
		Type   string          `json:"type"`
		Points json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}

	switch {
	case head.Type == ActionTieredPoints:
		return parseTiered(raw)
	case head.Type == ActionAwardPoints, head.Type == "" && head.Points != nil:
		return parseAward(raw)
	default:
		return RawAction{Kind: head.Type, Raw: append(json.RawMessage{}, raw...)}, nil
	}
}

func parseTiered(raw json.RawMessage) (Action, error) {
	var body struct {
		Ranges *[]struct {
			Min        *float64 `json:"min"`
			Max        *float64 `json:"max"`
			Points     *float64 `json:"points"`
			Multiplier *float64 `json:"multiplier"`
		} `json:"ranges"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if body.Ranges == nil {
		return nil, fmt.Errorf("%w: TIERED_POINTS requires ranges", ErrMalformedAction)
	}
	t := TieredPoints{Ranges: make([]Range, 0, len(*body.Ranges))}
	for i, r := range *body.Ranges {
		if r.Min == nil || r.Points == nil {
			return nil, fmt.Errorf("%w: range[%d] requires min and points", ErrMalformedAction, i)
		}
		points, err := wholePoints(*r.Points)
		if err != nil {
			return nil, fmt.Errorf("range[%d]: %w", i, err)
		}
		rng := Range{Min: *r.Min, Max: r.Max, Points: points}
		if r.Multiplier != nil {
			rng.Multiplier = *r.Multiplier
		}
		t.Ranges = append(t.Ranges, rng)
	}
	return t, nil
}

func parseAward(raw json.RawMessage) (Action, error) {
	var body struct {
		Points           *float64 `json:"points"`
		PointsMultiplier *float64 `json:"pointsMultiplier"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if body.Points == nil {
		return nil, fmt.Errorf("%w: AWARD_POINTS requires points", ErrMalformedAction)
	}
	points, err := wholePoints(*body.Points)
	if err != nil {
		return nil, err
	}
	return AwardPoints{Points: points, PointsMultiplier: body.PointsMultiplier}, nil
}

func wholePoints(v float64) (int, error) {
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: points must be a whole number, got %v", ErrMalformedAction, v)
	}
	return int(v), nil
}

// TypedActions parses the draft's actions text with ParseActions.
func (f *Form) TypedActions() ([]Action, error) {
	return ParseActions([]byte(f.actions))
}
