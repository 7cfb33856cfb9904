// Package ruleform holds the working draft of a loyalty rule while it is
// edited and turns it into the payload the rule service accepts.
//
// Conditions and actions are kept as JSON text, the way an operator edits
// them. The range, award and product helpers rewrite that text in place.
package ruleform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexis/lmsadmin/internal/models"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Field names accepted by SetField.
const (
	FieldRuleName       = "ruleName"
	FieldPriority       = "priority"
	FieldIsActive       = "isActive"
	FieldTargetTier     = "targetTier"
	FieldEvaluationType = "evaluationType"
	FieldRewardType     = "rewardType"
	FieldValidUntil     = "validUntil"
	FieldConditions     = "conditions"
	FieldActions        = "actions"
)

var ErrUnknownField = errors.New("unknown field")

// KnownField reports whether SetField accepts name.
func KnownField(name string) bool {
	switch name {
	case FieldRuleName, "name", FieldPriority, FieldIsActive, "active",
		FieldTargetTier, "tier", FieldEvaluationType, FieldRewardType,
		FieldValidUntil, FieldConditions, FieldActions:
		return true
	}
	return false
}

// Form is the in-memory draft of one rule. It is not safe for concurrent use.
type Form struct {
	mode       Mode
	rule       models.Rule
	conditions string
	actions    string
}

// New returns a form prepared for creating a rule of type t.
func New(t models.RuleType) *Form {
	f := &Form{}
	f.StartCreate(t)
	return f
}

// StartCreate resets the draft to the defaults for t.
func (f *Form) StartCreate(t models.RuleType) {
	f.mode = ModeCreate
	f.rule = models.Rule{
		RuleType: t,
		Priority: 1,
		IsActive: true,
	}
	f.conditions = "{}"
	f.actions = "[]"

	switch t {
	case models.RuleTypeTransaction:
		f.rule.EvaluationType = models.EvaluationPerTransaction
	case models.RuleTypeEvent:
		f.rule.RewardType = models.RewardPoints
	case models.RuleTypeProduct:
		f.rule.TargetProductCodes = []string{}
	}
}

// StartEdit loads an existing rule. Conditions and actions are converted to
// their text form: string values are used as-is, anything else is encoded.
func (f *Form) StartEdit(r models.Rule) {
	f.mode = ModeEdit
	f.rule = r
	f.rule.Conditions = nil
	f.rule.Actions = nil
	if r.TargetProductCodes != nil {
		f.rule.TargetProductCodes = append([]string{}, r.TargetProductCodes...)
	}
	f.conditions = formatJSON(r.Conditions)
	f.actions = formatJSON(r.Actions)
}

func (f *Form) Mode() Mode { return f.mode }

// ID is the id of the rule under edit, zero while creating.
func (f *Form) ID() int64 {
	if f.mode != ModeEdit {
		return 0
	}
	return f.rule.ID
}

func (f *Form) RuleType() models.RuleType { return f.rule.RuleType }

// Conditions returns the current conditions text.
func (f *Form) Conditions() string { return f.conditions }

// Actions returns the current actions text.
func (f *Form) Actions() string { return f.actions }

// Draft returns a copy of the scalar fields of the draft. Conditions and
// Actions are left empty; use Conditions, Actions or BuildSubmitPayload.
func (f *Form) Draft() models.Rule {
	r := f.rule
	if r.TargetProductCodes != nil {
		r.TargetProductCodes = append([]string{}, r.TargetProductCodes...)
	}
	return r
}

// SetField assigns a field from its text form. Numbers that do not parse
// become 0. Only unknown field names are rejected.
func (f *Form) SetField(name, value string) error {
	switch name {
	case FieldRuleName, "name":
		f.SetName(value)
	case FieldPriority:
		n, _ := strconv.Atoi(strings.TrimSpace(value))
		f.SetPriority(n)
	case FieldIsActive, "active":
		f.SetActive(strings.EqualFold(strings.TrimSpace(value), "true"))
	case FieldTargetTier, "tier":
		f.SetTargetTier(models.Tier(strings.ToUpper(strings.TrimSpace(value))))
	case FieldEvaluationType:
		f.SetEvaluationType(models.EvaluationType(value))
	case FieldRewardType:
		f.SetRewardType(models.RewardType(value))
	case FieldValidUntil:
		f.SetValidUntil(value)
	case FieldConditions:
		f.SetConditions(value)
	case FieldActions:
		f.SetActions(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

func (f *Form) SetName(name string) { f.rule.RuleName = name }
func (f *Form) SetPriority(p int) { f.rule.Priority = p }
func (f *Form) SetActive(active bool) { f.rule.IsActive = active }
func (f *Form) SetConditions(s string) { f.conditions = s }
func (f *Form) SetActions(s string) { f.actions = s }
func (f *Form) SetTargetTier(t models.Tier) { f.rule.TargetTier = t }

func (f *Form) SetEvaluationType(t models.EvaluationType) { f.rule.EvaluationType = t }
func (f *Form) SetRewardType(t models.RewardType) { f.rule.RewardType = t }

// SetValidUntil takes a calendar date and stores the end of that day.
// An empty value clears the expiry.
func (f *Form) SetValidUntil(date string) {
	date = strings.TrimSpace(date)
	if date == "" {
		f.rule.ValidUntil = nil
		return
	}
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		date = date[:i]
	}
	v := date + "T23:59:59"
	f.rule.ValidUntil = &v
}

// ValidUntilDate returns the date part of the expiry, or "".
func (f *Form) ValidUntilDate() string {
	if f.rule.ValidUntil == nil {
		return ""
	}
	d, _, _ := strings.Cut(*f.rule.ValidUntil, "T")
	return d
}
