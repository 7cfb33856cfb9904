package ruleform

import (
	"fmt"

	"github.com/alexis/lmsadmin/internal/models"
)

// BuildSubmitPayload returns the draft ready for a create or update call.
// Conditions and actions that parse as JSON are sent as structured values;
// text that does not parse is sent unchanged as a JSON string. Empty text is
// omitted.
func (f *Form) BuildSubmitPayload() models.Rule {
	r := f.Draft()
	r.Conditions = payloadValue(f.conditions)
	r.Actions = payloadValue(f.actions)
	return r
}

// BuildStrictPayload is BuildSubmitPayload with malformed JSON rejected and
// known action shapes checked.
func (f *Form) BuildStrictPayload() (models.Rule, error) {
	if err := f.Validate(); err != nil {
		return models.Rule{}, err
	}
	return f.BuildSubmitPayload(), nil
}

// Validate checks that conditions and actions parse and that recognised
// actions are well formed.
func (f *Form) Validate() error {
	if err := models.ValidateRule(&f.rule); err != nil {
		return err
	}
	if f.conditions != "" {
		if _, ok := parseJSON(f.conditions); !ok {
			return fmt.Errorf("conditions: %w", ErrMalformedJSON)
		}
	}
	if f.actions != "" {
		if _, err := f.TypedActions(); err != nil {
			return fmt.Errorf("actions: %w", err)
		}
	}
	return nil
}
