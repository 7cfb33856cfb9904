package ruleform

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/alexis/lmsadmin/internal/models"
)

// Diff renders the changes the pending payload makes to the stored rule as
// an annotated JSON listing. It returns "" when nothing changed.
func Diff(stored, pending models.Rule) (string, error) {
	left, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshal stored rule: %w", err)
	}
	right, err := json.Marshal(pending)
	if err != nil {
		return "", fmt.Errorf("marshal pending rule: %w", err)
	}

	d, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return "", fmt.Errorf("compare rules: %w", err)
	}
	if !d.Modified() {
		return "", nil
	}

	var base map[string]interface{}
	if err := json.Unmarshal(left, &base); err != nil {
		return "", fmt.Errorf("decode stored rule: %w", err)
	}
	f := formatter.NewAsciiFormatter(base, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
	})
	out, err := f.Format(d)
	if err != nil {
		return "", fmt.Errorf("format diff: %w", err)
	}
	return out, nil
}

// Diff compares the draft's payload with the rule it was loaded from.
func (f *Form) Diff(stored models.Rule) (string, error) {
	return Diff(stored, f.BuildSubmitPayload())
}
