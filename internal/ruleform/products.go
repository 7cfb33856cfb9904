package ruleform

import "github.com/alexis/lmsadmin/internal/models"

// ToggleProductTarget adds code to the targeted products, or removes it if
// already present. Only PRODUCT drafts are affected.
func (f *Form) ToggleProductTarget(code string) {
	if f.rule.RuleType != models.RuleTypeProduct {
		return
	}
	current := f.rule.TargetProductCodes
	for i, c := range current {
		if c == code {
			out := make([]string, 0, len(current)-1)
			out = append(out, current[:i]...)
			f.rule.TargetProductCodes = append(out, current[i+1:]...)
			return
		}
	}
	f.rule.TargetProductCodes = append(append([]string{}, current...), code)
}

// SelectAllProducts switches between every code in allCodes and none. When
// the draft already targets as many products as allCodes holds, the
// selection is cleared.
func (f *Form) SelectAllProducts(allCodes []string) {
	if f.rule.RuleType != models.RuleTypeProduct {
		return
	}
	if len(f.rule.TargetProductCodes) == len(allCodes) {
		f.rule.TargetProductCodes = []string{}
		return
	}
	f.rule.TargetProductCodes = append([]string{}, allCodes...)
}

// TargetsProduct reports whether code is selected.
func (f *Form) TargetsProduct(code string) bool {
	for _, c := range f.rule.TargetProductCodes {
		if c == code {
			return true
		}
	}
	return false
}
