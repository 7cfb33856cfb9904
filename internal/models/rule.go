package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type RuleType string

const (
	RuleTypeEvent       RuleType = "EVENT"
	RuleTypeTransaction RuleType = "TRANSACTION"
	RuleTypeProduct     RuleType = "PRODUCT"
	RuleTypeReward      RuleType = "REWARD"
)

// RuleTypes lists the dashboard tabs in display order.
var RuleTypes = []RuleType{RuleTypeEvent, RuleTypeTransaction, RuleTypeProduct, RuleTypeReward}

func ValidateRuleType(t RuleType) error {
	switch t {
	case RuleTypeEvent, RuleTypeTransaction, RuleTypeProduct, RuleTypeReward:
		return nil
	default:
		return fmt.Errorf("invalid rule type: %q (must be EVENT, TRANSACTION, PRODUCT or REWARD)", t)
	}
}

// ParseRuleType accepts any letter case.
func ParseRuleType(s string) (RuleType, error) {
	t := RuleType(strings.ToUpper(strings.TrimSpace(s)))
	return t, ValidateRuleType(t)
}

type EvaluationType string

const (
	EvaluationPerTransaction EvaluationType = "TRANSACTION"
	EvaluationMonthly        EvaluationType = "MONTHLY"
	EvaluationQuarterly      EvaluationType = "QUARTERLY"
)

type RewardType string

const (
	RewardPoints   RewardType = "POINTS"
	RewardDiscount RewardType = "DISCOUNT"
)

// Rule is the backend rule record. Conditions and Actions are owned by the
// rule engine and carried as raw JSON.
type Rule struct {
	ID                 int64           `json:"id,omitempty"`
	RuleType           RuleType        `json:"ruleType"`
	RuleName           string          `json:"ruleName"`
	Conditions         json.RawMessage `json:"conditions,omitempty"`
	Actions            json.RawMessage `json:"actions,omitempty"`
	DRLContent         string          `json:"drlContent,omitempty"`
	Priority           int             `json:"priority"`
	IsActive           bool            `json:"isActive"`
	ValidFrom          *string         `json:"validFrom,omitempty"`
	ValidUntil         *string         `json:"validUntil,omitempty"`
	EvaluationType     EvaluationType  `json:"evaluationType,omitempty"`
	TargetProductCode  string          `json:"targetProductCode,omitempty"`
	TargetProductCodes []string        `json:"targetProductCodes"`
	MinAmount          *float64        `json:"minAmount,omitempty"`
	MaxAmount          *float64        `json:"maxAmount,omitempty"`
	MinVolume          *int            `json:"minVolume,omitempty"`
	MaxVolume          *int            `json:"maxVolume,omitempty"`
	TargetTier         Tier            `json:"targetTier,omitempty"`
	RewardType         RewardType      `json:"rewardType,omitempty"`
}

// ValidateRule checks the fields the dashboard owns. Conditions and actions
// are left to the rule engine.
func ValidateRule(r *Rule) error {
	if strings.TrimSpace(r.RuleName) == "" {
		return fmt.Errorf("ruleName is required")
	}
	if err := ValidateRuleType(r.RuleType); err != nil {
		return err
	}
	if r.TargetTier != "" {
		if err := ValidateTier(r.TargetTier); err != nil {
			return fmt.Errorf("targetTier: %w", err)
		}
	}
	return nil
}

// FilterRules returns the rules shown under a tab. Rules without a type are
// listed under EVENT.
func FilterRules(rules []Rule, t RuleType) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.RuleType == t || (r.RuleType == "" && t == RuleTypeEvent) {
			out = append(out, r)
		}
	}
	return out
}

// CountRulesByType groups rules per tab, using the same fallback as FilterRules.
func CountRulesByType(rules []Rule) map[RuleType]int {
	counts := make(map[RuleType]int, len(RuleTypes))
	for _, t := range RuleTypes {
		counts[t] = 0
	}
	for _, r := range rules {
		t := r.RuleType
		if t == "" {
			t = RuleTypeEvent
		}
		counts[t]++
	}
	return counts
}

// TransactionFact is the input of a rule simulation.
type TransactionFact struct {
	MemberID        int64   `json:"memberId"`
	MemberTier      Tier    `json:"memberTier,omitempty"`
	Amount          float64 `json:"amount"`
	PaymentMethod   string  `json:"paymentMethod,omitempty"`
	ProductCategory string  `json:"productCategory,omitempty"`
	ProductCode     string  `json:"productCode,omitempty"`
	PointMultiplier float64 `json:"pointMultiplier"`
	BonusPoints     int     `json:"bonusPoints"`
}

// MemberActivityFact carries period aggregates used by MONTHLY and QUARTERLY rules.
type MemberActivityFact struct {
	MemberID                  int64   `json:"memberId"`
	MonthlyTransactionCount   int64   `json:"monthlyTransactionCount"`
	MonthlyTotalSpent         float64 `json:"monthlyTotalSpent"`
	QuarterlyTransactionCount int64   `json:"quarterlyTransactionCount"`
	QuarterlyTotalSpent       float64 `json:"quarterlyTotalSpent"`
}

type RuleEvaluationRequest struct {
	Transaction TransactionFact     `json:"transaction"`
	Activity    *MemberActivityFact `json:"activity,omitempty"`
}
