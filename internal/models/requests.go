package models

import (
	"fmt"
	"strings"
)

type OnboardRequest struct {
	MemberID int64 `json:"memberId"`
}

type ReferralRequest struct {
	ReferrerID int64 `json:"referrerId"`
	RefereeID  int64 `json:"refereeId"`
}

func ValidateReferral(r *ReferralRequest) error {
	if r.ReferrerID <= 0 || r.RefereeID <= 0 {
		return fmt.Errorf("referrerId and refereeId are required")
	}
	if r.ReferrerID == r.RefereeID {
		return fmt.Errorf("a member cannot refer themselves")
	}
	return nil
}

// EventTrigger is a generic loyalty event. EventType is required; other
// attributes are forwarded untouched.
type EventTrigger map[string]interface{}

func (e EventTrigger) EventType() string {
	s, _ := e["eventType"].(string)
	return s
}

func ValidateEventTrigger(e EventTrigger) error {
	if strings.TrimSpace(e.EventType()) == "" {
		return fmt.Errorf("missing eventType")
	}
	return nil
}

// TierThreshold configures monthly tier evaluation. Lower priority wins.
type TierThreshold struct {
	ID                         int64   `json:"id,omitempty"`
	TargetTier                 Tier    `json:"targetTier"`
	MinMonthlyAmount           float64 `json:"minMonthlyAmount"`
	MinMonthlyTransactionCount int     `json:"minMonthlyTransactionCount"`
	Priority                   int     `json:"priority"`
	Description                string  `json:"description,omitempty"`
}

func ValidateTierThreshold(t *TierThreshold) error {
	if err := ValidateTier(t.TargetTier); err != nil {
		return err
	}
	if t.MinMonthlyAmount < 0 || t.MinMonthlyTransactionCount < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	return nil
}

type ExpirationType string

const (
	ExpirationRolling   ExpirationType = "ROLLING"
	ExpirationFixedDate ExpirationType = "FIXED_DATE"
)

type ExpirationConfig struct {
	ID               int64          `json:"id,omitempty"`
	ExpirationMonths int            `json:"expirationMonths"`
	ExpirationType   ExpirationType `json:"expirationType"`
	IsActive         bool           `json:"isActive"`
	Description      string         `json:"description,omitempty"`
}

func ValidateExpirationConfig(c *ExpirationConfig) error {
	switch c.ExpirationType {
	case ExpirationRolling, ExpirationFixedDate:
	default:
		return fmt.Errorf("invalid expiration type: %q", c.ExpirationType)
	}
	if c.ExpirationMonths <= 0 {
		return fmt.Errorf("expirationMonths must be positive")
	}
	return nil
}
