package models

import (
	"fmt"
	"regexp"
	"strings"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

type Transaction struct {
	ID              int64             `json:"id,omitempty"`
	MemberID        int64             `json:"memberId"`
	ReceiverID      *int64            `json:"receiverId,omitempty"`
	Amount          float64           `json:"amount"`
	PaymentMethod   string            `json:"paymentMethod"`
	ProductCategory string            `json:"productCategory"`
	PointsEarned    int               `json:"pointsEarned,omitempty"`
	Status          TransactionStatus `json:"status,omitempty"`
	TransactionDate *LocalTime        `json:"transactionDate,omitempty"`
}

func ValidateTransaction(t *Transaction) error {
	if t.MemberID <= 0 {
		return fmt.Errorf("memberId is required")
	}
	if t.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if strings.TrimSpace(t.PaymentMethod) == "" {
		return fmt.Errorf("paymentMethod is required")
	}
	if t.ReceiverID != nil && *t.ReceiverID == t.MemberID {
		return fmt.Errorf("receiverId must differ from memberId")
	}
	return nil
}

// HasPending reports whether any transaction is still being processed.
func HasPending(txs []Transaction) bool {
	for _, t := range txs {
		if t.Status == StatusPending {
			return true
		}
	}
	return false
}

type TransactionSummary struct {
	MemberID         int64   `json:"memberId"`
	TransactionCount int64   `json:"transactionCount"`
	TotalAmount      float64 `json:"totalAmount"`
}

var monthPeriod = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidatePeriod accepts MONTHLY, QUARTERLY, YEARLY or a YYYY-MM month.
func ValidatePeriod(p string) error {
	switch strings.ToUpper(p) {
	case "", "MONTHLY", "QUARTERLY", "YEARLY":
		return nil
	}
	if monthPeriod.MatchString(p) {
		return nil
	}
	return fmt.Errorf("invalid period: %q (MONTHLY, QUARTERLY, YEARLY or YYYY-MM)", p)
}
