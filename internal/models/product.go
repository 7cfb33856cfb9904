package models

import (
	"fmt"
	"strings"
)

type Product struct {
	ID          int64      `json:"id,omitempty"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   *LocalTime `json:"createdAt,omitempty"`
}

func ValidateProduct(p *Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("product code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	return nil
}

// ProductCodes returns the codes in catalog order.
func ProductCodes(products []Product) []string {
	codes := make([]string, 0, len(products))
	for _, p := range products {
		codes = append(codes, p.Code)
	}
	return codes
}
