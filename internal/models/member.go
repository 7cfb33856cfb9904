package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Tier is ordered BRONZE < SILVER < GOLD < PLATINUM < DIAMOND. The backend
// computes it from lifetime points.
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
	TierDiamond  Tier = "DIAMOND"
)

var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum, TierDiamond}

func ValidateTier(t Tier) error {
	if t.Rank() < 0 {
		return fmt.Errorf("invalid tier: %q", t)
	}
	return nil
}

// Rank returns the ordinal of the tier, or -1 if unknown.
func (t Tier) Rank() int {
	for i, v := range Tiers {
		if v == t {
			return i
		}
	}
	return -1
}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	return t, ValidateTier(t)
}

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

type Member struct {
	ID             int64      `json:"id,omitempty"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Tier           Tier       `json:"tier,omitempty"`
	Role           Role       `json:"role,omitempty"`
	TotalPoints    int        `json:"totalPoints"`
	LifetimePoints int        `json:"lifetimePoints"`
	ExpiredPoints  int        `json:"expiredPoints,omitempty"`
	CreatedAt      *LocalTime `json:"createdAt,omitempty"`
	UpdatedAt      *LocalTime `json:"updatedAt,omitempty"`
}

// MemberLite is the trimmed record served by /members/lite and the paged list.
type MemberLite struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Tier        Tier   `json:"tier"`
	TotalPoints int    `json:"totalPoints"`
}

func ValidateMember(m *Member) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("invalid email: %q", m.Email)
	}
	if m.Tier != "" {
		if err := ValidateTier(m.Tier); err != nil {
			return err
		}
	}
	switch m.Role {
	case "", RoleCustomer, RoleAdmin:
	default:
		return fmt.Errorf("invalid role: %q", m.Role)
	}
	return nil
}

// PagedResponse mirrors the Spring Data page envelope.
type PagedResponse[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Size          int  `json:"size"`
	Number        int  `json:"number"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

type MemberQuery struct {
	Page   int
	Size   int
	Search string
	Tier   Tier
}

type DashboardStats struct {
	TotalMembers  int64            `json:"totalMembers"`
	TotalPoints   int64            `json:"totalPoints"`
	TierCounts    map[string]int64 `json:"tierCounts"`
	PlatinumCount int64            `json:"platinumCount"`
	DiamondCount  int64            `json:"diamondCount"`
	GoldCount     int64            `json:"goldCount"`
	SilverCount   int64            `json:"silverCount"`
	BronzeCount   int64            `json:"bronzeCount"`
}

// LocalTime decodes the zone-less timestamps the Java services emit
// ("2026-01-02T15:04:05.123456").
type LocalTime struct {
	time.Time
}

const localTimeLayout = "2006-01-02T15:04:05.999999999"

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(localTimeLayout, s)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(localTimeLayout) + `"`), nil
}
