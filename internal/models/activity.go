package models

import (
	"encoding/json"
	"time"
)

// Activity outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Activity is one admin change sent to the loyalty API through the
// dashboard. Detail holds the request body as sent.
type Activity struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Subject   string          `json:"subject,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Outcome   string          `json:"outcome"`
	Error     string          `json:"error,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ActivityQuery struct {
	Limit int
	Kind  string
}

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

// Normalize clamps the limit into 1..MaxActivityLimit.
func (q ActivityQuery) Normalize() ActivityQuery {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultActivityLimit
	case q.Limit > MaxActivityLimit:
		q.Limit = MaxActivityLimit
	}
	return q
}
