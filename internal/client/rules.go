package client

import (
	"context"
	"net/http"

	"github.com/alexis/lmsadmin/internal/models"
)

func (c *Client) ListRules(ctx context.Context) ([]models.Rule, error) {
	var rules []models.Rule
	if err := c.do(ctx, "rules.list", http.MethodGet, "/rules", nil, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// GetRule finds a rule by id. The API has no single-rule endpoint, so the
// full list is fetched.
func (c *Client) GetRule(ctx context.Context, id int64) (*models.Rule, error) {
	rules, err := c.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].ID == id {
			return &rules[i], nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound, Message: "rule not found"}
}

func (c *Client) CreateRule(ctx context.Context, r models.Rule) (*models.Rule, error) {
	r.ID = 0
	var out models.Rule
	if err := c.do(ctx, "rules.create", http.MethodPost, "/rules", nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRule(ctx context.Context, id int64, r models.Rule) (*models.Rule, error) {
	r.ID = 0
	var out models.Rule
	if err := c.do(ctx, "rules.update", http.MethodPut, idPath("/rules", id), nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRule(ctx context.Context, id int64) error {
	return c.do(ctx, "rules.delete", http.MethodDelete, idPath("/rules", id), nil, nil, nil)
}

// ReloadRules asks the rule engine to rebuild its knowledge base.
func (c *Client) ReloadRules(ctx context.Context) (string, error) {
	var msg string
	err := c.do(ctx, "rules.reload", http.MethodPost, "/rules/reload", nil, nil, &msg)
	return msg, err
}

// EvaluateRules runs a transaction fact through the active rules without
// recording anything and returns the fact with points applied.
func (c *Client) EvaluateRules(ctx context.Context, req models.RuleEvaluationRequest) (*models.TransactionFact, error) {
	var out models.TransactionFact
	if err := c.do(ctx, "rules.evaluate", http.MethodPost, "/rules/evaluate", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
