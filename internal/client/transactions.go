package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alexis/lmsadmin/internal/models"
)

// ListTransactions returns the most recent transactions, newest first.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.do(ctx, "transactions.list", http.MethodGet, "/transactions", nil, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction submits a transaction. The answer usually carries status
// PENDING until the rule engine has processed it.
func (c *Client) CreateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	var out models.Transaction
	if err := c.do(ctx, "transactions.create", http.MethodPost, "/transactions", nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MemberTransactions(ctx context.Context, memberID int64) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.do(ctx, "transactions.member", http.MethodGet, idPath("/transactions/member", memberID), nil, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// TransactionSummary aggregates a member's spending over period, which is
// MONTHLY, QUARTERLY, YEARLY or a YYYY-MM month. Empty uses the server default.
func (c *Client) TransactionSummary(ctx context.Context, memberID int64, period string) (*models.TransactionSummary, error) {
	var query url.Values
	if period != "" {
		query = url.Values{"period": {period}}
	}
	var s models.TransactionSummary
	if err := c.do(ctx, "transactions.summary", http.MethodGet, idPath("/transactions/summary", memberID), query, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
