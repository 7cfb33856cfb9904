package client

import (
	"context"
	"net/http"

	"github.com/alexis/lmsadmin/internal/models"
)

func (c *Client) TierThresholds(ctx context.Context) ([]models.TierThreshold, error) {
	var out []models.TierThreshold
	if err := c.do(ctx, "config.tiers", http.MethodGet, "/config/tiers", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveTierThreshold creates a threshold, or updates it when t.ID is set.
func (c *Client) SaveTierThreshold(ctx context.Context, t models.TierThreshold) (*models.TierThreshold, error) {
	var out models.TierThreshold
	if err := c.do(ctx, "config.tiers.save", http.MethodPost, "/config/tiers", nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExpirationConfig returns the active expiration policy. It fails with a
// 404 APIError when none is configured.
func (c *Client) ExpirationConfig(ctx context.Context) (*models.ExpirationConfig, error) {
	var out models.ExpirationConfig
	if err := c.do(ctx, "config.expiration", http.MethodGet, "/config/expiration", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveExpirationConfig(ctx context.Context, cfg models.ExpirationConfig) (*models.ExpirationConfig, error) {
	var out models.ExpirationConfig
	if err := c.do(ctx, "config.expiration.save", http.MethodPost, "/config/expiration", nil, cfg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RunTierEvaluation(ctx context.Context) (string, error) {
	var msg string
	err := c.do(ctx, "config.admin.tiers", http.MethodPost, "/config/admin/run-tier-evaluation", nil, nil, &msg)
	return msg, err
}

func (c *Client) ExpirePoints(ctx context.Context) (string, error) {
	var msg string
	err := c.do(ctx, "config.admin.expire", http.MethodPost, "/config/admin/expire-points", nil, nil, &msg)
	return msg, err
}
