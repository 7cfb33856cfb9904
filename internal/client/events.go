package client

import (
	"context"
	"net/http"

	"github.com/alexis/lmsadmin/internal/models"
)

// Event endpoints answer with a plain text confirmation.

func (c *Client) Onboard(ctx context.Context, memberID int64) (string, error) {
	var msg string
	err := c.do(ctx, "events.onboard", http.MethodPost, "/events/onboard", nil, models.OnboardRequest{MemberID: memberID}, &msg)
	return msg, err
}

func (c *Client) Referral(ctx context.Context, req models.ReferralRequest) (string, error) {
	var msg string
	err := c.do(ctx, "events.referral", http.MethodPost, "/events/referral", nil, req, &msg)
	return msg, err
}

func (c *Client) TriggerEvent(ctx context.Context, e models.EventTrigger) (string, error) {
	var msg string
	err := c.do(ctx, "events.trigger", http.MethodPost, "/events/trigger", nil, e, &msg)
	return msg, err
}
