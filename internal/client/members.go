package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alexis/lmsadmin/internal/models"
)

// ListMembers fetches one page of members. Page numbers start at 0.
func (c *Client) ListMembers(ctx context.Context, q models.MemberQuery) (*models.PagedResponse[models.MemberLite], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Tier != "" {
		query.Set("tier", string(q.Tier))
	}

	var page models.PagedResponse[models.MemberLite]
	if err := c.do(ctx, "members.list", http.MethodGet, "/members", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListMembersLite returns up to limit members in the trimmed form used for
// pick-lists. A limit of 0 leaves the server default.
func (c *Client) ListMembersLite(ctx context.Context, limit int) ([]models.MemberLite, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var members []models.MemberLite
	if err := c.do(ctx, "members.lite", http.MethodGet, "/members/lite", query, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) MemberStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, "members.stats", http.MethodGet, "/members/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	var m models.Member
	if err := c.do(ctx, "members.get", http.MethodGet, idPath("/members", id), nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CreateMember(ctx context.Context, m models.Member) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, "members.create", http.MethodPost, "/members", nil, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMember(ctx context.Context, id int64, m models.Member) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, "members.update", http.MethodPut, idPath("/members", id), nil, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MemberPoints(ctx context.Context, id int64) (int, error) {
	var points int
	if err := c.do(ctx, "members.points", http.MethodGet, idPath("/members", id, "points"), nil, nil, &points); err != nil {
		return 0, err
	}
	return points, nil
}

func (c *Client) DeleteMember(ctx context.Context, id int64) error {
	return c.do(ctx, "members.delete", http.MethodDelete, idPath("/members", id), nil, nil, nil)
}

// ResetMember restores a member's balance to the onboarding amount and clears
// their history.
func (c *Client) ResetMember(ctx context.Context, id int64) error {
	return c.do(ctx, "members.reset", http.MethodPost, idPath("/members", id, "reset"), nil, nil, nil)
}
