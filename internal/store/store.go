package store

import (
	"context"

	"github.com/alexis/lmsadmin/internal/models"
)

// Store persists the dashboard's activity log. Rule, member and product
// state lives in the loyalty API and is never stored here.
type Store interface {
	RecordActivity(ctx context.Context, a *models.Activity) error
	ListActivity(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error)

	Close() error
}
