package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexis/lmsadmin/internal/models"
)

// RecordActivity appends an entry. ID and CreatedAt are filled in when empty.
func (s *SQLiteStore) RecordActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Outcome == "" {
		a.Outcome = models.OutcomeOK
	}

	var detail sql.NullString
	if len(a.Detail) > 0 {
		detail = sql.NullString{String: string(a.Detail), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (id, kind, subject, detail, outcome, error, actor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Kind, a.Subject, detail, a.Outcome, a.Error, a.Actor, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ListActivity returns entries newest first.
func (s *SQLiteStore) ListActivity(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error) {
	q = q.Normalize()

	query := `SELECT id, kind, subject, detail, outcome, error, actor, created_at FROM activity`
	args := []interface{}{}
	if q.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, q.Kind)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var detail sql.NullString
		if err := rows.Scan(&a.ID, &a.Kind, &a.Subject, &detail, &a.Outcome,
			&a.Error, &a.Actor, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if detail.Valid {
			a.Detail = []byte(detail.String)
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
