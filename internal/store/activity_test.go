package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/migrations"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), migrations.FS)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []*models.Activity{
		{Kind: "rule.create", Subject: "Welcome Bonus", Detail: json.RawMessage(`{"ruleName":"Welcome Bonus"}`), CreatedAt: base},
		{Kind: "member.reset", Subject: "7", CreatedAt: base.Add(time.Minute)},
		{Kind: "rule.delete", Subject: "3", Outcome: models.OutcomeError, Error: "404", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range entries {
		require.NoError(t, s.RecordActivity(ctx, a))
		assert.NotEmpty(t, a.ID)
	}

	got, err := s.ListActivity(ctx, models.ActivityQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "rule.delete", got[0].Kind)
	assert.Equal(t, models.OutcomeError, got[0].Outcome)
	assert.Equal(t, "member.reset", got[1].Kind)
	assert.Equal(t, models.OutcomeOK, got[1].Outcome)
	assert.Nil(t, got[1].Detail)
	assert.JSONEq(t, `{"ruleName":"Welcome Bonus"}`, string(got[2].Detail))
	assert.True(t, base.Equal(got[2].CreatedAt))

	limited, err := s.ListActivity(ctx, models.ActivityQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "rule.delete", limited[0].Kind)

	rules, err := s.ListActivity(ctx, models.ActivityQuery{Kind: "rule.create"})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Welcome Bonus", rules[0].Subject)
}

func TestListActivity_Empty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ListActivity(context.Background(), models.ActivityQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestMigrations_AppliedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(path, migrations.FS)
	require.NoError(t, err)
	require.NoError(t, s.RecordActivity(context.Background(), &models.Activity{Kind: "x"}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, migrations.FS)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ListActivity(context.Background(), models.ActivityQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestMigrations_FailureRollsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"001_ok.sql":  {Data: []byte(`CREATE TABLE a (id INTEGER);`)},
		"002_bad.sql": {Data: []byte(`CREATE TABLE nope (;`)},
	}
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_bad.sql")
}

func TestActivityQuery_Normalize(t *testing.T) {
	assert.Equal(t, models.DefaultActivityLimit, models.ActivityQuery{}.Normalize().Limit)
	assert.Equal(t, models.MaxActivityLimit, models.ActivityQuery{Limit: 10000}.Normalize().Limit)
	assert.Equal(t, 7, models.ActivityQuery{Limit: 7}.Normalize().Limit)
}
