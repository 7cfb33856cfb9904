package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/ruleform"
	"github.com/alexis/lmsadmin/internal/store"
	"github.com/alexis/lmsadmin/migrations"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fakeAPI(t *testing.T, r chi.Router) string {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/api/v1"
}

func TestParseRange(t *testing.T) {
	hundred := 100.0
	tests := []struct {
		in      string
		want    ruleform.Range
		wantErr bool
	}{
		{in: "0:100:10", want: ruleform.Range{Min: 0, Max: &hundred, Points: 10}},
		{in: "101::60:1.5", want: ruleform.Range{Min: 101, Points: 60, Multiplier: 1.5}},
		{in: "501:inf:500", want: ruleform.Range{Min: 501, Points: 500}},
		{in: "1:2", wantErr: true},
		{in: "a:2:3", wantErr: true},
		{in: "1:2:3.5", wantErr: true},
		{in: "1:2:3:4:5", wantErr: true},
		{in: "nan:100:5", wantErr: true},
		{in: "0:NaN:5", wantErr: true},
		{in: "0:100:5:nan", wantErr: true},
		{in: "infinity:100:5", wantErr: true},
		{in: "0:+Inf:5", wantErr: true},
		{in: "inf:100:5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAttrs(t *testing.T) {
	e, err := parseAttrs([]string{"memberId=7", "channel=app"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), e["memberId"])
	assert.Equal(t, "app", e["channel"])

	_, err = parseAttrs([]string{"novalue"})
	assert.Error(t, err)
}

func TestWriteYAML_UsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, models.Product{Code: "SKU1", Name: "Coffee", IsActive: true}))
	assert.Contains(t, buf.String(), "code: SKU1")
	assert.Contains(t, buf.String(), "isActive: true")
}

func TestRuleList_JSON(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/rules", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":1,"ruleName":"Welcome","ruleType":"EVENT","actions":[{"type":"AWARD_POINTS","points":500}]},
			{"id":2,"ruleName":"Spend","ruleType":"TRANSACTION","actions":[]}
		]`)
	})
	url := fakeAPI(t, r)

	out, err := run(t, "rule", "list", "--server", url, "--type", "transaction", "-o", "json")
	require.NoError(t, err)
	var rules []models.Rule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, "Spend", rules[0].RuleName)
}

func TestRuleCreate_SendsTieredRanges(t *testing.T) {
	var sent models.Rule
	r := chi.NewRouter()
	r.Post("/api/v1/rules", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		sent.ID = 12
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sent)
	})
	url := fakeAPI(t, r)
	db := filepath.Join(t.TempDir(), "audit.db")

	out, err := run(t, "rule", "create", "--server", url, "--audit", db, "-o", "table",
		"--type", "TRANSACTION", "--name", "Spend more", "--range", "0:100:10", "--range", "101::60:1.5")
	require.NoError(t, err)
	assert.Contains(t, out, `Rule "Spend more" created (id 12)`)

	assert.Equal(t, models.RuleTypeTransaction, sent.RuleType)
	assert.JSONEq(t, `[{"type":"TIERED_POINTS","ranges":[
		{"min":0,"max":100,"points":10,"multiplier":0},
		{"min":101,"max":0,"points":60,"multiplier":1.5}
	]}]`, string(sent.Actions))

	st, err := store.NewSQLiteStore(db, migrations.FS)
	require.NoError(t, err)
	defer st.Close()
	entries, err := st.ListActivity(context.Background(), models.ActivityQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rule.create", entries[0].Kind)
	assert.Equal(t, "Spend more", entries[0].Subject)
}

func TestRuleCreate_RejectsRangeOnEventRule(t *testing.T) {
	_, err := run(t, "rule", "create", "--server", "http://127.0.0.1:1/api/v1",
		"--type", "EVENT", "--name", "Oops", "--range", "0:1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSACTION")
}

func TestTransactionList_NamesMembers(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":1,"memberId":7,"amount":20,"paymentMethod":"CARD","status":"COMPLETED"},
			{"id":2,"memberId":8,"amount":5,"paymentMethod":"CASH","status":"PENDING"}
		]`)
	})
	r.Get("/api/v1/members/lite", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":7,"name":"Ada Lovelace","email":"ada@example.com","tier":"GOLD"}]`)
	})
	url := fakeAPI(t, r)

	out, err := run(t, "tx", "list", "--server", url, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace (7)")
	assert.Regexp(t, `(?m)^2\s+8\s+`, out)
}
