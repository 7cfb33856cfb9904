package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/alexis/lmsadmin/internal/client"
	"github.com/alexis/lmsadmin/internal/drafts"
	"github.com/alexis/lmsadmin/internal/members"
	"github.com/alexis/lmsadmin/internal/metrics"
	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/sse"
	"github.com/alexis/lmsadmin/internal/store"
	"github.com/alexis/lmsadmin/migrations"
)

// loyaltyAPI is an in-memory stand-in for the loyalty service.
type loyaltyAPI struct {
	mu           sync.Mutex
	nextID       int64
	rules        []models.Rule
	products     []models.Product
	members      []models.MemberLite
	transactions []models.Transaction
	liteCalls    int
}

func newLoyaltyAPI() *loyaltyAPI {
	return &loyaltyAPI{nextID: 100}
}

func (f *loyaltyAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *loyaltyAPI) rule(id int64) (models.Rule, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.ID == id {
			return r, true
		}
	}
	return models.Rule{}, false
}

func (f *loyaltyAPI) router() chi.Router {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rules", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, http.StatusOK, f.rules)
		})
		r.Post("/rules", func(w http.ResponseWriter, r *http.Request) {
			var rule models.Rule
			_ = json.NewDecoder(r.Body).Decode(&rule)
			f.mu.Lock()
			rule.ID = f.id()
			f.rules = append(f.rules, rule)
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, rule)
		})
		r.Put("/rules/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			var rule models.Rule
			_ = json.NewDecoder(r.Body).Decode(&rule)
			f.mu.Lock()
			defer f.mu.Unlock()
			for i := range f.rules {
				if f.rules[i].ID == id {
					rule.ID = id
					f.rules[i] = rule
					writeJSON(w, http.StatusOK, rule)
					return
				}
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Rule not found"})
		})
		r.Delete("/rules/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			f.mu.Lock()
			defer f.mu.Unlock()
			for i := range f.rules {
				if f.rules[i].ID == id {
					f.rules = append(f.rules[:i], f.rules[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Rule not found"})
		})
		r.Post("/rules/reload", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "Rules reloaded successfully")
		})

		r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, http.StatusOK, f.products)
		})

		r.Get("/members/lite", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.liteCalls++
			writeJSON(w, http.StatusOK, f.members)
		})
		r.Get("/members/stats", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, http.StatusOK, models.DashboardStats{TotalMembers: int64(len(f.members)), TotalPoints: 1200})
		})
		r.Post("/members", func(w http.ResponseWriter, r *http.Request) {
			var m models.Member
			_ = json.NewDecoder(r.Body).Decode(&m)
			f.mu.Lock()
			m.ID = f.id()
			m.Tier = models.TierBronze
			f.members = append(f.members, models.MemberLite{ID: m.ID, Name: m.Name, Email: m.Email, Tier: m.Tier})
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, m)
		})
		r.Get("/members/{id}/points", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "1250")
		})

		r.Get("/transactions", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, http.StatusOK, f.transactions)
		})
		r.Post("/transactions", func(w http.ResponseWriter, r *http.Request) {
			var t models.Transaction
			_ = json.NewDecoder(r.Body).Decode(&t)
			f.mu.Lock()
			t.ID = f.id()
			t.Status = models.StatusPending
			f.transactions = append(f.transactions, t)
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, t)
		})

		r.Post("/events/onboard", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "Onboarding event processed")
		})
		r.Post("/config/admin/expire-points", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "expiration job failed"})
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	backend     *loyaltyAPI
	server      *httptest.Server
	store       *store.SQLiteStore
	broadcaster *sse.Broadcaster
	drafts      *drafts.Registry
	directory   *members.Directory
	metrics     *metrics.Collector
}

type envOption func(*Deps)

func withAdminToken(token string) envOption {
	return func(d *Deps) { d.AdminToken = token }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	backend := newLoyaltyAPI()
	upstream := httptest.NewServer(backend.router())
	t.Cleanup(upstream.Close)
	return newTestEnvWithUpstream(t, backend, upstream.URL+"/api/v1", opts...)
}

func newTestEnvWithUpstream(t *testing.T, backend *loyaltyAPI, baseURL string, opts ...envOption) *testEnv {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "activity.db"), migrations.FS)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	api := client.New(baseURL, client.WithTimeout(2*time.Second), client.WithMetrics(m))
	env := &testEnv{
		backend:     backend,
		store:       st,
		broadcaster: sse.NewBroadcaster(),
		drafts:      drafts.NewRegistry(time.Hour),
		directory:   members.New(api, 100, nil),
		metrics:     m,
	}
	deps := Deps{
		Client:      api,
		Store:       st,
		Broadcaster: env.broadcaster,
		Drafts:      env.drafts,
		Members:     env.directory,
		Metrics:     m,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.server = httptest.NewServer(NewRouter(deps))
	t.Cleanup(func() {
		env.broadcaster.Close()
		env.server.Close()
	})
	return env
}

// call sends a request and decodes a JSON response into out when out is
// non-nil.
func (e *testEnv) call(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), fmt.Sprintf("%s %s: %s", method, path, raw))
	}
	return resp.StatusCode
}
