package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alexis/lmsadmin/internal/client"
	"github.com/alexis/lmsadmin/internal/drafts"
	"github.com/alexis/lmsadmin/internal/members"
	"github.com/alexis/lmsadmin/internal/metrics"
	"github.com/alexis/lmsadmin/internal/sse"
	"github.com/alexis/lmsadmin/internal/store"
	"github.com/alexis/lmsadmin/internal/watch"
)

// Deps are the collaborators of the dashboard server. Metrics and Logger
// may be nil.
type Deps struct {
	Client      *client.Client
	Store       store.Store
	Broadcaster *sse.Broadcaster
	Drafts      *drafts.Registry
	Members     *members.Directory
	Watcher     *watch.Watcher
	Metrics     *metrics.Collector
	Logger      *slog.Logger

	AdminToken string
	CORS       bool
}

// Server holds dependencies for all HTTP handlers.
type Server struct {
	api         *client.Client
	store       store.Store
	broadcaster *sse.Broadcaster
	drafts      *drafts.Registry
	members     *members.Directory
	watcher     *watch.Watcher
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// NewRouter creates a Chi router with all routes wired. It also connects
// the directory, watcher and draft registry to the event stream.
func NewRouter(d Deps) *chi.Mux {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	srv := &Server{
		api:         d.Client,
		store:       d.Store,
		broadcaster: d.Broadcaster,
		drafts:      d.Drafts,
		members:     d.Members,
		watcher:     d.Watcher,
		metrics:     d.Metrics,
		logger:      d.Logger,
	}
	srv.connect()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(Metrics(d.Metrics))
	if d.CORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", srv.Health)
	r.Handle("/metrics", d.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireAdminToken(d.AdminToken))

		// Rules
		r.Get("/rules", srv.ListRules)
		r.Post("/rules", srv.CreateRule)
		r.Put("/rules/{id}", srv.UpdateRule)
		r.Delete("/rules/{id}", srv.DeleteRule)
		r.Post("/rules/reload", srv.ReloadRules)
		r.Post("/rules/evaluate", srv.EvaluateRules)

		// Rule drafts
		r.Post("/drafts", srv.OpenDraft)
		r.Route("/drafts/{draftID}", func(r chi.Router) {
			r.Get("/", srv.GetDraft)
			r.Delete("/", srv.DiscardDraft)
			r.Patch("/fields", srv.SetDraftFields)
			r.Post("/ranges", srv.AddDraftRange)
			r.Put("/ranges/{index}", srv.UpdateDraftRange)
			r.Delete("/ranges/{index}", srv.RemoveDraftRange)
			r.Put("/award-points", srv.SetDraftAwardPoints)
			r.Post("/products/select-all", srv.SelectAllDraftProducts)
			r.Post("/products/{code}/toggle", srv.ToggleDraftProduct)
			r.Get("/payload", srv.DraftPayload)
			r.Get("/diff", srv.DraftDiff)
			r.Post("/submit", srv.SubmitDraft)
		})

		// Products
		r.Get("/products", srv.ListProducts)
		r.Post("/products", srv.CreateProduct)
		r.Put("/products/{id}", srv.UpdateProduct)
		r.Delete("/products/{id}", srv.DeleteProduct)

		// Members
		r.Get("/members", srv.ListMembers)
		r.Post("/members", srv.CreateMember)
		r.Get("/members/lite", srv.ListMembersLite)
		r.Get("/members/stats", srv.MemberStats)
		r.Get("/members/{id}", srv.GetMember)
		r.Put("/members/{id}", srv.UpdateMember)
		r.Delete("/members/{id}", srv.DeleteMember)
		r.Get("/members/{id}/points", srv.MemberPoints)
		r.Post("/members/{id}/reset", srv.ResetMember)

		// Transactions
		r.Get("/transactions", srv.ListTransactions)
		r.Post("/transactions", srv.CreateTransaction)
		r.Get("/transactions/pending", srv.PendingTransactions)
		r.Get("/transactions/member/{id}", srv.MemberTransactions)
		r.Get("/transactions/summary/{id}", srv.TransactionSummary)

		// Events
		r.Post("/events/onboard", srv.Onboard)
		r.Post("/events/referral", srv.Referral)
		r.Post("/events/trigger", srv.TriggerEvent)

		// Settings
		r.Get("/config/tiers", srv.TierThresholds)
		r.Post("/config/tiers", srv.SaveTierThreshold)
		r.Get("/config/expiration", srv.ExpirationConfig)
		r.Post("/config/expiration", srv.SaveExpirationConfig)
		r.Post("/config/admin/run-tier-evaluation", srv.RunTierEvaluation)
		r.Post("/config/admin/expire-points", srv.ExpirePoints)

		// Dashboard
		r.Get("/overview", srv.Overview)
		r.Get("/activity", srv.ListActivity)

		// SSE Stream
		r.Get("/stream", srv.Stream)
	})

	return r
}

// connect forwards component notifications to the stream and metrics.
func (s *Server) connect() {
	s.broadcaster.OnClientsChanged(s.metrics.SetSSEClients)
	if s.drafts != nil {
		s.drafts.OnChange(s.metrics.SetDrafts)
	}
	if s.members != nil {
		s.members.OnRefresh(func(n int) {
			s.metrics.SetMembers(n)
			s.broadcaster.Emit(sse.EventMembersRefreshed, map[string]int{"count": n})
		})
	}
	if s.watcher != nil {
		s.watcher.SetMetrics(s.metrics)
		s.watcher.OnUpdate(func(u watch.Update) {
			s.broadcaster.Emit(sse.EventTransactionUpdated, u)
		})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness. The loyalty API is not called.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if s.members != nil {
		status["membersLoaded"] = s.members.Loaded()
		if at := s.members.RefreshedAt(); !at.IsZero() {
			status["membersRefreshedAt"] = at.UTC().Format(time.RFC3339)
		}
	}
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	respondJSON(w, http.StatusOK, status)
}
