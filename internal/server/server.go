// Package server assembles the dashboard server from its configuration and
// runs it until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/alexis/lmsadmin/internal/api"
	"github.com/alexis/lmsadmin/internal/client"
	"github.com/alexis/lmsadmin/internal/config"
	"github.com/alexis/lmsadmin/internal/drafts"
	"github.com/alexis/lmsadmin/internal/members"
	"github.com/alexis/lmsadmin/internal/metrics"
	"github.com/alexis/lmsadmin/internal/sse"
	"github.com/alexis/lmsadmin/internal/store"
	"github.com/alexis/lmsadmin/internal/watch"
	"github.com/alexis/lmsadmin/migrations"
)

const shutdownTimeout = 5 * time.Second

// Run serves the dashboard on cfg.Port. The member directory and the
// pending-transaction watcher run alongside the HTTP server and stop with it.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, version string) error {
	logger.Info("starting lmsadmin", "version", version, "port", cfg.Port, "api", cfg.APIURL, "db", cfg.DBPath)

	db, err := store.NewSQLiteStore(cfg.DBPath, migrations.FS)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	m := metrics.New()
	lms := client.New(cfg.APIURL,
		client.WithToken(cfg.APIToken),
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithMetrics(m),
		client.WithLogger(logger),
		client.WithTracer(otel.Tracer("github.com/alexis/lmsadmin")),
	)

	broadcaster := sse.NewBroadcaster()

	registry := drafts.NewRegistry(cfg.DraftTTL)
	directory := members.New(lms, cfg.MembersLimit, logger.With("component", "members"))
	defer directory.Close()
	watcher := watch.New(lms, cfg.PollInterval, cfg.PollMaxInterval, logger.With("component", "watch"))

	if cfg.AdminToken == "" {
		logger.Warn("LMS_ADMIN_TOKEN not set, auth disabled (dev mode)")
	}

	router := api.NewRouter(api.Deps{
		Client:      lms,
		Store:       db,
		Broadcaster: broadcaster,
		Drafts:      registry,
		Members:     directory,
		Watcher:     watcher,
		Metrics:     m,
		Logger:      logger,
		AdminToken:  cfg.AdminToken,
		CORS:        cfg.CORS,
	})

	srv := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
		// No WriteTimeout: SSE streams are long-lived connections
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// The dashboard stays up without the directory; /members/lite retries.
		if err := directory.Init(ctx); err != nil {
			logger.Warn("initial member load failed", "error", err)
		}
		directory.Run(ctx, cfg.MembersRefresh)
		return nil
	})
	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		broadcaster.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
