package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldp-wms/tenant-core/internal/authbff"
	"github.com/ldp-wms/tenant-core/internal/config"
	"github.com/ldp-wms/tenant-core/pkg/logger"
)

// The janitor worker: a periodic pass purging expired and long-revoked
// refresh tokens from the catalog schema, adapted from the teacher's
// hourly cleanup ticker. The teacher also purged invitations,
// verification tokens, and MFA backup codes — none of those tables
// exist in this system (see DESIGN.md), so only the refresh-token
// pass survives.
func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("worker_startup", "env", env)

	cfg := config.MustLoad[config.WorkerConfig]()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: env}); err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_pool_create_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Error("database_ping_failed", "error", err)
		os.Exit(1)
	}

	store := authbff.NewPgxRefreshStore(pool)

	runJanitor := func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		deleted, err := store.PurgeExpired(runCtx, cfg.RetentionPeriod)
		if err != nil {
			log.Error("janitor_purge_failed", "error", err)
			return
		}
		if deleted > 0 {
			log.Info("janitor_purged_refresh_tokens", "deleted", deleted)
		}
	}

	log.Info("janitor_started", "interval", cfg.Interval.String())
	runJanitor()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ticker.C:
			runJanitor()
		case <-runCtx.Done():
			log.Info("janitor_shutdown_complete")
			return
		}
	}
}
