package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldp-wms/tenant-core/internal/config"
	"github.com/ldp-wms/tenant-core/internal/httpmw"
	"github.com/ldp-wms/tenant-core/internal/interceptor"
	"github.com/ldp-wms/tenant-core/internal/persistence"
	"github.com/ldp-wms/tenant-core/internal/schema"
	"github.com/ldp-wms/tenant-core/internal/stockservice"
	"github.com/ldp-wms/tenant-core/pkg/logger"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("stockservice_startup", "env", env)

	cfg := config.MustLoad[config.StockServiceConfig]()

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

	provisioner := schema.NewProvisioner(pool, "file://migrations/tenant")
	adapter := persistence.NewAdapter(pool, provisioner)
	handler := stockservice.NewHandler(adapter)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httpmw.Recovery)
	router.Use(httpmw.RequestLogger)
	router.Use(interceptor.TenantContext)

	router.Get("/api/stock-levels", handler.ListStockLevels)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("stockservice_listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		log.Error("stockservice_startup_failed", "error", err)
		os.Exit(1)
	case <-runCtx.Done():
		log.Info("shutdown_signal_received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			_ = srv.Close()
		}
		log.Info("stockservice_shutdown_complete")
	}
}
