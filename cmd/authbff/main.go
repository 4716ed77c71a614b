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

	"github.com/ldp-wms/tenant-core/internal/audit"
	"github.com/ldp-wms/tenant-core/internal/authbff"
	"github.com/ldp-wms/tenant-core/internal/config"
	"github.com/ldp-wms/tenant-core/internal/httpmw"
	"github.com/ldp-wms/tenant-core/pkg/logger"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("authbff_startup", "env", env)

	cfg := config.MustLoad[config.AuthBFFConfig]()

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

	issuer, err := authbff.NewIssuer(cfg.PrivateKeyPEM, cfg.PrivateKeyKID, cfg.TokenIssuerURL)
	if err != nil {
		log.Error("issuer_init_failed", "error", err)
		os.Exit(1)
	}

	mfa := authbff.NewMFA(cfg.MFAIssuer)
	identity := authbff.NewBcryptIdentityProvider(pool, mfa)
	refreshStore := authbff.NewPgxRefreshStore(pool)
	auditLogger := audit.NewJSONAuditLogger()

	svc := authbff.NewService(identity, issuer, refreshStore, auditLogger)
	handlers := authbff.NewHandlers(svc, cfg.AllowBodyRefreshFallback)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httpmw.Recovery)
	router.Use(httpmw.RequestLogger)
	router.Use(authbff.CSRF)

	router.Get("/.well-known/jwks.json", authbff.JWKSHandler(issuer))
	router.Post("/auth/login", handlers.Login)
	router.Post("/auth/mfa", handlers.CompleteMFA)
	router.Post("/auth/refresh", handlers.Refresh)
	router.Post("/auth/logout", handlers.Logout)
	router.Get("/auth/me", handlers.Me)

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
		log.Info("authbff_listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		log.Error("authbff_startup_failed", "error", err)
		os.Exit(1)
	case <-runCtx.Done():
		log.Info("shutdown_signal_received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			_ = srv.Close()
		}
		log.Info("authbff_shutdown_complete")
	}
}
