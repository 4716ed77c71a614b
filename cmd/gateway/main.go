package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/ldp-wms/tenant-core/internal/config"
	"github.com/ldp-wms/tenant-core/internal/gateway"
	"github.com/ldp-wms/tenant-core/internal/jwtverify"
	"github.com/ldp-wms/tenant-core/internal/ratelimit"
	"github.com/ldp-wms/tenant-core/internal/tenantauthority"
	"github.com/ldp-wms/tenant-core/pkg/logger"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("gateway_startup", "env", env)

	cfg := config.MustLoad[config.GatewayConfig]()

	if err := config.ValidateAllowedOrigins(cfg.AllowedOrigins); err != nil {
		log.Error("invalid_allowed_origins", "error", err)
		os.Exit(1)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: env}); err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	verifier := jwtverify.NewVerifier(cfg.TokenIssuer, cfg.JWKSURL, nil)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := verifier.WarmCache(startupCtx); err != nil {
		log.Warn("jwks_warm_cache_failed", "error", err)
	}
	cancelStartup()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go verifier.Start(runCtx)

	authority := tenantauthority.NewClient(cfg.OrchestratorURL)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	tenantLimiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient), ratelimit.Config{
		Capacity:       cfg.TenantRateLimit,
		RefillRate:     cfg.TenantRateLimit,
		RefillInterval: time.Minute,
	})

	authBFFURL, err := url.Parse(cfg.AuthBFFURL)
	if err != nil {
		log.Error("invalid_authbff_url", "error", err)
		os.Exit(1)
	}
	stockServiceURL, err := url.Parse(cfg.StockServiceURL)
	if err != nil {
		log.Error("invalid_stockservice_url", "error", err)
		os.Exit(1)
	}

	router := gateway.New(gateway.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		Verifier:       verifier,
		Authority:      authority,
		TenantLimiter:  tenantLimiter,
		PublicRPS:      rate.Limit(cfg.PublicRPS),
		PublicBurst:    cfg.PublicBurst,
		PublicPrefixes: []string{"/auth/login", "/auth/mfa", "/auth/refresh", "/health"},
		Routes: []gateway.Route{
			{Prefix: "/auth", Upstream: authBFFURL},
			{Prefix: "/api/stock-levels", Upstream: stockServiceURL},
		},
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("gateway_listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		log.Error("gateway_startup_failed", "error", err)
		os.Exit(1)
	case <-runCtx.Done():
		log.Info("shutdown_signal_received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			_ = srv.Close()
		}
		log.Info("gateway_shutdown_complete")
	}
}
