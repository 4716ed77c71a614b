package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ldp-wms/tenant-core/internal/config"
	"github.com/ldp-wms/tenant-core/internal/eventbus"
	"github.com/ldp-wms/tenant-core/internal/listener"
	"github.com/ldp-wms/tenant-core/internal/schema"
	"github.com/ldp-wms/tenant-core/pkg/logger"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("listener_startup", "env", env)

	cfg := config.MustLoad[config.ListenerConfig]()

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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	bus := eventbus.NewBus(redisClient, cfg.EventStreamName)
	provisioner := schema.NewProvisioner(pool, cfg.TenantMigrations)
	l := listener.NewListener(bus, pool, provisioner, cfg.ConsumerGroup, cfg.ConsumerName)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("listener_running", "group", cfg.ConsumerGroup, "consumer", cfg.ConsumerName)
	if err := l.Run(runCtx); err != nil && err != context.Canceled {
		log.Error("listener_run_failed", "error", err)
		os.Exit(1)
	}
	log.Info("listener_shutdown_complete")
}
