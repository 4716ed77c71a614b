// Package config loads typed, per-service configuration from the
// environment, adapted from saaskit's pkg/config loader: caarlos0/env
// struct tags instead of the teacher's hand-rolled os.Getenv/strconv
// parsing.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load parses environment variables (optionally preceded by a local
// .env file, ignored if absent — this is dev convenience, not
// production config) into a new T using its `env` struct tags.
func Load[T any]() (T, error) {
	var cfg T
	_ = godotenv.Load()

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %T: %w", cfg, err)
	}
	return cfg, nil
}

// MustLoad is Load but panics on failure, for use at process startup
// where a bad config means the process should never come up.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(err)
	}
	return cfg
}

// GatewayConfig configures the edge gateway.
type GatewayConfig struct {
	ListenAddr       string   `env:"GATEWAY_LISTEN_ADDR" envDefault:":8080"`
	AllowedOrigins   []string `env:"GATEWAY_ALLOWED_ORIGINS" envSeparator:","`
	JWKSURL          string   `env:"GATEWAY_JWKS_URL"`
	TokenIssuer      string   `env:"GATEWAY_TOKEN_ISSUER"`
	OrchestratorURL  string   `env:"GATEWAY_ORCHESTRATOR_URL"`
	RedisAddr        string   `env:"GATEWAY_REDIS_ADDR" envDefault:"localhost:6379"`
	StockServiceURL  string   `env:"GATEWAY_STOCKSERVICE_URL" envDefault:"http://localhost:8082"`
	AuthBFFURL       string   `env:"GATEWAY_AUTHBFF_URL" envDefault:"http://localhost:8081"`
	PublicRPS        float64  `env:"GATEWAY_PUBLIC_RPS" envDefault:"1"`
	PublicBurst      int      `env:"GATEWAY_PUBLIC_BURST" envDefault:"5"`
	TenantRateLimit  int      `env:"GATEWAY_TENANT_RATE_LIMIT" envDefault:"100"`
	SentryDSN        string   `env:"SENTRY_DSN"`
}

// AuthBFFConfig configures the authentication BFF.
type AuthBFFConfig struct {
	ListenAddr              string `env:"AUTHBFF_LISTEN_ADDR" envDefault:":8081"`
	DatabaseURL             string `env:"AUTHBFF_DATABASE_URL,required"`
	TokenIssuerURL          string `env:"AUTHBFF_ISSUER_URL"`
	PrivateKeyPEM           string `env:"AUTHBFF_PRIVATE_KEY_PEM,required"`
	PrivateKeyKID           string `env:"AUTHBFF_PRIVATE_KEY_KID" envDefault:"default"`
	MFAIssuer               string `env:"AUTHBFF_MFA_ISSUER" envDefault:"tenant-core"`
	AllowBodyRefreshFallback bool  `env:"AUTH_ALLOW_BODY_REFRESH_FALLBACK" envDefault:"false"`
	SentryDSN               string `env:"SENTRY_DSN"`
}

// OrchestratorConfig configures the tenant lifecycle orchestrator.
type OrchestratorConfig struct {
	ListenAddr        string `env:"ORCHESTRATOR_LISTEN_ADDR" envDefault:":8083"`
	DatabaseURL       string `env:"ORCHESTRATOR_DATABASE_URL,required"`
	TenantMigrations  string `env:"ORCHESTRATOR_TENANT_MIGRATIONS" envDefault:"file://migrations/tenant"`
	SecretEncryptionKeyHex string `env:"ORCHESTRATOR_SECRET_KEY,required"`
	RedisAddr         string `env:"ORCHESTRATOR_REDIS_ADDR" envDefault:"localhost:6379"`
	EventStreamName   string `env:"ORCHESTRATOR_EVENT_STREAM" envDefault:"tenant.schema.created"`
	SentryDSN         string `env:"SENTRY_DSN"`
}

// ListenerConfig configures the schema-provisioning event listener.
type ListenerConfig struct {
	DatabaseURL      string `env:"LISTENER_DATABASE_URL,required"`
	TenantMigrations string `env:"LISTENER_TENANT_MIGRATIONS" envDefault:"file://migrations/tenant"`
	RedisAddr        string `env:"LISTENER_REDIS_ADDR" envDefault:"localhost:6379"`
	EventStreamName  string `env:"LISTENER_EVENT_STREAM" envDefault:"tenant.schema.created"`
	ConsumerGroup    string `env:"LISTENER_CONSUMER_GROUP" envDefault:"schema-provisioner"`
	ConsumerName     string `env:"LISTENER_CONSUMER_NAME" envDefault:"listener-1"`
	SentryDSN        string `env:"SENTRY_DSN"`
}

// ValidateAllowedOrigins rejects wildcard and non-HTTPS origins,
// adapted from the teacher's ValidateCORSOrigins. The gateway calls
// this once at startup against GatewayConfig.AllowedOrigins — there is
// no per-tenant CORS config in this system, so this is a boot-time
// sanity check rather than an admin-endpoint validator.
func ValidateAllowedOrigins(origins []string) error {
	for _, origin := range origins {
		if origin == "*" {
			return errors.New("config: wildcard CORS origin not allowed")
		}
		if origin == "" || strings.Contains(origin, " ") {
			return errors.New("config: invalid origin format")
		}
		if !strings.HasPrefix(origin, "https://") && !strings.HasPrefix(origin, "http://localhost") {
			return errors.New("config: only HTTPS origins allowed (except http://localhost for development)")
		}
	}
	return nil
}

// WorkerConfig configures the refresh-token janitor, a periodic
// cleanup pass adapted from the teacher's Janitor Worker (its
// invitation/verification/MFA-code cleanup queries have no home in
// this system; only expired/revoked refresh tokens do, see DESIGN.md).
type WorkerConfig struct {
	DatabaseURL     string        `env:"WORKER_DATABASE_URL,required"`
	Interval        time.Duration `env:"WORKER_INTERVAL" envDefault:"1h"`
	RetentionPeriod time.Duration `env:"WORKER_RETENTION_PERIOD" envDefault:"168h"`
	SentryDSN       string        `env:"SENTRY_DSN"`
}

// StockServiceConfig configures the reference backing service that
// exercises the interceptor and persistence layers end to end.
type StockServiceConfig struct {
	ListenAddr  string `env:"STOCKSERVICE_LISTEN_ADDR" envDefault:":8082"`
	DatabaseURL string `env:"STOCKSERVICE_DATABASE_URL,required"`
	SentryDSN   string `env:"SENTRY_DSN"`
}
