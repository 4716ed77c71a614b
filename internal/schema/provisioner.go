package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrSchemaProvisioningFailed wraps any failure on the provisioning
// path; EnsureReady itself does not retry.
var ErrSchemaProvisioningFailed = errors.New("schema provisioning failed")

// ErrMigrationFailed wraps a migration run failure distinct from the
// create-schema step, so callers can tell the two apart in logs.
var ErrMigrationFailed = errors.New("migration failed")

// Provisioner ensures a tenant schema exists and is migrated to the latest
// version, idempotently and safely under concurrent callers.
type Provisioner struct {
	pool            *pgxpool.Pool
	migrationSource string // e.g. "file://migrations/tenant"
}

// NewProvisioner builds a Provisioner backed by pool. migrationSource
// points at the ordered migration set applied to every tenant schema.
func NewProvisioner(pool *pgxpool.Pool, migrationSource string) *Provisioner {
	return &Provisioner{pool: pool, migrationSource: migrationSource}
}

// EnsureReady is the idempotent entry point called by (i) the
// schema-provisioning event listener for the schema-created event
// published at tenant creation and (ii) write
// paths as an on-demand safety net for lost or delayed events.
//
// Concurrent callers for the same schema serialize on a Postgres advisory
// lock keyed by the schema name, so only one migrator ever runs per
// (schema, migration-version) pair.
func (p *Provisioner) EnsureReady(ctx context.Context, name Name) error {
	if !name.Valid() {
		return fmt.Errorf("%w: invalid schema name %q", ErrSchemaProvisioningFailed, name)
	}

	lockKey := advisoryLockKey(name)

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire connection: %v", ErrSchemaProvisioningFailed, err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", lockKey); err != nil {
		return fmt.Errorf("%w: advisory lock: %v", ErrSchemaProvisioningFailed, err)
	}
	defer conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", lockKey)

	exists, err := schemaExists(ctx, conn.Conn(), name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaProvisioningFailed, err)
	}

	if !exists {
		// Identifier is sanitized by Resolve and re-validated by name.Valid()
		// above; still safe to interpolate only because it can never carry
		// anything outside [a-z0-9_].
		if _, err := conn.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, name)); err != nil {
			return fmt.Errorf("%w: create schema: %v", ErrSchemaProvisioningFailed, err)
		}
		slog.InfoContext(ctx, "schema_created", "schema", name.String())
	}

	if err := p.migrate(name); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	return nil
}

// migrate runs the full ordered migration set against name, baseline-on-
// migrate: a fresh schema has no version history, so migrate.Up() applies
// every migration from the start; an existing schema applies only what's
// missing. Either way the call is idempotent — migrate.ErrNoChange is a
// success, not an error.
func (p *Provisioner) migrate(name Name) error {
	connConfig := p.pool.Config().ConnConfig
	db := stdlib.OpenDB(*connConfig)
	defer db.Close()

	driver, err := withSchema(db, name)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(p.migrationSource, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func withSchema(db *sql.DB, name Name) (*postgres.Postgres, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		SchemaName:      name.String(),
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres driver: %w", err)
	}
	return driver, nil
}

func schemaExists(ctx context.Context, conn *pgx.Conn, name Name) (bool, error) {
	var exists bool
	row := conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		name.String())
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("query catalog: %w", err)
	}
	return exists, nil
}

// advisoryLockKey hashes the schema name into the int64 space
// pg_advisory_lock expects.
func advisoryLockKey(name Name) int64 {
	h := fnv.New64a()
	h.Write([]byte(name.String()))
	return int64(h.Sum64())
}
