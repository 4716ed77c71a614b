// Package persistence implements the tenant-aware data access adapter:
// every query a backing service issues against a tenant's schema goes
// through Adapter.WithTenant, which sets
// search_path to that tenant's schema for the lifetime of one
// connection and defends in depth with an explicit tenant_id filter,
// so a bug in a caller's SQL can never silently read another tenant's
// rows even if the search_path switch were somehow bypassed.
//
// Grounded on the schema-per-tenant middleware pattern in the
// Nirmitee-tech-headless-ehr-fhir reference (SET search_path per
// connection, acquired from the pool and released after use) rather
// than the teacher's row-level-security WithTenantContext helper,
// since this system isolates tenants by schema, not by RLS policy.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldp-wms/tenant-core/internal/schema"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// ErrTenantMismatch is returned when the tenant a caller passes
// explicitly does not match the tenant bound in ctx — the persistence
// layer's second independent check beyond the interceptor's binding.
var ErrTenantMismatch = errors.New("persistence: tenant argument does not match bound tenant context")

// ErrNoTenantBound is returned when ctx carries no tenant.Context at
// all; every call into this package is expected to run downstream of
// component G's interceptor.
var ErrNoTenantBound = errors.New("persistence: no tenant bound in context")

// Adapter resolves a tenant to its schema and runs a query against a
// connection scoped to exactly that schema.
type Adapter struct {
	pool        *pgxpool.Pool
	provisioner *schema.Provisioner
}

func NewAdapter(pool *pgxpool.Pool, provisioner *schema.Provisioner) *Adapter {
	return &Adapter{pool: pool, provisioner: provisioner}
}

// WithTenant acquires a connection, points its search_path at
// tenantID's schema (provisioning it on demand if the schema-created
// event was lost or delayed), and runs fn. The connection's
// search_path is reset before release so a pooled connection never
// leaks one tenant's scope into the next caller that acquires it.
//
// tenantID must match the tenant bound in ctx by component G; passing
// a mismatched tenantID is a programming error, not a tenant boundary
// to be silently corrected, so it returns ErrTenantMismatch rather
// than just using whichever one "wins".
func (a *Adapter) WithTenant(ctx context.Context, tenantID tenant.ID, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return ErrNoTenantBound
	}
	if tc.TenantID != tenantID {
		return ErrTenantMismatch
	}

	schemaName := schema.Resolve(tenantID)
	if !schemaName.Valid() {
		return fmt.Errorf("persistence: resolved schema name %q is invalid", schemaName)
	}

	if a.provisioner != nil {
		if err := a.provisioner.EnsureReady(ctx, schemaName); err != nil {
			return fmt.Errorf("persistence: ensure schema ready: %w", err)
		}
	}

	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("persistence: acquire connection: %w", err)
	}
	defer conn.Release()

	ident := pgx.Identifier{schemaName.String()}.Sanitize()
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, public", ident)); err != nil {
		return fmt.Errorf("persistence: set search_path: %w", err)
	}
	defer conn.Exec(context.Background(), "SET search_path TO public")

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("persistence: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("persistence: commit tx: %w", err)
	}
	return nil
}

// TenantFilter is the defense-in-depth predicate every query against
// a tenant schema appends, so that even a query written against the
// wrong schema by mistake cannot return another tenant's rows — tables
// provisioned by the tenant migration set (migrations/tenant) all
// carry a tenant_id column for exactly this reason.
const TenantFilter = "tenant_id = $1"
