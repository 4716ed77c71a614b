package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldp-wms/tenant-core/internal/crypto"
	"github.com/ldp-wms/tenant-core/internal/schema"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// ErrTenantNotFound is returned by repository reads when no row
// matches the requested tenant id.
var ErrTenantNotFound = errors.New("orchestrator: tenant not found")

// ErrTenantAlreadyExists is returned by Create on a duplicate id.
var ErrTenantAlreadyExists = errors.New("orchestrator: tenant already exists")

// ErrTenantHasDependents is returned by Delete when other catalog rows
// (users, refresh tokens, tenant events) still reference this tenant.
var ErrTenantHasDependents = errors.New("orchestrator: tenant has dependent rows")

// Repository persists tenant.Record against the catalog schema's
// tenants table, encrypting every config value at rest via
// crypto.SecretBox.
type Repository struct {
	pool *pgxpool.Pool
	box  *crypto.SecretBox
}

func NewRepository(pool *pgxpool.Pool, box *crypto.SecretBox) *Repository {
	return &Repository{pool: pool, box: box}
}

// Create inserts a new tenant in PENDING status — the only status a
// freshly created tenant may ever start in. It returns
// ErrTenantAlreadyExists when id, or another tenant id that resolves to
// the same schema name, is already taken.
func (r *Repository) Create(ctx context.Context, id tenant.ID, name, contactEmail string, config map[string]string) (tenant.Record, error) {
	schemaName := schema.Resolve(id)
	var clash string
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM tenants
		WHERE 'tenant_' || regexp_replace(lower(id), '[^a-z0-9_]', '_', 'g') || '_schema' = $1
		LIMIT 1
	`, schemaName.String()).Scan(&clash)
	if err == nil {
		return tenant.Record{}, fmt.Errorf("%w: schema %s already belongs to tenant %s", ErrTenantAlreadyExists, schemaName, clash)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return tenant.Record{}, fmt.Errorf("orchestrator: check schema name: %w", err)
	}

	sealed, err := r.sealConfig(config)
	if err != nil {
		return tenant.Record{}, err
	}
	configJSON, err := json.Marshal(sealed)
	if err != nil {
		return tenant.Record{}, fmt.Errorf("orchestrator: marshal config: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, contact_email, config, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, id.String(), name, contactEmail, configJSON, string(tenant.StatusPending), now)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.Record{}, ErrTenantAlreadyExists
		}
		return tenant.Record{}, fmt.Errorf("orchestrator: insert tenant: %w", err)
	}

	return tenant.Record{
		ID:           id,
		Name:         name,
		ContactEmail: contactEmail,
		Config:       config,
		Status:       tenant.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Get reads a tenant by id, decrypting any sealed config values.
func (r *Repository) Get(ctx context.Context, id tenant.ID) (tenant.Record, error) {
	var rec tenant.Record
	var configJSON []byte
	var status, realmOverride string

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, contact_email, config, status, realm_override, created_at, updated_at
		FROM tenants WHERE id = $1
	`, id.String())

	var idStr string
	if err := row.Scan(&idStr, &rec.Name, &rec.ContactEmail, &configJSON, &status, &realmOverride, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tenant.Record{}, ErrTenantNotFound
		}
		return tenant.Record{}, fmt.Errorf("orchestrator: get tenant: %w", err)
	}

	var sealed map[string]string
	if err := json.Unmarshal(configJSON, &sealed); err != nil {
		return tenant.Record{}, fmt.Errorf("orchestrator: unmarshal config: %w", err)
	}
	config, err := r.unsealConfig(sealed)
	if err != nil {
		return tenant.Record{}, err
	}

	rec.ID = tenant.ID(idStr)
	rec.Status = tenant.Status(status)
	rec.RealmOverride = realmOverride
	rec.Config = config
	return rec, nil
}

// UpdateStatus atomically moves id from expectedFrom to to, returning
// ErrTenantNotFound if the row doesn't exist or its status no longer
// matches expectedFrom (a concurrent transition already ran).
func (r *Repository) UpdateStatus(ctx context.Context, id tenant.ID, expectedFrom, to tenant.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, string(to), id.String(), string(expectedFrom))
	if err != nil {
		return fmt.Errorf("orchestrator: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// Update overwrites id's name, contact email, and config in place.
// Status is never touched here; it only ever moves through
// UpdateStatus under the lifecycle table's validation.
func (r *Repository) Update(ctx context.Context, id tenant.ID, name, contactEmail string, config map[string]string) (tenant.Record, error) {
	sealed, err := r.sealConfig(config)
	if err != nil {
		return tenant.Record{}, err
	}
	configJSON, err := json.Marshal(sealed)
	if err != nil {
		return tenant.Record{}, fmt.Errorf("orchestrator: marshal config: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants SET name = $1, contact_email = $2, config = $3, updated_at = now()
		WHERE id = $4
	`, name, contactEmail, configJSON, id.String())
	if err != nil {
		return tenant.Record{}, fmt.Errorf("orchestrator: update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.Record{}, ErrTenantNotFound
	}

	return r.Get(ctx, id)
}

// Delete removes id's catalog row outright. Foreign-key-referencing
// rows (users, refresh tokens, tenant events) block the delete rather
// than cascading, so a tenant with live data must be deactivated, not
// erased.
func (r *Repository) Delete(ctx context.Context, id tenant.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrTenantHasDependents
		}
		return fmt.Errorf("orchestrator: delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (r *Repository) sealConfig(config map[string]string) (map[string]string, error) {
	sealed := make(map[string]string, len(config))
	for k, v := range config {
		if crypto.IsEncrypted(v) {
			sealed[k] = v
			continue
		}
		enc, err := r.box.Encrypt(v)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: encrypt config %q: %w", k, err)
		}
		sealed[k] = enc
	}
	return sealed, nil
}

func (r *Repository) unsealConfig(sealed map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(sealed))
	for k, v := range sealed {
		if !crypto.IsEncrypted(v) {
			out[k] = v
			continue
		}
		dec, err := r.box.Decrypt(v)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: decrypt config %q: %w", k, err)
		}
		out[k] = dec
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23503"
	}
	return false
}
