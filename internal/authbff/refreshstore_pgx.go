package authbff

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// PgxRefreshStore implements RefreshStore against the catalog schema's
// refresh_tokens table, adapted from the teacher's sqlc-generated
// GetRefreshToken/RotateRefreshToken/RevokeTokenFamily queries in
// session_service.go. This tree has no sqlc step, so the queries are
// written out directly against pgx.
type PgxRefreshStore struct {
	pool *pgxpool.Pool
}

func NewPgxRefreshStore(pool *pgxpool.Pool) *PgxRefreshStore {
	return &PgxRefreshStore{pool: pool}
}

func (s *PgxRefreshStore) Create(ctx context.Context, userID string, tenantID tenant.ID, rawToken string, ip net.IP, userAgent string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, user_id, tenant_id, family_id, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, HashToken(rawToken), userID, tenantID.String(), uuid.New(), ipOrNil(ip), userAgent, time.Now().Add(RefreshTokenTTL))
	if err != nil {
		return fmt.Errorf("authbff: create refresh token: %w", err)
	}
	return nil
}

func (s *PgxRefreshStore) Get(ctx context.Context, rawToken string) (StoredToken, error) {
	var st StoredToken
	var tenantID string
	var revokedAt *time.Time

	row := s.pool.QueryRow(ctx, `
		SELECT user_id, tenant_id, family_id, is_revoked, revoked_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, HashToken(rawToken))

	err := row.Scan(&st.UserID, &tenantID, &st.FamilyID, &st.IsRevoked, &revokedAt, &st.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoredToken{}, ErrRefreshTokenNotFound
	}
	if err != nil {
		return StoredToken{}, fmt.Errorf("authbff: get refresh token: %w", err)
	}
	st.TenantID = tenant.ID(tenantID)
	if revokedAt != nil {
		st.RevokedAt = *revokedAt
	}
	return st, nil
}

// Rotate revokes oldRawToken and inserts newRawToken as its child in
// the same family, in one transaction — mirrors the teacher's
// RotateRefreshToken query, split into two statements since this tree
// carries no equivalent single sqlc-generated query.
func (s *PgxRefreshStore) Rotate(ctx context.Context, oldRawToken, newRawToken string, ip net.IP, userAgent string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("authbff: rotate: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID, tenantID string
	var familyID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT user_id, tenant_id, family_id FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE
	`, HashToken(oldRawToken)).Scan(&userID, &tenantID, &familyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRefreshTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("authbff: rotate: lookup: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE refresh_tokens SET is_revoked = true, revoked_at = now() WHERE token_hash = $1
	`, HashToken(oldRawToken)); err != nil {
		return fmt.Errorf("authbff: rotate: revoke old: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, user_id, tenant_id, family_id, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, HashToken(newRawToken), userID, tenantID, familyID, ipOrNil(ip), userAgent, time.Now().Add(RefreshTokenTTL)); err != nil {
		return fmt.Errorf("authbff: rotate: insert new: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("authbff: rotate: commit: %w", err)
	}
	return nil
}

// RevokeFamily is the "nuclear option" on reuse detection: every token
// sharing rawToken's family_id is revoked, killing every descendant
// session at once.
func (s *PgxRefreshStore) RevokeFamily(ctx context.Context, rawToken string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens SET is_revoked = true, revoked_at = now()
		WHERE family_id = (SELECT family_id FROM refresh_tokens WHERE token_hash = $1)
	`, HashToken(rawToken))
	if err != nil {
		return fmt.Errorf("authbff: revoke family: %w", err)
	}
	return nil
}

// PurgeExpired deletes refresh tokens that expired, or were revoked,
// more than retention ago, keeping the table from
// growing unbounded. A periodic janitor (cmd/worker) calls this; it is
// never on a request's hot path.
func (s *PgxRefreshStore) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < now() - make_interval(secs => $1)
		   OR (is_revoked AND revoked_at < now() - make_interval(secs => $1))
	`, retention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("authbff: purge expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func ipOrNil(ip net.IP) *string {
	if ip == nil {
		return nil
	}
	s := ip.String()
	return &s
}
