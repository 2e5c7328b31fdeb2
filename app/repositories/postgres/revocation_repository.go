package postgres

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// RevocationRepository implements repositories.RevocationRepository using PostgreSQL.
type RevocationRepository struct {
	pool Pool
}

// NewRevocationRepository creates a new PostgreSQL revocation repository.
func NewRevocationRepository(pool Pool) *RevocationRepository {
	return &RevocationRepository{pool: pool}
}

// Revoke records tokenID as revoked until the given time
func (r *RevocationRepository) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO revoked_sessions (token_id, expires_at) VALUES ($1, $2)
		 ON CONFLICT (token_id) DO NOTHING`,
		tokenID, until)
	if err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").With("token_id", tokenID).Wrap(err)
	}
	return nil
}

// IsRevoked reports whether tokenID has an unexpired revocation
func (r *RevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_sessions WHERE token_id = $1 AND expires_at > now())`,
		tokenID).Scan(&revoked)
	if err != nil {
		return false, oops.Code("SESSION_REVOKE_LOOKUP_FAILED").With("token_id", tokenID).Wrap(err)
	}
	return revoked, nil
}

// PurgeExpired deletes revocations whose tokens have expired anyway.
func (r *RevocationRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM revoked_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").Wrap(err)
	}
	return tag.RowsAffected(), nil
}
