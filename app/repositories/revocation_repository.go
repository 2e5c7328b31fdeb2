package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/oops"
)

// BadgerRevocationRepository implements RevocationRepository using BadgerDB.
// Entries expire through badger's TTL once the token would have expired anyway.
type BadgerRevocationRepository struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerRevocationRepository creates a new BadgerRevocationRepository
func NewBadgerRevocationRepository(db *badger.DB) *BadgerRevocationRepository {
	return &BadgerRevocationRepository{db: db, now: time.Now}
}

// Revoke records tokenID as revoked until the given time
func (r *BadgerRevocationRepository) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(RevokedKeyPrefix+tokenID), nil).WithTTL(ttl))
	})
	if err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").With("token_id", tokenID).Wrap(err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked
func (r *BadgerRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(RevokedKeyPrefix + tokenID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("SESSION_REVOKE_LOOKUP_FAILED").With("token_id", tokenID).Wrap(err)
	}
	return true, nil
}
