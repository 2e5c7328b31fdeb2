package repositories

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Store bundles the repositories of one backend.
type Store struct {
	Users       UserRepository
	Posts       PostRepository
	Comments    CommentRepository
	Revocations RevocationRepository

	closeFn func() error
}

// NewStore assembles a Store from repositories. closeFn may be nil.
func NewStore(users UserRepository, posts PostRepository, comments CommentRepository, revocations RevocationRepository, closeFn func() error) *Store {
	return &Store{
		Users:       users,
		Posts:       posts,
		Comments:    comments,
		Revocations: revocations,
		closeFn:     closeFn,
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// NewBadgerStore creates a Store whose repositories share db. Closing the
// store closes db.
func NewBadgerStore(db *badger.DB) *Store {
	return NewStore(
		NewBadgerUserRepository(db),
		NewBadgerPostRepository(db),
		NewBadgerCommentRepository(db),
		NewBadgerRevocationRepository(db),
		db.Close,
	)
}

// OpenBadger opens the badger database at path, or an in-memory one when
// path is empty. logger may be nil to silence badger.
func OpenBadger(path string, logger badger.Logger) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.
		WithLogger(logger).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return db, nil
}
