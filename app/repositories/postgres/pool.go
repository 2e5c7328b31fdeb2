// Package postgres implements the repositories on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"

	"newsroom/app/repositories"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// Constraint names from the initial migration.
const (
	usersEmailKey       = "users_email_key"
	newsPostsTitleKey   = "news_posts_title_key"
	newsPostsContentKey = "news_posts_content_key"
)

// Pool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Connect opens a pool and checks that the server answers.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return pool, nil
}

// NewStore builds a repositories.Store on pool. Closing the store closes the pool.
func NewStore(pool *pgxpool.Pool) *repositories.Store {
	return repositories.NewStore(
		NewUserRepository(pool),
		NewPostRepository(pool),
		NewCommentRepository(pool),
		NewRevocationRepository(pool),
		func() error {
			pool.Close()
			return nil
		},
	)
}

// classify maps driver errors onto the repository sentinels.
func classify(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case usersEmailKey:
			return repositories.ErrDuplicateEmail
		case newsPostsTitleKey:
			return repositories.ErrDuplicateTitle
		case newsPostsContentKey:
			return repositories.ErrDuplicateContent
		}
	case pgerrcode.ForeignKeyViolation:
		return repositories.ErrNotFound
	}
	return err
}

// rollback aborts tx after a failed statement. The statement error is what
// the caller reports.
func rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(ctx) //nolint:errcheck // statement error takes precedence
}
