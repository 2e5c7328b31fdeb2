package postgres

import (
	"context"

	"newsroom/app/models"

	"github.com/samber/oops"
)

const userColumns = `id, email, password, name, role, created_at`

// UserRepository implements repositories.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Pool
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores user under the next gapless identifier. The table lock
// serializes registrations so that the first row always gets id 1.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	email := models.NormalizeEmail(user.Email)
	errb := oops.Code("USER_CREATE_FAILED").With("email", email)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errb.With("operation", "begin").Wrap(err)
	}
	if _, err := tx.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		rollback(ctx, tx)
		return errb.With("operation", "lock users").Wrap(err)
	}

	var id int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM users`).Scan(&id); err != nil {
		rollback(ctx, tx)
		return errb.With("operation", "next id").Wrap(err)
	}

	candidate := *user
	candidate.ID = id
	candidate.Email = email
	candidate.BeforeCreate()
	if err := candidate.Validate(); err != nil {
		rollback(ctx, tx)
		return errb.Wrap(err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		candidate.ID, candidate.Email, candidate.PasswordHash, candidate.Name, string(candidate.Role), candidate.CreatedAt)
	if err != nil {
		rollback(ctx, tx)
		return errb.With("operation", "insert").Wrap(classify(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return errb.With("operation", "commit").Wrap(classify(err))
	}

	*user = candidate
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("user_id", id).Wrap(classify(err))
	}
	return user, nil
}

// GetByEmail retrieves a user by email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("email", email).Wrap(classify(err))
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user models.User
		role string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}
