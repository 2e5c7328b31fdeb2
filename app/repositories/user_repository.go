package repositories

import (
	"context"
	"time"

	"newsroom/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/oops"
)

// userRecord is the stored form of a user. models.User hides the password
// hash from JSON responses, so it cannot be persisted directly.
type userRecord struct {
	ID           int         `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Name         string      `json:"name"`
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (r userRecord) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
	}
}

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db *badger.DB
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

// Create creates a new user
func (r *BadgerUserRepository) Create(ctx context.Context, user *models.User) error {
	email := models.NormalizeEmail(user.Email)
	emailKey := []byte(UserEmailIndexPrefix + email)

	err := update(ctx, r.db, func(txn *badger.Txn) error {
		taken, err := exists(txn, emailKey)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateEmail
		}

		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}
		user.ID = id
		user.Email = email
		user.BeforeCreate()
		if err := user.Validate(); err != nil {
			return err
		}

		data, err := marshalEntity(userRecord{
			ID:           user.ID,
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
			Name:         user.Name,
			Role:         user.Role,
			CreatedAt:    user.CreatedAt,
		})
		if err != nil {
			return err
		}

		if err := txn.Set(emailKey, encodeID(id)); err != nil {
			return err
		}
		return txn.Set(entityKey(UserKeyPrefix, id), data)
	})
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").With("email", email).Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var rec userRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, entityKey(UserKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("user_id", id).Wrap(err)
	}
	return rec.toModel(), nil
}

// GetByEmail retrieves a user by email address
func (r *BadgerUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var rec userRecord
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := indexLookup(txn, []byte(UserEmailIndexPrefix+models.NormalizeEmail(email)))
		if err != nil {
			return err
		}
		return getEntity(txn, entityKey(UserKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("email", email).Wrap(err)
	}
	return rec.toModel(), nil
}
