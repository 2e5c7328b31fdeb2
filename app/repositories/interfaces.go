package repositories

import (
	"context"
	"time"

	"newsroom/app/models"
)

// UserRepository defines the interface for user data access.
// Users are never updated or deleted through the application.
type UserRepository interface {
	// Create assigns the next identifier and the matching role, then stores the user.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	// Create returns ErrDuplicateTitle or ErrDuplicateContent when either is already taken.
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	// List returns every post in creation order.
	List(ctx context.Context) ([]*models.Post, error)
	// Delete removes the post and all of its comments.
	Delete(ctx context.Context, id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create returns ErrNotFound if the post or the user does not exist.
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID int) ([]*models.Comment, error)
}

// RevocationRepository remembers session tokens that were logged out before expiring.
type RevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
