package postgres

import (
	"context"

	"newsroom/app/models"

	"github.com/samber/oops"
)

// CommentRepository implements repositories.CommentRepository using PostgreSQL.
type CommentRepository struct {
	pool Pool
}

// NewCommentRepository creates a new PostgreSQL comment repository.
func NewCommentRepository(pool Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create inserts comment. A missing post or user violates a foreign key and
// is reported as repositories.ErrNotFound.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	errb := oops.Code("COMMENT_CREATE_FAILED").
		With("post_id", comment.PostID).
		With("user_id", comment.UserID)

	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return errb.Wrap(err)
	}

	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO comments (text, user_id, news_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		comment.Text, comment.UserID, comment.PostID, comment.CreatedAt,
	).Scan(&id)
	if err != nil {
		return errb.Wrap(classify(err))
	}
	comment.ID = id
	return nil
}

// ListByPost retrieves the comments of a post, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, text, user_id, news_id, created_at FROM comments WHERE news_id = $1 ORDER BY id`, postID)
	if err != nil {
		return nil, oops.Code("COMMENT_LIST_FAILED").With("post_id", postID).Wrap(err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.UserID, &c.PostID, &c.CreatedAt); err != nil {
			return nil, oops.Code("COMMENT_LIST_FAILED").With("post_id", postID).Wrap(err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("COMMENT_LIST_FAILED").With("post_id", postID).Wrap(err)
	}
	return comments, nil
}
