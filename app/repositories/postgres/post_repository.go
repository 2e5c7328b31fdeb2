package postgres

import (
	"context"

	"newsroom/app/models"
	"newsroom/app/repositories"

	"github.com/samber/oops"
)

const postColumns = `id, author_id, title, subtitle, date, body, img_url, created_at`

// PostRepository implements repositories.PostRepository using PostgreSQL.
type PostRepository struct {
	pool Pool
}

// NewPostRepository creates a new PostgreSQL post repository.
func NewPostRepository(pool Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

// Create inserts post. The unique constraints report duplicate titles and bodies.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	errb := oops.Code("POST_CREATE_FAILED").With("title", post.Title)

	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return errb.Wrap(err)
	}

	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO news_posts (author_id, title, subtitle, date, body, img_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		post.AuthorID, post.Title, post.Subtitle, post.Date, post.Content, post.ImgURL, post.CreatedAt,
	).Scan(&id)
	if err != nil {
		return errb.Wrap(classify(err))
	}
	post.ID = id
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM news_posts WHERE id = $1`, id))
	if err != nil {
		return nil, oops.Code("POST_GET_FAILED").With("post_id", id).Wrap(classify(err))
	}
	return post, nil
}

// List retrieves all posts in creation order
func (r *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+postColumns+` FROM news_posts ORDER BY id`)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, oops.Code("POST_LIST_FAILED").With("operation", "scan").Wrap(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("operation", "iterate").Wrap(err)
	}
	return posts, nil
}

// Delete removes a post. Its comments go with it through ON DELETE CASCADE.
func (r *PostRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM news_posts WHERE id = $1`, id)
	if err != nil {
		return oops.Code("POST_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("POST_DELETE_FAILED").With("post_id", id).Wrap(repositories.ErrNotFound)
	}
	return nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Subtitle, &post.Date, &post.Content, &post.ImgURL, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
