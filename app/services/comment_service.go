package services

import (
	"context"

	"newsroom/app/forms"
	"newsroom/app/guard"
	"newsroom/app/models"
	"newsroom/app/repositories"

	"github.com/rs/zerolog"
)

// CommentService handles business logic for comments
type CommentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	logger   zerolog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository, logger zerolog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		logger:   logger.With().Str("component", "comments").Logger(),
	}
}

// AddComment stores a comment by actor on the post. Anonymous visitors get
// guard.ErrUnauthorized and a missing post repositories.ErrNotFound.
func (s *CommentService) AddComment(ctx context.Context, actor *models.User, postID int, form forms.CommentForm) (*models.Comment, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment, err := post.NewComment(actor.ID, form.Text)
	if err != nil {
		return nil, err
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Debug().Int("post_id", postID).Int("comment_id", comment.ID).Msg("comment added")
	return comment, nil
}
