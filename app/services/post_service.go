package services

import (
	"context"
	"errors"
	"time"

	"newsroom/app/forms"
	"newsroom/app/guard"
	"newsroom/app/models"
	"newsroom/app/repositories"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// PostDetail is a post with its author and comments, as shown on the post page.
type PostDetail struct {
	Post     *models.Post
	Author   *models.User
	Comments []CommentDetail
}

// CommentDetail is a comment with its author.
type CommentDetail struct {
	Comment *models.Comment
	Author  *models.User
}

// PostService handles business logic for news posts
type PostService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	users    repositories.UserRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, comments repositories.CommentRepository, users repositories.UserRepository, logger zerolog.Logger) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		users:    users,
		logger:   logger.With().Str("component", "posts").Logger(),
		now:      time.Now,
	}
}

// CreatePost publishes a post written by actor, who must be the admin. The
// date is today's date on the server.
func (s *PostService) CreatePost(ctx context.Context, actor *models.User, form forms.WriteNewsForm) (*models.Post, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		Title:     form.Title,
		Subtitle:  form.Subtitle,
		ImgURL:    form.ImgURL,
		Content:   form.Body,
		Date:      models.FormatPostDate(now),
		AuthorID:  actor.ID,
		CreatedAt: now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info().Int("post_id", post.ID).Str("title", post.Title).Msg("post created")
	return post, nil
}

// ListPosts returns every post, oldest first
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.posts.List(ctx)
}

// GetPost loads a post with its author and its comments with theirs.
func (s *PostService) GetPost(ctx context.Context, id int) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	authors := map[int]*models.User{}
	author := func(userID int) (*models.User, error) {
		if u, ok := authors[userID]; ok {
			return u, nil
		}
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, oops.Code("POST_AUTHOR_LOOKUP_FAILED").With("post_id", id).With("user_id", userID).Wrap(err)
		}
		authors[userID] = u
		return u, nil
	}

	detail := &PostDetail{Post: post, Comments: []CommentDetail{}}
	if detail.Author, err = author(post.AuthorID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		u, err := author(c.UserID)
		if err != nil {
			return nil, err
		}
		detail.Comments = append(detail.Comments, CommentDetail{Comment: c, Author: u})
	}
	return detail, nil
}

// DeletePost removes a post and its comments. Only the admin may do it.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id int) error {
	if err := guard.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return oops.Code("POST_DELETE_FAILED").With("post_id", id).Wrap(err)
		}
		return err
	}

	s.logger.Info().Int("post_id", id).Int("user_id", actor.ID).Msg("post deleted")
	return nil
}
