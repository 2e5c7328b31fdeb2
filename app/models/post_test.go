package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPost() *Post {
	return &Post{
		ID:        1,
		Title:     "Valid Title",
		Subtitle:  "A subtitle",
		ImgURL:    "http://x/i.png",
		Content:   "Body",
		Date:      "05 March 2026",
		AuthorID:  1,
		CreatedAt: time.Now(),
	}
}

func TestPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Post)
		wantErr bool
	}{
		{
			name:    "valid post",
			mutate:  func(p *Post) {},
			wantErr: false,
		},
		{
			name:    "missing title",
			mutate:  func(p *Post) { p.Title = "" },
			wantErr: true,
		},
		{
			name:    "title too long",
			mutate:  func(p *Post) { p.Title = string(make([]byte, 201)) },
			wantErr: true,
		},
		{
			name:    "image url not a url",
			mutate:  func(p *Post) { p.ImgURL = "not a url" },
			wantErr: true,
		},
		{
			name:    "missing author",
			mutate:  func(p *Post) { p.AuthorID = 0 },
			wantErr: true,
		},
		{
			name:    "zero creation time",
			mutate:  func(p *Post) { p.CreatedAt = time.Time{} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := validPost()
			tt.mutate(post)
			err := post.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostBeforeCreate(t *testing.T) {
	post := &Post{
		ID:      1,
		Title:   "Test Post",
		Content: "Test Content",
	}

	assert.True(t, post.CreatedAt.IsZero())
	post.BeforeCreate()
	assert.False(t, post.CreatedAt.IsZero())
	assert.Equal(t, FormatPostDate(post.CreatedAt), post.Date)
}

func TestFormatPostDate(t *testing.T) {
	d := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.Local)
	assert.Equal(t, "05 March 2026", FormatPostDate(d))
}

func TestPostNewComment(t *testing.T) {
	post := &Post{ID: 7}

	t.Run("valid author", func(t *testing.T) {
		comment, err := post.NewComment(2, "Nice")
		assert.NoError(t, err)
		assert.Equal(t, 7, comment.PostID)
		assert.Equal(t, 2, comment.UserID)
		assert.Equal(t, "Nice", comment.Text)
	})

	t.Run("no author", func(t *testing.T) {
		_, err := post.NewComment(0, "Nice")
		assert.Error(t, err)
	})

	t.Run("nil post", func(t *testing.T) {
		var p *Post
		_, err := p.NewComment(2, "Nice")
		assert.Error(t, err)
	})
}
