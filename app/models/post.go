package models

import (
	"errors"
	"time"
)

// PostDateLayout renders dates as "day month-name year", e.g. "05 March 2026".
const PostDateLayout = "02 January 2006"

// FormatPostDate formats t the way post dates are stored.
func FormatPostDate(t time.Time) string {
	return t.Format(PostDateLayout)
}

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Date == "" {
		p.Date = FormatPostDate(p.CreatedAt)
	}
}

// NewComment builds a comment on this post by the given user.
func (p *Post) NewComment(userID int, text string) (*Comment, error) {
	if p == nil {
		return nil, errors.New("post cannot be nil")
	}
	if userID <= 0 {
		return nil, errors.New("comment requires an author")
	}
	return &Comment{PostID: p.ID, UserID: userID, Text: text}, nil
}
