package models

import "time"

// Role is the privilege level of a user, fixed when the user is created.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User represents a registered reader of the site.
type User struct {
	ID           int       `json:"id" validate:"gte=0"`
	Email        string    `json:"email" validate:"required,max=50"`
	PasswordHash string    `json:"-" validate:"required"`
	Name         string    `json:"name" validate:"required,max=150"`
	Role         Role      `json:"role" validate:"omitempty,oneof=admin member"`
	CreatedAt    time.Time `json:"created_at"`
}

// Post represents a published news article.
type Post struct {
	ID        int       `json:"id" validate:"gte=0"`
	Title     string    `json:"title" validate:"required,max=200"`
	Subtitle  string    `json:"subtitle" validate:"required,max=150"`
	ImgURL    string    `json:"img_url" validate:"required,url,max=500"`
	Content   string    `json:"content" validate:"required"`
	Date      string    `json:"date" validate:"required,max=250"`
	AuthorID  int       `json:"author_id" validate:"required,gt=0"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment left by a user on a post.
type Comment struct {
	ID        int       `json:"id" validate:"gte=0"`
	Text      string    `json:"text" validate:"required"`
	UserID    int       `json:"user_id" validate:"required,gt=0"`
	PostID    int       `json:"post_id" validate:"required,gt=0"`
	CreatedAt time.Time `json:"created_at"`
}
