package models

import (
	"errors"
	"strings"
	"time"
)

// AdminUserID is the identifier of the first registered user, who administers the site.
const AdminUserID = 1

// RoleForID returns the role a user receives when created with the given identifier.
func RoleForID(id int) Role {
	if id == AdminUserID {
		return RoleAdmin
	}
	return RoleMember
}

// NormalizeEmail lowercases and trims an email address for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the user meets all validation requirements
func (u *User) Validate() error {
	if err := validate.Struct(u); err != nil {
		return err
	}

	if u.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate assigns the creation time and the role derived from the identifier.
// The store calls it once the identifier is known.
func (u *User) BeforeCreate() {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Role = RoleForID(u.ID)
}

// IsAdmin reports whether the user may create and delete posts.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
