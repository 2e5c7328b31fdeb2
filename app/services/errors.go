package services

import "errors"

var (
	// ErrUserNotFound means no account uses the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordMismatch means the email is known but the password is wrong.
	ErrPasswordMismatch = errors.New("password does not match")
)
