package repositories

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrDuplicateTitle   = errors.New("post title already exists")
	ErrDuplicateContent = errors.New("post content already exists")
)
