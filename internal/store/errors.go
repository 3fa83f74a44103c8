package store

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateURL indicates a post with the same normalized URL already exists.
	ErrDuplicateURL = errors.New("duplicate url")
)
