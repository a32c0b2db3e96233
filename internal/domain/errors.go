package domain

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique value (such as a slug) is already taken.
	ErrConflict = errors.New("conflict")
)
