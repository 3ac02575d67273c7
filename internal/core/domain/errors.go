package domain

import "errors"

var (
	// ErrInvalidArgument marks caller errors: empty inputs, out-of-range
	// coordinates, unknown travel modes. Callers must fix the input before retrying.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
)
