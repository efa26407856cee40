package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConfirmationRequired is returned by destructive operations invoked
	// without an explicit confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
)
