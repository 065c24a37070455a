package store

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is outside the
	// caller's ownership scope. The two cases are deliberately identical.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller can see a row but may not
	// change it (a shared list owned by someone else, a non-admin editing users).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalid is returned for payloads that fail validation.
	ErrInvalid = errors.New("invalid")

	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("already exists")

	// ErrSelfModification is returned when a user tries to delete their own
	// account or change their own admin or disabled flag.
	ErrSelfModification = errors.New("users cannot delete themselves or change their own admin status")
)
