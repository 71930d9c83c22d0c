package app

import "errors"

// Domain error taxonomy. The HTTP layer maps these onto status codes;
// everything else is an internal error.
var (
	// ErrBookExists means a book with the same name and author is already
	// in the catalog.
	ErrBookExists = errors.New("book already exists")

	// ErrUserExists means the username or email is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrNotFound means a referenced entity does not exist. Empty query
	// results are not ErrNotFound; only missing referents are.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput covers malformed or out-of-range command fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMailNotSent means the mail transport rejected a notification.
	// The state change that triggered it is already committed.
	ErrMailNotSent = errors.New("mail could not be sent")

	// ErrMailNotConfirmed means the operation requires a confirmed email
	// address.
	ErrMailNotConfirmed = errors.New("email address is not confirmed")
)
