package contact

import "errors"

var (
	// ErrInvalidName is returned when the name is missing
	ErrInvalidName = errors.New("name is required")

	// ErrMissingContact is returned when both email and phone are missing
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrEmptyMessage is returned when the message body is missing
	ErrEmptyMessage = errors.New("message is required")

	// ErrNotFound is returned when a contact message is not found
	ErrNotFound = errors.New("contact message not found")
)
