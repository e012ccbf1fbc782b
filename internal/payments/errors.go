package payments

import "errors"

var (
	// ErrNotFound is returned when a payment does not exist
	ErrNotFound = errors.New("payment not found")

	// ErrAppointmentNotFound is returned when the referenced appointment is absent
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrDuplicatePayment is returned when the appointment already has a payment
	ErrDuplicatePayment = errors.New("appointment already has a payment")

	// ErrAlreadyVerified is returned when verifying an already-verified payment
	ErrAlreadyVerified = errors.New("payment is already verified")

	// ErrInvalidMethod is returned for an unknown payment method
	ErrInvalidMethod = errors.New("unknown payment method")

	// ErrMissingTransactionID is returned when the transaction reference is missing
	ErrMissingTransactionID = errors.New("transaction id is required")

	// ErrMissingTransactionDate is returned when the transaction date is missing
	ErrMissingTransactionDate = errors.New("transaction date is required")

	// ErrInvalidAmount is returned for a negative amount
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrReasonTooShort is returned when a rejection reason is under five characters
	ErrReasonTooShort = errors.New("rejection reason must be at least 5 characters")

	// ErrInvalidReceipt is returned for an unsupported or oversized receipt file
	ErrInvalidReceipt = errors.New("invalid receipt")

	// ErrReceiptStoreFailure is returned when the object store rejects the upload
	ErrReceiptStoreFailure = errors.New("receipt upload failed")
)
