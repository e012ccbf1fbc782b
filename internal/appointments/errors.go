package appointments

import "errors"

var (
	// ErrInvalidName is returned when the client name is missing
	ErrInvalidName = errors.New("client name is required")

	// ErrMissingContact is returned when both email and phone are missing
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrInvalidDate is returned when the appointment date is missing or malformed
	ErrInvalidDate = errors.New("valid appointment date is required")

	// ErrInvalidTime is returned when the appointment time is not HH:MM
	ErrInvalidTime = errors.New("valid appointment time is required")

	// ErrInvalidServiceType is returned for an unknown service type
	ErrInvalidServiceType = errors.New("unknown service type")

	// ErrInvalidAmount is returned for a negative amount
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrInvalidStatus is returned for an unknown appointment status
	ErrInvalidStatus = errors.New("unknown appointment status")

	// ErrEmptyUpdate is returned when an admin update carries no fields
	ErrEmptyUpdate = errors.New("update has no fields")

	// ErrNotFound is returned when an appointment does not exist
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotUnavailable is returned when the date is closed for booking
	ErrSlotUnavailable = errors.New("date is not available for booking")

	// ErrSlotOutsideHours is returned when the time falls outside bookable hours
	ErrSlotOutsideHours = errors.New("time is outside bookable hours")

	// ErrSlotTaken is returned when a non-cancelled appointment holds the slot
	ErrSlotTaken = errors.New("slot is already booked")

	// ErrCapacityExceeded is returned when the per-day cap is reached
	ErrCapacityExceeded = errors.New("no remaining capacity for this date")

	// ErrPaymentAlreadyLinked is returned when an appointment already has a payment
	ErrPaymentAlreadyLinked = errors.New("appointment already has a payment")
)
