package calendar

import "errors"

var (
	// ErrSettingNotFound is returned when no override exists for a date
	ErrSettingNotFound = errors.New("calendar setting not found")

	// ErrInvalidDate is returned when a date cannot be parsed
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidRange is returned when a range start is after its end
	ErrInvalidRange = errors.New("start date is after end date")

	// ErrInvalidHourRange is returned when a custom hour range is malformed
	ErrInvalidHourRange = errors.New("invalid hour range")

	// ErrInvalidCap is returned when maxAppointments is not positive
	ErrInvalidCap = errors.New("max appointments must be positive")
)
