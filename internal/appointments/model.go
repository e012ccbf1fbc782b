package appointments

import (
	"strings"
	"time"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
)

// Status is the appointment lifecycle state.
type Status string

// PaymentStatus tracks where the appointment's payment stands.
type PaymentStatus string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"

	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentVerified PaymentStatus = "verified"
	PaymentFailed   PaymentStatus = "failed"
)

// DefaultAmount is charged per session unless overridden at creation.
const DefaultAmount = 3000

// DefaultSlots is the global bookable slot list, in canonical order.
// Custom calendar hours replace it for dates that define them.
var DefaultSlots = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}

// ServiceTypes enumerates the sessions the practice offers.
var ServiceTypes = []string{
	"initial_consultation",
	"individual_therapy",
	"couples_therapy",
	"family_therapy",
	"followup_session",
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ValidServiceType reports whether t is in the service catalog.
func ValidServiceType(t string) bool {
	for _, s := range ServiceTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Appointment is a booked (or requested) session.
type Appointment struct {
	ID            string        `json:"id"`
	ClientName    string        `json:"client_name"`
	ClientEmail   string        `json:"client_email"`
	ClientPhone   string        `json:"client_phone"`
	Date          calendar.Date `json:"appointment_date"`
	Time          string        `json:"appointment_time"`
	ServiceType   string        `json:"service_type"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentID     string        `json:"payment_id,omitempty"`
	Amount        int           `json:"amount"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateAppointmentRequest represents the request body for booking a slot
type CreateAppointmentRequest struct {
	ClientName  string        `json:"client_name"`
	ClientEmail string        `json:"client_email"`
	ClientPhone string        `json:"client_phone"`
	Date        calendar.Date `json:"appointment_date"`
	Time        string        `json:"appointment_time"`
	ServiceType string        `json:"service_type"`
	Amount      int           `json:"amount"`
}

// Validate validates the create appointment request
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.ClientName) == "" {
		return ErrInvalidName
	}
	if r.ClientEmail == "" && r.ClientPhone == "" {
		return ErrMissingContact
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if _, err := calendar.MinuteOfDay(r.Time); err != nil {
		return ErrInvalidTime
	}
	if !ValidServiceType(r.ServiceType) {
		return ErrInvalidServiceType
	}
	if r.Amount < 0 {
		return ErrInvalidAmount
	}
	if r.Amount == 0 {
		r.Amount = DefaultAmount
	}
	return nil
}

// UpdateAppointmentRequest carries optional admin edits. Nil fields are
// left untouched.
type UpdateAppointmentRequest struct {
	Status *Status `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// Validate validates the update request.
func (r *UpdateAppointmentRequest) Validate() error {
	if r.Status == nil && r.Notes == nil {
		return ErrEmptyUpdate
	}
	if r.Status != nil && !ValidStatus(*r.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// ListFilter narrows admin appointment listings.
type ListFilter struct {
	Status Status
	From   calendar.Date
	To     calendar.Date
	Limit  int
	Offset int
}
