package payments

import (
	"strings"
	"time"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
)

// Status is the payment review state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Method is a supported payment channel.
type Method struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Methods is the static payment-method catalog, loaded once and immutable.
var Methods = []Method{
	{Code: "easypaisa", Label: "Easypaisa"},
	{Code: "jazzcash", Label: "JazzCash"},
	{Code: "bank_transfer", Label: "Bank Transfer"},
	{Code: "cash", Label: "Cash"},
}

// ValidMethod reports whether code names a supported method.
func ValidMethod(code string) bool {
	for _, m := range Methods {
		if m.Code == code {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known payment status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Payment is a submitted receipt awaiting (or past) admin review. Client
// contact fields are snapshotted from the appointment at submission time.
type Payment struct {
	ID            string        `json:"id"`
	AppointmentID string        `json:"appointment_id"`
	ClientName    string        `json:"client_name"`
	ClientEmail   string        `json:"client_email"`
	ClientPhone   string        `json:"client_phone"`
	Amount        int           `json:"amount"`
	Currency      string        `json:"currency"`
	Method        string        `json:"payment_method"`
	TransactionID string        `json:"transaction_id"`
	TransactionAt calendar.Date `json:"transaction_date"`
	ReceiptURL    string        `json:"receipt_url"`
	ReceiptHandle string        `json:"-"`
	Status        Status        `json:"status"`
	VerifiedBy    string        `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time    `json:"verified_at,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	RejectReason  string        `json:"reject_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SubmitPaymentRequest carries the metadata of a payment submission; the
// receipt file travels separately.
type SubmitPaymentRequest struct {
	AppointmentID string        `json:"appointment_id"`
	Method        string        `json:"payment_method"`
	TransactionID string        `json:"transaction_id"`
	TransactionAt calendar.Date `json:"transaction_date"`
	Amount        int           `json:"amount"`
}

// Validate validates the submission. A zero Amount is filled from the
// appointment by the service.
func (r *SubmitPaymentRequest) Validate() error {
	if strings.TrimSpace(r.AppointmentID) == "" {
		return ErrAppointmentNotFound
	}
	if !ValidMethod(r.Method) {
		return ErrInvalidMethod
	}
	if strings.TrimSpace(r.TransactionID) == "" {
		return ErrMissingTransactionID
	}
	if r.TransactionAt.IsZero() {
		return ErrMissingTransactionDate
	}
	if r.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ListFilter narrows admin payment listings.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}
