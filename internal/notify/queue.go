package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/contact"
	"github.com/usamabutt6800/mindwell-backend/internal/payments"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobKind string

const (
	jobAppointmentCreated jobKind = "appointment_created.v1"
	jobPaymentSubmitted   jobKind = "payment_submitted.v1"
	jobPaymentVerified    jobKind = "payment_verified.v1"
	jobPaymentRejected    jobKind = "payment_rejected.v1"
	jobContactMessage     jobKind = "contact_message.v1"
)

// job is the envelope queued per notification event. Booking and payment
// jobs carry the appointment (and payment where relevant); contact jobs
// carry the inquiry instead.
type job struct {
	ID          string                    `json:"id"`
	Kind        jobKind                   `json:"kind"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
	Payment     *payments.Payment         `json:"payment,omitempty"`
	Contact     *contact.Message          `json:"contact,omitempty"`
}

func encodeJob(j job) (string, error) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	body, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("notify: encode job: %w", err)
	}
	return string(body), nil
}

func decodeJob(body string) (job, error) {
	var j job
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		return job{}, fmt.Errorf("notify: decode job: %w", err)
	}
	if j.Kind == jobContactMessage {
		if j.Contact == nil {
			return job{}, fmt.Errorf("notify: job %s has no contact message", j.ID)
		}
		return j, nil
	}
	if j.Appointment == nil {
		return job{}, fmt.Errorf("notify: job %s has no appointment", j.ID)
	}
	return j, nil
}
