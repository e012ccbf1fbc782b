package notify

import (
	"context"
	"time"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/contact"
	"github.com/usamabutt6800/mindwell-backend/internal/payments"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

const enqueueTimeout = 10 * time.Second

// Service publishes notification jobs for the worker to deliver. All
// methods are fire-and-forget: the booking or payment flow never waits on
// the queue, and enqueue failures only cost the notification.
type Service struct {
	queue  queueClient
	logger *logging.Logger
}

// NewService creates a notification publisher on top of a queue.
func NewService(queue queueClient, logger *logging.Logger) *Service {
	if queue == nil {
		panic("notify: queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{queue: queue, logger: logger}
}

var (
	_ appointments.Notifier = (*Service)(nil)
	_ payments.Notifier     = (*Service)(nil)
	_ contact.Notifier      = (*Service)(nil)
)

// AppointmentCreated announces a new booking request.
func (s *Service) AppointmentCreated(ctx context.Context, appt *appointments.Appointment) {
	s.enqueue(jobAppointmentCreated, appt, nil)
}

// PaymentSubmitted announces a receipt awaiting review.
func (s *Service) PaymentSubmitted(ctx context.Context, appt *appointments.Appointment, payment *payments.Payment) {
	s.enqueue(jobPaymentSubmitted, appt, payment)
}

// PaymentVerified announces a confirmed appointment.
func (s *Service) PaymentVerified(ctx context.Context, appt *appointments.Appointment, payment *payments.Payment) {
	s.enqueue(jobPaymentVerified, appt, payment)
}

// PaymentRejected announces a cancelled appointment with the reject reason.
func (s *Service) PaymentRejected(ctx context.Context, appt *appointments.Appointment, payment *payments.Payment) {
	s.enqueue(jobPaymentRejected, appt, payment)
}

// ContactMessageReceived relays a website inquiry to the clinic inbox.
func (s *Service) ContactMessageReceived(ctx context.Context, msg *contact.Message) {
	if msg == nil {
		return
	}
	s.publish(job{Kind: jobContactMessage, Contact: msg})
}

func (s *Service) enqueue(kind jobKind, appt *appointments.Appointment, payment *payments.Payment) {
	if appt == nil {
		return
	}
	s.publish(jobForAppointment(kind, appt, payment))
}

func (s *Service) publish(j job) {
	body, err := encodeJob(j)
	if err != nil {
		s.logger.Error("failed to encode notification job", "kind", j.Kind, "error", err)
		return
	}

	// Detached from the caller's context so a finished request cannot
	// cancel the publish mid-flight.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		defer cancel()
		if err := s.queue.Send(ctx, body); err != nil {
			s.logger.Error("failed to enqueue notification", "kind", j.Kind, "error", err)
		}
	}()
}
