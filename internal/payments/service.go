package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/internal/observability/metrics"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// MinRejectReasonLen is the shortest reason an admin may give when
// rejecting a payment. The reason is sent to the client verbatim.
const MinRejectReasonLen = 5

const defaultUploadTimeout = 15 * time.Second

// ReceiptStore persists receipt files. Upload returns a public URL and an
// opaque handle Delete accepts for cleanup.
type ReceiptStore interface {
	Upload(ctx context.Context, data []byte, contentType, folder string) (url, handle string, err error)
	Delete(ctx context.Context, handle string) error
}

// AppointmentDirectory is the slice of the appointments service the
// payment flow needs: looking bookings up and dropping stale slot caches
// when a rejection frees a slot.
type AppointmentDirectory interface {
	GetByID(ctx context.Context, id string) (*appointments.Appointment, error)
	InvalidateDate(ctx context.Context, date calendar.Date)
}

// Notifier announces payment lifecycle events. Implementations must not
// block the caller; failures stay inside the notifier.
type Notifier interface {
	PaymentSubmitted(ctx context.Context, appt *appointments.Appointment, payment *Payment)
	PaymentVerified(ctx context.Context, appt *appointments.Appointment, payment *Payment)
	PaymentRejected(ctx context.Context, appt *appointments.Appointment, payment *Payment)
}

// ServiceConfig tunes the payment service. Zero values get defaults.
type ServiceConfig struct {
	Currency      string
	UploadTimeout time.Duration
}

// Service runs the payment submission and review flows.
type Service struct {
	repo          Repository
	appts         AppointmentDirectory
	store         ReceiptStore
	notifier      Notifier
	metrics       *metrics.PaymentMetrics
	logger        *logging.Logger
	tracer        trace.Tracer
	currency      string
	uploadTimeout time.Duration
}

// NewService constructs a payment service. notifier and paymentMetrics may
// be nil; with a nil store every submission fails, since receipts are
// mandatory.
func NewService(repo Repository, appts AppointmentDirectory, store ReceiptStore, notifier Notifier, paymentMetrics *metrics.PaymentMetrics, logger *logging.Logger, cfg ServiceConfig) *Service {
	if repo == nil {
		panic("payments: repository required")
	}
	if appts == nil {
		panic("payments: appointment directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Currency == "" {
		cfg.Currency = "PKR"
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}
	return &Service{
		repo:          repo,
		appts:         appts,
		store:         store,
		notifier:      notifier,
		metrics:       paymentMetrics,
		logger:        logger,
		tracer:        otel.Tracer("mindwell.internal.payments"),
		currency:      cfg.Currency,
		uploadTimeout: cfg.UploadTimeout,
	}
}

// Submit records a payment against an appointment. The receipt is stored
// before the database write; if that write fails the stored file is
// removed best-effort. The unique link in storage decides concurrent
// duplicate submissions, so the early duplicate check here is advisory.
func (s *Service) Submit(ctx context.Context, req *SubmitPaymentRequest, receipt *Receipt) (*Payment, error) {
	ctx, span := s.tracer.Start(ctx, "payments.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("mindwell.appointment_id", req.AppointmentID),
		attribute.String("mindwell.method", req.Method),
	)

	if err := req.Validate(); err != nil {
		s.metrics.ObserveSubmission(req.Method, "invalid")
		return nil, err
	}
	if receipt == nil {
		s.metrics.ObserveSubmission(req.Method, "invalid")
		return nil, ErrInvalidReceipt
	}
	if err := receipt.Validate(); err != nil {
		s.metrics.ObserveSubmission(req.Method, "invalid")
		return nil, err
	}

	appt, err := s.appts.GetByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			s.metrics.ObserveSubmission(req.Method, "not_found")
			return nil, ErrAppointmentNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("payments: load appointment: %w", err)
	}
	if appt.PaymentID != "" {
		s.metrics.ObserveSubmission(req.Method, "duplicate")
		return nil, ErrDuplicatePayment
	}

	amount := req.Amount
	if amount == 0 {
		amount = appt.Amount
	}

	if s.store == nil {
		s.metrics.ObserveReceiptStoreFailure()
		return nil, ErrReceiptStoreFailure
	}
	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()
	receiptURL, handle, err := s.store.Upload(uploadCtx, receipt.Data, receipt.ContentType, "receipts")
	if err != nil {
		s.metrics.ObserveReceiptStoreFailure()
		s.metrics.ObserveSubmission(req.Method, "store_failure")
		span.RecordError(err)
		s.logger.Error("receipt upload failed", "appointment_id", req.AppointmentID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrReceiptStoreFailure, err)
	}

	payment := &Payment{
		AppointmentID: appt.ID,
		ClientName:    appt.ClientName,
		ClientEmail:   appt.ClientEmail,
		ClientPhone:   appt.ClientPhone,
		Amount:        amount,
		Currency:      s.currency,
		Method:        req.Method,
		TransactionID: strings.TrimSpace(req.TransactionID),
		TransactionAt: req.TransactionAt,
		ReceiptURL:    receiptURL,
		ReceiptHandle: handle,
	}
	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		s.cleanupReceipt(handle)
		if errors.Is(err, ErrDuplicatePayment) {
			s.metrics.ObserveSubmission(req.Method, "duplicate")
			return nil, err
		}
		if errors.Is(err, ErrAppointmentNotFound) {
			s.metrics.ObserveSubmission(req.Method, "not_found")
			return nil, err
		}
		s.metrics.ObserveSubmission(req.Method, "error")
		span.RecordError(err)
		return nil, fmt.Errorf("payments: create: %w", err)
	}

	s.metrics.ObserveSubmission(req.Method, "accepted")
	s.logger.Info("payment submitted",
		"id", created.ID,
		"appointment_id", created.AppointmentID,
		"method", created.Method,
		"amount", created.Amount,
	)
	if s.notifier != nil {
		s.notifier.PaymentSubmitted(ctx, appt, created)
	}
	return created, nil
}

// GetByID fetches one payment.
func (s *Service) GetByID(ctx context.Context, id string) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByAppointmentID fetches the payment linked to an appointment.
func (s *Service) GetByAppointmentID(ctx context.Context, appointmentID string) (*Payment, error) {
	return s.repo.GetByAppointmentID(ctx, appointmentID)
}

// List returns payments matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	return s.repo.List(ctx, filter)
}

// Verify marks a payment verified and confirms its appointment. Verifying
// twice returns ErrAlreadyVerified and changes nothing.
func (s *Service) Verify(ctx context.Context, id, actor, notes string) (*Payment, error) {
	ctx, span := s.tracer.Start(ctx, "payments.verify")
	defer span.End()
	span.SetAttributes(attribute.String("mindwell.payment_id", id))

	payment, err := s.repo.MarkVerified(ctx, id, actor, notes)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrAlreadyVerified) {
			span.RecordError(err)
		}
		return nil, err
	}

	s.metrics.ObserveReview("verified")
	s.logger.Info("payment verified", "id", payment.ID, "appointment_id", payment.AppointmentID, "by", actor)
	s.announce(ctx, payment, func(appt *appointments.Appointment) {
		s.notifier.PaymentVerified(ctx, appt, payment)
	})
	return payment, nil
}

// Reject marks a payment rejected and cancels its appointment, freeing the
// slot. The reason is mandatory and is relayed to the client.
func (s *Service) Reject(ctx context.Context, id, actor, reason string) (*Payment, error) {
	ctx, span := s.tracer.Start(ctx, "payments.reject")
	defer span.End()
	span.SetAttributes(attribute.String("mindwell.payment_id", id))

	reason = strings.TrimSpace(reason)
	if len(reason) < MinRejectReasonLen {
		return nil, ErrReasonTooShort
	}

	payment, err := s.repo.MarkRejected(ctx, id, actor, reason)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}

	s.metrics.ObserveReview("rejected")
	s.logger.Info("payment rejected", "id", payment.ID, "appointment_id", payment.AppointmentID, "by", actor, "reason", reason)
	if appt, lookupErr := s.appts.GetByID(ctx, payment.AppointmentID); lookupErr == nil {
		// The cancelled appointment frees its slot.
		s.appts.InvalidateDate(ctx, appt.Date)
		if s.notifier != nil {
			s.notifier.PaymentRejected(ctx, appt, payment)
		}
	} else {
		s.logger.Error("appointment lookup after review failed", "payment_id", payment.ID, "error", lookupErr)
	}
	return payment, nil
}

// announce loads the appointment behind a reviewed payment and hands it to
// fn. Lookup failures only cost the notification, never the review.
func (s *Service) announce(ctx context.Context, payment *Payment, fn func(appt *appointments.Appointment)) {
	if s.notifier == nil {
		return
	}
	appt, err := s.appts.GetByID(ctx, payment.AppointmentID)
	if err != nil {
		s.logger.Error("appointment lookup after review failed", "payment_id", payment.ID, "error", err)
		return
	}
	fn(appt)
}

func (s *Service) cleanupReceipt(handle string) {
	if handle == "" || s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.uploadTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, handle); err != nil {
		s.logger.Error("orphaned receipt cleanup failed", "handle", handle, "error", err)
	}
}
