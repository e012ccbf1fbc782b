package payments

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
)

// Repository defines the interface for payment storage. Create must be
// atomic with respect to the one-payment-per-appointment rule, and must
// drive the appointment's attach transition as part of the same operation.
type Repository interface {
	Create(ctx context.Context, payment *Payment) (*Payment, error)
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*Payment, error)
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// MarkVerified flips the payment to verified and confirms its
	// appointment. Verifying twice fails with ErrAlreadyVerified.
	MarkVerified(ctx context.Context, id, actor, notes string) (*Payment, error)
	// MarkRejected flips the payment to rejected and cancels its
	// appointment.
	MarkRejected(ctx context.Context, id, actor, reason string) (*Payment, error)
}

// AppointmentLinker is the slice of the appointments repository the
// in-memory payment store drives for lifecycle transitions.
type AppointmentLinker interface {
	AttachPayment(ctx context.Context, id, paymentID string) (*appointments.Appointment, error)
	ApplyPaymentOutcome(ctx context.Context, id string, status appointments.Status, paymentStatus appointments.PaymentStatus) (*appointments.Appointment, error)
}

// InMemoryRepository is an in-memory Repository for tests and dev mode. The
// duplicate check and insert happen under one lock hold, mirroring the
// unique index the Postgres implementation relies on.
type InMemoryRepository struct {
	mu            sync.RWMutex
	payments      map[string]*Payment
	byAppointment map[string]string
	appts         AppointmentLinker
}

// NewInMemoryRepository creates a new in-memory repository wired to the
// appointment store it must transition.
func NewInMemoryRepository(appts AppointmentLinker) *InMemoryRepository {
	if appts == nil {
		panic("payments: appointment linker required")
	}
	return &InMemoryRepository{
		payments:      make(map[string]*Payment),
		byAppointment: make(map[string]string),
		appts:         appts,
	}
}

// Create stores the payment and attaches it to its appointment, failing
// with ErrDuplicatePayment if one already exists.
func (r *InMemoryRepository) Create(ctx context.Context, payment *Payment) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAppointment[payment.AppointmentID]; exists {
		return nil, ErrDuplicatePayment
	}

	stored := *payment
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.Status = StatusPending
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if _, err := r.appts.AttachPayment(ctx, stored.AppointmentID, stored.ID); err != nil {
		switch {
		case errors.Is(err, appointments.ErrNotFound):
			return nil, ErrAppointmentNotFound
		case errors.Is(err, appointments.ErrPaymentAlreadyLinked):
			return nil, ErrDuplicatePayment
		default:
			return nil, err
		}
	}

	r.payments[stored.ID] = &stored
	r.byAppointment[stored.AppointmentID] = stored.ID

	copied := stored
	return &copied, nil
}

// GetByID retrieves a payment by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

// GetByAppointmentID retrieves the payment linked to an appointment.
func (r *InMemoryRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byAppointment[appointmentID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r.payments[id]
	return &copied, nil
}

// List returns payments matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	r.mu.RLock()
	var matched []*Payment
	for _, p := range r.payments {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		copied := *p
		matched = append(matched, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// MarkVerified flips the payment to verified and confirms the appointment.
func (r *InMemoryRepository) MarkVerified(ctx context.Context, id, actor, notes string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if payment.Status == StatusVerified {
		return nil, ErrAlreadyVerified
	}

	// Confirm the appointment before touching the payment, so a failed
	// transition leaves the payment untouched.
	if _, err := r.appts.ApplyPaymentOutcome(ctx, payment.AppointmentID, appointments.StatusConfirmed, appointments.PaymentVerified); err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	payment.Status = StatusVerified
	payment.VerifiedBy = actor
	payment.VerifiedAt = &now
	payment.Notes = notes
	payment.UpdatedAt = now

	copied := *payment
	return &copied, nil
}

// MarkRejected flips the payment to rejected and cancels the appointment.
func (r *InMemoryRepository) MarkRejected(ctx context.Context, id, actor, reason string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}

	if _, err := r.appts.ApplyPaymentOutcome(ctx, payment.AppointmentID, appointments.StatusCancelled, appointments.PaymentFailed); err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	payment.Status = StatusRejected
	payment.VerifiedBy = actor
	payment.VerifiedAt = &now
	payment.RejectReason = reason
	payment.UpdatedAt = now

	copied := *payment
	return &copied, nil
}
