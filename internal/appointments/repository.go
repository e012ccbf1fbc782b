package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
)

// Repository defines the interface for appointment storage. Create must be
// atomic with respect to the slot-uniqueness check: two concurrent creates
// for the same (date, time) must not both succeed.
type Repository interface {
	Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
	Update(ctx context.Context, id string, req *UpdateAppointmentRequest) (*Appointment, error)
	Delete(ctx context.Context, id string) error

	// BookedTimes returns the times of non-cancelled appointments on a date.
	BookedTimes(ctx context.Context, date calendar.Date) ([]string, error)
	// CountActive counts non-cancelled appointments on a date.
	CountActive(ctx context.Context, date calendar.Date) (int, error)

	// AttachPayment links a payment to an appointment that is still
	// awaiting one, moving payment status to paid.
	AttachPayment(ctx context.Context, id, paymentID string) (*Appointment, error)
	// ApplyPaymentOutcome records the verdict of payment verification.
	ApplyPaymentOutcome(ctx context.Context, id string, status Status, paymentStatus PaymentStatus) (*Appointment, error)
}

// InMemoryRepository is an in-memory Repository for tests and dev mode. The
// slot-uniqueness check and the insert happen under one lock hold, which is
// this implementation's equivalent of the storage-level unique index.
type InMemoryRepository struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appointments: make(map[string]*Appointment),
	}
}

// Create books the slot, failing with ErrSlotTaken if a non-cancelled
// appointment already holds it.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if a.Status != StatusCancelled && a.Date == req.Date && a.Time == req.Time {
			return nil, ErrSlotTaken
		}
	}

	now := time.Now().UTC()
	appt := &Appointment{
		ID:            uuid.NewString(),
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		Date:          req.Date,
		Time:          req.Time,
		ServiceType:   req.ServiceType,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Amount:        req.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.appointments[appt.ID] = appt

	copied := *appt
	return &copied, nil
}

// GetByID retrieves an appointment by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

// List returns appointments matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	r.mu.RLock()
	var matched []*Appointment
	for _, a := range r.appointments {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && a.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && a.Date.After(filter.To) {
			continue
		}
		copied := *a
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

// Update applies admin edits.
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Status != nil {
		appt.Status = *req.Status
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}
	appt.UpdatedAt = time.Now().UTC()

	copied := *appt
	return &copied, nil
}

// Delete removes an appointment.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

// BookedTimes returns the times of non-cancelled appointments on a date.
func (r *InMemoryRepository) BookedTimes(ctx context.Context, date calendar.Date) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var times []string
	for _, a := range r.appointments {
		if a.Status != StatusCancelled && a.Date == date {
			times = append(times, a.Time)
		}
	}
	sort.Strings(times)
	return times, nil
}

// CountActive counts non-cancelled appointments on a date.
func (r *InMemoryRepository) CountActive(ctx context.Context, date calendar.Date) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, a := range r.appointments {
		if a.Status != StatusCancelled && a.Date == date {
			count++
		}
	}
	return count, nil
}

// AttachPayment links a payment, guarding against a second attachment.
func (r *InMemoryRepository) AttachPayment(ctx context.Context, id, paymentID string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if appt.PaymentStatus != PaymentPending || appt.PaymentID != "" {
		return nil, ErrPaymentAlreadyLinked
	}
	appt.PaymentID = paymentID
	appt.PaymentStatus = PaymentPaid
	appt.UpdatedAt = time.Now().UTC()

	copied := *appt
	return &copied, nil
}

// ApplyPaymentOutcome records the verify/reject verdict on the appointment.
func (r *InMemoryRepository) ApplyPaymentOutcome(ctx context.Context, id string, status Status, paymentStatus PaymentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	appt.Status = status
	appt.PaymentStatus = paymentStatus
	appt.UpdatedAt = time.Now().UTC()

	copied := *appt
	return &copied, nil
}
