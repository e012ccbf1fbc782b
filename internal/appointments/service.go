package appointments

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/internal/observability/metrics"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// Notifier announces booking events. Implementations must not block the
// caller; failures stay inside the notifier.
type Notifier interface {
	AppointmentCreated(ctx context.Context, appt *Appointment)
}

// Service couples the calendar policy, slot availability and appointment
// persistence into the booking flow.
type Service struct {
	repo     Repository
	policy   *calendar.Policy
	cache    *SlotsCache
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewService constructs an appointments service. cache, notifier and
// bookingMetrics may be nil.
func NewService(repo Repository, policy *calendar.Policy, cache *SlotsCache, notifier Notifier, bookingMetrics *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if policy == nil {
		panic("appointments: calendar policy required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		policy:   policy,
		cache:    cache,
		notifier: notifier,
		metrics:  bookingMetrics,
		logger:   logger,
		tracer:   otel.Tracer("mindwell.internal.appointments"),
	}
}

// AvailableSlots returns the free slots for a date in canonical order. An
// unavailable date yields an empty list.
func (s *Service) AvailableSlots(ctx context.Context, date calendar.Date) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.available_slots")
	defer span.End()
	span.SetAttributes(attribute.String("mindwell.date", date.String()))

	if s.cache != nil {
		if slots, ok := s.cache.Get(ctx, date); ok {
			s.metrics.ObserveSlotCache("hit")
			return slots, nil
		}
		s.metrics.ObserveSlotCache("miss")
	}

	slots, err := s.computeAvailableSlots(ctx, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, date, slots)
	}
	return slots, nil
}

func (s *Service) computeAvailableSlots(ctx context.Context, date calendar.Date) ([]string, error) {
	res, err := s.policy.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}
	if !res.IsAvailable {
		return []string{}, nil
	}
	booked, err := s.repo.BookedTimes(ctx, date)
	if err != nil {
		return nil, err
	}
	return subtractBooked(candidateSlots(res), booked), nil
}

// IsBookable checks a single (date, time) pair against policy, hours,
// occupancy and capacity, in that order.
func (s *Service) IsBookable(ctx context.Context, date calendar.Date, hhmm string) error {
	res, err := s.policy.Resolve(ctx, date)
	if err != nil {
		return err
	}
	if !res.IsAvailable {
		return ErrSlotUnavailable
	}
	if len(res.Hours) > 0 {
		if !calendar.SlotWithinHours(hhmm, res.Hours) {
			return ErrSlotOutsideHours
		}
	} else if !slotListed(hhmm, DefaultSlots) {
		return ErrSlotOutsideHours
	}

	booked, err := s.repo.BookedTimes(ctx, date)
	if err != nil {
		return err
	}
	if slotListed(hhmm, booked) {
		return ErrSlotTaken
	}

	count, err := s.repo.CountActive(ctx, date)
	if err != nil {
		return err
	}
	if count >= res.MaxAppointments {
		return ErrCapacityExceeded
	}
	return nil
}

// Create books a slot. The bookability check is advisory; the storage
// layer's uniqueness guarantee decides concurrent races, surfacing
// ErrSlotTaken to the loser.
func (s *Service) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("mindwell.date", req.Date.String()),
		attribute.String("mindwell.time", req.Time),
	)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.IsBookable(ctx, req.Date, req.Time); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveBooking("conflict")
		}
		span.RecordError(err)
		return nil, err
	}

	appt, err := s.repo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveBooking("conflict")
		} else {
			s.metrics.ObserveBooking("error")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: create: %w", err)
	}

	s.metrics.ObserveBooking("created")
	s.invalidate(ctx, appt.Date)
	s.logger.Info("appointment created",
		"id", appt.ID,
		"date", appt.Date,
		"time", appt.Time,
		"service_type", appt.ServiceType,
	)
	if s.notifier != nil {
		s.notifier.AppointmentCreated(ctx, appt)
	}
	return appt, nil
}

// GetByID fetches one appointment.
func (s *Service) GetByID(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns appointments matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	return s.repo.List(ctx, filter)
}

// Update applies admin edits and drops the cached slots for the date, since
// a status change can free or consume a slot.
func (s *Service) Update(ctx context.Context, id string, req *UpdateAppointmentRequest) (*Appointment, error) {
	appt, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, appt.Date)
	s.logger.Info("appointment updated", "id", appt.ID, "status", appt.Status)
	return appt, nil
}

// Delete removes an appointment.
func (s *Service) Delete(ctx context.Context, id string) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, appt.Date)
	s.logger.Info("appointment deleted", "id", id)
	return nil
}

// InvalidateDate drops the cached slots for a date. Exposed for calendar
// setting writes and payment transitions.
func (s *Service) InvalidateDate(ctx context.Context, date calendar.Date) {
	s.invalidate(ctx, date)
}

func (s *Service) invalidate(ctx context.Context, date calendar.Date) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, date)
	}
}
