package appointments

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

type recordingNotifier struct {
	created []*Appointment
}

func (n *recordingNotifier) AppointmentCreated(_ context.Context, appt *Appointment) {
	n.created = append(n.created, appt)
}

func newTestService(t *testing.T) (*Service, *InMemoryRepository, *calendar.InMemoryRepository, *recordingNotifier) {
	t.Helper()
	repo := NewInMemoryRepository()
	calRepo := calendar.NewInMemoryRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, calendar.NewPolicy(calRepo), nil, notifier, nil, logging.Default())
	return svc, repo, calRepo, notifier
}

func TestCreateWeekdaySucceeds(t *testing.T) {
	svc, _, _, notifier := newTestService(t)
	monday := calendar.NewDate(2024, time.June, 10)

	appt, err := svc.Create(context.Background(), validRequest(monday, "10:00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.Status != StatusPending || appt.PaymentStatus != PaymentPending {
		t.Errorf("expected pending/pending, got %s/%s", appt.Status, appt.PaymentStatus)
	}
	if len(notifier.created) != 1 {
		t.Errorf("expected 1 creation notification, got %d", len(notifier.created))
	}
}

func TestCreateWeekendFailsSlotUnavailable(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	saturday := calendar.NewDate(2024, time.June, 15)

	_, err := svc.Create(context.Background(), validRequest(saturday, "09:00"))
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestCreateSaturdayWithOverride(t *testing.T) {
	svc, _, calRepo, _ := newTestService(t)
	saturday := calendar.NewDate(2024, time.June, 15)

	_, err := calRepo.Upsert(context.Background(), &calendar.UpsertSettingRequest{
		Date:        saturday,
		IsAvailable: true,
		Reason:      "Saturday clinic",
		Hours:       []calendar.HourRange{{Start: "09:00", End: "12:00"}},
	})
	if err != nil {
		t.Fatalf("upsert override: %v", err)
	}

	if _, err := svc.Create(context.Background(), validRequest(saturday, "09:00")); err != nil {
		t.Fatalf("booking inside custom hours should succeed, got %v", err)
	}

	_, err = svc.Create(context.Background(), validRequest(saturday, "14:00"))
	if !errors.Is(err, ErrSlotOutsideHours) {
		t.Fatalf("expected ErrSlotOutsideHours, got %v", err)
	}
}

func TestCreateNonSlotTimeFailsOutsideHours(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	monday := calendar.NewDate(2024, time.June, 10)

	_, err := svc.Create(context.Background(), validRequest(monday, "12:00"))
	if !errors.Is(err, ErrSlotOutsideHours) {
		t.Fatalf("expected ErrSlotOutsideHours for non-default slot, got %v", err)
	}
}

func TestCreateSecondBookingSameSlotFails(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	monday := calendar.NewDate(2024, time.June, 10)

	if _, err := svc.Create(context.Background(), validRequest(monday, "10:00")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), validRequest(monday, "10:00"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestCapacityEnforcedAcrossCancellations(t *testing.T) {
	svc, repo, calRepo, _ := newTestService(t)
	monday := calendar.NewDate(2024, time.June, 10)

	_, err := calRepo.Upsert(context.Background(), &calendar.UpsertSettingRequest{
		Date:            monday,
		IsAvailable:     true,
		MaxAppointments: 2,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	first, err := svc.Create(context.Background(), validRequest(monday, "09:00"))
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, err := svc.Create(context.Background(), validRequest(monday, "10:00")); err != nil {
		t.Fatalf("create 2: %v", err)
	}

	_, err = svc.Create(context.Background(), validRequest(monday, "11:00"))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// Cancelling frees capacity; the freed slot can be rebooked.
	cancelled := StatusCancelled
	if _, err := repo.Update(context.Background(), first.ID, &UpdateAppointmentRequest{Status: &cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Create(context.Background(), validRequest(monday, "11:00")); err != nil {
		t.Fatalf("create after cancellation: %v", err)
	}
}

func TestAvailableSlotsDefaultDay(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	monday := calendar.NewDate(2024, time.June, 10)

	if _, err := svc.Create(context.Background(), validRequest(monday, "10:00")); err != nil {
		t.Fatalf("create: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), monday)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	want := []string{"09:00", "11:00", "14:00", "15:00", "16:00"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("slots = %v, want %v", slots, want)
	}
}

func TestAvailableSlotsUnavailableDateEmpty(t *testing.T) {
	svc, _, calRepo, _ := newTestService(t)
	monday := calendar.NewDate(2024, time.June, 10)

	_, err := calRepo.Upsert(context.Background(), &calendar.UpsertSettingRequest{
		Date:        monday,
		IsAvailable: false,
		Reason:      "Public holiday",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), monday)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots, got %v", slots)
	}
}

func TestAvailableSlotsCustomHours(t *testing.T) {
	svc, _, calRepo, _ := newTestService(t)
	saturday := calendar.NewDate(2024, time.June, 15)

	_, err := calRepo.Upsert(context.Background(), &calendar.UpsertSettingRequest{
		Date:        saturday,
		IsAvailable: true,
		Hours:       []calendar.HourRange{{Start: "09:00", End: "12:00"}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), saturday)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	want := []string{"09:00", "10:00", "11:00"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("slots = %v, want %v", slots, want)
	}
}

func TestCreateFillsEveryDefaultSlot(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	monday := calendar.NewDate(2024, time.June, 10)

	for i, slot := range DefaultSlots {
		req := validRequest(monday, slot)
		req.ClientEmail = fmt.Sprintf("client%d@example.com", i)
		if _, err := svc.Create(context.Background(), req); err != nil {
			t.Fatalf("create %s: %v", slot, err)
		}
	}

	slots, err := svc.AvailableSlots(context.Background(), monday)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected fully booked day, got %v", slots)
	}
}
