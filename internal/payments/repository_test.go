package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
)

func bookAppointment(t *testing.T, appts *appointments.InMemoryRepository, hhmm string) *appointments.Appointment {
	t.Helper()
	appt, err := appts.Create(context.Background(), &appointments.CreateAppointmentRequest{
		ClientName:  "Ayesha Khan",
		ClientEmail: "ayesha@example.com",
		ClientPhone: "+923001234567",
		Date:        calendar.NewDate(2026, time.September, 7),
		Time:        hhmm,
		ServiceType: "initial_consultation",
	})
	require.NoError(t, err)
	return appt
}

func paymentFor(appt *appointments.Appointment) *Payment {
	return &Payment{
		AppointmentID: appt.ID,
		ClientName:    appt.ClientName,
		ClientEmail:   appt.ClientEmail,
		ClientPhone:   appt.ClientPhone,
		Amount:        appt.Amount,
		Currency:      "PKR",
		Method:        "easypaisa",
		TransactionID: "TXN-884213",
		TransactionAt: appt.Date,
		ReceiptURL:    "https://receipts.example/receipts/abc.jpg",
		ReceiptHandle: "receipts/abc.jpg",
	}
}

func TestCreateAttachesPaymentToAppointment(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	created, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusPending, created.Status)

	linked, err := appts.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, linked.PaymentID)
	assert.Equal(t, appointments.PaymentPaid, linked.PaymentStatus)
	assert.Equal(t, appointments.StatusPending, linked.Status)
}

func TestCreateRejectsSecondPayment(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	_, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), paymentFor(appt))
	assert.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestCreateUnknownAppointment(t *testing.T) {
	repo := NewInMemoryRepository(appointments.NewInMemoryRepository())

	payment := &Payment{AppointmentID: "missing", Method: "cash", TransactionID: "TXN-1"}
	_, err := repo.Create(context.Background(), payment)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCreateConcurrentSubmissionsSingleWinner(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(context.Background(), paymentFor(appt))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrDuplicatePayment)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestMarkVerifiedConfirmsAppointment(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	created, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)

	verified, err := repo.MarkVerified(context.Background(), created.ID, "dr.sana", "matches bank statement")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, verified.Status)
	assert.Equal(t, "dr.sana", verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)
	assert.Equal(t, "matches bank statement", verified.Notes)

	confirmed, err := appts.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusConfirmed, confirmed.Status)
	assert.Equal(t, appointments.PaymentVerified, confirmed.PaymentStatus)
}

func TestMarkVerifiedTwice(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	created, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)

	_, err = repo.MarkVerified(context.Background(), created.ID, "dr.sana", "")
	require.NoError(t, err)

	_, err = repo.MarkVerified(context.Background(), created.ID, "dr.sana", "")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestMarkVerifiedDeletedAppointmentLeavesPaymentPending(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	created, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)
	require.NoError(t, appts.Delete(context.Background(), appt.ID))

	_, err = repo.MarkVerified(context.Background(), created.ID, "dr.sana", "")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Empty(t, stored.VerifiedBy)
	assert.Nil(t, stored.VerifiedAt)

	// A later verify against a restored appointment must not be blocked
	// by a stale verified flag.
	_, err = repo.MarkVerified(context.Background(), created.ID, "dr.sana", "")
	assert.NotErrorIs(t, err, ErrAlreadyVerified)
}

func TestMarkRejectedDeletedAppointmentLeavesPaymentPending(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	created, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)
	require.NoError(t, appts.Delete(context.Background(), appt.ID))

	_, err = repo.MarkRejected(context.Background(), created.ID, "dr.sana", "receipt unreadable")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Empty(t, stored.RejectReason)
}

func TestMarkRejectedCancelsAppointment(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	created, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)

	rejected, err := repo.MarkRejected(context.Background(), created.ID, "dr.sana", "receipt unreadable")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "receipt unreadable", rejected.RejectReason)

	cancelled, err := appts.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusCancelled, cancelled.Status)
	assert.Equal(t, appointments.PaymentFailed, cancelled.PaymentStatus)
}

func TestGetByAppointmentID(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)
	appt := bookAppointment(t, appts, "09:00")

	created, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)

	found, err := repo.GetByAppointmentID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByAppointmentID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	appts := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(appts)

	first := bookAppointment(t, appts, "09:00")
	second := bookAppointment(t, appts, "10:00")

	p1, err := repo.Create(context.Background(), paymentFor(first))
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), paymentFor(second))
	require.NoError(t, err)

	_, err = repo.MarkVerified(context.Background(), p1.ID, "dr.sana", "")
	require.NoError(t, err)

	pending, err := repo.List(context.Background(), ListFilter{Status: StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].AppointmentID)

	all, err := repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
