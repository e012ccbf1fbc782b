package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
)

type fakeStore struct {
	mu       sync.Mutex
	uploads  int
	deleted  []string
	uploadEr error
}

func (s *fakeStore) Upload(ctx context.Context, data []byte, contentType, folder string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadEr != nil {
		return "", "", s.uploadEr
	}
	s.uploads++
	handle := fmt.Sprintf("%s/receipt-%d.jpg", folder, s.uploads)
	return "https://cdn.mindwell.pk/" + handle, handle, nil
}

func (s *fakeStore) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, handle)
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	submitted []string
	verified  []string
	rejected  []string
}

func (n *recordingNotifier) PaymentSubmitted(ctx context.Context, appt *appointments.Appointment, payment *Payment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, payment.ID)
}

func (n *recordingNotifier) PaymentVerified(ctx context.Context, appt *appointments.Appointment, payment *Payment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verified = append(n.verified, payment.ID)
}

func (n *recordingNotifier) PaymentRejected(ctx context.Context, appt *appointments.Appointment, payment *Payment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, payment.ID)
}

type paymentFixture struct {
	apptSvc  *appointments.Service
	payments *Service
	store    *fakeStore
	notifier *recordingNotifier
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	policy := calendar.NewPolicy(calendar.NewInMemoryRepository())
	apptRepo := appointments.NewInMemoryRepository()
	apptSvc := appointments.NewService(apptRepo, policy, nil, nil, nil, nil)

	store := &fakeStore{}
	notifier := &recordingNotifier{}
	svc := NewService(NewInMemoryRepository(apptRepo), apptSvc, store, notifier, nil, nil, ServiceConfig{})

	return &paymentFixture{apptSvc: apptSvc, payments: svc, store: store, notifier: notifier}
}

func (f *paymentFixture) book(t *testing.T, hhmm string) *appointments.Appointment {
	t.Helper()
	appt, err := f.apptSvc.Create(context.Background(), &appointments.CreateAppointmentRequest{
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

func submission(appt *appointments.Appointment) (*SubmitPaymentRequest, *Receipt) {
	req := &SubmitPaymentRequest{
		AppointmentID: appt.ID,
		Method:        "easypaisa",
		TransactionID: "TXN-884213",
		TransactionAt: appt.Date,
	}
	return req, &Receipt{Data: []byte("fake-jpeg"), ContentType: "image/jpeg"}
}

func TestSubmitThenVerifyConfirmsAppointment(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	payment, err := f.payments.Submit(context.Background(), req, receipt)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, payment.Status)
	assert.Equal(t, appt.Amount, payment.Amount)
	assert.Equal(t, "PKR", payment.Currency)
	assert.Equal(t, "Ayesha Khan", payment.ClientName)
	assert.NotEmpty(t, payment.ReceiptURL)
	assert.Equal(t, []string{payment.ID}, f.notifier.submitted)

	verified, err := f.payments.Verify(context.Background(), payment.ID, "dr.sana", "matches statement")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, verified.Status)
	assert.Equal(t, []string{payment.ID}, f.notifier.verified)

	confirmed, err := f.apptSvc.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusConfirmed, confirmed.Status)
	assert.Equal(t, appointments.PaymentVerified, confirmed.PaymentStatus)
}

func TestRejectCancelsAppointmentAndFreesSlot(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	payment, err := f.payments.Submit(context.Background(), req, receipt)
	require.NoError(t, err)

	rejected, err := f.payments.Reject(context.Background(), payment.ID, "dr.sana", "receipt unreadable")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "receipt unreadable", rejected.RejectReason)
	assert.Equal(t, []string{payment.ID}, f.notifier.rejected)

	cancelled, err := f.apptSvc.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusCancelled, cancelled.Status)
	assert.Equal(t, appointments.PaymentFailed, cancelled.PaymentStatus)

	// The cancelled appointment's slot is bookable again.
	assert.NoError(t, f.apptSvc.IsBookable(context.Background(), appt.Date, appt.Time))
}

func TestRejectReasonTooShort(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	payment, err := f.payments.Submit(context.Background(), req, receipt)
	require.NoError(t, err)

	_, err = f.payments.Reject(context.Background(), payment.ID, "dr.sana", " bad  ")
	assert.ErrorIs(t, err, ErrReasonTooShort)

	// Nothing moved.
	unchanged, err := f.payments.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, unchanged.Status)

	still, err := f.apptSvc.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusPending, still.Status)
	assert.Empty(t, f.notifier.rejected)
}

func TestVerifyTwiceIsRejected(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	payment, err := f.payments.Submit(context.Background(), req, receipt)
	require.NoError(t, err)

	_, err = f.payments.Verify(context.Background(), payment.ID, "dr.sana", "")
	require.NoError(t, err)

	_, err = f.payments.Verify(context.Background(), payment.ID, "dr.sana", "")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Len(t, f.notifier.verified, 1)
}

func TestSubmitDuplicate(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	_, err := f.payments.Submit(context.Background(), req, receipt)
	require.NoError(t, err)

	req2, receipt2 := submission(appt)
	_, err = f.payments.Submit(context.Background(), req2, receipt2)
	assert.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestSubmitUnknownAppointment(t *testing.T) {
	f := newPaymentFixture(t)

	req := &SubmitPaymentRequest{
		AppointmentID: "missing",
		Method:        "cash",
		TransactionID: "TXN-1",
		TransactionAt: calendar.NewDate(2026, time.September, 7),
	}
	_, err := f.payments.Submit(context.Background(), req, &Receipt{Data: []byte("x"), ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestSubmitInvalidMethod(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	req.Method = "bitcoin"
	_, err := f.payments.Submit(context.Background(), req, receipt)
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestSubmitMissingTransactionDate(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	req.TransactionAt = calendar.Date{}
	_, err := f.payments.Submit(context.Background(), req, receipt)
	assert.ErrorIs(t, err, ErrMissingTransactionDate)

	assert.Equal(t, 0, f.store.uploads)
	unchanged, err := f.apptSvc.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.PaymentPending, unchanged.PaymentStatus)
}

func TestSubmitBadReceipt(t *testing.T) {
	f := newPaymentFixture(t)
	appt := f.book(t, "09:00")

	req, _ := submission(appt)
	_, err := f.payments.Submit(context.Background(), req, &Receipt{Data: []byte("GIF89a"), ContentType: "image/gif"})
	assert.ErrorIs(t, err, ErrInvalidReceipt)

	_, err = f.payments.Submit(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrInvalidReceipt)
}

func TestSubmitStoreFailureLeavesNoPayment(t *testing.T) {
	f := newPaymentFixture(t)
	f.store.uploadEr = errors.New("bucket unavailable")
	appt := f.book(t, "09:00")

	req, receipt := submission(appt)
	_, err := f.payments.Submit(context.Background(), req, receipt)
	assert.ErrorIs(t, err, ErrReceiptStoreFailure)

	_, err = f.payments.GetByAppointmentID(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	untouched, err := f.apptSvc.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.PaymentPending, untouched.PaymentStatus)
	assert.Empty(t, f.notifier.submitted)
}

// staleDirectory hands back appointments that still look unpaid, forcing the
// duplicate decision down to the repository.
type staleDirectory struct {
	appts *appointments.InMemoryRepository
}

func (d *staleDirectory) GetByID(ctx context.Context, id string) (*appointments.Appointment, error) {
	appt, err := d.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	appt.PaymentID = ""
	appt.PaymentStatus = appointments.PaymentPending
	return appt, nil
}

func (d *staleDirectory) InvalidateDate(ctx context.Context, date calendar.Date) {}

func TestSubmitLostRaceCleansUpReceipt(t *testing.T) {
	apptRepo := appointments.NewInMemoryRepository()
	repo := NewInMemoryRepository(apptRepo)
	store := &fakeStore{}
	svc := NewService(repo, &staleDirectory{appts: apptRepo}, store, nil, nil, nil, ServiceConfig{})

	appt := bookAppointment(t, apptRepo, "09:00")
	_, err := repo.Create(context.Background(), paymentFor(appt))
	require.NoError(t, err)

	req, receipt := submission(appt)
	_, err = svc.Submit(context.Background(), req, receipt)
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	require.Len(t, store.deleted, 1, "the orphaned upload should be removed")
}
