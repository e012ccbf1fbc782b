package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
)

func newPaymentsRouter(f *paymentFixture) http.Handler {
	h := NewHandler(f.payments, nil)
	r := chi.NewRouter()
	r.Post("/payments", h.Submit)
	r.Get("/payments/methods", h.ListMethods)
	r.Get("/admin/payments", h.List)
	r.Get("/admin/payments/{paymentID}", h.Get)
	r.Post("/admin/payments/{paymentID}/verify", h.Verify)
	r.Post("/admin/payments/{paymentID}/reject", h.Reject)
	return r
}

func multipartSubmission(t *testing.T, appt *appointments.Appointment, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"appointment_id":   appt.ID,
		"payment_method":   "easypaisa",
		"transaction_id":   "TXN-884213",
		"transaction_date": appt.Date.String(),
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="receipt"; filename="receipt.jpg"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-receipt-bytes"))
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestHandlerSubmit(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)
	appt := f.book(t, "09:00")

	body, contentType := multipartSubmission(t, appt, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/payments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payment Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	assert.Equal(t, appt.ID, payment.AppointmentID)
	assert.Equal(t, StatusPending, payment.Status)
	assert.NotEmpty(t, payment.ReceiptURL)
}

func TestHandlerSubmitDuplicateConflicts(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)
	appt := f.book(t, "09:00")

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		body, contentType := multipartSubmission(t, appt, "image/jpeg")
		req := httptest.NewRequest(http.MethodPost, "/payments", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, "attempt %d: %s", i, rec.Body.String())
	}
}

func TestHandlerSubmitRejectsBadReceipt(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)
	appt := f.book(t, "09:00")

	body, contentType := multipartSubmission(t, appt, "image/gif")
	req := httptest.NewRequest(http.MethodPost, "/payments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSubmitMissingReceipt(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)
	appt := f.book(t, "09:00")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("appointment_id", appt.ID))
	require.NoError(t, writer.WriteField("payment_method", "easypaisa"))
	require.NoError(t, writer.WriteField("transaction_id", "TXN-1"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/payments", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSubmitUnknownAppointment(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)

	ghost := &appointments.Appointment{ID: "missing"}
	body, contentType := multipartSubmission(t, ghost, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/payments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerListMethods(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/payments/methods", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MethodsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Methods, len(Methods))
	codes := make([]string, 0, len(resp.Methods))
	for _, m := range resp.Methods {
		codes = append(codes, m.Code)
	}
	assert.Contains(t, codes, "easypaisa")
	assert.Contains(t, codes, "jazzcash")
	assert.Contains(t, codes, "bank_transfer")
	assert.Contains(t, codes, "cash")
}

func submitViaService(t *testing.T, f *paymentFixture, appt *appointments.Appointment) *Payment {
	t.Helper()
	req, receipt := submission(appt)
	payment, err := f.payments.Submit(context.Background(), req, receipt)
	require.NoError(t, err)
	return payment
}

func TestHandlerVerify(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)
	appt := f.book(t, "09:00")
	payment := submitViaService(t, f, appt)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/admin/payments/%s/verify", payment.ID),
		strings.NewReader(`{"notes":"matches statement"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var verified Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.Equal(t, StatusVerified, verified.Status)

	// Second verify conflicts.
	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/admin/payments/%s/verify", payment.ID), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerReject(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)
	appt := f.book(t, "09:00")
	payment := submitViaService(t, f, appt)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/admin/payments/%s/reject", payment.ID),
		strings.NewReader(`{"reason":"bad"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "short reason must be rejected")

	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/admin/payments/%s/reject", payment.ID),
		strings.NewReader(`{"reason":"receipt unreadable"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rejected Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "receipt unreadable", rejected.RejectReason)
}

func TestHandlerGetAndList(t *testing.T) {
	f := newPaymentFixture(t)
	router := newPaymentsRouter(f)
	appt := f.book(t, "09:00")
	payment := submitViaService(t, f, appt)

	req := httptest.NewRequest(http.MethodGet, "/admin/payments/"+payment.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/payments/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/payments?status=pending", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}
