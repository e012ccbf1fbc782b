package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/internal/contact"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	calRepo := calendar.NewInMemoryRepository()
	policy := calendar.NewPolicy(calRepo)
	apptSvc := appointments.NewService(appointments.NewInMemoryRepository(), policy, nil, nil, nil, nil)

	return New(&Config{
		AppointmentsHandler: appointments.NewHandler(apptSvc, nil),
		CalendarHandler:     calendar.NewHandler(policy, calRepo, nil, nil),
		ContactHandler:      contact.NewHandler(contact.NewInMemoryRepository(), nil, nil),
		AdminAuthSecret:     "test-secret",
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "dr.sana",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestPublicSlotsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/appointments/slots?date=2026-09-07", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "09:00")
}

func TestPublicBookingEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body := `{"client_name":"Ayesha Khan","client_email":"ayesha@example.com","client_phone":"+923001234567",` +
		`"appointment_date":"2026-09-07","appointment_time":"09:00","service_type":"initial_consultation"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminCalendarUpsert(t *testing.T) {
	router := newTestRouter(t)

	body := `{"is_available":false,"reason":"Eid holiday"}`
	req := httptest.NewRequest(http.MethodPut, "/admin/calendar/2026-09-07", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The closure shows up on the public calendar.
	req = httptest.NewRequest(http.MethodGet, "/calendar?start=2026-09-07&end=2026-09-07", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Eid holiday")
}

func TestPublicContactEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"Bilal Ahmed","email":"bilal@example.com","message":"Do you offer online sessions?"}`
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
