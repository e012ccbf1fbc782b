package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode appointment request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create appointment", "error", err, "date", req.Date, "time", req.Time)
		http.Error(w, err.Error(), bookingErrorStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// AvailableSlotsResponse lists the free slots for a date.
type AvailableSlotsResponse struct {
	Date  calendar.Date `json:"date"`
	Slots []string      `json:"slots"`
}

// AvailableSlots handles GET /appointments/slots?date=YYYY-MM-DD
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to compute slots", "error", err, "date", date)
		http.Error(w, "failed to compute slots", http.StatusInternalServerError)
		return
	}
	if slots == nil {
		slots = []string{}
	}

	writeJSON(w, http.StatusOK, AvailableSlotsResponse{Date: date, Slots: slots})
}

// CheckAvailabilityResponse reports whether one slot can be booked.
type CheckAvailabilityResponse struct {
	Date      calendar.Date `json:"date"`
	Time      string        `json:"time"`
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
}

// CheckAvailability handles GET /appointments/availability?date=...&time=...
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	hhmm := r.URL.Query().Get("time")
	if _, err := calendar.MinuteOfDay(hhmm); err != nil {
		http.Error(w, "invalid time", http.StatusBadRequest)
		return
	}

	resp := CheckAvailabilityResponse{Date: date, Time: hhmm, Available: true}
	if err := h.service.IsBookable(r.Context(), date, hhmm); err != nil {
		if !isBookingError(err) {
			h.logger.Error("availability check failed", "error", err, "date", date)
			http.Error(w, "availability check failed", http.StatusInternalServerError)
			return
		}
		resp.Available = false
		resp.Reason = err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListResponse is the response for listing appointments
type ListResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
	Offset       int            `json:"offset"`
	Limit        int            `json:"limit"`
}

// List handles GET /admin/appointments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !ValidStatus(Status(status)) {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		filter.Status = Status(status)
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := calendar.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		filter.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := calendar.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		filter.To = to
	}

	appts, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Appointments: appts,
		Count:        len(appts),
		Offset:       filter.Offset,
		Limit:        filter.Limit,
	})
}

// Get handles GET /admin/appointments/{appointmentID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	appt, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch appointment", "error", err, "id", id)
		http.Error(w, "failed to fetch appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update handles PATCH /admin/appointments/{appointmentID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrEmptyUpdate):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update appointment", "error", err, "id", id)
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /admin/appointments/{appointmentID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete appointment", "error", err, "id", id)
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bookingErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return http.StatusConflict
	case isBookingError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrMissingContact),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidServiceType),
		errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isBookingError(err error) bool {
	return errors.Is(err, ErrSlotUnavailable) ||
		errors.Is(err, ErrSlotOutsideHours) ||
		errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrCapacityExceeded)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
