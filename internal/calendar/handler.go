package calendar

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// Handler handles HTTP requests for calendar settings
type Handler struct {
	policy *Policy
	repo   Repository
	logger *logging.Logger

	// onChange is called after any setting write, e.g. to invalidate a
	// cached slot computation for that date. Optional.
	onChange func(date Date)
}

// NewHandler creates a new calendar handler
func NewHandler(policy *Policy, repo Repository, logger *logging.Logger, onChange func(date Date)) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		policy:   policy,
		repo:     repo,
		logger:   logger,
		onChange: onChange,
	}
}

// ResolveRangeResponse is the response for the calendar range endpoint.
type ResolveRangeResponse struct {
	Days  []*Resolution `json:"days"`
	Count int           `json:"count"`
}

// ResolveRange handles GET /calendar?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) ResolveRange(w http.ResponseWriter, r *http.Request) {
	start, err := ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "invalid start date", http.StatusBadRequest)
		return
	}
	end := start
	if raw := r.URL.Query().Get("end"); raw != "" {
		if end, err = ParseDate(raw); err != nil {
			http.Error(w, "invalid end date", http.StatusBadRequest)
			return
		}
	}

	days, err := h.policy.ResolveRange(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrInvalidDate) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to resolve calendar range", "error", err, "start", start, "end", end)
		http.Error(w, "failed to resolve calendar", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ResolveRangeResponse{Days: days, Count: len(days)})
}

// UpsertSetting handles PUT /admin/calendar/{date}
func (h *Handler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	var req UpsertSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode setting request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Date = date

	setting, err := h.repo.Upsert(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to upsert calendar setting", "error", err, "date", date)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("calendar setting saved", "date", date, "available", setting.IsAvailable)
	h.notifyChange(date)
	writeJSON(w, http.StatusOK, setting)
}

// BulkUpsertResponse reports the dates written by a bulk update.
type BulkUpsertResponse struct {
	Settings []*Setting `json:"settings"`
	Count    int        `json:"count"`
}

// BulkUpsert handles PUT /admin/calendar/bulk
func (h *Handler) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	var req BulkUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode bulk setting request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	settings := make([]*Setting, 0, len(req.Dates))
	for _, date := range req.Dates {
		setting, err := h.repo.Upsert(r.Context(), &UpsertSettingRequest{
			Date:            date,
			IsAvailable:     req.IsAvailable,
			Reason:          req.Reason,
			Hours:           req.Hours,
			MaxAppointments: req.MaxAppointments,
		})
		if err != nil {
			h.logger.Error("bulk upsert failed", "error", err, "date", date)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		settings = append(settings, setting)
		h.notifyChange(date)
	}

	h.logger.Info("calendar settings bulk saved", "count", len(settings))
	writeJSON(w, http.StatusOK, BulkUpsertResponse{Settings: settings, Count: len(settings)})
}

func (h *Handler) notifyChange(date Date) {
	if h.onChange != nil {
		h.onChange(date)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
