package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// Notifier alerts the clinic about a new inquiry. Implementations must not
// block the caller.
type Notifier interface {
	ContactMessageReceived(ctx context.Context, msg *Message)
}

// Handler handles HTTP requests for contact messages
type Handler struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger
}

// NewHandler creates a new contact handler. notifier may be nil.
func NewHandler(repo Repository, notifier Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

// Create handles POST /contact
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName),
			errors.Is(err, ErrMissingContact),
			errors.Is(err, ErrEmptyMessage):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to store contact message", "error", err)
			http.Error(w, "failed to store message", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("contact message received", "id", msg.ID, "name", msg.Name)
	if h.notifier != nil {
		h.notifier.ContactMessageReceived(r.Context(), msg)
	}

	writeJSON(w, http.StatusCreated, msg)
}

// ListResponse is the response for listing contact messages
type ListResponse struct {
	Messages []*Message `json:"messages"`
	Count    int        `json:"count"`
}

// List handles GET /admin/contact
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := 50, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	messages, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list contact messages", "error", err)
		http.Error(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*Message{}
	}

	writeJSON(w, http.StatusOK, ListResponse{Messages: messages, Count: len(messages)})
}

// Get handles GET /admin/contact/{messageID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "messageID")
	msg, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch contact message", "error", err, "id", id)
		http.Error(w, "failed to fetch message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
