package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/internal/http/middleware"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// maxSubmitBody bounds the whole multipart submission: the receipt limit
// plus headroom for the metadata fields.
const maxSubmitBody = MaxReceiptSize + 64<<10

// Handler handles HTTP requests for payments
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new payments handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Submit handles POST /payments. The request is multipart/form-data with
// the metadata as form fields and the receipt under the "receipt" file key.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	if err := r.ParseMultipartForm(maxSubmitBody); err != nil {
		http.Error(w, "invalid multipart request", http.StatusBadRequest)
		return
	}

	req := SubmitPaymentRequest{
		AppointmentID: r.FormValue("appointment_id"),
		Method:        r.FormValue("payment_method"),
		TransactionID: r.FormValue("transaction_id"),
	}
	if raw := r.FormValue("transaction_date"); raw != "" {
		date, err := calendar.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid transaction date", http.StatusBadRequest)
			return
		}
		req.TransactionAt = date
	}
	if raw := r.FormValue("amount"); raw != "" {
		amount, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		req.Amount = amount
	}

	receipt, err := readReceipt(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payment, err := h.service.Submit(r.Context(), &req, receipt)
	if err != nil {
		h.logger.Error("payment submission failed", "error", err, "appointment_id", req.AppointmentID)
		http.Error(w, err.Error(), submitErrorStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

func readReceipt(r *http.Request) (*Receipt, error) {
	file, header, err := r.FormFile("receipt")
	if err != nil {
		return nil, ErrInvalidReceipt
	}
	defer file.Close()

	if header.Size > MaxReceiptSize {
		return nil, ErrInvalidReceipt
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxReceiptSize+1))
	if err != nil {
		return nil, ErrInvalidReceipt
	}
	return &Receipt{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

// MethodsResponse lists the accepted payment methods.
type MethodsResponse struct {
	Methods []Method `json:"methods"`
}

// ListMethods handles GET /payments/methods
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MethodsResponse{Methods: Methods})
}

// ListResponse is the response for listing payments
type ListResponse struct {
	Payments []*Payment `json:"payments"`
	Count    int        `json:"count"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

// List handles GET /admin/payments
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

	pays, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list payments", "error", err)
		http.Error(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	if pays == nil {
		pays = []*Payment{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Payments: pays,
		Count:    len(pays),
		Offset:   filter.Offset,
		Limit:    filter.Limit,
	})
}

// Get handles GET /admin/payments/{paymentID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")
	payment, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch payment", "error", err, "id", id)
		http.Error(w, "failed to fetch payment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// ReviewRequest carries the admin's optional notes on a verification or the
// mandatory reason on a rejection.
type ReviewRequest struct {
	Notes  string `json:"notes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Verify handles POST /admin/payments/{paymentID}/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")

	var req ReviewRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	payment, err := h.service.Verify(r.Context(), id, adminActor(r), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrAlreadyVerified), errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to verify payment", "error", err, "id", id)
			http.Error(w, "failed to verify payment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// Reject handles POST /admin/payments/{paymentID}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.service.Reject(r.Context(), id, adminActor(r), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrReasonTooShort):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to reject payment", "error", err, "id", id)
			http.Error(w, "failed to reject payment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func submitErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicatePayment):
		return http.StatusConflict
	case errors.Is(err, ErrReceiptStoreFailure):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrMissingTransactionID),
		errors.Is(err, ErrMissingTransactionDate),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidReceipt):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// adminActor resolves who performed an admin action from the authenticated
// subject the middleware stashed on the request.
func adminActor(r *http.Request) string {
	if subject := middleware.AdminSubject(r.Context()); subject != "" {
		return subject
	}
	return "admin"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
