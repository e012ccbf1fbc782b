// Package router assembles the HTTP surface of the booking service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/internal/contact"
	httpmiddleware "github.com/usamabutt6800/mindwell-backend/internal/http/middleware"
	"github.com/usamabutt6800/mindwell-backend/internal/payments"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	PaymentsHandler     *payments.Handler
	CalendarHandler     *calendar.Handler
	ContactHandler      *contact.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
	RateLimitPerSec     float64
	RateLimitBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		if cfg.RateLimitPerSec > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}

		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.AppointmentsHandler != nil {
			public.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Get("/slots", cfg.AppointmentsHandler.AvailableSlots)
				r.Get("/availability", cfg.AppointmentsHandler.CheckAvailability)
			})
		}
		if cfg.PaymentsHandler != nil {
			public.Route("/payments", func(r chi.Router) {
				r.Post("/", cfg.PaymentsHandler.Submit)
				r.Get("/methods", cfg.PaymentsHandler.ListMethods)
			})
		}
		if cfg.CalendarHandler != nil {
			public.Get("/calendar", cfg.CalendarHandler.ResolveRange)
		}
		if cfg.ContactHandler != nil {
			public.Post("/contact", cfg.ContactHandler.Create)
		}
	})

	// Admin endpoints behind JWT auth
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		if cfg.AppointmentsHandler != nil {
			admin.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Get("/{appointmentID}", cfg.AppointmentsHandler.Get)
				r.Patch("/{appointmentID}", cfg.AppointmentsHandler.Update)
				r.Delete("/{appointmentID}", cfg.AppointmentsHandler.Delete)
			})
		}
		if cfg.PaymentsHandler != nil {
			admin.Route("/payments", func(r chi.Router) {
				r.Get("/", cfg.PaymentsHandler.List)
				r.Get("/{paymentID}", cfg.PaymentsHandler.Get)
				r.Post("/{paymentID}/verify", cfg.PaymentsHandler.Verify)
				r.Post("/{paymentID}/reject", cfg.PaymentsHandler.Reject)
			})
		}
		if cfg.CalendarHandler != nil {
			admin.Route("/calendar", func(r chi.Router) {
				r.Get("/", cfg.CalendarHandler.ResolveRange)
				r.Put("/bulk", cfg.CalendarHandler.BulkUpsert)
				r.Put("/{date}", cfg.CalendarHandler.UpsertSetting)
			})
		}
		if cfg.ContactHandler != nil {
			admin.Route("/contact", func(r chi.Router) {
				r.Get("/", cfg.ContactHandler.List)
				r.Get("/{messageID}", cfg.ContactHandler.Get)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
