package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/usamabutt6800/mindwell-backend/internal/api/router"
	"github.com/usamabutt6800/mindwell-backend/internal/app/bootstrap"
	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	"github.com/usamabutt6800/mindwell-backend/internal/audit"
	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	appconfig "github.com/usamabutt6800/mindwell-backend/internal/config"
	"github.com/usamabutt6800/mindwell-backend/internal/contact"
	"github.com/usamabutt6800/mindwell-backend/internal/observability/metrics"
	"github.com/usamabutt6800/mindwell-backend/internal/payments"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

func main() {
	bootstrap.LoadEnv(nil)

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting mindwell booking API",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	paymentMetrics := metrics.NewPaymentMetrics(registry)
	notifyMetrics := metrics.NewNotifyMetrics(registry)

	awsCfg, err := bootstrap.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Storage: Postgres when configured, in-memory otherwise.
	pool, err := bootstrap.BuildPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	var (
		calendarRepo    calendar.Repository
		appointmentRepo appointments.Repository
		paymentRepo     payments.Repository
		contactRepo     contact.Repository
	)
	if pool != nil {
		defer pool.Close()
		calendarRepo = calendar.NewPostgresRepository(pool)
		appointmentRepo = appointments.NewPostgresRepository(pool)
		paymentRepo = payments.NewPostgresRepository(pool)
		contactRepo = contact.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		memAppointments := appointments.NewInMemoryRepository()
		calendarRepo = calendar.NewInMemoryRepository()
		appointmentRepo = memAppointments
		paymentRepo = payments.NewInMemoryRepository(memAppointments)
		contactRepo = contact.NewInMemoryRepository()
	}

	auditService := audit.NewService(bootstrap.BuildAuditDB(cfg, logger))

	// Notifications
	emailSender := bootstrap.BuildEmailSender(awsCfg, cfg, logger)
	notifyService, notifyWorker := bootstrap.BuildNotifyStack(awsCfg, cfg, emailSender, auditService, notifyMetrics, logger)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	for i := 0; i < cfg.NotifyWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			notifyWorker.Run(workerCtx)
		}()
	}

	// Domain services
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	slotsCache := bootstrap.BuildSlotsCache(redisClient, cfg, logger)

	policy := calendar.NewPolicy(calendarRepo)
	appointmentService := appointments.NewService(appointmentRepo, policy, slotsCache, notifyService, bookingMetrics, logger)

	var receiptStore payments.ReceiptStore
	if store := bootstrap.BuildReceiptStore(awsCfg, cfg, logger); store != nil {
		receiptStore = store
	} else {
		logger.Warn("RECEIPT_BUCKET not set, payment submissions will be rejected")
	}
	paymentService := payments.NewService(paymentRepo, appointmentService, receiptStore, notifyService, paymentMetrics, logger, payments.ServiceConfig{
		Currency:      cfg.Currency,
		UploadTimeout: cfg.ReceiptUploadTimeout,
	})

	// Initialize handlers
	appointmentsHandler := appointments.NewHandler(appointmentService, logger)
	paymentsHandler := payments.NewHandler(paymentService, logger)
	calendarHandler := calendar.NewHandler(policy, calendarRepo, logger, func(date calendar.Date) {
		appointmentService.InvalidateDate(ctx, date)
	})
	contactHandler := contact.NewHandler(contactRepo, notifyService, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: appointmentsHandler,
		PaymentsHandler:     paymentsHandler,
		CalendarHandler:     calendarHandler,
		ContactHandler:      contactHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSOrigins,
		RateLimitPerSec:     cfg.RateLimitPerSec,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let the notification workers drain in-flight jobs.
	stopWorkers()
	workers.Wait()

	logger.Info("server stopped")
}
