package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/usamabutt6800/mindwell-backend/internal/audit"
	"github.com/usamabutt6800/mindwell-backend/internal/observability/metrics"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

const (
	receiveBatchSize   = 10
	receiveWaitSeconds = 5
)

// AuditLog records delivery outcomes.
type AuditLog interface {
	Record(ctx context.Context, event audit.Event) error
}

// Worker drains the notification queue and delivers emails. Delivery is
// best effort: a failed send is logged and audited, never retried through
// the booking flow.
type Worker struct {
	queue      queueClient
	sender     EmailSender
	audit      AuditLog
	metrics    *metrics.NotifyMetrics
	logger     *logging.Logger
	clinicName string
	adminEmail string
}

// WorkerConfig carries the clinic identity stamped into outbound emails.
type WorkerConfig struct {
	ClinicName string
	AdminEmail string
}

// NewWorker creates a notification worker. auditLog and notifyMetrics may
// be nil.
func NewWorker(queue queueClient, sender EmailSender, auditLog AuditLog, notifyMetrics *metrics.NotifyMetrics, logger *logging.Logger, cfg WorkerConfig) *Worker {
	if queue == nil {
		panic("notify: queue required")
	}
	if sender == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = "MindWell Clinic"
	}
	return &Worker{
		queue:      queue,
		sender:     sender,
		audit:      auditLog,
		metrics:    notifyMetrics,
		logger:     logger,
		clinicName: cfg.ClinicName,
		adminEmail: cfg.AdminEmail,
	}
}

// Run drains the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		messages, err := w.queue.Receive(ctx, receiveBatchSize, receiveWaitSeconds)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error("notification receive failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		for _, msg := range messages {
			w.process(ctx, msg)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, msg queueMessage) {
	j, err := decodeJob(msg.Body)
	if err != nil {
		w.logger.Error("dropping malformed notification job", "message_id", msg.ID, "error", err)
		w.deleteMessage(ctx, msg)
		return
	}

	for _, email := range renderEmails(j, w.clinicName, w.adminEmail) {
		w.deliver(ctx, j, email)
	}
	w.deleteMessage(ctx, msg)
}

func (w *Worker) deliver(ctx context.Context, j job, email EmailMessage) {
	start := time.Now()
	err := w.sender.Send(ctx, email)
	w.metrics.ObserveSendDuration(string(j.Kind), time.Since(start).Seconds())

	eventType := audit.EventEmailSent
	if err != nil {
		eventType = audit.EventEmailFailed
		w.metrics.ObserveSend(string(j.Kind), "error")
		w.logger.Error("notification send failed", "kind", j.Kind, "to", email.To, "error", err)
	} else {
		w.metrics.ObserveSend(string(j.Kind), "sent")
	}

	event := audit.Event{
		EventType: eventType,
		Kind:      string(j.Kind),
		Recipient: email.To,
	}
	if j.Appointment != nil {
		event.AppointmentID = j.Appointment.ID
	}
	if j.Payment != nil {
		event.PaymentID = j.Payment.ID
	}
	if details, marshalErr := json.Marshal(map[string]string{"subject": email.Subject}); marshalErr == nil {
		event.Details = details
	}
	if w.audit != nil {
		if auditErr := w.audit.Record(ctx, event); auditErr != nil {
			w.logger.Error("notification audit record failed", "kind", j.Kind, "error", auditErr)
		}
	}
}

func (w *Worker) deleteMessage(ctx context.Context, msg queueMessage) {
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("notification delete failed", "message_id", msg.ID, "error", err)
	}
}
