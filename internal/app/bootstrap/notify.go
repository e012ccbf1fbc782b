package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/usamabutt6800/mindwell-backend/internal/config"
	"github.com/usamabutt6800/mindwell-backend/internal/notify"
	"github.com/usamabutt6800/mindwell-backend/internal/observability/metrics"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

const memoryQueueBuffer = 128

// BuildEmailSender selects the email provider from configuration. SendGrid
// wins when a key is present, then SES, then a logging stub for development.
func BuildEmailSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}

	from := notify.Identity{
		Email: cfg.SendGridFrom,
		Name:  cfg.SendGridFromName,
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(cfg.SendGridAPIKey, from, logger); sender != nil {
			return sender
		}
	case "ses":
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), from, logger); sender != nil {
			return sender
		}
	case "stub":
		// fall through to the stub below
	default: // auto
		if sender := notify.NewSendGridSender(cfg.SendGridAPIKey, from, logger); sender != nil {
			logger.Info("email provider selected", "provider", "sendgrid")
			return sender
		}
		if cfg.SendGridFrom != "" {
			logger.Info("email provider selected", "provider", "ses")
			return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), from, logger)
		}
	}

	logger.Warn("no email provider configured, using stub sender")
	return notify.NewStubEmailSender(logger)
}

// BuildNotifyStack constructs the notification publisher and its worker over
// a shared queue. An SQS queue is used when a queue URL is configured and the
// memory queue is not forced; otherwise jobs flow through an in-process
// channel, which is lost on restart but fine for development.
func BuildNotifyStack(
	awsCfg aws.Config,
	cfg *appconfig.Config,
	sender notify.EmailSender,
	auditLog notify.AuditLog,
	notifyMetrics *metrics.NotifyMetrics,
	logger *logging.Logger,
) (*notify.Service, *notify.Worker) {
	workerCfg := notify.WorkerConfig{
		ClinicName: cfg.ClinicName,
		AdminEmail: cfg.AdminEmail,
	}

	if cfg.UseMemoryQueue || cfg.NotifyQueueURL == "" {
		if logger != nil {
			logger.Info("notification queue", "mode", "memory")
		}
		queue := notify.NewMemoryQueue(memoryQueueBuffer)
		return notify.NewService(queue, logger),
			notify.NewWorker(queue, sender, auditLog, notifyMetrics, logger, workerCfg)
	}

	if logger != nil {
		logger.Info("notification queue", "mode", "sqs", "url", cfg.NotifyQueueURL)
	}
	queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
	return notify.NewService(queue, logger),
		notify.NewWorker(queue, sender, auditLog, notifyMetrics, logger, workerCfg)
}
