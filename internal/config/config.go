package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	DatabaseURL   string

	ClinicName      string
	AdminEmail      string
	AdminJWTSecret  string
	CORSOrigins     []string
	RateLimitPerSec float64
	RateLimitBurst  int

	// Booking defaults
	AppointmentAmount     int
	Currency              string
	MaxAppointmentsPerDay int

	// Notification dispatch
	EmailProvider    string
	UseMemoryQueue   bool
	NotifyQueueURL   string
	NotifyWorkers    int
	SendGridAPIKey   string
	SendGridFrom     string
	SendGridFromName string

	// Receipt storage
	ReceiptBucket        string
	ReceiptBaseURL       string
	ReceiptUploadTimeout time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SlotCacheTTL  time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		ClinicName:      getEnv("CLINIC_NAME", "MindWell"),
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		AdminJWTSecret:  getEnv("ADMIN_JWT_SECRET", ""),
		CORSOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerSec: getEnvAsFloat("RATE_LIMIT_PER_SEC", 5),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),

		AppointmentAmount:     getEnvAsInt("APPOINTMENT_AMOUNT", 3000),
		Currency:              getEnv("CURRENCY", "PKR"),
		MaxAppointmentsPerDay: getEnvAsInt("MAX_APPOINTMENTS_PER_DAY", 8),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		UseMemoryQueue:   getEnvAsBool("USE_MEMORY_QUEUE", false),
		NotifyQueueURL:   getEnv("NOTIFY_QUEUE_URL", ""),
		NotifyWorkers:    getEnvAsInt("NOTIFY_WORKER_COUNT", 2),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		SendGridFrom:     getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName: getEnv("SENDGRID_FROM_NAME", "MindWell"),

		ReceiptBucket:        getEnv("RECEIPT_BUCKET", ""),
		ReceiptBaseURL:       getEnv("RECEIPT_BASE_URL", ""),
		ReceiptUploadTimeout: getEnvAsDuration("RECEIPT_UPLOAD_TIMEOUT", 15*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SlotCacheTTL:  getEnvAsDuration("SLOT_CACHE_TTL", 60*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
