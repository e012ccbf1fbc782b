// Package bootstrap wires optional infrastructure (Postgres, Redis, AWS)
// from configuration so the binaries share the same construction logic.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/usamabutt6800/mindwell-backend/internal/appointments"
	appconfig "github.com/usamabutt6800/mindwell-backend/internal/config"
	"github.com/usamabutt6800/mindwell-backend/internal/receipts"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// LoadEnv loads a local .env file when present. Missing files are fine in
// production where configuration comes from the environment directly.
func LoadEnv(logger *logging.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}
}

// BuildPool opens a pgx connection pool, or returns nil when no database is
// configured so the caller can fall back to in-memory repositories.
func BuildPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("connected to postgres")
	}
	return pool, nil
}

// BuildAuditDB opens a database/sql handle for the audit trail. The audit
// service tolerates a nil handle, so failures here only disable auditing.
func BuildAuditDB(cfg *appconfig.Config, logger *logging.Logger) *sql.DB {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Warn("audit database unavailable", "error", err)
		return nil
	}
	return db
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSlotsCache returns the Redis-backed slot cache when Redis is available.
func BuildSlotsCache(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) *appointments.SlotsCache {
	if redisClient == nil || cfg == nil {
		return nil
	}
	return appointments.NewSlotsCache(redisClient, cfg.SlotCacheTTL, logger)
}

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				switch service {
				case sqs.ServiceID, s3.ServiceID, sesv2.ServiceID:
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				default:
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				}
			},
		)
	}

	return awsCfg, nil
}

// BuildReceiptStore returns the S3-backed receipt store, or nil when no
// bucket is configured. Payments cannot be submitted without a store.
func BuildReceiptStore(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) *receipts.Store {
	if cfg == nil || strings.TrimSpace(cfg.ReceiptBucket) == "" {
		return nil
	}
	return receipts.NewStore(s3.NewFromConfig(awsCfg), cfg.ReceiptBucket, cfg.ReceiptBaseURL, logger)
}
