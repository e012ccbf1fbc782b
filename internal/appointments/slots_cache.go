package appointments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// SlotsCache is a read-through Redis cache of available slots per date.
// Misses and Redis failures fall back to recomputing; the cache never
// decides availability on its own.
type SlotsCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
	tracer trace.Tracer
}

// NewSlotsCache creates a cache with the given TTL.
func NewSlotsCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *SlotsCache {
	if client == nil {
		panic("appointments: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SlotsCache{
		redis:  client,
		ttl:    ttl,
		logger: logger,
		tracer: otel.Tracer("mindwell.internal.appointments.slots_cache"),
	}
}

// Get returns the cached slot list for date; ok is false on miss or error.
func (c *SlotsCache) Get(ctx context.Context, date calendar.Date) ([]string, bool) {
	ctx, span := c.tracer.Start(ctx, "appointments.slots_cache.get")
	defer span.End()

	data, err := c.redis.Get(ctx, slotsKey(date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			span.RecordError(err)
			c.logger.Warn("slots cache read failed", "error", err, "date", date)
		}
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		span.RecordError(err)
		c.logger.Warn("slots cache entry corrupt", "error", err, "date", date)
		return nil, false
	}
	return slots, true
}

// Set stores the slot list for date. Failures are logged, never returned.
func (c *SlotsCache) Set(ctx context.Context, date calendar.Date, slots []string) {
	ctx, span := c.tracer.Start(ctx, "appointments.slots_cache.set")
	defer span.End()

	if slots == nil {
		slots = []string{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		span.RecordError(err)
		return
	}
	if err := c.redis.Set(ctx, slotsKey(date), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("slots cache write failed", "error", err, "date", date)
	}
}

// Invalidate drops the cached list for date. Called after any write that
// can change availability: create, update, delete, calendar override.
func (c *SlotsCache) Invalidate(ctx context.Context, date calendar.Date) {
	ctx, span := c.tracer.Start(ctx, "appointments.slots_cache.invalidate")
	defer span.End()

	if err := c.redis.Del(ctx, slotsKey(date)).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("slots cache invalidate failed", "error", err, "date", date)
	}
}

func slotsKey(date calendar.Date) string {
	return "slots:" + date.String()
}
