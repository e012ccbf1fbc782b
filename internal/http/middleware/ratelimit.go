package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Callers that go quiet for this long lose their bucket on the next sweep.
const visitorIdleTTL = 10 * time.Minute

// RateLimiter throttles booking traffic per client address with a token
// bucket. Stale entries are swept inline during Allow, so the limiter owns no
// background goroutine and can be garbage collected with its router.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perSec    float64
	burst     float64
	lastSweep time.Time
	now       func() time.Time // test seam
}

type visitor struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter creates a limiter refilling perSec tokens per second up to
// burst per client address.
func NewRateLimiter(perSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		perSec:    perSec,
		burst:     float64(burst),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether a request from addr is within the limit and consumes
// a token when it is.
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > visitorIdleTTL {
		rl.sweepLocked(now)
	}

	v, ok := rl.visitors[addr]
	if !ok {
		v = &visitor{tokens: rl.burst, seen: now}
		rl.visitors[addr] = v
	}

	v.tokens += now.Sub(v.seen).Seconds() * rl.perSec
	if v.tokens > rl.burst {
		v.tokens = rl.burst
	}
	v.seen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// sweepLocked drops visitors idle past the TTL. Caller holds mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-visitorIdleTTL)
	for addr, v := range rl.visitors {
		if v.seen.Before(cutoff) {
			delete(rl.visitors, addr)
		}
	}
	rl.lastSweep = now
}

// retryAfter estimates whole seconds until the next token accrues.
func (rl *RateLimiter) retryAfter() string {
	if rl.perSec <= 0 {
		return "1"
	}
	secs := int(1/rl.perSec + 0.5)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP resolves the caller's address, preferring X-Real-Ip set by chi's
// RealIP middleware over the raw connection address.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit returns an HTTP middleware that rejects requests exceeding the
// configured rate with 429 Too Many Requests and a Retry-After hint.
func RateLimit(perSec float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(perSec, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", limiter.retryAfter())
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
