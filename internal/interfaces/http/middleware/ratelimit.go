package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ToxInsight/pkg/errors"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"

	defaultIdleTTL = 10 * time.Minute
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// KeyFunc extracts the limiter key. Defaults to the client IP.
	KeyFunc func(c *gin.Context) string
	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL time.Duration
}

// Enabled reports whether the limiter should be installed.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per client key.
type ClientLimiter struct {
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewClientLimiter builds a limiter allowing rps sustained requests and
// bursts of burst per key.
func NewClientLimiter(rps float64, burst int, idleTTL time.Duration) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &ClientLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow consumes one token for key. When the bucket is empty it returns the
// delay until the next token.
func (l *ClientLimiter) Allow(key string) (ok bool, remaining int, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	v, found := l.visitors[key]
	if !found {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int(math.Max(0, math.Floor(v.limiter.TokensAt(now)))), 0
}

// Len returns the number of tracked clients.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// sweep drops idle buckets at most once per idleTTL. Callers hold l.mu.
func (l *ClientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, k)
		}
	}
}

// RateLimit rejects requests above the per-client budget with 429.
func RateLimit(cfg RateLimitConfig, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	if !cfg.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	keyFn := cfg.KeyFunc
	if keyFn == nil {
		keyFn = func(c *gin.Context) string { return c.ClientIP() }
	}
	limiter := NewClientLimiter(cfg.RequestsPerSecond, cfg.Burst, cfg.IdleTTL)
	limitHeader := strconv.Itoa(limiter.burst)

	return func(c *gin.Context) {
		ok, remaining, retryAfter := limiter.Allow(keyFn(c))
		c.Header(HeaderRateLimitLimit, limitHeader)
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(remaining))
		if ok {
			c.Next()
			return
		}

		secs := int(math.Ceil(retryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header(HeaderRetryAfter, strconv.Itoa(secs))
		prometheus.RecordError(metrics, "http", errors.ErrCodeTooManyRequests.String())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Error:     "rate limit exceeded",
			Code:      errors.ErrCodeTooManyRequests.String(),
			RequestID: GetRequestID(c),
		})
	}
}

//Personal.AI order the ending
