package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"carepilot/internal/config"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiters holds one token bucket per client IP.
type ClientLimiters struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

// NewClientLimiters creates per-client buckets refilled at rps with the given
// burst.
func NewClientLimiters(cfg config.RateLimitConfig) *ClientLimiters {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ClientLimiters{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(cfg.RPS),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now.
func (l *ClientLimiters) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > time.Minute {
		for k, cl := range l.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastPrune = now
	}

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// RetryAfter is the wait, in whole seconds, for one token to refill.
func (l *ClientLimiters) RetryAfter() int {
	if l.limit <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(l.limit)))
}

// RateLimit rejects requests beyond the client's bucket with 429 and a
// Retry-After header. A non-positive rate disables limiting.
func RateLimit(limiters *ClientLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiters == nil || limiters.limit <= 0 {
			c.Next()
			return
		}
		if !limiters.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(limiters.RetryAfter()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"code": "RATE_LIMITED", "message": "too many requests; retry later"},
			})
			return
		}
		c.Next()
	}
}
