package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const idleTTL = time.Hour

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// New builds a limiter allowing perMinute requests per IP with the given burst.
// A non-positive perMinute disables limiting.
func New(perMinute, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &Limiter{
		limiters: make(map[string]*entry),
		rate:     limit,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the key may proceed and evicts idle buckets.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastAccess = now
	for k, other := range l.limiters {
		if now.Sub(other.lastAccess) > idleTTL {
			delete(l.limiters, k)
		}
	}
	limiter := e.limiter
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "60")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, try again later"})
	}
}
