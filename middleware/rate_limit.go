package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

// NewRateLimiter creates a limiter allowing r requests per second with bursts of b
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		idle:     3 * time.Minute,
	}
}

// PerMinute creates a limiter allowing n requests per minute per IP
func PerMinute(n int) *RateLimiter {
	if n < 1 {
		n = 1
	}
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

func (rl *RateLimiter) getVisitor(ip string, now time.Time) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	// forget idle clients on the way
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
		}
	}

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getVisitor(c.ClientIP(), time.Now())

		if !limiter.Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", nil)
			return
		}

		c.Next()
	}
}
