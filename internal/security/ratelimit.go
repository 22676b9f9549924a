package security

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter limits submissions per client IP with a token bucket per address
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	onReject func(c *gin.Context)
}

// NewIPRateLimiter allows perMinute requests per IP with a burst of half that (minimum 5)
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	burst := perMinute / 2
	if burst < 5 {
		burst = 5
	}
	return &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

// OnReject sets the handler that writes the rejection response
func (l *IPRateLimiter) OnReject(fn func(c *gin.Context)) *IPRateLimiter {
	l.onReject = fn
	return l
}

// Allow reports whether ip may make another request now
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// Middleware rejects requests from IPs that exhausted their bucket
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		if l.onReject != nil {
			l.onReject(c)
		}
		c.Abort()
	}
}

// Cleanup drops limiters whose bucket has refilled, bounding memory
func (l *IPRateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, limiter := range l.limiters {
		if limiter.Tokens() >= float64(l.burst) {
			delete(l.limiters, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed
func (l *IPRateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
