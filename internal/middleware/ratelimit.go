package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter applies a fixed-window per-client-IP request limit. Intended for
// the OTP request endpoint where unbounded retries would turn email delivery
// into a spam vector.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow

	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter builds a limiter allowing limit requests per window per client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Middleware returns the gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win, ok := l.windows[key]
	if !ok || now.After(win.resetAt) {
		l.windows[key] = &rateWindow{count: 1, resetAt: now.Add(l.window)}
		l.sweep(now)
		return true
	}

	if win.count >= l.limit {
		return false
	}
	win.count++
	return true
}

// sweep drops expired windows so the map cannot grow without bound. Called
// under the lock.
func (l *RateLimiter) sweep(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for key, win := range l.windows {
		if now.After(win.resetAt) {
			delete(l.windows, key)
		}
	}
}
