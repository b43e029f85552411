package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"comedybar/internal/apierror"

	"github.com/gin-gonic/gin"
)

// windowEntry counts requests from one client inside a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is a per-IP fixed-window limiter. Expired entries are swept
// on access once per window, so no background goroutine is needed.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	message   string
	entries   map[string]*windowEntry
	nextSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(limit int, window time.Duration, message string) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		message: message,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow records one request from key and reports whether it is within the
// limit, plus the seconds until the window resets.
func (l *RateLimiter) Allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextSweep) {
		for k, e := range l.entries {
			if now.After(e.windowEnd) {
				delete(l.entries, k)
			}
		}
		l.nextSweep = now.Add(l.window)
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	retry := int(e.windowEnd.Sub(now).Seconds()) + 1
	return e.count <= l.limit, retry
}

func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return NewRateLimiter(20, time.Minute, "Muitas tentativas de login. Tente novamente em 1 minuto.").Handler()
}

// APIRateLimiter limits every client IP to limit requests per minute.
func APIRateLimiter(limit int) gin.HandlerFunc {
	return NewRateLimiter(limit, time.Minute, "Muitas requisições. Tente novamente em instantes.").Handler()
}
