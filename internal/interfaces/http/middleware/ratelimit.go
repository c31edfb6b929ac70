package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payables/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed-window in-memory limiter. Each key gets a budget of
// requests per window. Stale buckets are swept lazily on the request path, so
// no background goroutine is needed.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     int
	window    time.Duration
	nextSweep time.Time
}

type bucket struct {
	used        int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window per key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		window:    window,
		nextSweep: time.Now().Add(window * 2),
	}
}

// Allow reports whether a request for the key fits in the current window and
// consumes budget when it does.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[key] = &bucket{used: 1, windowStart: now}
		return true
	}

	if b.used < rl.limit {
		b.used++
		return true
	}
	return false
}

// Remaining returns the unused budget for the key in the current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || time.Since(b.windowStart) >= rl.window {
		return rl.limit
	}
	return rl.limit - b.used
}

// sweepLocked drops buckets whose window lapsed long ago. Called with the
// mutex held.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) >= rl.window*2 {
			delete(rl.buckets, key)
		}
	}
	rl.nextSweep = now.Add(rl.window * 2)
}

// RateLimit limits requests per client IP, scoped to the authenticated user
// when one is known.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		key := c.ClientIP()
		if userID := GetJWTUserID(c); userID != "" {
			key = userID + ":" + key
		}
		return key
	})
}

// RateLimitByKey limits requests using a caller-supplied key extractor.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		if !limiter.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests, try again later",
				c.GetString("request_id"),
			))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))

		c.Next()
	}
}
