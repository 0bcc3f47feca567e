package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window per-client limiter for the auth endpoints.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	lastGC time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		lastGC: time.Now(),
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		if now.Sub(rl.lastGC) > rl.window {
			rl.gc(now)
		}

		recent := rl.hits[key][:0]
		for _, t := range rl.hits[key] {
			if now.Sub(t) < rl.window {
				recent = append(recent, t)
			}
		}

		if len(recent) >= rl.limit {
			rl.hits[key] = recent
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		rl.hits[key] = append(recent, now)
		rl.mu.Unlock()

		c.Next()
	}
}

// gc drops clients whose entire window has expired. Caller holds the lock.
func (rl *RateLimiter) gc(now time.Time) {
	for key, times := range rl.hits {
		expired := true
		for _, t := range times {
			if now.Sub(t) < rl.window {
				expired = false
				break
			}
		}
		if expired {
			delete(rl.hits, key)
		}
	}
	rl.lastGC = now
}
