package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const pruneThreshold = 10000

type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a process-scoped, best-effort per-client throttle for the
// public query surface. State is approximate and resets on restart; it bounds
// abuse, it is not a correctness-critical structure.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rateLimitEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records one request for the client and reports whether it is within
// the window's budget.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	entry, ok := rl.clients[clientID]
	if !ok || !entry.resetTime.After(now) {
		if len(rl.clients) >= pruneThreshold {
			rl.prune(now)
		}
		rl.clients[clientID] = &rateLimitEntry{count: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if entry.count >= rl.limit {
		return false
	}
	entry.count++
	return true
}

// prune drops expired entries. Called with the lock held.
func (rl *RateLimiter) prune(now time.Time) {
	for id, entry := range rl.clients {
		if !entry.resetTime.After(now) {
			delete(rl.clients, id)
		}
	}
}

// Middleware rejects clients over the limit with 429. gin's ClientIP handles
// X-Forwarded-For / X-Real-IP resolution.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
