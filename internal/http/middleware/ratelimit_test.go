package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// Other clients are tracked independently.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	current := time.Now()
	rl.now = func() time.Time { return current }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	current = current.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiterPrunesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	current := time.Now()
	rl.now = func() time.Time { return current }

	rl.clients["stale"] = &rateLimitEntry{count: 1, resetTime: current.Add(-time.Second)}

	rl.prune(current)
	assert.NotContains(t, rl.clients, "stale")
}
