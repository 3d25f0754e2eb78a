package resilience

import (
	"sync"
	"time"
)

// Cooldown tracks whether a remote provider is currently rate-limited.
// While the expiry lies in the future the provider is treated as unavailable
// and callers skip straight to their fallback path.
type Cooldown struct {
	mu    sync.Mutex
	until time.Time
	now   func() time.Time
}

func NewCooldown() *Cooldown {
	return &Cooldown{now: time.Now}
}

// NewCooldownWithClock injects a clock, used by tests.
func NewCooldownWithClock(now func() time.Time) *Cooldown {
	return &Cooldown{now: now}
}

// IsAvailable reports false strictly while the current time precedes the
// stored expiry. A never-activated cooldown is available.
func (c *Cooldown) IsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.until.IsZero() {
		return true
	}
	return !c.now().Before(c.until)
}

// Activate overwrites any existing cooldown with now+d. It never extends an
// existing window additively; the last writer wins.
func (c *Cooldown) Activate(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until = c.now().Add(d)
}

// Until returns the current expiry (zero if never activated).
func (c *Cooldown) Until() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.until
}
