package attendance

import (
	"sync"
	"time"
)

// DefaultCooldown suppresses reprocessing of a face that lingers in view.
// It is a frame-rate debounce, not a correctness guard; the null-slot check
// in the store is what prevents double logging.
const DefaultCooldown = 5 * time.Second

// Cooldown tracks the last accepted scan per identity. Not persisted; a
// process restart clears it.
type Cooldown struct {
	window time.Duration
	mu     sync.Mutex
	last   map[string]time.Time
}

// NewCooldown creates a tracker with the given suppression window.
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{window: window, last: make(map[string]time.Time)}
}

// Active reports whether the identity was accepted within the window.
func (c *Cooldown) Active(name string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[name]
	return ok && now.Sub(last) < c.window
}

// Touch records an accepted scan. Only accepted outcomes call this, so
// rejected faces are re-evaluated every frame.
func (c *Cooldown) Touch(name string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[name] = now
}
