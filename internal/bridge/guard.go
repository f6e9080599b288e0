package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBusy is returned by Guard.TryLock while a turn is in flight.
// Callers surface it before opening an event stream, so it is not part
// of the stream failure taxonomy.
var ErrBusy = errors.New("another chat turn is in flight")

// Guard serializes chat turns. The browser runs one conversation per
// page and concurrent injections interleave keystrokes, so a second
// turn is refused rather than queued. The TTL reclaims the slot if a
// holder ever fails to release it.
type Guard struct {
	mu      sync.Mutex
	owner   string
	expires time.Time
	ttl     time.Duration
}

func NewGuard(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Guard{ttl: ttl}
}

// TryLock claims the turn slot for owner. It never blocks.
func (g *Guard) TryLock(owner string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner != "" && time.Now().Before(g.expires) {
		return fmt.Errorf("%w (held by %s)", ErrBusy, g.owner)
	}
	g.owner = owner
	g.expires = time.Now().Add(g.ttl)
	return nil
}

// Unlock releases the slot if owner still holds it. Releasing after
// TTL expiry and re-acquisition by another owner is a no-op.
func (g *Guard) Unlock(owner string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner == owner {
		g.owner = ""
		g.expires = time.Time{}
	}
}

// Owner reports the current unexpired holder, if any.
func (g *Guard) Owner() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner == "" || time.Now().After(g.expires) {
		return "", false
	}
	return g.owner, true
}
