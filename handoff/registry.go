package handoff

import (
	"sync"
	"time"
)

// DefaultPendingTTL is how long a generated prompt waits for its session to be activated.
const DefaultPendingTTL = 5 * time.Minute

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock stopped at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// PendingHandoff is a prompt waiting to be delivered into a new session.
type PendingHandoff struct {
	SessionID string    `json:"session_id"`
	Prompt    string    `json:"prompt"`
	Title     string    `json:"title"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is no longer deliverable at now.
func (p PendingHandoff) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Registry holds at most one pending handoff per session ID.
type Registry struct {
	mu      sync.Mutex
	entries map[string]PendingHandoff
	clock   Clock
}

// NewRegistry creates an empty registry. A nil clock means the system clock.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Registry{
		entries: make(map[string]PendingHandoff),
		clock:   clock,
	}
}

// Put stores p under p.SessionID, replacing any previous entry, and reports
// whether one was replaced.
func (r *Registry) Put(p PendingHandoff) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.entries[p.SessionID]
	r.entries[p.SessionID] = p
	return replaced
}

// Get returns the live entry for sessionID. An expired entry is removed and
// reported as absent.
func (r *Registry) Get(sessionID string) (PendingHandoff, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(sessionID)
}

// Take returns and removes the live entry for sessionID. Concurrent callers
// for the same ID get it at most once.
func (r *Registry) Take(sessionID string) (PendingHandoff, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.lookup(sessionID)
	if ok {
		delete(r.entries, sessionID)
	}
	return p, ok
}

func (r *Registry) lookup(sessionID string) (PendingHandoff, bool) {
	p, ok := r.entries[sessionID]
	if !ok {
		return PendingHandoff{}, false
	}
	if p.Expired(r.clock.Now()) {
		delete(r.entries, sessionID)
		return PendingHandoff{}, false
	}
	return p, true
}

// Sweep deletes every expired entry and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	removed := 0
	for id, p := range r.entries {
		if p.Expired(now) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included until swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
