// Package cache provides the thread-safe "already checked" set used by the
// link checker to avoid fetching the same linked resource twice.
package cache

import (
	"sync"
	"time"
)

// Key identifies one linked resource.
type Key struct {
	Username   string
	Repository string
	Path       string
	Branch     string
}

// String renders the key as "username/repository/path@branch".
func (k Key) String() string {
	s := k.Username + "/" + k.Repository + "/" + k.Path
	if k.Branch != "" {
		s += "@" + k.Branch
	}
	return s
}

// Checked is a set of keys with insert-only semantics between resets.
// Entries are never consulted to change a check outcome, only to skip
// repeated fetches. An optional TTL bounds how long a long-running server
// trusts an entry. The zero value is not usable; call NewChecked.
type Checked struct {
	mu      sync.RWMutex
	entries map[Key]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewChecked creates an empty set. A ttl of zero keeps entries until Clear.
func NewChecked(ttl time.Duration) *Checked {
	return &Checked{
		entries: make(map[Key]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Has reports whether key was marked and has not expired.
// A nil set has no entries.
func (c *Checked) Has(key Key) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	marked, ok := c.entries[key]
	if !ok {
		return false
	}
	return !c.expiredLocked(marked)
}

// Mark records key as checked. Marking a nil set is a no-op.
func (c *Checked) Mark(key Key) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[Key]time.Time)
	}
	c.entries[key] = c.now()
}

// Clear removes every entry and returns how many were held.
func (c *Checked) Clear() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[Key]time.Time)
	return n
}

// Len returns the number of entries, including expired ones not yet cleared.
func (c *Checked) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// expiredLocked MUST be called with at least a read lock held.
func (c *Checked) expiredLocked(marked time.Time) bool {
	return c.ttl > 0 && c.now().Sub(marked) >= c.ttl
}
