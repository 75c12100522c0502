// Package coalesce folds bursts of file-change events into a single
// pending entry per path.
//
// The watch callback thread records events while the scheduler drains due
// paths from its own goroutine, so every operation holds the mutex. The
// drain collects due paths first, then deletes them, then returns; the
// map is never mutated while being iterated.
package coalesce

import (
	"sync"
	"time"
)

// Coalescer tracks the most recent change timestamp per path. At most one
// entry exists per path at any time; repeat events overwrite in place.
type Coalescer struct {
	mu      sync.Mutex
	pending map[string]time.Time
}

// New returns an empty coalescer.
func New() *Coalescer {
	return &Coalescer{pending: make(map[string]time.Time)}
}

// Record upserts the entry for path with the given timestamp. No history
// is retained; the latest event wins.
func (c *Coalescer) Record(path string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[path] = at
}

// DrainElapsed removes and returns every path whose entry has been idle
// longer than window as of now. Entries still inside their window are
// left untouched. Order of the returned paths is unspecified.
func (c *Coalescer) DrainElapsed(now time.Time, window time.Duration) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []string
	for path, seen := range c.pending {
		if now.Sub(seen) > window {
			due = append(due, path)
		}
	}
	for _, path := range due {
		delete(c.pending, path)
	}
	return due
}

// Len reports the number of pending entries.
func (c *Coalescer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
