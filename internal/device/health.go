package device

import (
	"sync"
	"time"
)

// openHealth tracks consecutive open failures per device path. Rescans retry
// every known path, so a device that stays unreadable would otherwise log the
// same warning every few seconds.
// Fields are protected by mu because the listener goroutine writes them while
// the status feed reads snapshots.
type openHealth struct {
	mu       sync.Mutex
	failures map[string]int
	lastErr  map[string]string
	lastFail map[string]time.Time
}

func newOpenHealth() *openHealth {
	return &openHealth{
		failures: make(map[string]int),
		lastErr:  make(map[string]string),
		lastFail: make(map[string]time.Time),
	}
}

// recordFailure counts a failed open and returns the new consecutive count.
func (h *openHealth) recordFailure(path string, err error) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[path]++
	h.lastErr[path] = err.Error()
	h.lastFail[path] = time.Now()
	return h.failures[path]
}

func (h *openHealth) recordSuccess(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, path)
	delete(h.lastErr, path)
	delete(h.lastFail, path)
}

// forget drops tracking for a path that no longer exists.
func (h *openHealth) forget(path string) {
	h.recordSuccess(path)
}

// OpenFailure is one path that currently cannot be opened.
type OpenFailure struct {
	Path     string    `json:"path"`
	Failures int       `json:"failures"`
	LastErr  string    `json:"lastError"`
	LastFail time.Time `json:"lastFailure"`
}

// snapshot returns a consistent copy of all failing paths under the lock.
func (h *openHealth) snapshot() []OpenFailure {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]OpenFailure, 0, len(h.failures))
	for path, n := range h.failures {
		out = append(out, OpenFailure{
			Path:     path,
			Failures: n,
			LastErr:  h.lastErr[path],
			LastFail: h.lastFail[path],
		})
	}
	return out
}
