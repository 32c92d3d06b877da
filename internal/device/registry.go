package device

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/source"
)

// Opener opens a device path for reading.
type Opener func(path string) (io.ReadCloser, error)

// OpenFile is the Opener for real event devices.
func OpenFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Describer returns a human-readable name for a device, or "" if none.
type Describer func(path string) string

// DescribeEvdev asks the kernel for the device's name.
func DescribeEvdev(path string) string {
	d, err := evdev.Open(path)
	if err != nil {
		return ""
	}
	defer d.Close()
	name, err := d.Name()
	if err != nil {
		return ""
	}
	return name
}

// Info describes one device with a live session.
type Info struct {
	Path  string    `json:"path"`
	Name  string    `json:"name,omitempty"`
	Since time.Time `json:"since"`
}

type entry struct {
	session *session
	info    Info
}

// Registry keeps at most one session per device path.
//
// Register, Unregister, Scan, reap and CloseAll are only called from the
// listener goroutine. mu exists so Devices can be read from elsewhere.
type Registry struct {
	open     Opener
	describe Describer
	presses  chan<- source.Press
	exits    chan sessionExit
	health   *openHealth
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates a registry whose sessions send presses on presses.
// describe may be nil.
func NewRegistry(open Opener, describe Describer, presses chan<- source.Press, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		open:     open,
		describe: describe,
		presses:  presses,
		exits:    make(chan sessionExit),
		health:   newOpenHealth(),
		logger:   logger.Named("registry"),
		entries:  make(map[string]*entry),
	}
}

// Register opens path and starts a session for it. It returns false without
// doing anything if path already has a session, and false if the open fails.
func (r *Registry) Register(path string) bool {
	if r.Has(path) {
		return false
	}

	rc, err := r.open(path)
	if err != nil {
		if n := r.health.recordFailure(path, err); n == 1 {
			r.logger.Warnw("Failed to open device", "device", path, "error", err)
		} else {
			r.logger.Debugw("Failed to open device", "device", path, "error", err, "attempts", n)
		}
		return false
	}
	r.health.recordSuccess(path)

	info := Info{Path: path, Since: time.Now()}
	if r.describe != nil {
		info.Name = r.describe(path)
	}
	s := newSession(path, rc, r.logger.Named("session"))

	r.mu.Lock()
	r.entries[path] = &entry{session: s, info: info}
	r.mu.Unlock()

	go s.run(r.presses, r.exits)
	r.logger.Infow("Now listening", "device", path, "name", info.Name)
	return true
}

// Unregister closes and removes the session for path. It returns false if
// there was none.
func (r *Registry) Unregister(path string) bool {
	r.mu.Lock()
	e, ok := r.entries[path]
	if ok {
		delete(r.entries, path)
	}
	r.mu.Unlock()
	if !ok {
		r.health.forget(path)
		return false
	}

	if err := e.session.Close(); err != nil {
		r.logger.Debugw("Error closing device", "device", path, "error", err)
	}
	r.logger.Infow("Stopped listening", "device", path)
	return true
}

// reap removes a session that ended on its own. Exits from sessions that
// were already replaced or unregistered are ignored.
func (r *Registry) reap(exit sessionExit) bool {
	path := exit.session.path

	r.mu.Lock()
	e, ok := r.entries[path]
	current := ok && e.session == exit.session
	if current {
		delete(r.entries, path)
	}
	r.mu.Unlock()

	exit.session.Close()
	if !current {
		return false
	}

	if exit.err != nil {
		r.logger.Warnw("Device disconnected", "device", path, "error", exit.err)
	} else {
		r.logger.Infow("Device disconnected", "device", path)
	}
	return true
}

// Scan registers every entry of dir whose name starts with prefix and
// returns how many new sessions were started.
func (r *Registry) Scan(dir, prefix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasPrefix(de.Name(), prefix) {
			continue
		}
		if r.Register(filepath.Join(dir, de.Name())) {
			added++
		}
	}
	return added, nil
}

// CloseAll closes every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for path, e := range entries {
		if err := e.session.Close(); err != nil {
			r.logger.Debugw("Error closing device", "device", path, "error", err)
		}
	}
}

// Has reports whether path has a live session.
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[path]
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Devices lists live sessions sorted by path.
func (r *Registry) Devices() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Failures lists paths that currently fail to open.
func (r *Registry) Failures() []OpenFailure {
	out := r.health.snapshot()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
