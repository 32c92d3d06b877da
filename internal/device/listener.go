package device

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/source"
)

// Options configures a Listener. Zero fields take the values used for real
// devices.
type Options struct {
	Dir            string
	Prefix         string
	RescanInterval time.Duration
	SettleDelay    time.Duration

	Open       Opener
	Describe   Describer
	NewWatcher WatcherFactory
}

func (o *Options) applyDefaults() {
	if o.Dir == "" {
		o.Dir = "/dev/input"
	}
	if o.Prefix == "" {
		o.Prefix = "event"
	}
	if o.RescanInterval <= 0 {
		o.RescanInterval = 5 * time.Second
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.Open == nil {
		o.Open = OpenFile
	}
	if o.NewWatcher == nil {
		o.NewWatcher = NewFSWatcher
	}
}

// Listener is the KeySource for raw event devices. It keeps a session open
// for every matching device in Dir, picking up hotplugged devices through a
// directory watch and periodic rescans.
type Listener struct {
	opts   Options
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	registry *Registry
}

var _ source.KeySource = (*Listener)(nil)

func NewListener(opts Options, logger *zap.SugaredLogger) *Listener {
	opts.applyDefaults()
	return &Listener{
		opts:   opts,
		logger: logger.Named("listener"),
	}
}

func (l *Listener) Name() string { return "evdev" }

// Devices lists the devices with a live session. Safe to call from any
// goroutine; empty before Run starts.
func (l *Listener) Devices() []Info {
	if reg := l.currentRegistry(); reg != nil {
		return reg.Devices()
	}
	return []Info{}
}

// Failures lists devices that are present but cannot be opened.
func (l *Listener) Failures() []OpenFailure {
	if reg := l.currentRegistry(); reg != nil {
		return reg.Failures()
	}
	return []OpenFailure{}
}

func (l *Listener) currentRegistry() *Registry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.registry
}

// Run owns the registry for its whole lifetime: every register and
// unregister happens on this goroutine. All sessions are closed before it
// returns.
func (l *Listener) Run(ctx context.Context, presses chan<- source.Press) error {
	reg := NewRegistry(l.opts.Open, l.opts.Describe, presses, l.logger)
	l.mu.Lock()
	l.registry = reg
	l.mu.Unlock()

	settled := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
		reg.CloseAll()
		l.logger.Info("Listener stopped")
	}()

	l.logger.Infow("Scanning for keyboard devices...", "dir", l.opts.Dir, "prefix", l.opts.Prefix)
	scanFailing := l.rescan(reg, false)

	var (
		watcher   Watcher
		hotplugs  <-chan Hotplug
		watchErrs <-chan error
	)
	stopWatching := func() {
		if watcher != nil {
			watcher.Close()
		}
		watcher, hotplugs, watchErrs = nil, nil, nil
	}
	defer stopWatching()

	if w, err := l.opts.NewWatcher(l.opts.Dir, l.opts.Prefix); err != nil {
		l.logger.Warnw("Device watch unavailable, relying on rescans", "dir", l.opts.Dir, "error", err)
	} else {
		watcher, hotplugs, watchErrs = w, w.Events(), w.Errors()
	}

	ticker := time.NewTicker(l.opts.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			scanFailing = l.rescan(reg, scanFailing)

		case exit := <-reg.exits:
			reg.reap(exit)

		case hp, ok := <-hotplugs:
			if !ok {
				l.logger.Warn("Device watch closed, relying on rescans")
				stopWatching()
				continue
			}
			switch hp.Op {
			case Added:
				l.logger.Infow("New device detected", "device", hp.Path)
				if t, ok := pending[hp.Path]; ok {
					t.Stop()
				}
				path := hp.Path
				pending[path] = time.AfterFunc(l.opts.SettleDelay, func() {
					select {
					case settled <- path:
					case <-ctx.Done():
					}
				})
			case Removed:
				if t, ok := pending[hp.Path]; ok {
					t.Stop()
					delete(pending, hp.Path)
				}
				if reg.Unregister(hp.Path) {
					l.logger.Infow("Device removed", "device", hp.Path)
				}
			}

		case path := <-settled:
			delete(pending, path)
			reg.Register(path)

		case err, ok := <-watchErrs:
			if ok {
				l.logger.Warnw("Device watch failed, relying on rescans", "error", err)
			}
			stopWatching()
		}
	}
}

// rescan registers any device in the directory that has no session yet. It
// returns whether the directory could not be read, so a persistent failure
// is only warned about once.
func (l *Listener) rescan(reg *Registry, failing bool) bool {
	added, err := reg.Scan(l.opts.Dir, l.opts.Prefix)
	if err != nil {
		if failing {
			l.logger.Debugw("Device scan failed", "dir", l.opts.Dir, "error", err)
		} else {
			l.logger.Warnw("Device scan failed", "dir", l.opts.Dir, "error", err)
		}
		return true
	}
	if added > 0 {
		l.logger.Debugw("Rescan found devices", "added", added, "active", reg.Len())
	}
	return false
}
