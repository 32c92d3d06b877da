package device

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
)

// HotplugOp says whether a device appeared or went away.
type HotplugOp int

const (
	Added HotplugOp = iota
	Removed
)

func (op HotplugOp) String() string {
	if op == Added {
		return "added"
	}
	return "removed"
}

// Hotplug is a classified change in the device directory.
type Hotplug struct {
	Path string
	Op   HotplugOp
}

// Watcher delivers hotplug changes for one directory.
type Watcher interface {
	Events() <-chan Hotplug
	Errors() <-chan error
	Close() error
}

// WatcherFactory starts watching dir for entries whose name starts with prefix.
type WatcherFactory func(dir, prefix string) (Watcher, error)

// FSWatcher is a Watcher backed by inotify through fsnotify.
type FSWatcher struct {
	w      *fsnotify.Watcher
	prefix string
	events chan Hotplug
	done   chan struct{}
}

// NewFSWatcher is the WatcherFactory for real directories.
func NewFSWatcher(dir, prefix string) (Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	fw := &FSWatcher{
		w:      w,
		prefix: prefix,
		events: make(chan Hotplug),
		done:   make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

func (fw *FSWatcher) loop() {
	defer close(fw.events)
	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			hp, ok := classify(ev, fw.prefix, readable)
			if !ok {
				continue
			}
			select {
			case fw.events <- hp:
			case <-fw.done:
				return
			}
		}
	}
}

func (fw *FSWatcher) Events() <-chan Hotplug { return fw.events }

func (fw *FSWatcher) Errors() <-chan error { return fw.w.Errors }

func (fw *FSWatcher) Close() error {
	close(fw.done)
	return fw.w.Close()
}

// classify turns a raw filesystem event into a hotplug change. Only create,
// remove and rename of a matching name count. Whether the device was added
// or removed is decided by whether it can be read right now, not by the op:
// a rename can go either way and a create can race with a remove.
func classify(ev fsnotify.Event, prefix string, canRead func(string) bool) (Hotplug, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return Hotplug{}, false
	}
	if !strings.HasPrefix(filepath.Base(ev.Name), prefix) {
		return Hotplug{}, false
	}

	op := Removed
	if canRead(ev.Name) {
		op = Added
	}
	return Hotplug{Path: ev.Name, Op: op}, true
}

func readable(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}
