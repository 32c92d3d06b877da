// Package source defines where key presses come from. The raw evdev listener
// and the terminal reader both implement KeySource and feed the same
// pipeline.
package source

import (
	"context"
	"time"
)

// KeySource produces symbol events. Each implementation knows how to reach
// one kind of input (event device files, the controlling terminal) and turns
// what it reads into Press values.
type KeySource interface {
	// Name returns a short lowercase identifier, e.g. "evdev" or
	// "terminal". Used in logs.
	Name() string

	// Run delivers presses until ctx is cancelled or the source stops on
	// its own (the terminal user quit). It returns nil on a clean stop.
	//
	// Run must release everything it opened before returning. Sends on
	// presses may block; implementations must not hold up shutdown on a
	// blocked send once ctx is done.
	Run(ctx context.Context, presses chan<- Press) error
}

// Press is one key going down.
type Press struct {
	// Symbol is the key's symbolic name, e.g. "a". Sources do not filter
	// against the key table; unknown symbols are dropped by the mapper.
	Symbol string

	// Device identifies where the press came from: the event device path
	// for evdev, "tty" for the terminal.
	Device string

	// Time is when the source observed the press.
	Time time.Time
}
