// Package pipeline connects a key source to the lighting state and the
// controller. One goroutine owns the state; notifier calls run on their own
// goroutines and report back to it.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/source"
)

// Notifier pushes a state to the controller.
type Notifier interface {
	Notify(ctx context.Context, s lighting.State) lighting.Result
}

// EventType distinguishes pipeline events.
type EventType string

const (
	EventState  EventType = "state"  // a key changed the state
	EventNotify EventType = "notify" // a notifier call finished
)

// Event is what observers see. Result is only set for EventNotify.
type Event struct {
	Type   EventType
	Symbol string
	Device string
	State  lighting.State
	Desc   string
	Result *lighting.Result
	Time   time.Time
}

// Observer receives every event in order. Observe is called from the
// pipeline goroutine and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type completion struct {
	press  source.Press
	state  lighting.State
	result lighting.Result
}

// Pipeline applies key presses to a lighting state.
type Pipeline struct {
	notifier Notifier
	logger   *zap.SugaredLogger

	mu        sync.RWMutex
	state     lighting.State
	observers []Observer
}

func New(initial lighting.State, notifier Notifier, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		notifier: notifier,
		logger:   logger.Named("pipeline"),
		state:    initial,
	}
}

// AddObserver registers o. Call before Run.
func (p *Pipeline) AddObserver(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// State returns a copy of the current state.
func (p *Pipeline) State() lighting.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Run consumes presses until ctx is cancelled or presses is closed. Every
// bound press mutates the state and triggers one notifier call; unbound
// presses are logged and dropped. Notifier calls still in flight when Run
// returns finish on their own and their results are discarded.
func (p *Pipeline) Run(ctx context.Context, presses <-chan source.Press) {
	results := make(chan completion)
	stop := make(chan struct{})

	defer func() {
		close(stop)
		p.logger.Debug("Pipeline stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case press, ok := <-presses:
			if !ok {
				return
			}
			p.logger.Infow("Key pressed", "key", press.Symbol, "device", press.Device)

			s, desc, changed := p.apply(press.Symbol)
			if !changed {
				p.logger.Debugw("Key not bound", "key", press.Symbol)
				continue
			}
			p.logger.Info(desc)
			p.emit(Event{Type: EventState, Symbol: press.Symbol, Device: press.Device, State: s, Desc: desc, Time: time.Now()})

			go func(press source.Press, s lighting.State) {
				// Calls are never cancelled mid-flight; the client timeout
				// bounds them.
				res := p.notifier.Notify(context.Background(), s)
				select {
				case results <- completion{press: press, state: s, result: res}:
				case <-stop:
				}
			}(press, s)

		case c := <-results:
			res := c.result
			p.emit(Event{Type: EventNotify, Symbol: c.press.Symbol, Device: c.press.Device, State: c.state, Result: &res, Time: time.Now()})
		}
	}
}

func (p *Pipeline) apply(symbol string) (lighting.State, string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	desc, ok := lighting.Apply(&p.state, symbol)
	return p.state, desc, ok
}

func (p *Pipeline) emit(e Event) {
	p.mu.RLock()
	observers := p.observers
	p.mu.RUnlock()
	for _, o := range observers {
		o.Observe(e)
	}
}

// Drive runs src and the pipeline together until src stops or ctx is
// cancelled. It returns src's error.
func Drive(ctx context.Context, src source.KeySource, p *Pipeline) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	presses := make(chan source.Press, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, presses)
	}()

	p.logger.Infow("Key source started", "source", src.Name())
	err := src.Run(ctx, presses)
	cancel()
	<-done
	return err
}
