package status

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// PulseFPS is the rate the app ticks an active pulse at.
const PulseFPS = 30

const pulseRest = 0.01

// Pulse is a brightness that jumps to 1 when a controller call finishes and
// springs back to 0.
type Pulse struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	ok     bool
	active bool
}

func NewPulse() Pulse {
	return Pulse{spring: harmonica.NewSpring(harmonica.FPS(PulseFPS), 5.0, 1.0)}
}

// Kick restarts the pulse. It reports whether the pulse was idle, in which
// case the caller has to start ticking it.
func (p *Pulse) Kick(ok bool) bool {
	wasIdle := !p.active
	p.pos, p.vel = 1, 0
	p.ok = ok
	p.active = true
	return wasIdle
}

// Step advances one frame and reports whether the pulse is still moving.
func (p *Pulse) Step() bool {
	if !p.active {
		return false
	}
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, 0)
	if math.Abs(p.pos) < pulseRest && math.Abs(p.vel) < pulseRest {
		p.pos, p.vel, p.active = 0, 0, false
	}
	return p.active
}

// Level is the current brightness in [0, 1].
func (p Pulse) Level() float64 {
	return math.Max(0, math.Min(1, p.pos))
}

func (p Pulse) Active() bool { return p.active }

// OK reports whether the call that started the pulse succeeded.
func (p Pulse) OK() bool { return p.ok }
