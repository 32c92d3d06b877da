// Package lighting holds the lighting state, the key table that mutates it
// and the client that pushes it to the LED controller.
package lighting

import (
	"encoding/json"
	"fmt"
)

type Direction int

const (
	Up Direction = iota
	Down
	In
	Out
)

var directionNames = map[Direction]string{
	Up:   "up",
	Down: "down",
	In:   "in",
	Out:  "out",
}

var directionFromName = map[string]Direction{
	"up":   Up,
	"down": Down,
	"in":   In,
	"out":  Out,
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "unknown"
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection converts a direction name into a Direction.
func ParseDirection(s string) (Direction, error) {
	if v, ok := directionFromName[s]; ok {
		return v, nil
	}
	return Up, fmt.Errorf("unknown direction %q", s)
}

type Effect int

const (
	Power Effect = iota
	Energy
	ScanMulti
)

var effectNames = map[Effect]string{
	Power:     "power",
	Energy:    "energy",
	ScanMulti: "scan_multi",
}

var effectFromName = map[string]Effect{
	"power":      Power,
	"energy":     Energy,
	"scan_multi": ScanMulti,
}

func (e Effect) String() string {
	if s, ok := effectNames[e]; ok {
		return s
	}
	return "unknown"
}

func (e Effect) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseEffect(s)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// ParseEffect converts an effect id into an Effect.
func ParseEffect(s string) (Effect, error) {
	if v, ok := effectFromName[s]; ok {
		return v, nil
	}
	return Power, fmt.Errorf("unknown effect %q", s)
}

// State is what the controller should currently be showing. There is one
// per process, owned by the pipeline goroutine; everything else works on
// copies.
type State struct {
	Direction Direction `json:"direction"`
	Effect    Effect    `json:"effect"`
	Preset    string    `json:"preset"`
}

// DefaultState is the state at startup when the config does not say
// otherwise.
func DefaultState() State {
	return State{
		Direction: Up,
		Effect:    Power,
		Preset:    "sunset",
	}
}

// PresetID is the controller's name for the preset, "{preset}-{direction}".
func (s State) PresetID() string {
	return s.Preset + "-" + s.Direction.String()
}

func (s State) String() string {
	return fmt.Sprintf("effect=%s, preset=%s, direction=%s", s.Effect, s.Preset, s.Direction)
}
