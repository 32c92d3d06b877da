package lighting

import (
	"fmt"
	"sort"
)

// action mutates the state and describes what it did.
type action func(s *State) string

func setDirection(d Direction) action {
	return func(s *State) string {
		s.Direction = d
		return fmt.Sprintf("Direction set to: %s", d)
	}
}

func setPreset(e Effect, preset string) action {
	return func(s *State) string {
		s.Effect = e
		s.Preset = preset
		return fmt.Sprintf("Effect set to: %s, Preset set to: %s", e, preset)
	}
}

var keyActions = map[string]action{
	"a": setDirection(Up),
	"b": setDirection(Down),
	"c": setDirection(In),
	"d": setDirection(Out),
	"e": setPreset(Power, "sunset"),
	"f": setPreset(Power, "peach"),
	"g": setPreset(Power, "fire"),
	"h": setPreset(Energy, "rgb"),
	"i": setPreset(Energy, "rtb"),
	"j": setPreset(Energy, "rpb"),
	"k": setPreset(ScanMulti, "rgb"),
	"l": setPreset(ScanMulti, "rtb"),
	"m": setPreset(ScanMulti, "rpb"),
}

// Apply runs the action bound to symbol against s. It returns a description
// of the change and true, or "" and false when the symbol is not bound, in
// which case s is untouched.
func Apply(s *State, symbol string) (string, bool) {
	act, ok := keyActions[symbol]
	if !ok {
		return "", false
	}
	return act(s), true
}

// Binding describes one entry of the key table.
type Binding struct {
	Symbol      string
	Description string
}

// Bindings lists the key table in symbol order. The descriptions are what
// each action does to a default state, which is the same for every state.
func Bindings() []Binding {
	out := make([]Binding, 0, len(keyActions))
	for sym, act := range keyActions {
		s := DefaultState()
		out = append(out, Binding{Symbol: sym, Description: act(&s)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
