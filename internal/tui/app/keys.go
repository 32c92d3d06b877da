package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/ledkeys/ledkeys/internal/lighting"
)

// KeyMap defines the keyboard bindings for the TUI. Lighting keys come from
// the key table; the rest control the UI itself.
type KeyMap struct {
	Lighting []key.Binding
	Help     key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "key table"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	for _, b := range lighting.Bindings() {
		km.Lighting = append(km.Lighting, key.NewBinding(
			key.WithKeys(b.Symbol),
			key.WithHelp(b.Symbol, b.Description),
		))
	}
	return km
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("a", "b", "c", "d"), key.WithHelp("a-d", "direction")),
		key.NewBinding(key.WithKeys("e", "f", "g", "h", "i", "j", "k", "l", "m"), key.WithHelp("e-m", "preset")),
		k.Help,
		k.Quit,
	}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Lighting[:4],
		k.Lighting[4:],
		{k.Help, k.Escape, k.Quit},
	}
}
