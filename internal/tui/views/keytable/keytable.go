// Package keytable renders the key bindings as a Markdown table through
// Glamour for the help overlay.
package keytable

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/tui/theme"
)

// Markdown builds the key table document.
func Markdown(current lighting.State) string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	b.WriteString("| key | action |\n|---|---|\n")
	for _, bind := range lighting.Bindings() {
		fmt.Fprintf(&b, "| `%s` | %s |\n", bind.Symbol, bind.Description)
	}
	fmt.Fprintf(&b, "\nCurrent preset id: **%s**\n", current.PresetID())
	b.WriteString("\nPress `q` to quit, `?` to close this panel.\n")
	return b.String()
}

// Model caches the rendered table. Rendering is slow enough that it is only
// redone when the width or the state changes.
type Model struct {
	Style string

	width    int
	state    lighting.State
	rendered string
}

func New(style string) Model {
	return Model{Style: style}
}

// View renders the table for width columns.
func (m *Model) View(width int, current lighting.State) string {
	if width < 30 {
		width = 30
	}
	if m.rendered == "" || width != m.width || current != m.state {
		m.width = width
		m.state = current
		m.rendered = Render(Markdown(current), width-4, m.Style)
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(m.rendered)
}

// Render runs md through Glamour. If rendering fails the Markdown source is
// returned as is.
func Render(md string, wrap int, style string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
