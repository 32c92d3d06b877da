package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/tui/theme"
)

const pulseWidth = 8

// Model holds the status bar state.
type Model struct {
	State      lighting.State
	LastResult *lighting.Result
	Pulse      Pulse
	Width      int
}

// New creates a status bar model.
func New(initial lighting.State) Model {
	return Model{
		State: initial,
		Pulse: NewPulse(),
	}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	dir := lipgloss.NewStyle().Foreground(theme.ColorBright).Render(
		fmt.Sprintf("%s %s", theme.DirectionGlyph(m.State.Direction), m.State.Direction))
	effect := lipgloss.NewStyle().Foreground(theme.EffectColor(m.State.Effect)).Render(m.State.Effect.String())
	preset := lipgloss.NewStyle().Foreground(theme.PresetColor(m.State.Preset)).Render(m.State.Preset)
	id := theme.StyleDimmed.Render(m.State.PresetID())

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := dir + sep + effect + sep + preset + " " + id + sep + m.resultView()

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) resultView() string {
	if m.LastResult == nil {
		return theme.StyleDimmed.Render("○ no calls yet")
	}

	color := theme.ColorHealthy
	label := fmt.Sprintf("● %d", m.LastResult.Status)
	if !m.LastResult.OK() {
		color = theme.ColorDanger
		label = "✗ " + m.LastResult.Kind.String()
		if m.LastResult.Kind == lighting.ResultStatus {
			label = fmt.Sprintf("✗ %d", m.LastResult.Status)
		}
	}
	out := lipgloss.NewStyle().Foreground(color).Render(label)

	if m.Pulse.Active() {
		n := int(m.Pulse.Level()*pulseWidth + 0.5)
		out += " " + lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n))
	}
	return out
}
