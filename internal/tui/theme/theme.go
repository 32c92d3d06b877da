// Package theme provides the Lip Gloss palette and shared styles for the
// terminal UI. It is a leaf package with no internal imports other than the
// lighting types it colors.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ledkeys/ledkeys/internal/lighting"
)

// Effect colors.
var (
	ColorPower     = lipgloss.Color("#f97316")
	ColorEnergy    = lipgloss.Color("#eab308")
	ColorScanMulti = lipgloss.Color("#a855f7")
	ColorDefault   = lipgloss.Color("#9ca3af")
)

// Preset colors, roughly what the controller shows.
var presetColors = map[string]lipgloss.Color{
	"sunset": lipgloss.Color("#fb7185"),
	"peach":  lipgloss.Color("#fdba74"),
	"fire":   lipgloss.Color("#ef4444"),
	"rgb":    lipgloss.Color("#22d3ee"),
	"rtb":    lipgloss.Color("#60a5fa"),
	"rpb":    lipgloss.Color("#c084fc"),
}

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorKey     = lipgloss.Color("#3b82f6")
)

var (
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
	StyleDimmed = lipgloss.NewStyle().Foreground(ColorDimmed)
	StyleKey    = lipgloss.NewStyle().Bold(true).Foreground(ColorKey)
)

// EffectColor returns the color for an effect.
func EffectColor(e lighting.Effect) lipgloss.Color {
	switch e {
	case lighting.Power:
		return ColorPower
	case lighting.Energy:
		return ColorEnergy
	case lighting.ScanMulti:
		return ColorScanMulti
	default:
		return ColorDefault
	}
}

// PresetColor returns the color for a preset name.
func PresetColor(preset string) lipgloss.Color {
	if c, ok := presetColors[preset]; ok {
		return c
	}
	return ColorDefault
}

// DirectionGlyph returns an arrow for a direction.
func DirectionGlyph(d lighting.Direction) string {
	switch d {
	case lighting.Up:
		return "↑"
	case lighting.Down:
		return "↓"
	case lighting.In:
		return "→←"
	case lighting.Out:
		return "←→"
	default:
		return "·"
	}
}
