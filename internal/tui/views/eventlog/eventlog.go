// Package eventlog provides the scrolling log of key presses and controller
// responses.
package eventlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ledkeys/ledkeys/internal/tui/theme"
)

const maxEntries = 200

// Kinds of entry.
const (
	KindKey = "key"
	KindSet = "set"
	KindOK  = "ok"
	KindErr = "err"
)

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds the log.
type Model struct {
	Entries []Entry
}

func New() Model {
	return Model{}
}

// Add appends an entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
}

// View renders the newest entries that fit in height lines.
func (m Model) View(width, height int) string {
	if height < 1 {
		height = 1
	}
	if len(m.Entries) == 0 {
		return theme.StyleDimmed.Render("  Press a–m to change the lights.")
	}

	start := len(m.Entries) - height
	if start < 0 {
		start = 0
	}

	maxMsg := width - 20
	var lines []string
	for _, e := range m.Entries[start:] {
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kind := lipgloss.NewStyle().Foreground(kindToColor(e.Kind)).Width(4).Render(e.Kind)
		msg := e.Message
		if maxMsg > 3 && len(msg) > maxMsg {
			msg = msg[:maxMsg-3] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, kind, msg))
	}
	return strings.Join(lines, "\n")
}

func kindToColor(kind string) lipgloss.Color {
	switch kind {
	case KindKey:
		return theme.ColorKey
	case KindSet:
		return theme.ColorBright
	case KindOK:
		return theme.ColorHealthy
	case KindErr:
		return theme.ColorDanger
	default:
		return theme.ColorDimmed
	}
}
