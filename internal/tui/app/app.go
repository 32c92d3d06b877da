// Package app is the Bubble Tea program behind the terminal key source.
package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/pipeline"
	"github.com/ledkeys/ledkeys/internal/source"
	"github.com/ledkeys/ledkeys/internal/tui/theme"
	"github.com/ledkeys/ledkeys/internal/tui/views/eventlog"
	"github.com/ledkeys/ledkeys/internal/tui/views/keytable"
	"github.com/ledkeys/ledkeys/internal/tui/views/status"
)

// Device is what presses from the terminal report as their device.
const Device = "tty"

// EventMsg carries a pipeline event into the program.
type EventMsg pipeline.Event

type pulseTickMsg struct{}

func pulseTick() tea.Cmd {
	return tea.Tick(time.Second/status.PulseFPS, func(time.Time) tea.Msg {
		return pulseTickMsg{}
	})
}

// Model is the root Bubble Tea model.
type Model struct {
	presses chan<- source.Press

	keys   KeyMap
	help   help.Model
	width  int
	height int

	state     lighting.State
	showTable bool
	dropped   int

	statusBar status.Model
	log       eventlog.Model
	keyTable  *keytable.Model
}

// New creates the root model. Key presses are sent on presses without
// blocking; if the pipeline falls behind they are dropped and counted.
func New(initial lighting.State, presses chan<- source.Press, tableStyle string) Model {
	table := keytable.New(tableStyle)
	return Model{
		presses:   presses,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		state:     initial,
		statusBar: status.New(initial),
		log:       eventlog.New(),
		keyTable:  &table,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		return m.handleEvent(pipeline.Event(msg))

	case pulseTickMsg:
		if m.statusBar.Pulse.Step() {
			return m, pulseTick()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case m.showTable && key.Matches(msg, m.keys.Escape, m.keys.Help):
		m.showTable = false
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showTable = true
		return m, nil
	}

	// Fast typing can arrive as one message with several runes.
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 && !msg.Paste {
		for _, r := range msg.Runes {
			next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
			m = next.(Model)
			if cmd != nil {
				return m, cmd
			}
		}
		return m, nil
	}

	m.send(msg.String())
	return m, nil
}

func (m *Model) send(symbol string) {
	p := source.Press{Symbol: symbol, Device: Device, Time: time.Now()}
	select {
	case m.presses <- p:
	default:
		m.dropped++
		m.log.Add(eventlog.KindErr, fmt.Sprintf("dropped key %q, pipeline busy", symbol))
	}
}

func (m Model) handleEvent(e pipeline.Event) (tea.Model, tea.Cmd) {
	m.state = e.State
	m.statusBar.State = e.State

	switch e.Type {
	case pipeline.EventState:
		m.log.Add(eventlog.KindKey, e.Symbol)
		m.log.Add(eventlog.KindSet, e.Desc)
		return m, nil

	case pipeline.EventNotify:
		if e.Result == nil {
			return m, nil
		}
		res := *e.Result
		m.statusBar.LastResult = &res
		if res.OK() {
			m.log.Add(eventlog.KindOK, fmt.Sprintf("%s %s → %d %s", res.Effect, res.PresetID, res.Status, res.Body))
		} else {
			m.log.Add(eventlog.KindErr, fmt.Sprintf("%s %s → %s: %v", res.Effect, res.PresetID, res.Kind, res.Err))
		}
		if m.statusBar.Pulse.Kick(res.OK()) {
			return m, pulseTick()
		}
	}
	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	title := theme.StyleHeader.Render(" ledkeys ") + theme.StyleDimmed.Render("terminal")
	bar := m.statusBar.View()
	helpView := m.help.View(m.keys)

	if m.showTable {
		return lipgloss.JoinVertical(lipgloss.Left, title, bar, m.keyTable.View(m.width, m.state), helpView)
	}

	logHeight := m.height - lipgloss.Height(title) - lipgloss.Height(bar) - lipgloss.Height(helpView) - 1
	return lipgloss.JoinVertical(lipgloss.Left, title, bar, m.log.View(m.width, logHeight), "", helpView)
}
