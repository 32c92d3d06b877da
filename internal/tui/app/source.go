package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/pipeline"
	"github.com/ledkeys/ledkeys/internal/source"
)

// Source is the KeySource for the controlling terminal. It also observes
// the pipeline so the UI can show what each key did.
type Source struct {
	initial    lighting.State
	tableStyle string
	opts       []tea.ProgramOption
	logger     *zap.SugaredLogger

	mu      sync.Mutex
	program *tea.Program
}

var (
	_ source.KeySource  = (*Source)(nil)
	_ pipeline.Observer = (*Source)(nil)
)

// NewSource creates a terminal source. opts are appended to the program's
// options; tests use them to replace the terminal.
func NewSource(initial lighting.State, tableStyle string, logger *zap.SugaredLogger, opts ...tea.ProgramOption) *Source {
	return &Source{
		initial:    initial,
		tableStyle: tableStyle,
		opts:       opts,
		logger:     logger.Named("terminal"),
	}
}

func (s *Source) Name() string { return "terminal" }

// Run starts the program and blocks until the user quits or ctx is
// cancelled.
func (s *Source) Run(ctx context.Context, presses chan<- source.Press) error {
	opts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	}, s.opts...)
	p := tea.NewProgram(New(s.initial, presses, s.tableStyle), opts...)

	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.program = nil
		s.mu.Unlock()
	}()

	s.logger.Info("Terminal input started")
	_, err := p.Run()
	switch {
	case err == nil:
		s.logger.Info("Terminal input stopped")
		return nil
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		return nil
	case errors.Is(err, tea.ErrInterrupted):
		return nil
	}
	return fmt.Errorf("terminal program: %w", err)
}

// Observe forwards pipeline events to the running program.
func (s *Source) Observe(e pipeline.Event) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(EventMsg(e))
	}
}
