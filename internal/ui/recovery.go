package ui

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ErrTooManyRestarts is returned once the restart budget is spent.
var ErrTooManyRestarts = errors.New("UI crashed too many times")

// Supervisor runs the TUI and starts a fresh program after a panic. The
// portfolio lives in Services, outside the model, so positions survive.
type Supervisor struct {
	logger      *zap.Logger
	maxRestarts int
	backoff     *backoff.ExponentialBackOff
	createUI    func() (tea.Model, []tea.ProgramOption)

	mu           sync.Mutex
	program      *tea.Program
	restartCount int
}

// NewSupervisor creates a supervisor that builds each program with createUI.
func NewSupervisor(logger *zap.Logger, createUI func() (tea.Model, []tea.ProgramOption)) *Supervisor {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	return &Supervisor{
		logger:      logger.Named("supervisor"),
		maxRestarts: 5,
		backoff:     b,
		createUI:    createUI,
	}
}

// Run blocks until the UI exits normally, ctx is cancelled, or the restart
// budget is exhausted.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		err := s.runOnce(ctx)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return nil
		case !errors.Is(err, tea.ErrProgramPanic):
			return err
		}

		s.mu.Lock()
		s.restartCount++
		count := s.restartCount
		s.mu.Unlock()

		if count > s.maxRestarts {
			return fmt.Errorf("%w (%d)", ErrTooManyRestarts, s.maxRestarts)
		}

		delay := s.backoff.NextBackOff()
		s.logger.Error("UI crashed, will restart",
			zap.Error(err),
			zap.Int("restart_count", count),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("UI panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", tea.ErrProgramPanic, r)
		}
	}()

	model, opts := s.createUI()
	opts = append(opts, tea.WithContext(ctx))
	program := tea.NewProgram(model, opts...)

	s.mu.Lock()
	s.program = program
	s.mu.Unlock()

	_, err = program.Run()

	s.mu.Lock()
	s.program = nil
	s.mu.Unlock()
	return err
}

// Stop quits the running program, if any.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		s.program.Quit()
	}
}

// RestartCount returns the number of restarts so far.
func (s *Supervisor) RestartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartCount
}

// SafeModel keeps the program alive when the wrapped model panics. A panic
// in Update drops that message and reports it on the bus.
type SafeModel struct {
	model  tea.Model
	logger *zap.Logger
}

// NewSafeModel wraps model.
func NewSafeModel(model tea.Model, logger *zap.Logger) *SafeModel {
	return &SafeModel{model: model, logger: logger}
}

// Init wraps the Init method with panic recovery
func (sm *SafeModel) Init() (cmd tea.Cmd) {
	defer sm.recoverFromPanic("Init", &cmd)
	return sm.model.Init()
}

// Update wraps the Update method with panic recovery
func (sm *SafeModel) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	model = sm
	defer sm.recoverFromPanic("Update", &cmd)
	sm.model, cmd = sm.model.Update(msg)
	return sm, cmd
}

// View wraps the View method with panic recovery
func (sm *SafeModel) View() (view string) {
	defer func() {
		if r := recover(); r != nil {
			sm.logger.Error("View panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			view = "UI Error: View crashed. Press Esc to go back or Ctrl+C to exit."
		}
	}()
	return sm.model.View()
}

func (sm *SafeModel) recoverFromPanic(method string, cmd *tea.Cmd) {
	if r := recover(); r != nil {
		sm.logger.Error("UI method panic recovered",
			zap.String("method", method),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())))
		*cmd = nil
		PublishError(fmt.Errorf("%s: %v", method, r), "UI")
	}
}
