package ui

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// RecoveryHandler manages UI panic recovery
type RecoveryHandler struct {
	logger       *zap.Logger
	restartDelay time.Duration
	maxRestarts  int
	restartCount int
	mu           sync.Mutex
	program      *tea.Program
	createUI     func() (tea.Model, []tea.ProgramOption)
	run          func(p *tea.Program) error
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(logger *zap.Logger, createUI func() (tea.Model, []tea.ProgramOption)) *RecoveryHandler {
	return &RecoveryHandler{
		logger:       logger.Named("recovery"),
		restartDelay: 2 * time.Second,
		maxRestarts:  5,
		createUI:     createUI,
		run: func(p *tea.Program) error {
			_, err := p.Run()
			return err
		},
	}
}

// RunWithRecovery runs the UI with panic recovery
func (rh *RecoveryHandler) RunWithRecovery() error {
	for {
		err := rh.runUI()

		rh.mu.Lock()
		if err == nil {
			rh.mu.Unlock()
			return nil
		}

		rh.restartCount++
		if rh.restartCount > rh.maxRestarts {
			rh.mu.Unlock()
			return fmt.Errorf("UI crashed too many times (%d), giving up: %w", rh.maxRestarts, err)
		}

		rh.logger.Error("UI crashed, will restart",
			zap.Error(err),
			zap.Int("restart_count", rh.restartCount),
			zap.Duration("delay", rh.restartDelay))

		rh.mu.Unlock()

		time.Sleep(rh.restartDelay)
	}
}

// runUI runs the UI with panic recovery
func (rh *RecoveryHandler) runUI() (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			err = fmt.Errorf("UI panic: %v", r)
			rh.logger.Error("UI panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(stack)))
		}
	}()

	model, opts := rh.createUI()
	program := tea.NewProgram(model, opts...)

	rh.mu.Lock()
	rh.program = program
	rh.mu.Unlock()

	if err := rh.run(program); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}

	return nil
}

// Stop gracefully stops the UI
func (rh *RecoveryHandler) Stop() {
	rh.mu.Lock()
	defer rh.mu.Unlock()

	if rh.program != nil {
		rh.program.Quit()
		rh.program = nil
	}
}

// GetRestartCount returns the number of restarts
func (rh *RecoveryHandler) GetRestartCount() int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return rh.restartCount
}

// SafeUIWrapper wraps UI operations with panic recovery
type SafeUIWrapper struct {
	model  tea.Model
	logger *zap.Logger
	panics int
}

// NewSafeUIWrapper creates a new safe UI wrapper
func NewSafeUIWrapper(model tea.Model, logger *zap.Logger) *SafeUIWrapper {
	return &SafeUIWrapper{
		model:  model,
		logger: logger.Named("ui"),
	}
}

// Init wraps the Init method with panic recovery
func (sw *SafeUIWrapper) Init() (cmd tea.Cmd) {
	defer sw.recoverFromPanic("Init", &cmd)
	return sw.model.Init()
}

// Update wraps the Update method with panic recovery. The wrapper stays the
// program's model even when the wrapped Update panics.
func (sw *SafeUIWrapper) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	model = sw
	defer sw.recoverFromPanic("Update", &cmd)
	next, cmd := sw.model.Update(msg)
	sw.model = next
	return sw, cmd
}

// View wraps the View method with panic recovery
func (sw *SafeUIWrapper) View() (view string) {
	defer func() {
		if r := recover(); r != nil {
			sw.panics++
			sw.logger.Error("View panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			view = "UI Error: View crashed. Press Ctrl+C to exit."
		}
	}()
	return sw.model.View()
}

// Model returns the wrapped model.
func (sw *SafeUIWrapper) Model() tea.Model {
	return sw.model
}

// Panics returns how many panics were recovered.
func (sw *SafeUIWrapper) Panics() int {
	return sw.panics
}

// recoverFromPanic recovers from panics in UI methods
func (sw *SafeUIWrapper) recoverFromPanic(method string, cmd *tea.Cmd) {
	if r := recover(); r != nil {
		sw.panics++
		sw.logger.Error("UI method panic recovered",
			zap.String("method", method),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())))
		*cmd = nil
	}
}
