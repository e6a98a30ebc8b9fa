package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/router"
	"github.com/rovshanmuradov/perpshield/internal/ui/screen"
	"go.uber.org/zap"
)

// AppModel is the root model. It owns the simulation clock: every TickMsg
// advances the market once and the active screen is told to re-render.
type AppModel struct {
	router  *router.Router
	env     *screen.Env
	logger  *zap.Logger
	width   int
	height  int
	stopped bool
}

// NewAppModel creates a new application model
func NewAppModel(env *screen.Env) *AppModel {
	return &AppModel{
		router: router.New(ui.RouteHome, screen.NewFactory(env)),
		env:    env,
		logger: env.Logger.Named("app"),
	}
}

// Init seeds prices right away and starts the screen stack
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.router.Init(),
		func() tea.Msg { return ui.TickMsg{At: time.Now()} },
	)
}

// Update handles application-level updates
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.forward(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopped = true
			return m, tea.Quit
		}
		return m, m.forward(msg)

	case ui.TickMsg:
		return m, m.tick(msg.At)

	case ui.OpenTradeMsg:
		modal := screen.NewTradeModal(m.env, msg.Symbol, msg.Direction)
		return m, m.router.Push(ui.RouteTradeModal, modal)

	default:
		return m, m.forward(msg)
	}
}

// tick advances the market once and reschedules itself until the app stops.
// A failed update keeps the previous prices; the screen shows the feed as stale.
func (m *AppModel) tick(at time.Time) tea.Cmd {
	if m.stopped {
		return nil
	}

	err := m.env.Service.Tick()
	m.env.MarketErr = err
	if err == nil {
		m.env.RecordPrices()
	}

	return tea.Batch(
		m.forward(ui.MarketUpdatedMsg{At: at, Err: err}),
		ui.ScheduleTick(m.env.Interval),
	)
}

func (m *AppModel) forward(msg tea.Msg) tea.Cmd {
	updated, cmd := m.router.Update(msg)
	m.router = updated.(*router.Router)
	return cmd
}

// View renders the application
func (m *AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	return m.router.View()
}

// Stop ends the tick loop.
func (m *AppModel) Stop() {
	m.stopped = true
}
