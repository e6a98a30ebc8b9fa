package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/router"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

const maxLogEntries = 500

// LogsScreen shows recent entries from the in-memory log buffer
type LogsScreen struct {
	env    *Env
	width  int
	height int
	keyMap ui.KeyMap

	viewer  *component.LogViewer
	helpBar *component.HelpBar
}

// NewLogsScreen creates a new logs screen
func NewLogsScreen(env *Env) *LogsScreen {
	keyMap := ui.DefaultKeyMap()
	return &LogsScreen{
		env:     env,
		keyMap:  keyMap,
		viewer:  component.NewLogViewer(env.Logs, maxLogEntries),
		helpBar: component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RouteLogs)),
	}
}

// Init initializes the logs screen
func (s *LogsScreen) Init() tea.Cmd {
	s.viewer.Refresh()
	return nil
}

// Update handles screen updates
func (s *LogsScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.MarketUpdatedMsg:
		s.viewer.Refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keyMap.Quit):
			return s, tea.Quit
		case key.Matches(msg, s.keyMap.FilterInfo):
			s.viewer.ToggleLogLevel("info")
		case key.Matches(msg, s.keyMap.FilterWarn):
			s.viewer.ToggleLogLevel("warning")
		case key.Matches(msg, s.keyMap.FilterError):
			s.viewer.ToggleLogLevel("error")
		case key.Matches(msg, s.keyMap.FilterDebug):
			s.viewer.ToggleLogLevel("debug")
		case key.Matches(msg, s.keyMap.Trade):
			return s, ui.Navigate(ui.RouteTrade)
		default:
			return s, s.viewer.Update(msg)
		}

	case tea.MouseMsg:
		return s, s.viewer.Update(msg)
	}

	return s, nil
}

// View renders the logs screen
func (s *LogsScreen) View() string {
	if s.width == 0 || s.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(style.TitleStyle.Render("Logs"))
	content.WriteString("\n")
	content.WriteString(s.renderStatusBar())
	content.WriteString("\n")
	content.WriteString(s.viewer.View())
	content.WriteString("\n")
	content.WriteString(s.helpBar.SetWidth(s.width).View())
	return content.String()
}

func (s *LogsScreen) renderStatusBar() string {
	status := s.viewer.GetFilterStatus()
	if s.env.Logs != nil {
		total, spilled := s.env.Logs.GetStats()
		status += fmt.Sprintf(" • %d shown • %d logged • %d spilled", s.viewer.Shown(), total, spilled)
	}
	return style.MutedStyle.Render(status)
}

// SetSize sets the screen dimensions
func (s *LogsScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	// Title, status bar and help bar take about eight lines.
	s.viewer.SetSize(width, height-8)
	s.helpBar.SetWidth(width)
}
