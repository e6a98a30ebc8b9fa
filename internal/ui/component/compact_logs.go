package component

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/logger"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// LogFilter defines what log levels to show
type LogFilter struct {
	ShowError   bool
	ShowWarning bool
	ShowInfo    bool
	ShowDebug   bool
}

// LogViewer renders the in-memory log buffer in a scrollable viewport
type LogViewer struct {
	buffer   *logger.LogBuffer
	viewport viewport.Model
	filter   LogFilter
	style    logViewerStyle
	limit    int
	follow   bool
	shown    int
}

type logViewerStyle struct {
	container lipgloss.Style
	timestamp lipgloss.Style
	fields    lipgloss.Style
	error     lipgloss.Style
	warning   lipgloss.Style
	info      lipgloss.Style
	debug     lipgloss.Style
}

// NewLogViewer creates a log viewer reading up to limit entries from buffer
func NewLogViewer(buffer *logger.LogBuffer, limit int) *LogViewer {
	palette := style.DefaultPalette()
	if limit <= 0 {
		limit = 200
	}

	return &LogViewer{
		buffer: buffer,
		limit:  limit,
		follow: true,
		filter: LogFilter{
			ShowError:   true,
			ShowWarning: true,
			ShowInfo:    true,
		},
		style: logViewerStyle{
			container: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Info).
				Padding(0, 1),

			timestamp: lipgloss.NewStyle().
				Foreground(palette.TextMuted),

			fields: lipgloss.NewStyle().
				Foreground(palette.TextSecondary),

			error: lipgloss.NewStyle().
				Foreground(palette.Error).
				Bold(true),

			warning: lipgloss.NewStyle().
				Foreground(palette.Warning).
				Bold(true),

			info: lipgloss.NewStyle().
				Foreground(palette.Info),

			debug: lipgloss.NewStyle().
				Foreground(palette.TextMuted),
		},
		viewport: viewport.New(60, 10),
	}
}

// SetSize sets the component dimensions
func (lv *LogViewer) SetSize(width, height int) {
	lv.viewport.Width = max(width-4, 10)
	lv.viewport.Height = max(height-2, 2)
	lv.Refresh()
}

// ToggleLogLevel toggles a specific log level
func (lv *LogViewer) ToggleLogLevel(level string) {
	switch level {
	case "error":
		lv.filter.ShowError = !lv.filter.ShowError
	case "warning":
		lv.filter.ShowWarning = !lv.filter.ShowWarning
	case "info":
		lv.filter.ShowInfo = !lv.filter.ShowInfo
	case "debug":
		lv.filter.ShowDebug = !lv.filter.ShowDebug
	}
	lv.Refresh()
}

// Filter returns the active filter
func (lv *LogViewer) Filter() LogFilter {
	return lv.filter
}

// Update forwards scrolling to the viewport. Scrolling up pauses following.
func (lv *LogViewer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	lv.viewport, cmd = lv.viewport.Update(msg)
	lv.follow = lv.viewport.AtBottom()
	return cmd
}

// Refresh reloads the viewport content from the log buffer
func (lv *LogViewer) Refresh() {
	if lv.buffer == nil {
		lv.shown = 0
		lv.viewport.SetContent("No log buffer available")
		return
	}

	var lines []string
	for _, entry := range lv.buffer.GetRecentLogs(lv.limit) {
		if lv.shouldShowEntry(entry) {
			lines = append(lines, lv.formatLogEntry(entry))
		}
	}
	lv.shown = len(lines)

	if len(lines) == 0 {
		lv.viewport.SetContent("No logs match current filter")
		return
	}

	lv.viewport.SetContent(strings.Join(lines, "\n"))
	if lv.follow {
		lv.viewport.GotoBottom()
	}
}

// Shown returns how many entries passed the filter on the last refresh
func (lv *LogViewer) Shown() int {
	return lv.shown
}

// View renders the log viewer
func (lv *LogViewer) View() string {
	return lv.style.container.Render(lv.viewport.View())
}

// shouldShowEntry determines if a log entry should be displayed based on filter
func (lv *LogViewer) shouldShowEntry(entry logger.LogEntry) bool {
	switch strings.ToLower(entry.Level) {
	case "error", "dpanic", "panic", "fatal":
		return lv.filter.ShowError
	case "warning", "warn":
		return lv.filter.ShowWarning
	case "debug":
		return lv.filter.ShowDebug
	default:
		return lv.filter.ShowInfo
	}
}

// formatLogEntry formats a log entry for display
func (lv *LogViewer) formatLogEntry(entry logger.LogEntry) string {
	level := strings.ToUpper(entry.Level)
	var levelStyle lipgloss.Style
	switch strings.ToLower(entry.Level) {
	case "error", "dpanic", "panic", "fatal":
		levelStyle = lv.style.error
	case "warning", "warn":
		levelStyle = lv.style.warning
	case "debug":
		levelStyle = lv.style.debug
	default:
		levelStyle = lv.style.info
	}

	line := fmt.Sprintf("%s %s %s",
		lv.style.timestamp.Render(entry.Timestamp.Format("15:04:05")),
		levelStyle.Render(fmt.Sprintf("%-5s", level)),
		entry.Message)

	if fields := formatFields(entry.Fields); fields != "" {
		line += " " + lv.style.fields.Render(fields)
	}
	return line
}

// formatFields renders fields as sorted key=value pairs
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

// GetFilterStatus returns current filter status as string
func (lv *LogViewer) GetFilterStatus() string {
	var active []string
	if lv.filter.ShowError {
		active = append(active, "Error")
	}
	if lv.filter.ShowWarning {
		active = append(active, "Warning")
	}
	if lv.filter.ShowInfo {
		active = append(active, "Info")
	}
	if lv.filter.ShowDebug {
		active = append(active, "Debug")
	}

	if len(active) == 0 {
		return "No levels selected"
	}

	return fmt.Sprintf("Showing: %s", strings.Join(active, ", "))
}
