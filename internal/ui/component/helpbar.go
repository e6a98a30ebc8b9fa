package component

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// HelpBar represents a help bar component showing keyboard shortcuts
type HelpBar struct {
	keyBindings []key.Binding
	width       int

	// Styling
	keyStyle       lipgloss.Style
	descStyle      lipgloss.Style
	sepStyle       lipgloss.Style
	containerStyle lipgloss.Style

	compact bool
}

// NewHelpBar creates a new help bar component
func NewHelpBar() *HelpBar {
	palette := style.DefaultPalette()

	return &HelpBar{
		keyBindings: make([]key.Binding, 0),
		width:       80,

		keyStyle: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),

		descStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		sepStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted),

		containerStyle: lipgloss.NewStyle().
			Padding(0, 1).
			Margin(1, 0, 0, 0),
	}
}

// SetKeyBindings sets the key bindings to display
func (h *HelpBar) SetKeyBindings(bindings []key.Binding) *HelpBar {
	h.keyBindings = bindings
	return h
}

// SetWidth sets the help bar width
func (h *HelpBar) SetWidth(width int) *HelpBar {
	h.width = width
	return h
}

// SetCompact enables/disables compact mode
func (h *HelpBar) SetCompact(compact bool) *HelpBar {
	h.compact = compact
	return h
}

// View renders the help bar
func (h *HelpBar) View() string {
	if len(h.keyBindings) == 0 {
		return ""
	}

	items := h.items()
	if len(items) == 0 {
		return ""
	}

	availableWidth := h.width - 4
	separator := h.sepStyle.Render(" • ")
	content := strings.Join(items, separator)

	if availableWidth > 0 && lipgloss.Width(content) > availableWidth {
		content = h.wrapContent(items, availableWidth, separator)
	}

	return h.containerStyle.Render(content)
}

// items renders "key desc" pairs, or only keys in compact mode
func (h *HelpBar) items() []string {
	items := make([]string, 0, len(h.keyBindings))

	for _, binding := range h.keyBindings {
		if !binding.Enabled() {
			continue
		}

		help := binding.Help()
		if help.Key == "" {
			continue
		}

		item := h.keyStyle.Render(help.Key)
		if !h.compact && help.Desc != "" {
			item += " " + h.descStyle.Render(help.Desc)
		}
		items = append(items, item)
	}

	return items
}

// wrapContent wraps content to fit within the available width
func (h *HelpBar) wrapContent(items []string, maxWidth int, separator string) string {
	var lines []string
	var currentLine []string
	currentWidth := 0
	sepWidth := lipgloss.Width(separator)

	for _, item := range items {
		itemWidth := lipgloss.Width(item) + sepWidth

		if currentWidth+itemWidth > maxWidth && len(currentLine) > 0 {
			lines = append(lines, strings.Join(currentLine, separator))
			currentLine = []string{item}
			currentWidth = itemWidth
		} else {
			currentLine = append(currentLine, item)
			currentWidth += itemWidth
		}
	}

	if len(currentLine) > 0 {
		lines = append(lines, strings.Join(currentLine, separator))
	}

	return strings.Join(lines, "\n")
}
