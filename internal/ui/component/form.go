package component

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// NumberField is a text input that only accepts a non-negative decimal number.
type NumberField struct {
	Label string
	input textinput.Model
	err   string

	labelStyle   lipgloss.Style
	focusedStyle lipgloss.Style
	errorStyle   lipgloss.Style
}

// NewNumberField creates a focused number field
func NewNumberField(label, placeholder string) *NumberField {
	palette := style.DefaultPalette()

	ti := textinput.New()
	ti.Width = 20
	ti.CharLimit = 18
	ti.Placeholder = placeholder
	ti.Prompt = "» "
	ti.Focus()

	return &NumberField{
		Label: label,
		input: ti,

		labelStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Bold(true),

		focusedStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Primary).
			Padding(0, 1),

		errorStyle: lipgloss.NewStyle().
			Foreground(palette.Error),
	}
}

// Accepts reports whether the key edits the field rather than acting as a shortcut.
func (f *NumberField) Accepts(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete, tea.KeyHome, tea.KeyEnd:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if (r < '0' || r > '9') && r != '.' {
				return false
			}
		}
		return !(strings.ContainsRune(string(msg.Runes), '.') && strings.Contains(f.input.Value(), "."))
	default:
		return false
	}
}

// Update forwards accepted keys to the input
func (f *NumberField) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && !f.Accepts(key) {
		return nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	f.err = ""
	return cmd
}

// SetValue replaces the field content
func (f *NumberField) SetValue(v string) {
	f.input.SetValue(v)
	f.err = ""
}

// Raw returns the typed text
func (f *NumberField) Raw() string {
	return f.input.Value()
}

// Value parses the field; an empty or malformed field yields 0.
func (f *NumberField) Value() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(f.input.Value()), 64)
	if err != nil {
		return 0
	}
	return v
}

// SetError shows a validation message under the field
func (f *NumberField) SetError(msg string) {
	f.err = msg
}

// View renders the field
func (f *NumberField) View() string {
	var b strings.Builder
	b.WriteString(f.labelStyle.Render(f.Label))
	b.WriteString("\n")
	b.WriteString(f.focusedStyle.Render(f.input.View()))
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(f.errorStyle.Render("⚠ " + f.err))
	}
	return b.String()
}

// Stepper selects an integer in [Min, Max] with left/right keys.
type Stepper struct {
	Label string
	Min   int
	Max   int
	value int
}

// NewStepper creates a stepper starting at value, clamped into range.
func NewStepper(label string, lo, hi, value int) *Stepper {
	s := &Stepper{Label: label, Min: lo, Max: hi}
	s.Set(value)
	return s
}

// Set clamps v into range
func (s *Stepper) Set(v int) {
	if v < s.Min {
		v = s.Min
	}
	if v > s.Max {
		v = s.Max
	}
	s.value = v
}

// Value returns the current value
func (s *Stepper) Value() int {
	return s.value
}

// Decrement lowers the value by one
func (s *Stepper) Decrement() {
	s.Set(s.value - 1)
}

// Increment raises the value by one
func (s *Stepper) Increment() {
	s.Set(s.value + 1)
}

// View renders the stepper as a track, e.g. "◀ ■■■□□□□□□□ 3x ▶"
func (s *Stepper) View() string {
	palette := style.DefaultPalette()
	filled := lipgloss.NewStyle().Foreground(palette.Primary)
	empty := lipgloss.NewStyle().Foreground(palette.TextMuted)

	var track strings.Builder
	for i := s.Min; i <= s.Max; i++ {
		if i <= s.value {
			track.WriteString(filled.Render("■"))
		} else {
			track.WriteString(empty.Render("□"))
		}
	}

	label := lipgloss.NewStyle().Foreground(palette.Text).Bold(true).Render(s.Label)
	return fmt.Sprintf("%s\n◀ %s %s ▶", label, track.String(), filled.Bold(true).Render(fmt.Sprintf("%dx", s.value)))
}

// Checkbox renders a labelled on/off box
func Checkbox(label string, checked bool) string {
	box := "☐"
	if checked {
		box = "☑"
	}
	return box + " " + label
}
