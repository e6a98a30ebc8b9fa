package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/insurance"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/router"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// PoolsScreen visualizes the insurance pool levels
type PoolsScreen struct {
	env    *Env
	width  int
	height int
	keyMap ui.KeyMap

	helpBar  *component.HelpBar
	status   statusLine
	selected int
}

// NewPoolsScreen creates the pools screen
func NewPoolsScreen(env *Env) *PoolsScreen {
	keyMap := ui.DefaultKeyMap()
	return &PoolsScreen{
		env:     env,
		keyMap:  keyMap,
		helpBar: component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RoutePools)),
	}
}

// Init initializes the pools screen
func (s *PoolsScreen) Init() tea.Cmd {
	return nil
}

// Update handles screen updates
func (s *PoolsScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	if s.status.handle(msg) {
		return s, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	registry := s.env.Service.Pools()
	pools := registry.Pools()
	if len(pools) == 0 {
		return s, nil
	}
	level := pools[s.selected].Level

	switch {
	case key.Matches(keyMsg, s.keyMap.Quit):
		return s, tea.Quit

	case key.Matches(keyMsg, s.keyMap.Up):
		if s.selected > 0 {
			s.selected--
		}

	case key.Matches(keyMsg, s.keyMap.Down):
		if s.selected < len(pools)-1 {
			s.selected++
		}

	case key.Matches(keyMsg, s.keyMap.Expand):
		if _, err := registry.Toggle(level); err != nil {
			return s, ui.ReportError("Pools", err)
		}

	case key.Matches(keyMsg, s.keyMap.Stake):
		return s, ui.ReportError("Stake", registry.Stake(level, 0))

	case key.Matches(keyMsg, s.keyMap.Withdraw):
		return s, ui.ReportError("Withdraw", registry.Withdraw(level, 0))

	case key.Matches(keyMsg, s.keyMap.Trade):
		return s, ui.Navigate(ui.RouteTrade)
	}

	return s, nil
}

// Selected returns the index of the highlighted pool
func (s *PoolsScreen) Selected() int {
	return s.selected
}

// View renders the pools screen
func (s *PoolsScreen) View() string {
	if s.width == 0 || s.height == 0 {
		return "Loading..."
	}

	registry := s.env.Service.Pools()

	var content strings.Builder
	content.WriteString(s.env.header(s.width))
	content.WriteString("\n")
	content.WriteString(style.TitleStyle.Render("Insurance Pools"))
	content.WriteString("\n")
	content.WriteString(style.MutedStyle.Render(fmt.Sprintf("Total value locked: $%s", formatThousands(registry.TotalBalance()))))
	content.WriteString("\n\n")

	for i, pool := range registry.Pools() {
		content.WriteString(s.renderPool(pool, i == s.selected))
		content.WriteString("\n")
	}

	content.WriteString(s.renderFlow())

	if status := s.status.View(); status != "" {
		content.WriteString("\n")
		content.WriteString(status)
	}

	content.WriteString("\n")
	content.WriteString(s.helpBar.SetWidth(s.width).View())

	return content.String()
}

func (s *PoolsScreen) renderPool(pool insurance.Pool, selected bool) string {
	ps := style.NewPoolStyles(style.DefaultPalette(), style.PoolColor(pool.Color))

	marker := "▸"
	if pool.Expanded {
		marker = "▾"
	}

	lines := []string{
		ps.Name.Render(fmt.Sprintf("%s %s", marker, pool.Name)),
		ps.Stat.Render(fmt.Sprintf("Balance $%s   APY %.1f%%   Insured $%s   Coverage %.1f%%",
			formatThousands(pool.Balance), pool.APY, formatThousands(pool.TotalInsured), pool.Utilization())),
	}
	if pool.Expanded {
		lines = append(lines,
			ps.Description.Render(pool.Description),
			style.ButtonDisabledStyle.Render("Stake")+style.ButtonDisabledStyle.Render("Withdraw"))
	}

	card := ps.Card
	if selected {
		card = ps.SelectedCard
	}
	if s.width > 8 {
		card = card.Width(s.width - 6)
	}
	return card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (s *PoolsScreen) renderFlow() string {
	steps := make([]string, 0, len(insurance.FlowSteps))
	for i, step := range insurance.FlowSteps {
		steps = append(steps, fmt.Sprintf("%d. %s", i+1, step))
	}
	return style.SubTitleStyle.Render("How funds flow") + "\n" + style.MutedStyle.Render(strings.Join(steps, "\n"))
}

// SetSize sets the screen dimensions
func (s *PoolsScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.helpBar.SetWidth(width)
}

// formatThousands renders 158400 as "158,400"
func formatThousands(v float64) string {
	raw := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	var b strings.Builder
	for i, r := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
