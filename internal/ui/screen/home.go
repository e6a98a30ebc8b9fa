package screen

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/router"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// ErrWalletUnavailable is shown by the wallet-connect placeholder.
var ErrWalletUnavailable = errors.New("wallet connection is not available in the demo")

// MenuItem represents a menu item
type MenuItem struct {
	Label       string
	Description string
	Route       ui.Route
	Enabled     bool
}

var features = []struct{ title, text string }{
	{"Position insurance", "Pay a flat premium to shield a leveraged position."},
	{"Yield on deposits", "Back the insurance pools and earn a share of premiums."},
	{"Liquidation protection", "Insured positions are covered when the mark hits liquidation."},
}

// HomeScreen is the landing page
type HomeScreen struct {
	env    *Env
	width  int
	height int
	keyMap ui.KeyMap

	helpBar *component.HelpBar
	status  statusLine

	selectedIndex int
	menuItems     []MenuItem

	titleStyle       lipgloss.Style
	pitchStyle       lipgloss.Style
	menuItemStyle    lipgloss.Style
	selectedStyle    lipgloss.Style
	descriptionStyle lipgloss.Style
}

// NewHomeScreen creates the landing page
func NewHomeScreen(env *Env) *HomeScreen {
	palette := style.DefaultPalette()
	keyMap := ui.DefaultKeyMap()

	menuItems := []MenuItem{
		{Label: "▶ Trade", Description: "Open leveraged long and short positions", Route: ui.RouteTrade, Enabled: true},
		{Label: "🛡 Insurance Pools", Description: "Browse the three pool risk levels", Route: ui.RoutePools, Enabled: true},
		{Label: "📜 Logs", Description: "View application logs and activity", Route: ui.RouteLogs, Enabled: true},
		{Label: "🔗 Connect Wallet", Description: "Coming soon", Enabled: false},
	}

	return &HomeScreen{
		env:       env,
		keyMap:    keyMap,
		menuItems: menuItems,
		helpBar:   component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RouteHome)),

		titleStyle: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true).
			Margin(1, 0, 0, 0),

		pitchStyle: lipgloss.NewStyle().
			Foreground(palette.TextSecondary).
			Italic(true),

		menuItemStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 2),

		selectedStyle: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Primary).
			Padding(0, 2).
			Bold(true),

		descriptionStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted).
			Padding(0, 4).
			Italic(true),
	}
}

// Init initializes the home screen
func (m *HomeScreen) Init() tea.Cmd {
	return nil
}

// Update handles screen updates
func (m *HomeScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	if m.status.handle(msg) {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(keyMsg, m.keyMap.Up):
		m.moveUp()

	case key.Matches(keyMsg, m.keyMap.Down):
		m.moveDown()

	case key.Matches(keyMsg, m.keyMap.Enter):
		item := m.menuItems[m.selectedIndex]
		if !item.Enabled {
			return m, ui.ReportError("Wallet", ErrWalletUnavailable)
		}
		return m, ui.Navigate(item.Route)

	case key.Matches(keyMsg, m.keyMap.Trade):
		return m, ui.Navigate(ui.RouteTrade)

	case key.Matches(keyMsg, m.keyMap.Pools):
		return m, ui.Navigate(ui.RoutePools)

	case key.Matches(keyMsg, m.keyMap.Logs):
		return m, ui.Navigate(ui.RouteLogs)

	case key.Matches(keyMsg, m.keyMap.Wallet):
		return m, ui.ReportError("Wallet", ErrWalletUnavailable)
	}

	return m, nil
}

// View renders the home screen
func (m *HomeScreen) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	content.WriteString(m.env.header(m.width))
	content.WriteString("\n")
	content.WriteString(m.titleStyle.Render("Trade perps without fearing liquidation"))
	content.WriteString("\n")
	content.WriteString(m.pitchStyle.Render("perpshield adds an optional insurance layer to leveraged positions."))
	content.WriteString("\n\n")
	content.WriteString(m.renderFeatures())
	content.WriteString("\n")
	content.WriteString(m.renderMenu())

	if status := m.status.View(); status != "" {
		content.WriteString("\n")
		content.WriteString(status)
	}

	content.WriteString("\n")
	content.WriteString(m.helpBar.SetWidth(m.width).View())

	return place(m.width, m.height, content.String())
}

// SetSize sets the screen dimensions
func (m *HomeScreen) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.helpBar.SetWidth(width)
}

func (m *HomeScreen) renderFeatures() string {
	cards := make([]string, 0, len(features))
	for _, f := range features {
		card := style.PanelStyle.Width(28).Render(
			style.ShieldStyle.Render(f.title) + "\n" + style.MutedStyle.Render(f.text))
		cards = append(cards, card)
	}
	return style.AdaptiveJoinHorizontal(m.width, cards...)
}

// renderMenu renders the menu items
func (m *HomeScreen) renderMenu() string {
	var items []string

	for i, item := range m.menuItems {
		itemStyle := m.menuItemStyle
		if i == m.selectedIndex {
			itemStyle = m.selectedStyle
		}
		if !item.Enabled {
			itemStyle = itemStyle.Foreground(style.DefaultPalette().TextMuted)
		}

		items = append(items, itemStyle.Render(item.Label))
		if i == m.selectedIndex {
			items = append(items, m.descriptionStyle.Render(item.Description))
		}
	}

	return style.ActivePanelStyle.Render(strings.Join(items, "\n"))
}

// moveUp moves selection up
func (m *HomeScreen) moveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	} else {
		m.selectedIndex = len(m.menuItems) - 1
	}
}

// moveDown moves selection down
func (m *HomeScreen) moveDown() {
	if m.selectedIndex < len(m.menuItems)-1 {
		m.selectedIndex++
	} else {
		m.selectedIndex = 0
	}
}

// GetSelectedRoute returns the currently selected route
func (m *HomeScreen) GetSelectedRoute() ui.Route {
	return m.menuItems[m.selectedIndex].Route
}
