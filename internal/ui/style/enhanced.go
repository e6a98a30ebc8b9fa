package style

import (
	"github.com/charmbracelet/lipgloss"
)

// HeaderStyles provides styling for the status header
type HeaderStyles struct {
	Container   lipgloss.Style
	Title       lipgloss.Style
	Wallet      lipgloss.Style
	MarketLive  lipgloss.Style
	MarketStale lipgloss.Style
	PnLPositive lipgloss.Style
	PnLNegative lipgloss.Style
	PnLNeutral  lipgloss.Style
}

// NewHeaderStyles creates header styles with the given palette
func NewHeaderStyles(palette Palette) HeaderStyles {
	return HeaderStyles{
		Container: lipgloss.NewStyle().
			Foreground(palette.Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Primary).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),

		Wallet: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Secondary).
			Padding(0, 1),

		MarketLive: lipgloss.NewStyle().
			Foreground(palette.Success).
			Bold(true),

		MarketStale: lipgloss.NewStyle().
			Foreground(palette.Warning).
			Bold(true),

		PnLPositive: lipgloss.NewStyle().
			Foreground(palette.Success).
			Bold(true),

		PnLNegative: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true),

		PnLNeutral: lipgloss.NewStyle().
			Foreground(palette.TextMuted),
	}
}

// DetailStyles provides styling for the position detail pane
type DetailStyles struct {
	Container lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Danger    lipgloss.Style
	Insured   lipgloss.Style
	Hotkeys   lipgloss.Style
}

// NewDetailStyles creates detail pane styles
func NewDetailStyles(palette Palette) DetailStyles {
	return DetailStyles{
		Container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Secondary).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(palette.TextMuted).
			Width(14),

		Value: lipgloss.NewStyle().
			Foreground(palette.Text),

		Danger: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true).
			Blink(true),

		Insured: lipgloss.NewStyle().
			Foreground(palette.Shield).
			Bold(true),

		Hotkeys: lipgloss.NewStyle().
			Foreground(palette.TextMuted).
			Italic(true),
	}
}

// PoolStyles provides styling for the insurance pool cards
type PoolStyles struct {
	Card         lipgloss.Style
	SelectedCard lipgloss.Style
	Name         lipgloss.Style
	Stat         lipgloss.Style
	Description  lipgloss.Style
}

// NewPoolStyles creates pool card styles for a pool color
func NewPoolStyles(palette Palette, color lipgloss.Color) PoolStyles {
	return PoolStyles{
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted).
			Padding(0, 2),

		SelectedCard: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(color).
			Padding(0, 2),

		Name: lipgloss.NewStyle().
			Foreground(color).
			Bold(true),

		Stat: lipgloss.NewStyle().
			Foreground(palette.Text),

		Description: lipgloss.NewStyle().
			Foreground(palette.TextSecondary).
			Italic(true),
	}
}
