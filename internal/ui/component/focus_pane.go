package component

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// nearLiquidationPercent marks the distance at which the pane turns red.
const nearLiquidationPercent = 2.0

// FocusPane provides a detailed view of the selected position
type FocusPane struct {
	position  *ledger.Position
	sparkline *Sparkline
	gauge     *PnLGauge
	style     style.DetailStyles
	width     int
	visible   bool
}

// NewFocusPane creates a new focus pane component
func NewFocusPane() *FocusPane {
	return &FocusPane{
		visible:   true,
		style:     style.NewDetailStyles(style.DefaultPalette()),
		sparkline: NewSparkline(40).ShowText(true),
		gauge:     NewPnLGauge(20),
	}
}

// SetPosition updates the focused position and its instrument's price history
func (fp *FocusPane) SetPosition(pos *ledger.Position, prices []float64) {
	fp.position = pos
	if pos == nil {
		return
	}

	fp.gauge.SetValue(pos.PnLPercent())
	fp.sparkline.SetData(prices)
	if pos.Direction == ledger.Short {
		fp.sparkline.SetColor(style.ShortColor)
	} else {
		fp.sparkline.SetColor(style.LongColor)
	}
}

// SetThresholds scales the PnL gauge to the alert thresholds
func (fp *FocusPane) SetThresholds(profitTarget, lossLimit float64) {
	fp.gauge.SetThresholds(profitTarget, lossLimit)
}

// SetVisible toggles the visibility of the focus pane
func (fp *FocusPane) SetVisible(visible bool) {
	fp.visible = visible
}

// SetWidth sets the component width for responsive layout
func (fp *FocusPane) SetWidth(width int) {
	fp.width = width
	if width > 4 {
		fp.style.Container = fp.style.Container.Width(width - 4)
	}

	chartWidth := width - 20
	if chartWidth > 40 {
		chartWidth = 40
	}
	if chartWidth < 10 {
		chartWidth = 10
	}
	fp.sparkline.SetWidth(chartWidth)
	fp.gauge.SetWidth(chartWidth / 2)
}

// View renders the focus pane
func (fp *FocusPane) View() string {
	if !fp.visible || fp.position == nil {
		return ""
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		fp.renderTitle(),
		fp.sparkline.View(),
		fp.gauge.View()+"  "+fp.gauge.GetStatus(),
		fp.renderStats(),
		fp.renderLiquidation(),
		fp.style.Hotkeys.Render("[x] close  [e] export  [b/s] new long/short"),
	)

	return fp.style.Container.Render(content)
}

func (fp *FocusPane) renderTitle() string {
	pos := fp.position
	dir := style.LongStyle.Render("LONG")
	if pos.Direction == ledger.Short {
		dir = style.ShortStyle.Render("SHORT")
	}

	title := fp.style.Title.Render(fmt.Sprintf("%s %s %dx", pos.ID, pos.Symbol, pos.Leverage))
	if pos.Insured {
		return title + " " + dir + " " + fp.style.Insured.Render("🛡 insured")
	}
	return title + " " + dir
}

func (fp *FocusPane) row(label, value string) string {
	return fp.style.Label.Render(label) + fp.style.Value.Render(value)
}

func (fp *FocusPane) renderStats() string {
	pos := fp.position

	left := lipgloss.JoinVertical(
		lipgloss.Left,
		fp.row("Entry", formatPrice(pos.EntryPrice)),
		fp.row("Mark", formatPrice(pos.MarkPrice)),
		fp.row("Value", fmt.Sprintf("$%.2f", pos.Size())),
	)

	right := lipgloss.JoinVertical(
		lipgloss.Left,
		fp.row("Amount", fmt.Sprintf("%g", pos.Amount)),
		fp.style.Label.Render("PnL")+style.PnLStyle(pos.PnL).Render(fmt.Sprintf("%+.2f", pos.PnL)),
		fp.row("Opened", pos.OpenedAt.Format("15:04:05")),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right)
}

func (fp *FocusPane) renderLiquidation() string {
	pos := fp.position
	line := fp.row("Liquidation", formatPrice(pos.LiquidationPrice))

	if pos.MarkPrice <= 0 {
		return line
	}
	if pos.Breached(pos.MarkPrice) {
		return line + "  " + fp.style.Danger.Render("LIQUIDATED")
	}

	distance := pos.DistanceToLiquidation(pos.MarkPrice)
	text := fmt.Sprintf("  %.2f%% away", distance)
	if distance <= nearLiquidationPercent {
		return line + fp.style.Danger.Render(text)
	}
	return line + style.MutedStyle.Render(text)
}

// GetHeight returns the component height for layout calculations
func (fp *FocusPane) GetHeight() int {
	if !fp.visible || fp.position == nil {
		return 0
	}
	return 11
}

// formatPrice prints large prices with two decimals and small ones with more
func formatPrice(p float64) string {
	switch {
	case p <= 0:
		return "-"
	case p >= 100:
		return fmt.Sprintf("$%.2f", p)
	case p >= 1:
		return fmt.Sprintf("$%.3f", p)
	default:
		return fmt.Sprintf("$%.5f", p)
	}
}

// FormatPrice is the price format shared by the trading screens
func FormatPrice(p float64) string {
	return formatPrice(p)
}
