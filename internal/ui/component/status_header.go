package component

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
)

// MarketStatus describes the price feed as seen by the UI
type MarketStatus struct {
	LastTick time.Time
	Ticks    uint64
	Interval time.Duration
	Err      error
}

// Stale reports whether the last update failed or is older than two intervals.
func (m MarketStatus) Stale(now time.Time) bool {
	if m.Err != nil {
		return true
	}
	if m.LastTick.IsZero() || m.Interval <= 0 {
		return m.Ticks == 0
	}
	return now.Sub(m.LastTick) > 2*m.Interval
}

// StatusHeader provides a clean header with essential status information
type StatusHeader struct {
	title    string
	market   MarketStatus
	totalPnL float64
	open     int
	style    style.HeaderStyles
	width    int
	now      func() time.Time
}

// NewStatusHeader creates a new status header component
func NewStatusHeader(title string) *StatusHeader {
	return &StatusHeader{
		title: title,
		style: style.NewHeaderStyles(style.DefaultPalette()),
		now:   time.Now,
	}
}

// SetMarket updates the price feed status
func (sh *StatusHeader) SetMarket(status MarketStatus) {
	sh.market = status
}

// SetPositions updates the open position count and their total PnL
func (sh *StatusHeader) SetPositions(open int, totalPnL float64) {
	sh.open = open
	sh.totalPnL = totalPnL
}

// SetWidth sets the component width for responsive layout
func (sh *StatusHeader) SetWidth(width int) {
	sh.width = width
	if width > 4 {
		sh.style.Container = sh.style.Container.Width(width - 4)
	}
}

// View renders the status header
func (sh *StatusHeader) View() string {
	content := lipgloss.JoinHorizontal(
		lipgloss.Left,
		sh.style.Title.Render(sh.title),
		" | ",
		sh.renderMarketStatus(),
		" | ",
		sh.renderPnLStatus(),
		" | ",
		sh.style.Wallet.Render("Connect Wallet"),
	)

	return sh.style.Container.Render(content)
}

func (sh *StatusHeader) renderMarketStatus() string {
	if sh.market.Stale(sh.now()) {
		status := "Market: waiting"
		if sh.market.Err != nil {
			status = "Market: stale"
		}
		return sh.style.MarketStale.Render(status)
	}

	status := fmt.Sprintf("Market: live (%s)", sh.market.LastTick.Format("15:04:05"))
	return sh.style.MarketLive.Render(status)
}

func (sh *StatusHeader) renderPnLStatus() string {
	renderer := sh.style.PnLNeutral
	if sh.totalPnL > 0 {
		renderer = sh.style.PnLPositive
	} else if sh.totalPnL < 0 {
		renderer = sh.style.PnLNegative
	}

	return renderer.Render(fmt.Sprintf("Positions: %d  PnL: %+.2f", sh.open, sh.totalPnL))
}

// GetHeight returns the component height for layout calculations
func (sh *StatusHeader) GetHeight() int {
	return 3
}
