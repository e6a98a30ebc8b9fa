package screen

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/logger"
	"github.com/rovshanmuradov/perpshield/internal/trading"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
	"go.uber.org/zap"
)

// Env is shared by all screens.
type Env struct {
	Service  *trading.Service
	Logs     *logger.LogBuffer
	Prices   *component.PriceHistory
	Interval time.Duration
	Logger   *zap.Logger

	// MarketErr holds the last tick failure, nil after a good tick.
	MarketErr error
}

// MarketStatus summarizes the feed for the status header.
func (e *Env) MarketStatus() component.MarketStatus {
	at, ticks := e.Service.LastTick()
	return component.MarketStatus{
		LastTick: at,
		Ticks:    ticks,
		Interval: e.Interval,
		Err:      e.MarketErr,
	}
}

// RecordPrices appends the current instrument prices to the sparkline history.
func (e *Env) RecordPrices() {
	for _, inst := range e.Service.Instruments() {
		e.Prices.Record(inst.Symbol, inst.Price)
	}
}

// header returns a status header filled from the service.
func (e *Env) header(width int) string {
	h := component.NewStatusHeader("perpshield")
	h.SetWidth(width)
	h.SetMarket(e.MarketStatus())
	h.SetPositions(len(e.Service.Positions()), e.Service.TotalPnL())
	return h.View()
}

// statusLine keeps the last success or error message for a screen.
type statusLine struct {
	text  string
	isErr bool
	at    time.Time
}

func (s *statusLine) handle(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case ui.ErrorMsg:
		s.text = msg.Error.Error()
		if msg.Title != "" {
			s.text = msg.Title + ": " + s.text
		}
		s.isErr = true
	case ui.SuccessMsg:
		s.text = msg.Message
		if msg.Title != "" {
			s.text = msg.Title + ": " + s.text
		}
		s.isErr = false
	default:
		return false
	}
	s.at = time.Now()
	return true
}

func (s *statusLine) View() string {
	if s.text == "" {
		return ""
	}
	st := style.SuccessStyle
	prefix := "✓ "
	if s.isErr {
		st = style.ErrorStyle
		prefix = "✗ "
	}
	return st.Render(prefix+s.text) + " " + style.MutedStyle.Render(s.at.Format("15:04:05"))
}

// place centers content on wide terminals
func place(width, height int, content string) string {
	if width > 80 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, content)
	}
	return content
}
