package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/export"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/monitor"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/router"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
	"go.uber.org/zap"
)

const exportTimeout = 10 * time.Second

// exportDoneMsg carries the result of an asynchronous journal export.
type exportDoneMsg struct {
	path string
	err  error
}

// TradeScreen shows instruments, open positions and the selected position
type TradeScreen struct {
	env    *Env
	width  int
	height int
	keyMap ui.KeyMap
	logger *zap.Logger

	instruments *component.Table
	positions   *component.Table
	focus       *component.FocusPane
	helpBar     *component.HelpBar
	status      statusLine

	positionIDs []string
	symbols     []string
	lastAlert   string
	exporting   bool

	titleStyle lipgloss.Style
}

// NewTradeScreen creates the trading screen
func NewTradeScreen(env *Env) *TradeScreen {
	keyMap := ui.DefaultKeyMap()

	s := &TradeScreen{
		env:    env,
		keyMap: keyMap,
		logger: env.Logger.Named("trade_screen"),
		instruments: component.NewTable().SetColumns([]component.TableColumn{
			{Header: "Name", Width: 14, Align: lipgloss.Left},
			{Header: "Symbol", Width: 8, Align: lipgloss.Left},
			{Header: "Price", Width: 14, Align: lipgloss.Right},
			{Header: "24h", Width: 9, Align: lipgloss.Right},
		}).SetEmptyText("Waiting for prices"),
		positions: component.NewTable().SetColumns([]component.TableColumn{
			{Header: "ID", Width: 8, Align: lipgloss.Left},
			{Header: "Symbol", Width: 8, Align: lipgloss.Left},
			{Header: "Side", Width: 7, Align: lipgloss.Left},
			{Header: "Size", Width: 12, Align: lipgloss.Right},
			{Header: "Entry", Width: 13, Align: lipgloss.Right},
			{Header: "Lev", Width: 5, Align: lipgloss.Right},
			{Header: "PnL", Width: 20, Align: lipgloss.Right},
			{Header: "Liq. Price", Width: 13, Align: lipgloss.Right},
			{Header: "🛡", Width: 4, Align: lipgloss.Center},
		}).SetEmptyText("No open positions. Press b or s to open one.").SetFocused(false),
		focus:      component.NewFocusPane(),
		helpBar:    component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RouteTrade)),
		titleStyle: style.SubTitleStyle,
	}

	alerts := env.Service.Options().Alerts
	s.focus.SetThresholds(alerts.ProfitTargetPercent, alerts.LossLimitPercent)
	if latest := env.Service.Alerts(1); len(latest) > 0 {
		s.lastAlert = latest[0].ID
	}
	s.refresh()
	return s
}

// Init initializes the trade screen
func (s *TradeScreen) Init() tea.Cmd {
	s.refresh()
	return nil
}

// Update handles screen updates
func (s *TradeScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	if s.status.handle(msg) {
		return s, nil
	}

	switch msg := msg.(type) {
	case ui.MarketUpdatedMsg:
		s.refresh()
		s.checkAlerts()

	case ui.PositionOpenedMsg:
		s.refresh()
		s.selectPosition(msg.Position.ID)
		s.status.handle(ui.SuccessMsg{Message: fmt.Sprintf("Opened %s %s %dx", msg.Position.Symbol, msg.Position.Direction, msg.Position.Leverage)})

	case exportDoneMsg:
		s.exporting = false
		if msg.err != nil {
			s.status.handle(ui.ErrorMsg{Title: "Export", Error: msg.err})
		} else {
			s.status.handle(ui.SuccessMsg{Title: "Export", Message: msg.path})
		}

	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}

	return s, nil
}

func (s *TradeScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keyMap.Quit):
		return tea.Quit

	case key.Matches(msg, s.keyMap.Tab):
		focused := s.instruments.Focused()
		s.instruments.SetFocused(!focused)
		s.positions.SetFocused(focused)

	case key.Matches(msg, s.keyMap.Up):
		s.activeTable().MoveUp()
		s.refreshFocus()

	case key.Matches(msg, s.keyMap.Down):
		s.activeTable().MoveDown()
		s.refreshFocus()

	case key.Matches(msg, s.keyMap.Enter), key.Matches(msg, s.keyMap.OpenLong):
		return s.openTrade(ledger.Long)

	case key.Matches(msg, s.keyMap.OpenShort):
		return s.openTrade(ledger.Short)

	case key.Matches(msg, s.keyMap.Close):
		return s.closeSelected()

	case key.Matches(msg, s.keyMap.Export):
		return s.exportCmd()

	case key.Matches(msg, s.keyMap.Pools):
		return ui.Navigate(ui.RoutePools)

	case key.Matches(msg, s.keyMap.Logs):
		return ui.Navigate(ui.RouteLogs)
	}

	return nil
}

func (s *TradeScreen) activeTable() *component.Table {
	if s.positions.Focused() {
		return s.positions
	}
	return s.instruments
}

// openTrade asks for the trade modal, prefilled with the selected symbol
func (s *TradeScreen) openTrade(dir ledger.Direction) tea.Cmd {
	symbol := s.selectedSymbol()
	if symbol == "" {
		return ui.ReportError("Trade", ledger.ErrNoPrice)
	}
	return func() tea.Msg {
		return ui.OpenTradeMsg{Symbol: symbol, Direction: dir}
	}
}

func (s *TradeScreen) selectedSymbol() string {
	if s.positions.Focused() {
		if pos, ok := s.selectedPosition(); ok {
			return pos.Symbol
		}
	}
	idx := s.instruments.GetSelectedRow()
	if idx >= 0 && idx < len(s.symbols) {
		return s.symbols[idx]
	}
	return ""
}

func (s *TradeScreen) selectedPosition() (ledger.Position, bool) {
	idx := s.positions.GetSelectedRow()
	if idx < 0 || idx >= len(s.positionIDs) {
		return ledger.Position{}, false
	}
	return s.env.Service.Position(s.positionIDs[idx])
}

func (s *TradeScreen) selectPosition(id string) {
	for i, pid := range s.positionIDs {
		if pid == id {
			s.positions.SetSelectedRow(i)
			s.instruments.SetFocused(false)
			s.positions.SetFocused(true)
			s.refreshFocus()
			return
		}
	}
}

func (s *TradeScreen) closeSelected() tea.Cmd {
	pos, ok := s.selectedPosition()
	if !ok {
		return ui.ReportError("Close", errors.New("no position selected"))
	}

	closed, ok := s.env.Service.Close(pos.ID)
	if !ok {
		return ui.ReportError("Close", fmt.Errorf("position %s is already closed", pos.ID))
	}

	s.refresh()
	return ui.ReportSuccess("Closed", fmt.Sprintf("%s %s at %s, PnL %+.2f",
		closed.ID, closed.Symbol, component.FormatPrice(closed.MarkPrice), closed.PnL))
}

// exportCmd writes the trade journal off the UI goroutine
func (s *TradeScreen) exportCmd() tea.Cmd {
	if s.exporting {
		return nil
	}
	s.exporting = true

	svc := s.env.Service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		path, err := svc.Export(ctx, export.ExportOptions{Format: export.FormatCSV})
		return exportDoneMsg{path: path, err: err}
	}
}

// checkAlerts surfaces the newest alert once
func (s *TradeScreen) checkAlerts() {
	alerts := s.env.Service.Alerts(1)
	if len(alerts) == 0 || alerts[0].ID == s.lastAlert {
		return
	}

	latest := alerts[0]
	s.lastAlert = latest.ID

	if latest.Severity == monitor.SeverityInfo {
		s.status.handle(ui.SuccessMsg{Title: "Alert", Message: latest.Message})
	} else {
		s.status.handle(ui.ErrorMsg{Title: "Alert", Error: errors.New(latest.Message)})
	}
}

// refresh rebuilds both tables from the service
func (s *TradeScreen) refresh() {
	instruments := s.env.Service.Instruments()
	s.symbols = s.symbols[:0]
	rows := make([][]string, 0, len(instruments))
	for _, inst := range instruments {
		s.symbols = append(s.symbols, inst.Symbol)
		change := "-"
		if inst.Seeded() {
			change = fmt.Sprintf("%+.2f%%", inst.Change24h)
		}
		rows = append(rows, []string{inst.Name, inst.Symbol, component.FormatPrice(inst.Price), change})
	}
	s.instruments.SetRows(rows)

	positions := s.env.Service.Positions()
	s.positionIDs = s.positionIDs[:0]
	rows = make([][]string, 0, len(positions))
	for _, pos := range positions {
		s.positionIDs = append(s.positionIDs, pos.ID)
		insured := ""
		if pos.Insured {
			insured = "✓"
		}
		rows = append(rows, []string{
			pos.ID,
			pos.Symbol,
			strings.ToUpper(pos.Direction.String()),
			fmt.Sprintf("$%.2f", pos.Size()),
			component.FormatPrice(pos.EntryPrice),
			fmt.Sprintf("%dx", pos.Leverage),
			fmt.Sprintf("%+.2f (%+.1f%%)", pos.PnL, pos.PnLPercent()),
			component.FormatPrice(pos.LiquidationPrice),
			insured,
		})
	}
	s.positions.SetRows(rows)
	for i, pos := range positions {
		s.positions.SetRowStyle(i, style.PnLStyle(pos.PnL))
	}

	s.refreshFocus()
}

func (s *TradeScreen) refreshFocus() {
	pos, ok := s.selectedPosition()
	if !ok {
		s.focus.SetPosition(nil, nil)
		return
	}
	s.focus.SetPosition(&pos, s.env.Prices.Series(pos.Symbol))
}

// View renders the trade screen
func (s *TradeScreen) View() string {
	if s.width == 0 || s.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	content.WriteString(s.env.header(s.width))
	content.WriteString("\n")

	markets := lipgloss.JoinVertical(lipgloss.Left, s.titleStyle.Render("Markets"), s.instruments.View())
	detail := s.focus.View()
	if detail == "" {
		detail = style.PanelStyle.Render(style.MutedStyle.Render("Select a position to see details"))
	}
	content.WriteString(style.AdaptiveJoinHorizontal(s.width, markets, detail))
	content.WriteString("\n")

	content.WriteString(s.titleStyle.Render("Positions"))
	content.WriteString("\n")
	content.WriteString(s.positions.View())
	content.WriteString("\n")
	content.WriteString(s.renderStats())

	if status := s.status.View(); status != "" {
		content.WriteString("\n")
		content.WriteString(status)
	}

	content.WriteString("\n")
	content.WriteString(s.helpBar.SetWidth(s.width).View())

	return content.String()
}

func (s *TradeScreen) renderStats() string {
	stats := s.env.Service.Statistics()
	line := fmt.Sprintf("Trades: %d  Closed: %d  Liquidated: %d  Win rate: %.0f%%  Realized: ",
		stats.TotalTrades, stats.Closes, stats.Liquidations, stats.WinRate)
	return style.MutedStyle.Render(line) +
		style.PnLStyle(stats.RealizedPnL).Render(fmt.Sprintf("%+.2f", stats.RealizedPnL)) +
		style.MutedStyle.Render(fmt.Sprintf("  Premiums: %.2f", stats.InsuranceFees))
}

// SetSize sets the screen dimensions
func (s *TradeScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.instruments.SetWidth(width)
	s.positions.SetWidth(width)
	s.focus.SetWidth(style.AdaptiveWidth(width, 50))
	s.helpBar.SetWidth(width)
}
