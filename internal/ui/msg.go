package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
)

// Tea message types for UI communication

// RouterMsg represents navigation between screens
type RouterMsg struct {
	To Route
}

// TickMsg fires on every simulation interval.
type TickMsg struct {
	At time.Time
}

// MarketUpdatedMsg is forwarded to the active screen after the service ticked.
// Err is set when the price update failed and the previous state was kept.
type MarketUpdatedMsg struct {
	At  time.Time
	Err error
}

// OpenTradeMsg asks the trade modal to open prefilled for an instrument.
type OpenTradeMsg struct {
	Symbol    string
	Direction ledger.Direction
}

// PositionOpenedMsg is sent by the trade modal after a successful open.
type PositionOpenedMsg struct {
	Position ledger.Position
}

// ErrorMsg represents error conditions
type ErrorMsg struct {
	Error error
	Title string
}

// SuccessMsg represents success conditions
type SuccessMsg struct {
	Message string
	Title   string
}

// Route represents different screens in the application
type Route int

const (
	RouteHome Route = iota
	RouteTrade
	RouteTradeModal
	RoutePools
	RouteLogs
)

// String returns the string representation of a route
func (r Route) String() string {
	switch r {
	case RouteHome:
		return "Home"
	case RouteTrade:
		return "Trade"
	case RouteTradeModal:
		return "TradeModal"
	case RoutePools:
		return "Pools"
	case RouteLogs:
		return "Logs"
	default:
		return "Unknown"
	}
}

// Navigate returns a command that routes to the given screen.
func Navigate(to Route) tea.Cmd {
	return func() tea.Msg {
		return RouterMsg{To: to}
	}
}

// ScheduleTick returns a command that fires a TickMsg after interval.
func ScheduleTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{At: t}
	})
}

// ReportError wraps err into an ErrorMsg command.
func ReportError(title string, err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err, Title: title}
	}
}

// ReportSuccess wraps message into a SuccessMsg command.
func ReportSuccess(title, message string) tea.Cmd {
	return func() tea.Msg {
		return SuccessMsg{Message: message, Title: title}
	}
}

// BackMsg pops the current screen.
type BackMsg struct{}

// Back returns a command that pops the current screen.
func Back() tea.Msg {
	return BackMsg{}
}
