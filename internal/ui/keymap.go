package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts for the application
type KeyMap struct {
	// Global navigation
	Quit      key.Binding
	ForceQuit key.Binding
	Back      key.Binding
	Help      key.Binding

	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Enter key.Binding
	Tab   key.Binding

	// Application specific
	Trade  key.Binding
	Pools  key.Binding
	Logs   key.Binding
	Wallet key.Binding

	// Trading
	OpenLong  key.Binding
	OpenShort key.Binding
	Close     key.Binding
	Export    key.Binding

	// Trade modal
	ToggleDirection key.Binding
	ToggleInsurance key.Binding
	Submit          key.Binding

	// Pools
	Expand   key.Binding
	Stake    key.Binding
	Withdraw key.Binding

	// Logs
	FilterInfo  key.Binding
	FilterWarn  key.Binding
	FilterError key.Binding
	FilterDebug key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Global navigation
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "less"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "more"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch table"),
		),

		// Application specific
		Trade: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "trade"),
		),
		Pools: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pools"),
		),
		Logs: key.NewBinding(
			key.WithKeys("l", "f12"),
			key.WithHelp("l", "logs"),
		),
		Wallet: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "connect wallet"),
		),

		// Trading
		OpenLong: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "long"),
		),
		OpenShort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "short"),
		),
		Close: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close position"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export journal"),
		),

		// Trade modal
		ToggleDirection: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "long/short"),
		),
		ToggleInsurance: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "insurance"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open position"),
		),

		// Pools
		Expand: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "expand"),
		),
		Stake: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stake"),
		),
		Withdraw: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "withdraw"),
		),

		// Logs
		FilterInfo: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "info"),
		),
		FilterWarn: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "warn"),
		),
		FilterError: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "error"),
		),
		FilterDebug: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("F4", "debug"),
		),
	}
}

// ShortHelp returns key help text for the current context
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns extended help text for the current context
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Enter, k.Tab, k.Back},
		{k.Trade, k.Pools, k.Logs},
		{k.OpenLong, k.OpenShort, k.Close, k.Export},
		{k.Help, k.Quit},
	}
}

// ContextualHelp returns help text based on the current route
func (k KeyMap) ContextualHelp(route Route) []key.Binding {
	switch route {
	case RouteHome:
		return []key.Binding{k.Up, k.Down, k.Enter, k.Trade, k.Pools, k.Wallet, k.Quit}
	case RouteTrade:
		return []key.Binding{k.Up, k.Down, k.Tab, k.OpenLong, k.OpenShort, k.Close, k.Export, k.Back, k.Quit}
	case RouteTradeModal:
		return []key.Binding{k.Left, k.Right, k.ToggleDirection, k.ToggleInsurance, k.Submit, k.Back}
	case RoutePools:
		return []key.Binding{k.Up, k.Down, k.Expand, k.Stake, k.Withdraw, k.Back, k.Quit}
	case RouteLogs:
		return []key.Binding{k.Up, k.Down, k.FilterInfo, k.FilterWarn, k.FilterError, k.FilterDebug, k.Back, k.Quit}
	default:
		return k.ShortHelp()
	}
}
