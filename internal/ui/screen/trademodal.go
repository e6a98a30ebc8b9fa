package screen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/router"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
	"go.uber.org/zap"
)

// TradeModal collects an order: amount, leverage, direction and, when the
// insurance product is enabled, the insurance toggle.
type TradeModal struct {
	env    *Env
	width  int
	height int
	keyMap ui.KeyMap
	logger *zap.Logger

	symbols   []string
	symbolIdx int
	direction ledger.Direction
	insured   bool

	amount   *component.NumberField
	leverage *component.Stepper
	helpBar  *component.HelpBar
	err      string

	boxStyle lipgloss.Style
}

// NewTradeModal creates the order modal for symbol. An unknown or empty
// symbol selects the first instrument.
func NewTradeModal(env *Env, symbol string, dir ledger.Direction) *TradeModal {
	keyMap := ui.DefaultKeyMap()
	opts := env.Service.Options()

	m := &TradeModal{
		env:       env,
		keyMap:    keyMap,
		logger:    env.Logger.Named("trade_modal"),
		direction: dir,
		insured:   opts.InsuranceEnabled,
		amount:    component.NewNumberField("Amount", "0.00"),
		leverage:  component.NewStepper("Leverage", ledger.MinLeverage, opts.MaxLeverage, ledger.MinLeverage),
		helpBar:   component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RouteTradeModal)),

		boxStyle: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(style.DefaultPalette().Primary).
			Padding(1, 3),
	}

	for i, inst := range env.Service.Instruments() {
		m.symbols = append(m.symbols, inst.Symbol)
		if strings.EqualFold(inst.Symbol, symbol) {
			m.symbolIdx = i
		}
	}

	return m
}

// Init initializes the modal
func (m *TradeModal) Init() tea.Cmd {
	return nil
}

// Update handles screen updates
func (m *TradeModal) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	// Digits and the decimal point always go to the amount field.
	if m.amount.Accepts(keyMsg) {
		m.err = ""
		return m, m.amount.Update(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keyMap.ForceQuit):
		return m, tea.Quit

	case key.Matches(keyMsg, m.keyMap.Left):
		m.leverage.Decrement()

	case key.Matches(keyMsg, m.keyMap.Right):
		m.leverage.Increment()

	case key.Matches(keyMsg, m.keyMap.Up):
		if m.symbolIdx > 0 {
			m.symbolIdx--
		}

	case key.Matches(keyMsg, m.keyMap.Down):
		if m.symbolIdx < len(m.symbols)-1 {
			m.symbolIdx++
		}

	case key.Matches(keyMsg, m.keyMap.ToggleDirection):
		m.direction = m.direction.Opposite()

	case key.Matches(keyMsg, m.keyMap.ToggleInsurance):
		if m.env.Service.Options().InsuranceEnabled {
			m.insured = !m.insured
		}

	case key.Matches(keyMsg, m.keyMap.Submit):
		return m, m.submit()
	}

	return m, nil
}

// CanSubmit reports whether the submit button is enabled.
func (m *TradeModal) CanSubmit() bool {
	return m.amount.Value() > 0 && m.symbol() != ""
}

func (m *TradeModal) symbol() string {
	if m.symbolIdx < len(m.symbols) {
		return m.symbols[m.symbolIdx]
	}
	return ""
}

// submit opens the position and returns to the trade screen
func (m *TradeModal) submit() tea.Cmd {
	if !m.CanSubmit() {
		m.err = "enter an amount greater than zero"
		return nil
	}

	pos, err := m.env.Service.Open(m.symbol(), m.amount.Value(), m.leverage.Value(), m.direction, m.insured)
	if err != nil {
		m.err = describeOpenError(err)
		return nil
	}

	return tea.Sequence(ui.Back, func() tea.Msg {
		return ui.PositionOpenedMsg{Position: pos}
	})
}

func describeOpenError(err error) string {
	switch {
	case errors.Is(err, ledger.ErrNoPrice):
		return "no price yet, wait for the next market update"
	case errors.Is(err, ledger.ErrInvalidLeverage):
		return "leverage out of range"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "amount must be a positive number"
	default:
		return err.Error()
	}
}

// View renders the modal
func (m *TradeModal) View() string {
	inst, _ := m.env.Service.Instrument(m.symbol())

	var b strings.Builder
	b.WriteString(style.TitleStyle.Render(fmt.Sprintf("Open position · %s", m.symbolLabel(inst))))
	b.WriteString("\n")
	b.WriteString(m.renderDirection())
	b.WriteString("\n\n")
	b.WriteString(m.amount.View())
	b.WriteString("\n\n")
	b.WriteString(m.leverage.View())
	b.WriteString("\n\n")

	if m.env.Service.Options().InsuranceEnabled {
		b.WriteString(style.ShieldStyle.Render(component.Checkbox("Insure this position", m.insured)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderSummary(inst))
	b.WriteString("\n\n")
	b.WriteString(m.renderSubmit())

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(style.FormErrorStyle.Render("⚠ " + m.err))
	}

	b.WriteString("\n")
	b.WriteString(m.helpBar.SetWidth(m.width).View())

	return place(m.width, m.height, m.boxStyle.Render(b.String()))
}

func (m *TradeModal) symbolLabel(inst market.Instrument) string {
	if inst.Name == "" {
		return inst.Symbol
	}
	return fmt.Sprintf("%s (%s) %s", inst.Name, inst.Symbol, component.FormatPrice(inst.Price))
}

func (m *TradeModal) renderDirection() string {
	long, short := style.ButtonDisabledStyle.Render("Long"), style.ButtonDisabledStyle.Render("Short")
	if m.direction == ledger.Long {
		long = style.ButtonStyle.Background(style.LongColor).Render("Long")
	} else {
		short = style.ButtonStyle.Background(style.ShortColor).Render("Short")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, long, short)
}

// renderSummary shows the live quote for the current inputs
func (m *TradeModal) renderSummary(inst market.Instrument) string {
	q, err := m.env.Service.Quote(inst.Symbol, m.amount.Value(), m.leverage.Value(), m.direction, m.insured)
	if err != nil {
		return style.MutedStyle.Render("Summary unavailable: " + describeOpenError(err))
	}

	row := func(label, value string) string {
		return style.MutedStyle.Width(18).Render(label) + value
	}

	lines := []string{
		style.SubTitleStyle.Render("Trade summary"),
		row("Entry price", component.FormatPrice(q.EntryPrice)),
		row("Position value", fmt.Sprintf("%.2f", q.PositionValue)),
		row("Liquidation", component.FormatPrice(q.LiquidationPrice)),
	}
	if m.env.Service.Options().InsuranceEnabled {
		fee := "-"
		if q.Insured {
			fee = fmt.Sprintf("%.4f", q.InsuranceFee)
		}
		lines = append(lines, row("Insurance fee", fee))
	}

	return strings.Join(lines, "\n")
}

func (m *TradeModal) renderSubmit() string {
	label := fmt.Sprintf("Open %s", strings.ToUpper(m.direction.String()))
	if !m.CanSubmit() {
		return style.ButtonDisabledStyle.Render(label)
	}
	return style.ButtonActiveStyle.Render(label)
}

// SetSize sets the screen dimensions
func (m *TradeModal) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.helpBar.SetWidth(width)
}
