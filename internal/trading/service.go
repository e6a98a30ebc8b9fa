// Package trading holds the application state shared by the terminal UI and
// the headless simulator: prices, the position ledger, alerts and the journal.
package trading

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rovshanmuradov/perpshield/internal/export"
	"github.com/rovshanmuradov/perpshield/internal/insurance"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/rovshanmuradov/perpshield/internal/metrics"
	"github.com/rovshanmuradov/perpshield/internal/monitor"
	"go.uber.org/zap"
)

// LiquidationPolicy decides what happens to a breached position.
type LiquidationPolicy string

const (
	// PolicyFlag raises an alert and leaves the position open.
	PolicyFlag LiquidationPolicy = "flag"
	// PolicyClose force-closes the position and journals it as liquidated.
	PolicyClose LiquidationPolicy = "close"
)

// ParseLiquidationPolicy accepts "flag" or "close"; empty means flag.
func ParseLiquidationPolicy(s string) (LiquidationPolicy, error) {
	switch LiquidationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFlag:
		return PolicyFlag, nil
	case PolicyClose:
		return PolicyClose, nil
	default:
		return "", fmt.Errorf("unknown liquidation policy %q", s)
	}
}

// Options is the trade configuration shared by every entry point.
type Options struct {
	FeeRate           float64
	InsuranceEnabled  bool
	MaxLeverage       int
	LiquidationPolicy LiquidationPolicy
	Alerts            monitor.AlertConfig
	ExportDir         string
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		FeeRate:           insurance.DefaultFeeRate,
		InsuranceEnabled:  true,
		MaxLeverage:       ledger.MaxLeverage,
		LiquidationPolicy: PolicyFlag,
		Alerts:            monitor.DefaultAlertConfig(),
		ExportDir:         "exports",
	}
}

// Option customises a Service.
type Option func(*Service)

// WithSimulator replaces the default random source.
func WithSimulator(sim *market.Simulator) Option {
	return func(s *Service) { s.sim = sim }
}

// WithHistory journals trades.
func WithHistory(h *monitor.TradeHistory) Option {
	return func(s *Service) { s.history = h }
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPools replaces the default insurance pools.
func WithPools(r *insurance.Registry) Option {
	return func(s *Service) { s.pools = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the single owner of mutable trading state. It is safe for
// concurrent use; ticks are expected from one driver at a time.
type Service struct {
	mu          sync.RWMutex
	instruments []market.Instrument
	lastTick    time.Time
	tickCount   uint64

	sim      *market.Simulator
	ledger   *ledger.Ledger
	alerts   *monitor.AlertManager
	history  *monitor.TradeHistory
	metrics  *metrics.Metrics
	pools    *insurance.Registry
	exporter *export.TradeExporter

	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a service over the given instruments. Instruments with
// no price are seeded on the first tick.
func NewService(opts Options, instruments []market.Instrument, logger *zap.Logger, options ...Option) *Service {
	if opts.LiquidationPolicy == "" {
		opts.LiquidationPolicy = PolicyFlag
	}
	if len(instruments) == 0 {
		instruments = market.DefaultInstruments()
	}

	logger = logger.Named("trading")
	s := &Service{
		instruments: market.Clone(instruments),
		ledger:      ledger.New(ledger.Options{MaxLeverage: opts.MaxLeverage, FeeRate: opts.FeeRate}),
		alerts:      monitor.NewAlertManager(opts.Alerts, logger),
		exporter:    export.NewTradeExporter(logger),
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
	for _, o := range options {
		o(s)
	}
	if s.sim == nil {
		s.sim = market.NewSimulator(nil)
	}
	if s.pools == nil {
		s.pools = insurance.NewRegistry(nil)
	}
	s.opts.MaxLeverage = s.ledger.MaxLeverage()

	return s
}

// Tick advances prices one step, marks positions and evaluates alerts.
// On failure the previous prices and positions are kept.
func (s *Service) Tick() error {
	start := time.Now()

	s.mu.Lock()
	next, err := s.sim.Tick(s.instruments)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("Price update failed, keeping previous state", zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordTickFailure()
		}
		return err
	}
	s.instruments = next
	s.lastTick = s.now()
	s.tickCount++
	s.mu.Unlock()

	positions := s.ledger.Recompute(next)
	for _, pos := range positions {
		for _, alert := range s.alerts.CheckPosition(pos) {
			if s.metrics != nil {
				s.metrics.RecordAlert(string(alert.Type))
			}
		}
	}

	if s.opts.LiquidationPolicy == PolicyClose {
		for _, pos := range s.ledger.Breached() {
			s.closePosition(pos.ID, monitor.ActionLiquidated)
		}
	}

	if s.metrics != nil {
		for _, inst := range next {
			s.metrics.SetPrice(inst.Symbol, inst.Price)
		}
		s.metrics.SetLedger(s.ledger.Len(), s.ledger.TotalPnL())
		s.metrics.RecordTick(time.Since(start))
	}

	return nil
}

// Open opens a position on symbol at its current price. The insurance flag
// is ignored when insurance is disabled.
func (s *Service) Open(symbol string, amount float64, leverage int, dir ledger.Direction, insured bool) (ledger.Position, error) {
	inst, ok := s.Instrument(symbol)
	if !ok {
		return ledger.Position{}, ledger.NewPositionError(symbol, "open", ledger.ErrUnknownSymbol)
	}

	pos, err := s.ledger.Open(ledger.OpenRequest{
		Instrument: inst,
		Amount:     amount,
		Leverage:   leverage,
		Direction:  dir,
		Insured:    insured && s.opts.InsuranceEnabled,
	})
	if err != nil {
		s.logger.Warn("Open rejected", zap.String("symbol", symbol), zap.Error(err))
		return ledger.Position{}, err
	}

	s.logger.Info("Position opened",
		zap.String("id", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.String("direction", pos.Direction.String()),
		zap.Int("leverage", pos.Leverage),
		zap.Float64("price", pos.EntryPrice),
		zap.Float64("liquidation_price", pos.LiquidationPrice),
		zap.Bool("insured", pos.Insured))

	s.journal(monitor.OpenTrade(pos, pos.OpenedAt))
	s.alerts.CheckOpen(pos)
	if s.metrics != nil {
		s.metrics.RecordOpen(pos.Direction.String())
		s.metrics.SetLedger(s.ledger.Len(), s.ledger.TotalPnL())
	}

	return pos, nil
}

// Close closes a position at the current price. Closing an unknown id
// reports false and changes nothing.
func (s *Service) Close(id string) (ledger.Position, bool) {
	return s.closePosition(id, monitor.ActionClose)
}

func (s *Service) closePosition(id, action string) (ledger.Position, bool) {
	pos, ok := s.ledger.Close(id)
	if !ok {
		return ledger.Position{}, false
	}

	mark := pos.EntryPrice
	if inst, found := s.Instrument(pos.Symbol); found && inst.Seeded() {
		mark = inst.Price
	}
	pos.MarkPrice = mark
	pos.PnL = ledger.UnrealizedPnL(pos.EntryPrice, mark, pos.Amount, pos.Leverage, pos.Direction)

	msg := "Position closed"
	if action == monitor.ActionLiquidated {
		msg = "Position liquidated"
	}
	s.logger.Info(msg,
		zap.String("id", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.Float64("price", mark),
		zap.Float64("pnl", pos.PnL))

	s.journal(monitor.CloseTrade(pos, action, s.now()))
	s.alerts.Forget(pos.ID)
	if s.metrics != nil {
		s.metrics.RecordClose(action)
		s.metrics.SetLedger(s.ledger.Len(), s.ledger.TotalPnL())
	}

	return pos, true
}

func (s *Service) journal(trade monitor.Trade) {
	if s.history == nil {
		return
	}
	if err := s.history.LogTrade(trade); err != nil {
		s.logger.Error("Failed to journal trade", zap.String("id", trade.PositionID), zap.Error(err))
	}
}

// Quote previews an open without touching the ledger.
func (s *Service) Quote(symbol string, amount float64, leverage int, dir ledger.Direction, insured bool) (ledger.Quote, error) {
	inst, ok := s.Instrument(symbol)
	if !ok {
		return ledger.Quote{}, ledger.NewPositionError(symbol, "quote", ledger.ErrUnknownSymbol)
	}
	return ledger.NewQuote(inst, amount, leverage, dir, insured && s.opts.InsuranceEnabled, s.opts.FeeRate), nil
}

// Validate checks an open request without opening it.
func (s *Service) Validate(symbol string, amount float64, leverage int, dir ledger.Direction) error {
	inst, ok := s.Instrument(symbol)
	if !ok {
		return ledger.NewPositionError(symbol, "open", ledger.ErrUnknownSymbol)
	}
	return s.ledger.Validate(ledger.OpenRequest{Instrument: inst, Amount: amount, Leverage: leverage, Direction: dir})
}

// Instruments returns a snapshot of the current prices.
func (s *Service) Instruments() []market.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return market.Clone(s.instruments)
}

// Instrument returns one instrument by symbol.
func (s *Service) Instrument(symbol string) (market.Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return market.Find(s.instruments, symbol)
}

// Positions returns open positions in open order.
func (s *Service) Positions() []ledger.Position {
	return s.ledger.Positions()
}

// Position returns one open position.
func (s *Service) Position(id string) (ledger.Position, bool) {
	return s.ledger.Get(id)
}

// TotalPnL sums unrealized PnL over open positions.
func (s *Service) TotalPnL() float64 {
	return s.ledger.TotalPnL()
}

// Alerts returns up to n most recent alerts, oldest first.
func (s *Service) Alerts(n int) []monitor.Alert {
	return s.alerts.GetRecentAlerts(n)
}

// AlertManager exposes the alert manager for handler registration.
func (s *Service) AlertManager() *monitor.AlertManager {
	return s.alerts
}

// Pools returns the insurance pool registry.
func (s *Service) Pools() *insurance.Registry {
	return s.pools
}

// Trades returns up to n most recent journal entries.
func (s *Service) Trades(n int) []monitor.Trade {
	if s.history == nil {
		return nil
	}
	return s.history.GetRecentTrades(n)
}

// Statistics returns journal statistics.
func (s *Service) Statistics() monitor.TradeStatistics {
	if s.history == nil {
		return monitor.TradeStatistics{}
	}
	return s.history.GetStatistics()
}

// Export writes the journal to the export directory.
func (s *Service) Export(ctx context.Context, options export.ExportOptions) (string, error) {
	if s.history == nil {
		return "", export.ErrNoTrades
	}
	if options.OutputDir == "" {
		options.OutputDir = s.opts.ExportDir
	}
	return s.exporter.ExportTrades(ctx, s.history.GetRecentTrades(0), options)
}

// Options returns the trade configuration in effect.
func (s *Service) Options() Options {
	return s.opts
}

// LastTick returns when prices last moved and how many ticks have applied.
func (s *Service) LastTick() (time.Time, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick, s.tickCount
}

// Shutdown flushes the journal.
func (s *Service) Shutdown() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}
