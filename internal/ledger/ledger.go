package ledger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rovshanmuradov/perpshield/internal/insurance"
	"github.com/rovshanmuradov/perpshield/internal/market"
)

// OpenRequest describes a position to open against an instrument's current price.
type OpenRequest struct {
	Instrument market.Instrument
	Amount     float64
	Leverage   int
	Direction  Direction
	Insured    bool
}

// Options configures ledger validation.
type Options struct {
	MaxLeverage int
	FeeRate     float64
}

// DefaultOptions returns the stock leverage cap and insurance fee rate.
func DefaultOptions() Options {
	return Options{
		MaxLeverage: MaxLeverage,
		FeeRate:     insurance.DefaultFeeRate,
	}
}

// Ledger holds open positions in open order.
type Ledger struct {
	mu        sync.RWMutex
	positions []Position
	seq       uint64
	opts      Options
	now       func() time.Time
}

// New creates an empty ledger.
func New(opts Options) *Ledger {
	if opts.MaxLeverage < MinLeverage || opts.MaxLeverage > MaxLeverage {
		opts.MaxLeverage = MaxLeverage
	}
	return &Ledger{
		positions: make([]Position, 0),
		opts:      opts,
		now:       time.Now,
	}
}

// Validate checks an open request without touching the ledger.
func (l *Ledger) Validate(req OpenRequest) error {
	symbol := req.Instrument.Symbol
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return NewPositionError(symbol, "open", ErrInvalidAmount)
	}
	if req.Leverage < MinLeverage || req.Leverage > l.opts.MaxLeverage {
		return NewPositionError(symbol, "open",
			fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidLeverage, req.Leverage, MinLeverage, l.opts.MaxLeverage))
	}
	if req.Direction != Long && req.Direction != Short {
		return NewPositionError(symbol, "open", ErrInvalidDirection)
	}
	if !req.Instrument.Seeded() {
		return NewPositionError(symbol, "open", ErrNoPrice)
	}
	return nil
}

// Open creates a position at the instrument's current price.
func (l *Ledger) Open(req OpenRequest) (Position, error) {
	if err := l.Validate(req); err != nil {
		return Position{}, err
	}

	entry := req.Instrument.Price

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	pos := Position{
		ID:               fmt.Sprintf("pos-%d", l.seq),
		Symbol:           req.Instrument.Symbol,
		EntryPrice:       entry,
		Leverage:         req.Leverage,
		Amount:           req.Amount,
		Direction:        req.Direction,
		LiquidationPrice: LiquidationPrice(entry, req.Leverage, req.Direction),
		Insured:          req.Insured,
		OpenedAt:         l.now(),
		MarkPrice:        entry,
	}
	if req.Insured {
		pos.InsuranceFee = insurance.Fee(req.Amount, l.opts.FeeRate)
	}

	l.positions = append(l.positions, pos)
	return pos, nil
}

// Close removes a position. Closing an unknown id is a no-op.
func (l *Ledger) Close(id string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, pos := range l.positions {
		if pos.ID == id {
			l.positions = append(l.positions[:i:i], l.positions[i+1:]...)
			return pos, true
		}
	}
	return Position{}, false
}

// Recompute marks every position to the instrument prices and returns a
// snapshot. A position whose symbol is missing or unpriced is marked at entry.
func (l *Ledger) Recompute(instruments []market.Instrument) []Position {
	prices := make(map[string]float64, len(instruments))
	for _, inst := range instruments {
		if inst.Seeded() {
			prices[inst.Symbol] = inst.Price
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.positions {
		pos := &l.positions[i]
		current, ok := prices[pos.Symbol]
		if !ok {
			current = pos.EntryPrice
		}
		pos.MarkPrice = current
		pos.PnL = UnrealizedPnL(pos.EntryPrice, current, pos.Amount, pos.Leverage, pos.Direction)
	}

	return l.snapshot()
}

// Breached returns positions whose last mark reached the liquidation level.
func (l *Ledger) Breached() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Position
	for _, pos := range l.positions {
		if pos.Breached(pos.MarkPrice) {
			out = append(out, pos)
		}
	}
	return out
}

// Positions returns a snapshot in open order.
func (l *Ledger) Positions() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

// Get returns a position by id.
func (l *Ledger) Get(id string) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, pos := range l.positions {
		if pos.ID == id {
			return pos, true
		}
	}
	return Position{}, false
}

// Len returns the number of open positions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// TotalPnL sums unrealized PnL across positions.
func (l *Ledger) TotalPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0.0
	for _, pos := range l.positions {
		total += pos.PnL
	}
	return total
}

// MaxLeverage returns the configured leverage cap.
func (l *Ledger) MaxLeverage() int {
	return l.opts.MaxLeverage
}

func (l *Ledger) snapshot() []Position {
	out := make([]Position, len(l.positions))
	copy(out, l.positions)
	return out
}
