package ledger

import (
	"strings"
	"time"
)

// Direction is the side of a position.
type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// ParseDirection accepts "long"/"short" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	default:
		return 0, ErrInvalidDirection
	}
}

const (
	MinLeverage = 1
	MaxLeverage = 10

	// MarginConsumption is the share of posted margin a move must eat
	// before the position is considered liquidatable.
	MarginConsumption = 0.95
)

// Position is an open leveraged position. EntryPrice and LiquidationPrice are
// fixed when the position is opened.
type Position struct {
	ID               string    `json:"id"`
	Symbol           string    `json:"symbol"`
	EntryPrice       float64   `json:"entry_price"`
	Leverage         int       `json:"leverage"`
	Amount           float64   `json:"amount"`
	Direction        Direction `json:"direction"`
	PnL              float64   `json:"pnl"`
	LiquidationPrice float64   `json:"liquidation_price"`
	Insured          bool      `json:"insured"`
	InsuranceFee     float64   `json:"insurance_fee,omitempty"`
	OpenedAt         time.Time `json:"opened_at"`

	// MarkPrice is the price the last recompute used.
	MarkPrice float64 `json:"mark_price"`
}

// Size is the position value at entry.
func (p Position) Size() float64 {
	return p.Amount * p.EntryPrice
}

// PnLPercent is PnL relative to the entry value.
func (p Position) PnLPercent() float64 {
	size := p.Size()
	if size == 0 {
		return 0
	}
	return p.PnL / size * 100
}

// Breached reports whether price has reached the liquidation level.
func (p Position) Breached(price float64) bool {
	if p.Direction == Short {
		return price >= p.LiquidationPrice
	}
	return price <= p.LiquidationPrice
}

// DistanceToLiquidation is the relative gap between price and the
// liquidation level, in percent of price. Negative once breached.
func (p Position) DistanceToLiquidation(price float64) float64 {
	if price == 0 {
		return 0
	}
	if p.Direction == Short {
		return (p.LiquidationPrice - price) / price * 100
	}
	return (price - p.LiquidationPrice) / price * 100
}

// LiquidationPrice is the simplified 95%-of-margin liquidation level.
func LiquidationPrice(entry float64, leverage int, dir Direction) float64 {
	move := (1 / float64(leverage)) * MarginConsumption
	if dir == Short {
		return entry * (1 + move)
	}
	return entry * (1 - move)
}

// UnrealizedPnL marks a position to current.
func UnrealizedPnL(entry, current, amount float64, leverage int, dir Direction) float64 {
	if dir == Short {
		return (entry - current) * amount * float64(leverage)
	}
	return (current - entry) * amount * float64(leverage)
}
