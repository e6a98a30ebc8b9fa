package ledger

import (
	"github.com/rovshanmuradov/perpshield/internal/insurance"
	"github.com/rovshanmuradov/perpshield/internal/market"
)

// Quote is the pre-trade summary shown before a position is opened.
type Quote struct {
	Symbol           string
	Direction        Direction
	Amount           float64
	Leverage         int
	EntryPrice       float64
	PositionValue    float64
	LiquidationPrice float64
	Insured          bool
	InsuranceFee     float64
}

// NewQuote prices an order without opening it. Amount and leverage are not
// validated here so the summary can follow partial input.
func NewQuote(inst market.Instrument, amount float64, leverage int, dir Direction, insured bool, feeRate float64) Quote {
	q := Quote{
		Symbol:        inst.Symbol,
		Direction:     dir,
		Amount:        amount,
		Leverage:      leverage,
		EntryPrice:    inst.Price,
		PositionValue: amount * float64(leverage),
		Insured:       insured,
	}
	if leverage >= MinLeverage && inst.Seeded() {
		q.LiquidationPrice = LiquidationPrice(inst.Price, leverage, dir)
	}
	if insured && amount > 0 {
		q.InsuranceFee = insurance.Fee(amount, feeRate)
	}
	return q
}
