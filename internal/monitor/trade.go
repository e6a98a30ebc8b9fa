package monitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
)

// Trade actions
const (
	ActionOpen       = "open"
	ActionClose      = "close"
	ActionLiquidated = "liquidated"
)

// Trade is one journal entry: a position being opened, closed or liquidated.
type Trade struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	PositionID string           `json:"position_id"`
	Symbol     string           `json:"symbol"`
	Action     string           `json:"action"`
	Direction  ledger.Direction `json:"direction"`
	Leverage   int              `json:"leverage"`
	Amount     float64          `json:"amount"`
	Price      float64          `json:"price"`

	// For close and liquidated only
	EntryPrice float64 `json:"entry_price,omitempty"`
	ExitPrice  float64 `json:"exit_price,omitempty"`
	PnL        float64 `json:"pnl,omitempty"`
	PnLPercent float64 `json:"pnl_percent,omitempty"`
	HoldTime   string  `json:"hold_time,omitempty"`

	Insured      bool    `json:"insured"`
	InsuranceFee float64 `json:"insurance_fee,omitempty"`
}

// OpenTrade builds the journal entry for a freshly opened position.
func OpenTrade(pos ledger.Position, at time.Time) Trade {
	return Trade{
		ID:           uuid.NewString(),
		Timestamp:    at,
		PositionID:   pos.ID,
		Symbol:       pos.Symbol,
		Action:       ActionOpen,
		Direction:    pos.Direction,
		Leverage:     pos.Leverage,
		Amount:       pos.Amount,
		Price:        pos.EntryPrice,
		Insured:      pos.Insured,
		InsuranceFee: pos.InsuranceFee,
	}
}

// CloseTrade builds the journal entry for a position leaving the ledger.
// action is ActionClose or ActionLiquidated.
func CloseTrade(pos ledger.Position, action string, at time.Time) Trade {
	exit := pos.MarkPrice
	if exit <= 0 {
		exit = pos.EntryPrice
	}
	return Trade{
		ID:           uuid.NewString(),
		Timestamp:    at,
		PositionID:   pos.ID,
		Symbol:       pos.Symbol,
		Action:       action,
		Direction:    pos.Direction,
		Leverage:     pos.Leverage,
		Amount:       pos.Amount,
		Price:        exit,
		EntryPrice:   pos.EntryPrice,
		ExitPrice:    exit,
		PnL:          pos.PnL,
		PnLPercent:   pos.PnLPercent(),
		HoldTime:     CalculateHoldTime(pos.OpenedAt, at),
		Insured:      pos.Insured,
		InsuranceFee: pos.InsuranceFee,
	}
}

// Realized reports whether the trade carries a final PnL.
func (t *Trade) Realized() bool {
	return t.Action == ActionClose || t.Action == ActionLiquidated
}

// ToCSV converts trade to CSV record
func (t *Trade) ToCSV() []string {
	return []string{
		t.ID,
		t.Timestamp.Format(time.RFC3339),
		t.PositionID,
		t.Symbol,
		t.Action,
		t.Direction.String(),
		formatInt(t.Leverage),
		formatFloat(t.Amount),
		formatFloat(t.Price),
		formatFloat(t.EntryPrice),
		formatFloat(t.ExitPrice),
		formatFloat(t.PnL),
		formatFloat(t.PnLPercent),
		t.HoldTime,
		formatBool(t.Insured),
		formatFloat(t.InsuranceFee),
	}
}

// CSVHeaders returns the header row for trade CSV files
func CSVHeaders() []string {
	return []string{
		"id",
		"timestamp",
		"position_id",
		"symbol",
		"action",
		"direction",
		"leverage",
		"amount",
		"price",
		"entry_price",
		"exit_price",
		"pnl",
		"pnl_percent",
		"hold_time",
		"insured",
		"insurance_fee",
	}
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return fmt.Sprintf("%.6f", f)
}

func formatInt(i int) string {
	if i == 0 {
		return ""
	}
	return fmt.Sprintf("%d", i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// CalculateHoldTime renders the time between open and close.
func CalculateHoldTime(openedAt, closedAt time.Time) string {
	duration := closedAt.Sub(openedAt)
	if duration < 0 {
		duration = 0
	}
	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(duration.Hours()), int(duration.Minutes())%60)
	}
	days := int(duration.Hours() / 24)
	hours := int(duration.Hours()) % 24
	return fmt.Sprintf("%dd%dh", days, hours)
}
