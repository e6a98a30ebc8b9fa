package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btc(price float64) market.Instrument {
	return market.Instrument{Symbol: "BTC", Name: "Bitcoin", Price: price}
}

func TestLiquidationPrice(t *testing.T) {
	tests := []struct {
		name     string
		entry    float64
		leverage int
		dir      Direction
		want     float64
	}{
		{"btc 5x long", 65000, 5, Long, 52650},
		{"btc 5x short", 65000, 5, Short, 77350},
		{"1x long", 100, 1, Long, 5},
		{"10x short", 3500, 10, Short, 3832.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LiquidationPrice(tt.entry, tt.leverage, tt.dir), 1e-6)
		})
	}
}

func TestLiquidationPriceSides(t *testing.T) {
	for _, entry := range []float64{0.15, 1, 150, 3500, 65000} {
		for lev := MinLeverage; lev <= MaxLeverage; lev++ {
			long := LiquidationPrice(entry, lev, Long)
			short := LiquidationPrice(entry, lev, Short)
			assert.Less(t, long, entry, "long entry=%v lev=%d", entry, lev)
			assert.Greater(t, short, entry, "short entry=%v lev=%d", entry, lev)
		}
	}
}

func TestUnrealizedPnL(t *testing.T) {
	assert.InDelta(t, 200.0, UnrealizedPnL(3500, 3400, 1, 2, Short), 1e-9)
	assert.InDelta(t, -200.0, UnrealizedPnL(3500, 3400, 1, 2, Long), 1e-9)
	assert.InDelta(t, 5000.0, UnrealizedPnL(65000, 66000, 0.5, 10, Long), 1e-9)

	for lev := MinLeverage; lev <= MaxLeverage; lev++ {
		assert.Zero(t, UnrealizedPnL(3500, 3500, 2, lev, Long))
		assert.Zero(t, UnrealizedPnL(3500, 3500, 2, lev, Short))
	}
}

func TestLedgerOpenValidation(t *testing.T) {
	l := New(DefaultOptions())

	tests := []struct {
		name    string
		req     OpenRequest
		wantErr error
	}{
		{"zero amount", OpenRequest{Instrument: btc(65000), Amount: 0, Leverage: 2}, ErrInvalidAmount},
		{"negative amount", OpenRequest{Instrument: btc(65000), Amount: -1, Leverage: 2}, ErrInvalidAmount},
		{"leverage zero", OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 0}, ErrInvalidLeverage},
		{"leverage eleven", OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 11}, ErrInvalidLeverage},
		{"unpriced", OpenRequest{Instrument: btc(0), Amount: 1, Leverage: 2}, ErrNoPrice},
		{"bad direction", OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 2, Direction: Direction(7)}, ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Open(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var posErr *PositionError
			require.True(t, errors.As(err, &posErr))
			assert.Equal(t, "open", posErr.Op)
		})
	}
	assert.Zero(t, l.Len())
}

func TestLedgerMaxLeverageOption(t *testing.T) {
	l := New(Options{MaxLeverage: 3})
	_, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 4})
	assert.ErrorIs(t, err, ErrInvalidLeverage)

	l = New(Options{MaxLeverage: 50})
	assert.Equal(t, MaxLeverage, l.MaxLeverage())
}

func TestLedgerOpenAssignsFields(t *testing.T) {
	l := New(DefaultOptions())

	pos, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 0.5, Leverage: 5, Direction: Long, Insured: true})
	require.NoError(t, err)

	assert.Equal(t, "pos-1", pos.ID)
	assert.Equal(t, "BTC", pos.Symbol)
	assert.Equal(t, 65000.0, pos.EntryPrice)
	assert.InDelta(t, 52650.0, pos.LiquidationPrice, 1e-6)
	assert.Zero(t, pos.PnL)
	assert.True(t, pos.Insured)
	assert.InDelta(t, 0.05, pos.InsuranceFee, 1e-12)
	assert.Equal(t, 0.5, pos.Amount, "fee is never deducted")
	assert.False(t, pos.OpenedAt.IsZero())

	second, err := l.Open(OpenRequest{Instrument: btc(65100), Amount: 1, Leverage: 1, Direction: Short})
	require.NoError(t, err)
	assert.Equal(t, "pos-2", second.ID)
	assert.Zero(t, second.InsuranceFee)
}

func TestLedgerRecompute(t *testing.T) {
	l := New(DefaultOptions())

	eth := market.Instrument{Symbol: "ETH", Price: 3500}
	short, err := l.Open(OpenRequest{Instrument: eth, Amount: 1, Leverage: 2, Direction: Short})
	require.NoError(t, err)
	long, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 3, Direction: Long})
	require.NoError(t, err)

	positions := l.Recompute([]market.Instrument{{Symbol: "ETH", Price: 3400}, btc(65100)})
	require.Len(t, positions, 2)
	assert.Equal(t, short.ID, positions[0].ID)
	assert.InDelta(t, 200.0, positions[0].PnL, 1e-9)
	assert.Equal(t, long.ID, positions[1].ID)
	assert.InDelta(t, 300.0, positions[1].PnL, 1e-9)
	assert.InDelta(t, 500.0, l.TotalPnL(), 1e-9)

	// Entry and liquidation stay fixed.
	assert.Equal(t, short.EntryPrice, positions[0].EntryPrice)
	assert.Equal(t, short.LiquidationPrice, positions[0].LiquidationPrice)
}

func TestLedgerRecomputeAtEntryIsZero(t *testing.T) {
	l := New(DefaultOptions())
	for lev := MinLeverage; lev <= MaxLeverage; lev++ {
		_, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: float64(lev), Leverage: lev, Direction: Direction(lev % 2)})
		require.NoError(t, err)
	}

	for _, pos := range l.Recompute([]market.Instrument{btc(65000)}) {
		assert.Zero(t, pos.PnL, pos.ID)
	}
}

func TestLedgerRecomputeMissingInstrumentFallsBackToEntry(t *testing.T) {
	l := New(DefaultOptions())
	_, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 5, Direction: Long})
	require.NoError(t, err)

	l.Recompute([]market.Instrument{btc(66000)})
	positions := l.Recompute([]market.Instrument{{Symbol: "ETH", Price: 3500}})

	require.Len(t, positions, 1)
	assert.Zero(t, positions[0].PnL)
	assert.Equal(t, 65000.0, positions[0].MarkPrice)
}

func TestLedgerOpenCloseRoundTrip(t *testing.T) {
	l := New(DefaultOptions())
	_, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 2, Direction: Long})
	require.NoError(t, err)
	before := l.Positions()

	pos, err := l.Open(OpenRequest{Instrument: btc(65200), Amount: 2, Leverage: 4, Direction: Short})
	require.NoError(t, err)
	closed, ok := l.Close(pos.ID)
	require.True(t, ok)
	assert.Equal(t, pos, closed)

	assert.Equal(t, before, l.Positions())
}

func TestLedgerCloseIsIdempotent(t *testing.T) {
	l := New(DefaultOptions())
	pos, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 2, Direction: Long})
	require.NoError(t, err)

	_, ok := l.Close("pos-404")
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())

	_, ok = l.Close(pos.ID)
	assert.True(t, ok)
	_, ok = l.Close(pos.ID)
	assert.False(t, ok)
	assert.Zero(t, l.Len())
}

func TestLedgerCloseDoesNotAliasSnapshots(t *testing.T) {
	l := New(DefaultOptions())
	for i := 0; i < 3; i++ {
		_, err := l.Open(OpenRequest{Instrument: btc(65000 + float64(i)), Amount: 1, Leverage: 1})
		require.NoError(t, err)
	}
	snap := l.Positions()

	l.Close("pos-1")
	assert.Equal(t, "pos-1", snap[0].ID)
	assert.Equal(t, "pos-3", snap[2].ID)
}

func TestLedgerBreached(t *testing.T) {
	l := New(DefaultOptions())
	long, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 5, Direction: Long})
	require.NoError(t, err)
	short, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 5, Direction: Short})
	require.NoError(t, err)

	l.Recompute([]market.Instrument{btc(60000)})
	assert.Empty(t, l.Breached())

	l.Recompute([]market.Instrument{btc(52000)})
	breached := l.Breached()
	require.Len(t, breached, 1)
	assert.Equal(t, long.ID, breached[0].ID)

	l.Recompute([]market.Instrument{btc(80000)})
	breached = l.Breached()
	require.Len(t, breached, 1)
	assert.Equal(t, short.ID, breached[0].ID)

	// Breach is reported, never enforced.
	assert.Equal(t, 2, l.Len())
}

func TestPositionDerivedFigures(t *testing.T) {
	pos := Position{EntryPrice: 3500, Amount: 2, Leverage: 2, Direction: Short, PnL: 350, LiquidationPrice: LiquidationPrice(3500, 2, Short)}

	assert.Equal(t, 7000.0, pos.Size())
	assert.InDelta(t, 5.0, pos.PnLPercent(), 1e-9)
	assert.Greater(t, pos.DistanceToLiquidation(3500), 0.0)
	assert.Less(t, pos.DistanceToLiquidation(5200), 0.0)
	assert.Zero(t, Position{}.PnLPercent())
}

func TestDirectionText(t *testing.T) {
	d, err := ParseDirection(" SHORT ")
	require.NoError(t, err)
	assert.Equal(t, Short, d)
	assert.Equal(t, Long, d.Opposite())

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)

	data, err := json.Marshal(Position{ID: "pos-1", Direction: Short})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"direction":"short"`)

	var back Position
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Short, back.Direction)
}

func TestNewQuote(t *testing.T) {
	q := NewQuote(btc(65000), 100, 5, Long, true, 0.10)
	assert.Equal(t, 500.0, q.PositionValue)
	assert.InDelta(t, 52650.0, q.LiquidationPrice, 1e-6)
	assert.InDelta(t, 10.0, q.InsuranceFee, 1e-9)

	q = NewQuote(btc(65000), 100, 5, Long, false, 0.10)
	assert.Zero(t, q.InsuranceFee)

	q = NewQuote(btc(0), 0, 0, Short, true, 0.10)
	assert.Zero(t, q.LiquidationPrice)
	assert.Zero(t, q.InsuranceFee)
}

func TestLedgerConcurrentAccess(t *testing.T) {
	l := New(DefaultOptions())
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				pos, err := l.Open(OpenRequest{Instrument: btc(65000), Amount: 1, Leverage: 1 + j%10, Direction: Direction(j % 2)})
				if err != nil {
					t.Errorf("open failed: %v", err)
					return
				}
				l.Recompute([]market.Instrument{btc(65000 + float64(n))})
				if j%2 == 0 {
					l.Close(pos.ID)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8*25, l.Len())
	ids := make(map[string]bool)
	for _, pos := range l.Positions() {
		assert.False(t, ids[pos.ID], fmt.Sprintf("duplicate id %s", pos.ID))
		ids[pos.ID] = true
	}
}
