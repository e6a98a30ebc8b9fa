package trading

import (
	"context"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/rovshanmuradov/perpshield/internal/export"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/rovshanmuradov/perpshield/internal/metrics"
	"github.com/rovshanmuradov/perpshield/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// stubSource returns a settable constant. 0.5 seeds mid-range and leaves
// prices unchanged; 0 moves every price down by the maximum step.
type stubSource struct {
	mu sync.Mutex
	v  float64
}

func (s *stubSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

func (s *stubSource) set(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}

func newTestService(t *testing.T, opts Options, options ...Option) (*Service, *stubSource) {
	t.Helper()
	src := &stubSource{v: 0.5}
	history, err := monitor.NewTradeHistory("", 100, zap.NewNop())
	require.NoError(t, err)

	options = append([]Option{WithSimulator(market.NewSimulator(src)), WithHistory(history)}, options...)
	svc := NewService(opts, nil, zaptest.NewLogger(t), options...)
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc, src
}

func TestOpenRequiresSeededPrice(t *testing.T) {
	svc, _ := newTestService(t, DefaultOptions())

	_, err := svc.Open("BTC", 1, 10, ledger.Long, false)
	assert.ErrorIs(t, err, ledger.ErrNoPrice)

	require.NoError(t, svc.Tick())
	btc, ok := svc.Instrument("BTC")
	require.True(t, ok)
	assert.Equal(t, 66000.0, btc.Price)

	_, ticks := svc.LastTick()
	assert.Equal(t, uint64(1), ticks)
}

func TestOpenAndQuote(t *testing.T) {
	svc, _ := newTestService(t, DefaultOptions())
	require.NoError(t, svc.Tick())

	quote, err := svc.Quote("BTC", 1, 10, ledger.Long, true)
	require.NoError(t, err)
	assert.InDelta(t, 59730, quote.LiquidationPrice, 1e-6)
	assert.InDelta(t, 0.1, quote.InsuranceFee, 1e-12)

	pos, err := svc.Open("BTC", 1, 10, ledger.Long, true)
	require.NoError(t, err)
	assert.Equal(t, "pos-1", pos.ID)
	assert.Equal(t, 66000.0, pos.EntryPrice)
	assert.InDelta(t, 59730, pos.LiquidationPrice, 1e-6)
	assert.True(t, pos.Insured)
	assert.InDelta(t, 0.1, pos.InsuranceFee, 1e-12)

	require.Len(t, svc.Positions(), 1)
	trades := svc.Trades(0)
	require.Len(t, trades, 1)
	assert.Equal(t, monitor.ActionOpen, trades[0].Action)

	_, err = svc.Open("XRP", 1, 2, ledger.Long, false)
	assert.ErrorIs(t, err, ledger.ErrUnknownSymbol)

	_, err = svc.Open("ETH", 0, 2, ledger.Long, false)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	assert.Error(t, svc.Validate("ETH", 1, 11, ledger.Short))
	assert.NoError(t, svc.Validate("ETH", 1, 10, ledger.Short))
}

func TestInsuranceDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.InsuranceEnabled = false
	svc, _ := newTestService(t, opts)
	require.NoError(t, svc.Tick())

	pos, err := svc.Open("ETH", 10, 3, ledger.Short, true)
	require.NoError(t, err)
	assert.False(t, pos.Insured)
	assert.Zero(t, pos.InsuranceFee)

	quote, err := svc.Quote("ETH", 10, 3, ledger.Short, true)
	require.NoError(t, err)
	assert.False(t, quote.Insured)
}

func TestCloseRealizesPnLAtCurrentPrice(t *testing.T) {
	svc, src := newTestService(t, DefaultOptions())
	require.NoError(t, svc.Tick())

	pos, err := svc.Open("BTC", 1, 10, ledger.Long, false)
	require.NoError(t, err)

	src.set(0)
	require.NoError(t, svc.Tick())

	marked, ok := svc.Position(pos.ID)
	require.True(t, ok)
	assert.InDelta(t, -1320, marked.PnL, 1e-6)
	assert.InDelta(t, -1320, svc.TotalPnL(), 1e-6)

	closed, ok := svc.Close(pos.ID)
	require.True(t, ok)
	assert.InDelta(t, 65868, closed.MarkPrice, 1e-6)
	assert.InDelta(t, -1320, closed.PnL, 1e-6)
	assert.Empty(t, svc.Positions())

	_, ok = svc.Close(pos.ID)
	assert.False(t, ok, "second close is a no-op")

	stats := svc.Statistics()
	assert.Equal(t, 1, stats.Closes)
	assert.InDelta(t, -1320, stats.RealizedPnL, 1e-6)
}

func TestLiquidationPolicies(t *testing.T) {
	tests := []struct {
		policy   LiquidationPolicy
		wantOpen int
	}{
		{PolicyFlag, 1},
		{PolicyClose, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			opts := DefaultOptions()
			opts.LiquidationPolicy = tt.policy
			svc, src := newTestService(t, opts)
			require.NoError(t, svc.Tick())

			_, err := svc.Open("BTC", 1, 10, ledger.Long, true)
			require.NoError(t, err)

			// About 50 maximum down-steps cross the 9.5% liquidation distance.
			src.set(0)
			for i := 0; i < 60; i++ {
				require.NoError(t, svc.Tick())
			}

			assert.Len(t, svc.Positions(), tt.wantOpen)

			var breached bool
			for _, a := range svc.Alerts(0) {
				if a.Type == monitor.AlertTypeLiquidation {
					breached = true
				}
			}
			assert.True(t, breached)

			if tt.policy == PolicyClose {
				assert.Equal(t, 1, svc.Statistics().Liquidations)
			}
		})
	}
}

func TestTickFailureKeepsState(t *testing.T) {
	svc, src := newTestService(t, DefaultOptions())
	require.NoError(t, svc.Tick())
	_, err := svc.Open("SOL", 5, 2, ledger.Long, false)
	require.NoError(t, err)

	before := svc.Instruments()
	positions := svc.Positions()

	src.set(math.NaN())
	err = svc.Tick()
	assert.ErrorIs(t, err, market.ErrTickFailed)
	assert.Equal(t, before, svc.Instruments())
	assert.Equal(t, positions, svc.Positions())

	_, ticks := svc.LastTick()
	assert.Equal(t, uint64(1), ticks)
}

func TestMetricsWiring(t *testing.T) {
	m := metrics.New()
	svc, _ := newTestService(t, DefaultOptions(), WithMetrics(m))

	require.NoError(t, svc.Tick())
	pos, err := svc.Open("DOGE", 100, 4, ledger.Short, false)
	require.NoError(t, err)
	svc.Close(pos.ID)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["perpshield_ticks_total"])
	assert.True(t, names["perpshield_instrument_price"])
	assert.True(t, names["perpshield_positions_opened_total"])
	assert.True(t, names["perpshield_positions_closed_total"])
}

func TestExportJournal(t *testing.T) {
	opts := DefaultOptions()
	opts.ExportDir = t.TempDir()
	svc, _ := newTestService(t, opts)
	require.NoError(t, svc.Tick())

	_, err := svc.Export(context.Background(), export.ExportOptions{Format: export.FormatCSV})
	assert.ErrorIs(t, err, export.ErrNoTrades)

	pos, err := svc.Open("BNB", 2, 5, ledger.Long, true)
	require.NoError(t, err)
	svc.Close(pos.ID)

	path, err := svc.Export(context.Background(), export.ExportOptions{Format: export.FormatJSON})
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestParseLiquidationPolicy(t *testing.T) {
	p, err := ParseLiquidationPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFlag, p)

	p, err = ParseLiquidationPolicy("CLOSE")
	require.NoError(t, err)
	assert.Equal(t, PolicyClose, p)

	_, err = ParseLiquidationPolicy("panic")
	assert.Error(t, err)
}

func TestConcurrentReadsDuringTicks(t *testing.T) {
	svc, _ := newTestService(t, DefaultOptions())
	require.NoError(t, svc.Tick())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = svc.Tick()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if pos, err := svc.Open("ETH", 1, 2, ledger.Long, false); err == nil && i%2 == 0 {
				svc.Close(pos.ID)
			}
			_ = svc.Instruments()
			_ = svc.Positions()
		}
	}()
	wg.Wait()

	assert.Len(t, svc.Positions(), 50)
}
