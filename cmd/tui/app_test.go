package main

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/rovshanmuradov/perpshield/internal/trading"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/screen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// switchSource returns 0.5 until broken, then NaN.
type switchSource struct {
	broken atomic.Bool
}

func (s *switchSource) Float64() float64 {
	if s.broken.Load() {
		return math.NaN()
	}
	return 0.5
}

func newTestApp(t *testing.T) (*AppModel, *switchSource) {
	t.Helper()
	src := &switchSource{}
	svc := trading.NewService(trading.DefaultOptions(), nil, zap.NewNop(),
		trading.WithSimulator(market.NewSimulator(src)))
	t.Cleanup(func() { _ = svc.Shutdown() })

	env := &screen.Env{
		Service:  svc,
		Prices:   component.NewPriceHistory(10),
		Interval: time.Second,
		Logger:   zap.NewNop(),
	}
	return NewAppModel(env), src
}

func TestTickAdvancesMarket(t *testing.T) {
	app, src := newTestApp(t)
	assert.Equal(t, "Initializing...", app.View())
	assert.NotNil(t, app.Init())

	_, cmd := app.Update(ui.TickMsg{At: time.Now()})
	assert.NotNil(t, cmd, "next tick is scheduled")

	_, ticks := app.env.Service.LastTick()
	assert.Equal(t, uint64(1), ticks)
	assert.NoError(t, app.env.MarketErr)
	assert.Equal(t, []float64{66000}, app.env.Prices.Series("BTC"))

	src.broken.Store(true)
	_, cmd = app.Update(ui.TickMsg{At: time.Now()})
	assert.NotNil(t, cmd, "a failed tick still reschedules")
	assert.ErrorIs(t, app.env.MarketErr, market.ErrTickFailed)
	assert.Len(t, app.env.Prices.Series("BTC"), 1, "failed ticks record nothing")

	src.broken.Store(false)
	app.Update(ui.TickMsg{At: time.Now()})
	assert.NoError(t, app.env.MarketErr)
}

func TestStopEndsTickLoop(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(ui.TickMsg{At: time.Now()})
	assert.Nil(t, cmd)
	_, ticks := app.env.Service.LastTick()
	assert.Zero(t, ticks)
}

func TestOpenTradePushesModal(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app.Update(ui.TickMsg{At: time.Now()})

	app.Update(ui.RouterMsg{To: ui.RouteTrade})
	app.Update(ui.OpenTradeMsg{Symbol: "SOL", Direction: ledger.Short})
	assert.Equal(t, ui.RouteTradeModal, app.router.CurrentRoute())
	assert.Equal(t, 3, app.router.Depth())
	assert.Contains(t, app.View(), "Solana (SOL)")

	app.Update(ui.BackMsg{})
	assert.Equal(t, ui.RouteTrade, app.router.CurrentRoute())
}
