package component

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNumberFieldAcceptsDecimalsOnly(t *testing.T) {
	f := NewNumberField("Amount", "0.00")

	for _, k := range []string{"1", "2", ".", "5"} {
		f.Update(runes(k))
	}
	assert.Equal(t, "12.5", f.Raw())
	assert.Equal(t, 12.5, f.Value())

	assert.False(t, f.Accepts(runes(".")), "second decimal point")
	assert.False(t, f.Accepts(runes("b")), "letters are shortcuts")
	assert.False(t, f.Accepts(tea.KeyMsg{Type: tea.KeyTab}))
	assert.True(t, f.Accepts(tea.KeyMsg{Type: tea.KeyBackspace}))

	f.Update(runes("x"))
	assert.Equal(t, "12.5", f.Raw())

	f.SetValue("")
	assert.Zero(t, f.Value())

	f.SetError("too small")
	assert.Contains(t, f.View(), "too small")
	f.SetValue("3")
	assert.NotContains(t, f.View(), "too small")
}

func TestStepperClamps(t *testing.T) {
	s := NewStepper("Leverage", 1, 10, 25)
	assert.Equal(t, 10, s.Value())

	s.Increment()
	assert.Equal(t, 10, s.Value())

	s.Set(1)
	s.Decrement()
	assert.Equal(t, 1, s.Value())

	s.Increment()
	assert.Contains(t, s.View(), "2x")
}

func TestCheckbox(t *testing.T) {
	assert.Equal(t, "☑ Insure", Checkbox("Insure", true))
	assert.Equal(t, "☐ Insure", Checkbox("Insure", false))
}

func TestTruncateIsRuneAware(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"BTC", 5, "BTC"},
		{"Bitcoin", 4, "Bit…"},
		{"▲▲▲▲▲", 3, "▲▲…"},
		{"abc", 1, "a"},
		{"abc", 0, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.width), tt.in)
	}
}

func TestTableSelection(t *testing.T) {
	table := NewTable().SetColumns([]TableColumn{{Header: "Symbol", Width: 8}})
	table.SetRows([][]string{{"BTC"}, {"ETH"}, {"SOL"}})

	table.MoveDown().MoveDown().MoveDown()
	assert.Equal(t, 2, table.GetSelectedRow())
	assert.Equal(t, []string{"SOL"}, table.GetSelectedRowData())

	// Shrinking the rows keeps the selection in range.
	table.SetRows([][]string{{"BTC"}})
	assert.Equal(t, 0, table.GetSelectedRow())

	table.SetRows(nil)
	assert.Nil(t, table.GetSelectedRowData())
	assert.Contains(t, table.SetEmptyText("No positions").View(), "No positions")

	table.SetRows([][]string{{"BTC"}, {"ETH"}})
	table.SetSelectable(false)
	table.MoveDown()
	assert.Equal(t, 0, table.GetSelectedRow())
}

func TestSparklinePadsToWidth(t *testing.T) {
	s := NewSparkline(8).SetData([]float64{1, 2, 3})
	blocks := s.generateSparkBlocks()
	assert.Equal(t, 8, utf8.RuneCountInString(blocks))
	assert.Equal(t, "▁▄█     ", blocks)

	s.SetData([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, 8, utf8.RuneCountInString(s.generateSparkBlocks()))
	assert.InDelta(t, 233.333, s.GetChangePercent(), 1e-3, "oldest points are dropped")

	flat := NewSparkline(3).SetData([]float64{5, 5, 5})
	assert.Equal(t, "▅▅▅", flat.generateSparkBlocks())
}

func TestPriceHistory(t *testing.T) {
	h := NewPriceHistory(3)
	h.Record("BTC", 0)
	assert.Empty(t, h.Series("BTC"), "unseeded prices are ignored")

	for _, p := range []float64{1, 2, 3, 4} {
		h.Record("BTC", p)
	}
	series := h.Series("BTC")
	assert.Equal(t, []float64{2, 3, 4}, series)

	series[0] = 99
	assert.Equal(t, 2.0, h.Series("BTC")[0], "series is a copy")
	assert.Empty(t, h.Series("ETH"))
}

func TestPnLGaugeThresholds(t *testing.T) {
	g := NewPnLGauge(10).SetThresholds(20, 10)

	tests := []struct {
		value  float64
		status string
		arrow  string
	}{
		{25, "Profit target reached", "↗"},
		{5, "Profit", "↑"},
		{0, "Break even", "→"},
		{-5, "Loss", "↓"},
		{-10, "Loss limit reached", "↘"},
	}

	for _, tt := range tests {
		g.SetValue(tt.value)
		assert.Equal(t, tt.status, g.GetStatus(), tt.value)
		assert.Equal(t, tt.arrow, g.GetArrow(), tt.value)
	}

	g.SetValue(10)
	assert.InDelta(t, 0.5, g.fill(), 1e-9)
	g.SetValue(-40)
	assert.Equal(t, 1.0, g.fill())
}

func TestMarketStatusStale(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status MarketStatus
		stale  bool
	}{
		{"no ticks", MarketStatus{Interval: time.Second}, true},
		{"fresh", MarketStatus{LastTick: now.Add(-time.Second), Ticks: 3, Interval: time.Second}, false},
		{"old", MarketStatus{LastTick: now.Add(-3 * time.Second), Ticks: 3, Interval: time.Second}, true},
		{"failed", MarketStatus{LastTick: now, Ticks: 3, Interval: time.Second, Err: errors.New("boom")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.stale, tt.status.Stale(now))
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$66000.00", FormatPrice(66000))
	assert.Equal(t, "$2.500", FormatPrice(2.5))
	assert.Equal(t, "$0.16000", FormatPrice(0.16))
	assert.Equal(t, "-", FormatPrice(0))
}

func TestLogViewerFilter(t *testing.T) {
	buffer, err := logger.NewLogBuffer(50, filepath.Join(t.TempDir(), "spill.log"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = buffer.Close() })

	require.NoError(t, buffer.Add("info", "Tick", nil))
	require.NoError(t, buffer.Add("warn", "Near liquidation", map[string]interface{}{"symbol": "BTC"}))
	require.NoError(t, buffer.Add("debug", "Quote", nil))
	require.NoError(t, buffer.Add("error", "Export failed", nil))

	lv := NewLogViewer(buffer, 100)
	lv.SetSize(80, 20)
	assert.Equal(t, 3, lv.Shown(), "debug is hidden by default")

	lv.ToggleLogLevel("debug")
	assert.Equal(t, 4, lv.Shown())

	lv.ToggleLogLevel("info")
	lv.ToggleLogLevel("warning")
	assert.Equal(t, 2, lv.Shown())
	assert.False(t, lv.Filter().ShowInfo)

	empty := NewLogViewer(nil, 0)
	empty.Refresh()
	assert.Zero(t, empty.Shown())
}
