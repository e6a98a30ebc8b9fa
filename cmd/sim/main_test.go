package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rovshanmuradov/perpshield/internal/config"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/logger"
	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/rovshanmuradov/perpshield/internal/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type midSource struct{}

func (midSource) Float64() float64 { return 0.5 }

type brokenTape struct{ writes int }

func (b *brokenTape) WriteLine(string) error {
	b.writes++
	return errors.New("disk full")
}

func readTape(t *testing.T, path string) []tapeRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []tapeRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec tapeRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestRecordWritesTape(t *testing.T) {
	svc := trading.NewService(trading.DefaultOptions(), nil, zap.NewNop(),
		trading.WithSimulator(market.NewSimulator(midSource{})))
	t.Cleanup(func() { _ = svc.Shutdown() })

	require.NoError(t, svc.Tick())
	_, err := svc.Open("BTC", 1, 10, ledger.Long, true)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tape.jsonl")
	tape, err := logger.NewSafeFileWriter(path, time.Hour, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, record(svc, tape, zap.NewNop()))
	require.NoError(t, tape.Close())

	records := readTape(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(1), records[0].Tick)
	assert.Equal(t, 1, records[0].Open)
	assert.Equal(t, 66000.0, records[0].Prices["BTC"])
	assert.Zero(t, records[0].TotalPnL)

	assert.NoError(t, record(svc, nil, zap.NewNop()), "no tape is fine")
}

func TestRunStopsAfterDuration(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.LogDir = t.TempDir()
	cfg.TickIntervalMs = 10

	tapePath := filepath.Join(t.TempDir(), "tape.jsonl")
	orders := []order{
		{Symbol: "BTC", Direction: ledger.Long, Amount: 1, Leverage: 2},
		{Symbol: "NOPE", Direction: ledger.Short, Amount: 1, Leverage: 2},
	}

	err = run(cfg, orders, 100*time.Millisecond, tapePath, zap.NewNop())
	require.NoError(t, err)

	records := readTape(t, tapePath)
	require.NotEmpty(t, records)
	assert.Equal(t, 1, records[0].Open, "unknown symbols are skipped")
	assert.Len(t, records[0].Prices, len(market.DefaultInstruments()))
}

func TestRunRecordsSeedTickOnce(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.LogDir = t.TempDir()
	cfg.TickIntervalMs = int(time.Hour / time.Millisecond)

	tapePath := filepath.Join(t.TempDir(), "tape.jsonl")
	orders := []order{{Symbol: "ETH", Direction: ledger.Short, Amount: 2, Leverage: 5}}

	require.NoError(t, run(cfg, orders, 100*time.Millisecond, tapePath, zap.NewNop()))

	records := readTape(t, tapePath)
	require.Len(t, records, 1, "no second tick before the interval")
	assert.Equal(t, uint64(1), records[0].Tick)
	assert.Equal(t, 1, records[0].Open)
}

func TestTickFuncIgnoresTapeErrors(t *testing.T) {
	svc := trading.NewService(trading.DefaultOptions(), nil, zap.NewNop(),
		trading.WithSimulator(market.NewSimulator(midSource{})))
	t.Cleanup(func() { _ = svc.Shutdown() })

	tape := &brokenTape{}
	runner := market.NewRunner(5*time.Millisecond, newTickFunc(svc, tape, zaptest.NewLogger(t)), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, runner.Run(ctx), context.DeadlineExceeded)

	ticks, failures := runner.Stats()
	require.GreaterOrEqual(t, ticks, uint64(1))
	assert.Zero(t, failures, "a tape error is not a failed tick")
	assert.Equal(t, int(ticks), tape.writes)

	_, marketTicks := svc.LastTick()
	assert.Equal(t, ticks, marketTicks, "prices still advance")
}
