package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rovshanmuradov/perpshield/internal/config"
	"github.com/rovshanmuradov/perpshield/internal/lifecycle"
	"github.com/rovshanmuradov/perpshield/internal/logger"
	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/rovshanmuradov/perpshield/internal/metrics"
	"github.com/rovshanmuradov/perpshield/internal/monitor"
	"github.com/rovshanmuradov/perpshield/internal/trading"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "configs/config.json"

// tapeRecord is one line of the price tape.
type tapeRecord struct {
	Time     time.Time          `json:"time"`
	Tick     uint64             `json:"tick"`
	Prices   map[string]float64 `json:"prices"`
	Open     int                `json:"open_positions"`
	TotalPnL float64            `json:"total_pnl"`
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	positions := flag.String("positions", "", "Demo positions, e.g. BTC:long:1:10:insured,ETH:short:2:5")
	duration := flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	tapePath := flag.String("tape", "", "Write a JSON-lines price tape to this file")
	flag.Parse()

	orders, err := parseOrders(*positions)
	if err != nil {
		log.Fatalf("Invalid -positions: %v", err)
	}

	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		path = ""
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.CreatePrettyLogger(cfg.DebugLogging)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	if err := run(cfg, orders, *duration, *tapePath, appLogger); err != nil {
		appLogger.Error("Simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, orders []order, duration time.Duration, tapePath string, appLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	history, err := monitor.NewTradeHistory(cfg.LogDir, cfg.TradeHistorySize, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open trade journal: %w", err)
	}

	m := metrics.New()
	svc := trading.NewService(cfg.TradingOptions(), cfg.InstrumentList(), appLogger,
		trading.WithHistory(history),
		trading.WithMetrics(m))

	shutdown := lifecycle.NewShutdownHandler(appLogger, lifecycle.DefaultTimeout)
	shutdown.AddFunc("trade journal", svc.Shutdown)
	defer func() {
		if err := shutdown.Shutdown(context.Background()); err != nil {
			appLogger.Warn("Shutdown incomplete", zap.Error(err))
		}
	}()

	// Positions need a price to open against.
	if err := svc.Tick(); err != nil {
		return fmt.Errorf("failed to seed prices: %w", err)
	}
	for _, o := range orders {
		pos, err := svc.Open(o.Symbol, o.Amount, o.Leverage, o.Direction, o.Insured)
		if err != nil {
			appLogger.Warn("Skipping demo position",
				zap.String("symbol", o.Symbol),
				zap.Stringer("direction", o.Direction),
				zap.Error(err))
			continue
		}
		appLogger.Info("📈 Opened demo position",
			zap.String("id", pos.ID),
			zap.String("symbol", pos.Symbol),
			zap.Stringer("direction", pos.Direction),
			zap.Int("leverage", pos.Leverage),
			zap.Float64("entry", pos.EntryPrice),
			zap.Float64("liquidation", pos.LiquidationPrice),
			zap.Bool("insured", pos.Insured))
	}

	var tape lineWriter
	if tapePath != "" {
		w, err := logger.NewSafeFileWriter(tapePath, 5*time.Second, appLogger)
		if err != nil {
			return fmt.Errorf("failed to open price tape: %w", err)
		}
		shutdown.Add("price tape", w)
		tape = w
	}

	// The seed tick is the runner's first tick.
	recordTick(svc, tape, appLogger)
	runner := market.NewRunner(cfg.TickInterval(), newTickFunc(svc, tape, appLogger), appLogger,
		market.WithoutInitialTick())

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Run(gCtx)
	})

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return m.Serve(gCtx, cfg.MetricsAddr, appLogger)
		})
	}

	appLogger.Info("🚀 Simulation started",
		zap.Duration("tick_interval", cfg.TickInterval()),
		zap.Int("positions", len(svc.Positions())),
		zap.String("metrics_addr", cfg.MetricsAddr))

	err = g.Wait()
	if errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	ticks, failures := runner.Stats()
	stats := svc.Statistics()
	appLogger.Info("✅ Simulation finished",
		zap.Uint64("ticks", ticks),
		zap.Uint64("failed_ticks", failures),
		zap.Int("open_positions", len(svc.Positions())),
		zap.Float64("unrealized_pnl", svc.TotalPnL()),
		zap.Float64("realized_pnl", stats.RealizedPnL),
		zap.Int("liquidations", stats.Liquidations))

	return err
}

// lineWriter is the sink for the price tape.
type lineWriter interface {
	WriteLine(line string) error
}

// newTickFunc advances the market and records the result. Only a failed
// market update counts as a failed tick; the prices have already moved when
// the tape is written.
func newTickFunc(svc *trading.Service, tape lineWriter, appLogger *zap.Logger) market.TickFunc {
	return func() error {
		if err := svc.Tick(); err != nil {
			return err
		}
		recordTick(svc, tape, appLogger)
		return nil
	}
}

func recordTick(svc *trading.Service, tape lineWriter, appLogger *zap.Logger) {
	if err := record(svc, tape, appLogger); err != nil {
		appLogger.Warn("Failed to write price tape", zap.Error(err))
	}
}

// record logs a per-tick summary and appends it to the tape when one is open.
func record(svc *trading.Service, tape lineWriter, appLogger *zap.Logger) error {
	at, ticks := svc.LastTick()
	positions := svc.Positions()
	total := svc.TotalPnL()

	appLogger.Debug("Tick",
		zap.Uint64("tick", ticks),
		zap.Int("open_positions", len(positions)),
		zap.Float64("total_pnl", total))

	if tape == nil {
		return nil
	}

	instruments := svc.Instruments()
	rec := tapeRecord{
		Time:     at,
		Tick:     ticks,
		Prices:   make(map[string]float64, len(instruments)),
		Open:     len(positions),
		TotalPnL: total,
	}
	for _, inst := range instruments {
		rec.Prices[inst.Symbol] = inst.Price
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode tape record: %w", err)
	}
	return tape.WriteLine(string(line))
}
