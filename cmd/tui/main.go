package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/config"
	"github.com/rovshanmuradov/perpshield/internal/lifecycle"
	"github.com/rovshanmuradov/perpshield/internal/logger"
	"github.com/rovshanmuradov/perpshield/internal/metrics"
	"github.com/rovshanmuradov/perpshield/internal/monitor"
	"github.com/rovshanmuradov/perpshield/internal/trading"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/component"
	"github.com/rovshanmuradov/perpshield/internal/ui/screen"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/config.json"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		path = ""
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The buffer reports its own failures nowhere: the terminal belongs to the UI.
	logBuffer, err := logger.NewLogBuffer(cfg.LogBufferSize, filepath.Join(cfg.LogDir, "tui.log"), zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to create log buffer: %v", err)
	}
	flushDone := logBuffer.StartPeriodicFlush(5 * time.Second)

	appLogger, err := logger.CreateTUILogger(cfg.DebugLogging, logBuffer)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	history, err := monitor.NewTradeHistory(cfg.LogDir, cfg.TradeHistorySize, appLogger)
	if err != nil {
		log.Fatalf("Failed to open trade journal: %v", err)
	}

	svc := trading.NewService(cfg.TradingOptions(), cfg.InstrumentList(), appLogger,
		trading.WithHistory(history),
		trading.WithMetrics(metrics.New()))

	// Closed newest first: journal, then the flush loop, then the buffer itself.
	shutdown := lifecycle.NewShutdownHandler(appLogger, lifecycle.DefaultTimeout)
	shutdown.Add("log buffer", logBuffer)
	shutdown.AddFunc("log flush", func() error {
		close(flushDone)
		return appLogger.Sync()
	})
	shutdown.AddFunc("trade journal", svc.Shutdown)

	env := &screen.Env{
		Service:  svc,
		Logs:     logBuffer,
		Prices:   component.NewPriceHistory(60),
		Interval: cfg.TickInterval(),
		Logger:   appLogger,
	}

	appLogger.Info("Starting perpshield TUI",
		zap.Duration("tick_interval", env.Interval),
		zap.Bool("insurance_enabled", cfg.InsuranceEnabled),
		zap.String("liquidation_policy", cfg.LiquidationPolicy))

	recovery := ui.NewRecoveryHandler(appLogger, func() (tea.Model, []tea.ProgramOption) {
		return ui.NewSafeUIWrapper(NewAppModel(env), appLogger), []tea.ProgramOption{
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		}
	})

	go func() {
		<-rootCtx.Done()
		recovery.Stop()
	}()

	runErr := recovery.RunWithRecovery()

	appLogger.Info("Shutting down TUI application")
	if err := shutdown.Shutdown(context.Background()); err != nil {
		log.Printf("Shutdown incomplete: %v", err)
	}

	if runErr != nil {
		log.Fatalf("TUI failed: %v", runErr)
	}
}
