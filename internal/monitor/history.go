package monitor

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rovshanmuradov/perpshield/internal/logger"
	"go.uber.org/zap"
)

// TradeHistory is the session journal: a bounded in-memory list of trades
// mirrored to a CSV file.
type TradeHistory struct {
	mu        sync.RWMutex
	csvWriter *logger.SafeCSVWriter
	trades    []Trade
	maxTrades int
	logger    *zap.Logger

	// Statistics
	totalTrades  int
	opens        int
	closes       int
	liquidations int
	wins         int
	realizedPnL  float64
	feesPaid     float64
}

// NewTradeHistory creates a journal writing to <logDir>/trades/. An empty
// logDir keeps the journal in memory only.
func NewTradeHistory(logDir string, maxTrades int, zapLogger *zap.Logger) (*TradeHistory, error) {
	if maxTrades <= 0 {
		return nil, fmt.Errorf("max trades must be positive, got %d", maxTrades)
	}

	th := &TradeHistory{
		trades:    make([]Trade, 0, maxTrades),
		maxTrades: maxTrades,
		logger:    zapLogger.Named("journal"),
	}

	if logDir == "" {
		return th, nil
	}

	filename := fmt.Sprintf("trades_%s.csv", time.Now().Format("20060102_150405"))
	csvPath := filepath.Join(logDir, "trades", filename)

	csvWriter, err := logger.NewSafeCSVWriter(csvPath, CSVHeaders(), 30*time.Second, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV writer: %w", err)
	}
	th.csvWriter = csvWriter

	th.logger.Info("Trade history initialized",
		zap.String("file", csvPath),
		zap.Int("max_memory_trades", maxTrades))

	return th, nil
}

// LogTrade appends a trade to the journal.
func (th *TradeHistory) LogTrade(trade Trade) error {
	th.mu.Lock()
	defer th.mu.Unlock()

	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}

	if th.csvWriter != nil {
		if err := th.csvWriter.WriteRecord(trade.ToCSV()); err != nil {
			th.logger.Error("Failed to write trade to CSV",
				zap.String("trade_id", trade.ID),
				zap.Error(err))
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}

	if len(th.trades) >= th.maxTrades {
		th.trades = th.trades[1:]
	}
	th.trades = append(th.trades, trade)

	th.totalTrades++
	switch trade.Action {
	case ActionOpen:
		th.opens++
		th.feesPaid += trade.InsuranceFee
	case ActionClose:
		th.closes++
	case ActionLiquidated:
		th.liquidations++
	}
	if trade.Realized() {
		th.realizedPnL += trade.PnL
		if trade.PnL > 0 {
			th.wins++
		}
	}

	th.logger.Debug("Trade logged",
		zap.String("id", trade.PositionID),
		zap.String("action", trade.Action),
		zap.String("symbol", trade.Symbol),
		zap.Float64("pnl", trade.PnL))

	return nil
}

// GetRecentTrades returns up to limit newest trades, oldest first.
func (th *TradeHistory) GetRecentTrades(limit int) []Trade {
	th.mu.RLock()
	defer th.mu.RUnlock()

	if limit <= 0 || limit > len(th.trades) {
		limit = len(th.trades)
	}

	result := make([]Trade, limit)
	copy(result, th.trades[len(th.trades)-limit:])
	return result
}

// GetTradesByPosition returns the journal entries of one position.
func (th *TradeHistory) GetTradesByPosition(positionID string) []Trade {
	th.mu.RLock()
	defer th.mu.RUnlock()

	var result []Trade
	for _, trade := range th.trades {
		if trade.PositionID == positionID {
			result = append(result, trade)
		}
	}
	return result
}

// GetStatistics returns trading statistics
func (th *TradeHistory) GetStatistics() TradeStatistics {
	th.mu.RLock()
	defer th.mu.RUnlock()
	return th.statistics()
}

func (th *TradeHistory) statistics() TradeStatistics {
	stats := TradeStatistics{
		TotalTrades:   th.totalTrades,
		Opens:         th.opens,
		Closes:        th.closes,
		Liquidations:  th.liquidations,
		RealizedPnL:   th.realizedPnL,
		InsuranceFees: th.feesPaid,
	}

	if realized := th.closes + th.liquidations; realized > 0 {
		stats.WinRate = float64(th.wins) / float64(realized) * 100
	}

	var (
		winCount  int
		lossCount int
		winPnL    float64
		lossPnL   float64
	)
	for _, trade := range th.trades {
		if !trade.Realized() {
			continue
		}
		if trade.PnL > 0 {
			winCount++
			winPnL += trade.PnL
		} else if trade.PnL < 0 {
			lossCount++
			lossPnL += trade.PnL
		}
	}
	if winCount > 0 {
		stats.AvgWinPnL = winPnL / float64(winCount)
	}
	if lossCount > 0 {
		stats.AvgLossPnL = lossPnL / float64(lossCount)
	}

	return stats
}

// Path returns the CSV file, or "" for an in-memory journal.
func (th *TradeHistory) Path() string {
	if th.csvWriter == nil {
		return ""
	}
	return th.csvWriter.Path()
}

// Flush forces a write of any buffered trades
func (th *TradeHistory) Flush() error {
	if th.csvWriter == nil {
		return nil
	}
	return th.csvWriter.Flush()
}

// Close flushes the journal file.
func (th *TradeHistory) Close() error {
	th.mu.Lock()
	defer th.mu.Unlock()

	stats := th.statistics()
	th.logger.Info("Closing trade history",
		zap.Int("total_trades", stats.TotalTrades),
		zap.Int("liquidations", stats.Liquidations),
		zap.Float64("pnl", stats.RealizedPnL),
		zap.Float64("win_rate", stats.WinRate))

	if th.csvWriter == nil {
		return nil
	}
	return th.csvWriter.Close()
}

// TradeStatistics holds aggregate trade statistics
type TradeStatistics struct {
	TotalTrades   int     `json:"total_trades"`
	Opens         int     `json:"opens"`
	Closes        int     `json:"closes"`
	Liquidations  int     `json:"liquidations"`
	WinRate       float64 `json:"win_rate"`
	RealizedPnL   float64 `json:"realized_pnl"`
	InsuranceFees float64 `json:"insurance_fees"`
	AvgWinPnL     float64 `json:"avg_win_pnl"`
	AvgLossPnL    float64 `json:"avg_loss_pnl"`
}
