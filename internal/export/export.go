package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rovshanmuradov/perpshield/internal/monitor"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ErrNoTrades is returned when the filters leave nothing to export.
var ErrNoTrades = errors.New("no trades match the export criteria")

// ParseFormat accepts "csv" or "json".
func ParseFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", s)
	}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format       ExportFormat
	StartTime    time.Time
	EndTime      time.Time
	SymbolFilter string
	ActionFilter string // open, close or liquidated
	InsuredOnly  bool
	OutputDir    string
}

// TradeExporter writes journal trades to files.
type TradeExporter struct {
	logger   *zap.Logger
	maxTries uint
	now      func() time.Time
}

// NewTradeExporter creates a new trade exporter
func NewTradeExporter(logger *zap.Logger) *TradeExporter {
	return &TradeExporter{
		logger:   logger.Named("export"),
		maxTries: 3,
		now:      time.Now,
	}
}

// ExportTrades filters trades, writes them and returns the file path.
func (te *TradeExporter) ExportTrades(ctx context.Context, trades []monitor.Trade, options ExportOptions) (string, error) {
	if options.Format != FormatCSV && options.Format != FormatJSON {
		return "", fmt.Errorf("unsupported format: %s", options.Format)
	}

	filtered := te.filterTrades(trades, options)
	if len(filtered) == 0 {
		return "", ErrNoTrades
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	outputPath := filepath.Join(options.OutputDir, te.generateFilename(options))

	var write func(io.Writer) error
	switch options.Format {
	case FormatCSV:
		write = func(w io.Writer) error { return writeCSV(w, filtered) }
	case FormatJSON:
		write = func(w io.Writer) error {
			return writeJSON(w, struct {
				ExportTime time.Time       `json:"export_time"`
				TradeCount int             `json:"trade_count"`
				Trades     []monitor.Trade `json:"trades"`
				Summary    ExportSummary   `json:"summary"`
			}{
				ExportTime: te.now(),
				TradeCount: len(filtered),
				Trades:     filtered,
				Summary:    CalculateSummary(filtered),
			})
		}
	}

	if err := te.writeFile(ctx, outputPath, write); err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// writeFile creates path and fills it, retrying transient failures.
func (te *TradeExporter) writeFile(ctx context.Context, path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond

	notify := func(err error, d time.Duration) {
		te.logger.Warn("Export write failed, retrying",
			zap.String("file", path),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	op := func() (struct{}, error) {
		file, err := os.Create(path)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to create file: %w", err)
		}
		if err := write(file); err != nil {
			file.Close()
			return struct{}{}, backoff.Permanent(err)
		}
		if err := file.Close(); err != nil {
			return struct{}{}, fmt.Errorf("failed to close file: %w", err)
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(te.maxTries),
		backoff.WithNotify(notify))
	if err != nil {
		te.logger.Error("Export failed", zap.String("file", path), zap.Error(err))
		return err
	}
	return nil
}

// filterTrades applies filters to the trade list
func (te *TradeExporter) filterTrades(trades []monitor.Trade, options ExportOptions) []monitor.Trade {
	var filtered []monitor.Trade

	for _, trade := range trades {
		if !options.StartTime.IsZero() && trade.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && !trade.Timestamp.Before(options.EndTime) {
			continue
		}
		if options.SymbolFilter != "" && !strings.EqualFold(trade.Symbol, options.SymbolFilter) {
			continue
		}
		if options.ActionFilter != "" && trade.Action != options.ActionFilter {
			continue
		}
		if options.InsuredOnly && !trade.Insured {
			continue
		}
		filtered = append(filtered, trade)
	}

	return filtered
}

// generateFilename creates a filename based on export options
func (te *TradeExporter) generateFilename(options ExportOptions) string {
	timestamp := te.now().Format("20060102_150405")

	prefix := "trades_all"
	if options.ActionFilter != "" {
		prefix = "trades_" + options.ActionFilter
	}
	if options.SymbolFilter != "" {
		prefix += "_" + strings.ToUpper(options.SymbolFilter)
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func writeCSV(w io.Writer, trades []monitor.Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(monitor.CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, trade := range trades {
		if err := writer.Write(trade.ToCSV()); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary contains summary statistics for exported trades.
// Money fields are rounded to cents.
type ExportSummary struct {
	TotalTrades   int       `json:"total_trades"`
	OpenCount     int       `json:"open_count"`
	CloseCount    int       `json:"close_count"`
	Liquidations  int       `json:"liquidations"`
	UniqueSymbols int       `json:"unique_symbols"`
	TotalVolume   float64   `json:"total_volume"`
	TotalPnL      float64   `json:"total_pnl"`
	InsuranceFees float64   `json:"insurance_fees"`
	WinCount      int       `json:"win_count"`
	LossCount     int       `json:"loss_count"`
	WinRate       float64   `json:"win_rate"`
	AvgPnL        float64   `json:"avg_pnl"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// CalculateSummary aggregates trades that are already in time order.
func CalculateSummary(trades []monitor.Trade) ExportSummary {
	summary := ExportSummary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return summary
	}

	summary.StartDate = trades[0].Timestamp
	summary.EndDate = trades[len(trades)-1].Timestamp

	var (
		volume  = decimal.Zero
		pnl     = decimal.Zero
		fees    = decimal.Zero
		symbols = make(map[string]struct{})
	)

	for _, trade := range trades {
		symbols[trade.Symbol] = struct{}{}

		switch trade.Action {
		case monitor.ActionOpen:
			summary.OpenCount++
			volume = volume.Add(decimal.NewFromFloat(trade.Amount).Mul(decimal.NewFromInt(int64(trade.Leverage))))
			fees = fees.Add(decimal.NewFromFloat(trade.InsuranceFee))
		case monitor.ActionClose:
			summary.CloseCount++
		case monitor.ActionLiquidated:
			summary.Liquidations++
		}

		if trade.Realized() {
			pnl = pnl.Add(decimal.NewFromFloat(trade.PnL))
			if trade.PnL > 0 {
				summary.WinCount++
			} else if trade.PnL < 0 {
				summary.LossCount++
			}
		}
	}

	summary.UniqueSymbols = len(symbols)
	summary.TotalVolume = volume.Round(2).InexactFloat64()
	summary.TotalPnL = pnl.Round(2).InexactFloat64()
	summary.InsuranceFees = fees.Round(2).InexactFloat64()

	if realized := summary.CloseCount + summary.Liquidations; realized > 0 {
		n := decimal.NewFromInt(int64(realized))
		summary.WinRate = decimal.NewFromInt(int64(summary.WinCount)).Div(n).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		summary.AvgPnL = pnl.Div(n).Round(2).InexactFloat64()
	}

	return summary
}

// DailyReport represents a daily trading report
type DailyReport struct {
	Date            time.Time       `json:"date"`
	TradeCount      int             `json:"trade_count"`
	Summary         ExportSummary   `json:"summary"`
	HourlyBreakdown []HourlyStats   `json:"hourly_breakdown"`
	Trades          []monitor.Trade `json:"trades"`
}

// HourlyStats represents trading statistics for an hour
type HourlyStats struct {
	Hour         int     `json:"hour"`
	TradeCount   int     `json:"trade_count"`
	OpenCount    int     `json:"open_count"`
	CloseCount   int     `json:"close_count"`
	Liquidations int     `json:"liquidations"`
	PnL          float64 `json:"pnl"`
}

// ExportDailyReport writes a summary of the trades of one calendar day.
// It returns "" without error when the day had no trades.
func (te *TradeExporter) ExportDailyReport(ctx context.Context, trades []monitor.Trade, date time.Time, outputDir string) (string, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	filtered := te.filterTrades(trades, ExportOptions{
		StartTime: startOfDay,
		EndTime:   startOfDay.AddDate(0, 0, 1),
	})
	if len(filtered) == 0 {
		te.logger.Info("No trades for daily report", zap.Time("date", startOfDay))
		return "", nil
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	report := DailyReport{
		Date:            startOfDay,
		TradeCount:      len(filtered),
		Trades:          filtered,
		Summary:         CalculateSummary(filtered),
		HourlyBreakdown: calculateHourlyBreakdown(filtered),
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102")))
	if err := te.writeFile(ctx, outputPath, func(w io.Writer) error { return writeJSON(w, report) }); err != nil {
		return "", err
	}

	te.logger.Info("Daily report exported",
		zap.String("file", outputPath),
		zap.Int("trades", len(filtered)))

	return outputPath, nil
}

func calculateHourlyBreakdown(trades []monitor.Trade) []HourlyStats {
	var hours [24]*HourlyStats

	for _, trade := range trades {
		hour := trade.Timestamp.Hour()
		stats := hours[hour]
		if stats == nil {
			stats = &HourlyStats{Hour: hour}
			hours[hour] = stats
		}

		stats.TradeCount++
		switch trade.Action {
		case monitor.ActionOpen:
			stats.OpenCount++
		case monitor.ActionClose:
			stats.CloseCount++
			stats.PnL += trade.PnL
		case monitor.ActionLiquidated:
			stats.Liquidations++
			stats.PnL += trade.PnL
		}
	}

	var breakdown []HourlyStats
	for _, stats := range hours {
		if stats != nil {
			breakdown = append(breakdown, *stats)
		}
	}
	return breakdown
}
