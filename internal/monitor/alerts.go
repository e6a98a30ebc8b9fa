package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"go.uber.org/zap"
)

// AlertType represents different types of alerts
type AlertType string

const (
	AlertTypeLiquidation     AlertType = "liquidation"
	AlertTypeNearLiquidation AlertType = "near_liquidation"
	AlertTypeProfitTarget    AlertType = "profit_target"
	AlertTypeLossLimit       AlertType = "loss_limit"
	AlertTypeLargePosition   AlertType = "large_position"
)

// Severity levels
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert represents a triggered alert
type Alert struct {
	ID         string    `json:"id"`
	Type       AlertType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	PositionID string    `json:"position_id"`
	Symbol     string    `json:"symbol"`
	Message    string    `json:"message"`
	Details    string    `json:"details"`
	Severity   string    `json:"severity"`

	MarkPrice  float64 `json:"mark_price,omitempty"`
	PnLPercent float64 `json:"pnl_percent,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
}

// AlertConfig holds alert thresholds. A zero threshold disables its alert.
type AlertConfig struct {
	// Warn when the mark is within this percent of the liquidation level.
	NearLiquidationPercent float64 `json:"near_liquidation_percent"`

	ProfitTargetPercent float64 `json:"profit_target_percent"`
	LossLimitPercent    float64 `json:"loss_limit_percent"`

	// Position value (amount * leverage) that counts as large.
	LargePositionValue float64 `json:"large_position_value"`

	// Minimum gap between two alerts of the same type for one position.
	CooldownDuration time.Duration `json:"cooldown_duration"`
}

// DefaultAlertConfig returns default alert configuration
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		NearLiquidationPercent: 2.0,
		ProfitTargetPercent:    50.0,
		LossLimitPercent:       50.0,
		LargePositionValue:     100000,
		CooldownDuration:       30 * time.Second,
	}
}

// AlertHandler is called when an alert is triggered
type AlertHandler func(alert Alert)

// AlertManager evaluates positions after each mark and keeps recent alerts.
type AlertManager struct {
	mu     sync.RWMutex
	config AlertConfig
	logger *zap.Logger
	now    func() time.Time

	alerts    []Alert
	maxAlerts int
	lastFired map[string]time.Time // position id + type -> last alert

	handlers []AlertHandler
}

// NewAlertManager creates a new alert manager
func NewAlertManager(config AlertConfig, logger *zap.Logger) *AlertManager {
	return &AlertManager{
		config:    config,
		logger:    logger.Named("alerts"),
		now:       time.Now,
		alerts:    make([]Alert, 0, 100),
		maxAlerts: 1000,
		lastFired: make(map[string]time.Time),
	}
}

// AddHandler registers a handler; handlers run on their own goroutine.
func (am *AlertManager) AddHandler(handler AlertHandler) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.handlers = append(am.handlers, handler)
}

// CheckPosition evaluates a marked position and returns the alerts it raised.
func (am *AlertManager) CheckPosition(pos ledger.Position) []Alert {
	am.mu.Lock()
	defer am.mu.Unlock()

	var triggered []Alert
	now := am.now()
	mark := pos.MarkPrice
	pnlPct := pos.PnLPercent()
	details := fmt.Sprintf("%s %dx, entry %.6g, mark %.6g, liquidation %.6g",
		pos.Direction, pos.Leverage, pos.EntryPrice, mark, pos.LiquidationPrice)

	switch {
	case pos.Breached(mark):
		triggered = am.fire(triggered, now, Alert{
			Type:      AlertTypeLiquidation,
			Message:   fmt.Sprintf("Liquidation level reached for %s %s", pos.Symbol, pos.ID),
			Severity:  SeverityCritical,
			Threshold: pos.LiquidationPrice,
		}, pos, details)

	case am.config.NearLiquidationPercent > 0 && pos.DistanceToLiquidation(mark) <= am.config.NearLiquidationPercent:
		triggered = am.fire(triggered, now, Alert{
			Type:      AlertTypeNearLiquidation,
			Message:   fmt.Sprintf("%s %s is %.2f%% from liquidation", pos.Symbol, pos.ID, pos.DistanceToLiquidation(mark)),
			Severity:  SeverityWarning,
			Threshold: am.config.NearLiquidationPercent,
		}, pos, details)
	}

	if am.config.ProfitTargetPercent > 0 && pnlPct >= am.config.ProfitTargetPercent {
		triggered = am.fire(triggered, now, Alert{
			Type:      AlertTypeProfitTarget,
			Message:   fmt.Sprintf("Profit target reached! +%.1f%% on %s %s", pnlPct, pos.Symbol, pos.ID),
			Severity:  SeverityInfo,
			Threshold: am.config.ProfitTargetPercent,
		}, pos, details)
	}

	if am.config.LossLimitPercent > 0 && pnlPct <= -am.config.LossLimitPercent {
		triggered = am.fire(triggered, now, Alert{
			Type:      AlertTypeLossLimit,
			Message:   fmt.Sprintf("Loss limit hit: %.1f%% on %s %s", pnlPct, pos.Symbol, pos.ID),
			Severity:  SeverityWarning,
			Threshold: -am.config.LossLimitPercent,
		}, pos, details)
	}

	return triggered
}

// CheckOpen raises an alert when a freshly opened position is large.
func (am *AlertManager) CheckOpen(pos ledger.Position) []Alert {
	am.mu.Lock()
	defer am.mu.Unlock()

	value := pos.Amount * float64(pos.Leverage)
	if am.config.LargePositionValue <= 0 || value < am.config.LargePositionValue {
		return nil
	}
	return am.fire(nil, am.now(), Alert{
		Type:      AlertTypeLargePosition,
		Message:   fmt.Sprintf("Large %s position opened on %s: %.2f", pos.Direction, pos.Symbol, value),
		Severity:  SeverityInfo,
		Threshold: am.config.LargePositionValue,
	}, pos, fmt.Sprintf("amount %.6g at %dx", pos.Amount, pos.Leverage))
}

// Forget drops cooldown state for a closed position.
func (am *AlertManager) Forget(positionID string) {
	am.mu.Lock()
	defer am.mu.Unlock()
	for k := range am.lastFired {
		if len(k) > len(positionID) && k[:len(positionID)+1] == positionID+"|" {
			delete(am.lastFired, k)
		}
	}
}

// fire applies the cooldown, records, logs and dispatches an alert.
// Caller holds am.mu.
func (am *AlertManager) fire(triggered []Alert, now time.Time, alert Alert, pos ledger.Position, details string) []Alert {
	key := pos.ID + "|" + string(alert.Type)
	if last, ok := am.lastFired[key]; ok && now.Sub(last) < am.config.CooldownDuration {
		return triggered
	}
	am.lastFired[key] = now

	alert.ID = uuid.NewString()
	alert.Timestamp = now
	alert.PositionID = pos.ID
	alert.Symbol = pos.Symbol
	alert.Details = details
	alert.MarkPrice = pos.MarkPrice
	alert.PnLPercent = pos.PnLPercent()

	if len(am.alerts) >= am.maxAlerts {
		am.alerts = am.alerts[1:]
	}
	am.alerts = append(am.alerts, alert)

	fields := []zap.Field{
		zap.String("type", string(alert.Type)),
		zap.String("id", alert.PositionID),
		zap.String("symbol", alert.Symbol),
		zap.Float64("price", alert.MarkPrice),
	}
	switch alert.Severity {
	case SeverityCritical:
		am.logger.Error(alert.Message, fields...)
	case SeverityWarning:
		am.logger.Warn(alert.Message, fields...)
	default:
		am.logger.Info(alert.Message, fields...)
	}

	for _, handler := range am.handlers {
		go handler(alert)
	}

	return append(triggered, alert)
}

// GetRecentAlerts returns up to limit newest alerts, oldest first.
func (am *AlertManager) GetRecentAlerts(limit int) []Alert {
	am.mu.RLock()
	defer am.mu.RUnlock()

	if limit <= 0 || limit > len(am.alerts) {
		limit = len(am.alerts)
	}

	result := make([]Alert, limit)
	copy(result, am.alerts[len(am.alerts)-limit:])
	return result
}

// GetAlertsByPosition returns alerts raised for one position.
func (am *AlertManager) GetAlertsByPosition(positionID string) []Alert {
	am.mu.RLock()
	defer am.mu.RUnlock()

	var result []Alert
	for _, alert := range am.alerts {
		if alert.PositionID == positionID {
			result = append(result, alert)
		}
	}
	return result
}

// UpdateConfig replaces the thresholds.
func (am *AlertManager) UpdateConfig(config AlertConfig) {
	am.mu.Lock()
	defer am.mu.Unlock()

	am.config = config
	am.logger.Info("Alert configuration updated",
		zap.Float64("near_liquidation_percent", config.NearLiquidationPercent),
		zap.Float64("profit_target_percent", config.ProfitTargetPercent),
		zap.Float64("loss_limit_percent", config.LossLimitPercent))
}

// GetConfig returns the current alert configuration
func (am *AlertManager) GetConfig() AlertConfig {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return am.config
}

// ClearHistory resets all cooldowns.
func (am *AlertManager) ClearHistory() {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.lastFired = make(map[string]time.Time)
}
