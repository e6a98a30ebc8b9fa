// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rovshanmuradov/perpshield/internal/insurance"
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/market"
	"github.com/rovshanmuradov/perpshield/internal/monitor"
	"github.com/rovshanmuradov/perpshield/internal/trading"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PERPSHIELD_MAX_LEVERAGE.
const EnvPrefix = "PERPSHIELD"

type Config struct {
	TickIntervalMs    int                 `mapstructure:"tick_interval_ms"`
	DebugLogging      bool                `mapstructure:"debug_logging"`
	LogDir            string              `mapstructure:"log_dir"`
	LogBufferSize     int                 `mapstructure:"log_buffer_size"`
	ExportDir         string              `mapstructure:"export_dir"`
	TradeHistorySize  int                 `mapstructure:"trade_history_size"`
	InsuranceEnabled  bool                `mapstructure:"insurance_enabled"`
	InsuranceFeeRate  float64             `mapstructure:"insurance_fee_rate"`
	MaxLeverage       int                 `mapstructure:"max_leverage"`
	LiquidationPolicy string              `mapstructure:"liquidation_policy"`
	Alerts            AlertsConfig        `mapstructure:"alerts"`
	MetricsAddr       string              `mapstructure:"metrics_addr"`
	Instruments       []market.Instrument `mapstructure:"instruments"`
}

type AlertsConfig struct {
	ProfitTargetPercent    float64 `mapstructure:"profit_target_percent"`
	LossLimitPercent       float64 `mapstructure:"loss_limit_percent"`
	NearLiquidationPercent float64 `mapstructure:"near_liquidation_percent"`
	LargePositionValue     float64 `mapstructure:"large_position_value"`
	CooldownSeconds        int     `mapstructure:"cooldown_seconds"`
}

const (
	DefaultTickIntervalMs   = 5000
	DefaultLogDir           = "logs"
	DefaultLogBufferSize    = 1000
	DefaultExportDir        = "exports"
	DefaultTradeHistorySize = 500
)

func defaults() map[string]interface{} {
	alerts := monitor.DefaultAlertConfig()
	return map[string]interface{}{
		"tick_interval_ms":                DefaultTickIntervalMs,
		"debug_logging":                   false,
		"log_dir":                         DefaultLogDir,
		"log_buffer_size":                 DefaultLogBufferSize,
		"export_dir":                      DefaultExportDir,
		"trade_history_size":              DefaultTradeHistorySize,
		"insurance_enabled":               true,
		"insurance_fee_rate":              insurance.DefaultFeeRate,
		"max_leverage":                    ledger.MaxLeverage,
		"liquidation_policy":              string(trading.PolicyFlag),
		"alerts.profit_target_percent":    alerts.ProfitTargetPercent,
		"alerts.loss_limit_percent":       alerts.LossLimitPercent,
		"alerts.near_liquidation_percent": alerts.NearLiquidationPercent,
		"alerts.large_position_value":     alerts.LargePositionValue,
		"alerts.cooldown_seconds":         int(alerts.CooldownDuration / time.Second),
		"metrics_addr":                    "",
	}
}

// LoadConfig reads the JSON file at path, applies PERPSHIELD_* environment
// overrides (a .env file in the working directory is loaded first) and
// validates the result. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, cfg.Validate()
}

// Validate rejects values the simulator cannot run with.
func (c *Config) Validate() error {
	if c.TickIntervalMs <= 0 {
		return errors.New("invalid tick_interval_ms")
	}
	if c.MaxLeverage < ledger.MinLeverage || c.MaxLeverage > ledger.MaxLeverage {
		return fmt.Errorf("max_leverage must be in [%d, %d]", ledger.MinLeverage, ledger.MaxLeverage)
	}
	if c.InsuranceFeeRate < 0 || c.InsuranceFeeRate > 1 {
		return errors.New("insurance_fee_rate must be in [0, 1]")
	}
	if _, err := trading.ParseLiquidationPolicy(c.LiquidationPolicy); err != nil {
		return err
	}
	if c.LogBufferSize <= 0 {
		return errors.New("invalid log_buffer_size")
	}
	if c.TradeHistorySize <= 0 {
		return errors.New("invalid trade_history_size")
	}
	if c.Alerts.CooldownSeconds < 0 {
		return errors.New("invalid alerts.cooldown_seconds")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, inst := range c.Instruments {
		if inst.Symbol == "" {
			return errors.New("instrument without symbol")
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("duplicate instrument %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
	}
	return nil
}

// TickInterval returns the price update period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// InstrumentList returns the configured instruments or the built-in list.
func (c *Config) InstrumentList() []market.Instrument {
	if len(c.Instruments) == 0 {
		return market.DefaultInstruments()
	}
	return market.Clone(c.Instruments)
}

// AlertConfig converts the alert section.
func (c *Config) AlertConfig() monitor.AlertConfig {
	return monitor.AlertConfig{
		NearLiquidationPercent: c.Alerts.NearLiquidationPercent,
		ProfitTargetPercent:    c.Alerts.ProfitTargetPercent,
		LossLimitPercent:       c.Alerts.LossLimitPercent,
		LargePositionValue:     c.Alerts.LargePositionValue,
		CooldownDuration:       time.Duration(c.Alerts.CooldownSeconds) * time.Second,
	}
}

// TradingOptions builds the trade configuration.
func (c *Config) TradingOptions() trading.Options {
	policy, err := trading.ParseLiquidationPolicy(c.LiquidationPolicy)
	if err != nil {
		policy = trading.PolicyFlag
	}
	return trading.Options{
		FeeRate:           c.InsuranceFeeRate,
		InsuranceEnabled:  c.InsuranceEnabled,
		MaxLeverage:       c.MaxLeverage,
		LiquidationPolicy: policy,
		Alerts:            c.AlertConfig(),
		ExportDir:         c.ExportDir,
	}
}
