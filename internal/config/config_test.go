package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rovshanmuradov/perpshield/internal/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.TickInterval())
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, 1000, cfg.LogBufferSize)
	assert.True(t, cfg.InsuranceEnabled)
	assert.Equal(t, 0.10, cfg.InsuranceFeeRate)
	assert.Equal(t, 10, cfg.MaxLeverage)
	assert.Equal(t, "flag", cfg.LiquidationPolicy)
	assert.Equal(t, 30*time.Second, cfg.AlertConfig().CooldownDuration)
	assert.Len(t, cfg.InstrumentList(), 5)

	opts := cfg.TradingOptions()
	assert.Equal(t, trading.PolicyFlag, opts.LiquidationPolicy)
	assert.Equal(t, 50.0, opts.Alerts.ProfitTargetPercent)
	assert.Equal(t, "exports", opts.ExportDir)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `{
		"tick_interval_ms": 250,
		"insurance_enabled": false,
		"liquidation_policy": "close",
		"alerts": {"loss_limit_percent": 25},
		"instruments": [
			{"symbol": "BTC", "name": "Bitcoin"},
			{"symbol": "XRP", "name": "Ripple", "price": 0.5}
		]
	}`)

	t.Setenv("PERPSHIELD_MAX_LEVERAGE", "5")
	t.Setenv("PERPSHIELD_ALERTS_PROFIT_TARGET_PERCENT", "75")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval())
	assert.False(t, cfg.InsuranceEnabled)
	assert.Equal(t, 5, cfg.MaxLeverage)
	assert.Equal(t, 25.0, cfg.Alerts.LossLimitPercent)
	assert.Equal(t, 75.0, cfg.Alerts.ProfitTargetPercent)
	assert.Equal(t, 2.0, cfg.Alerts.NearLiquidationPercent, "unrelated defaults survive")
	assert.Equal(t, trading.PolicyClose, cfg.TradingOptions().LiquidationPolicy)

	instruments := cfg.InstrumentList()
	require.Len(t, instruments, 2)
	assert.Equal(t, "XRP", instruments[1].Symbol)
	assert.Equal(t, 0.5, instruments[1].Price)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"interval", func(c *Config) { c.TickIntervalMs = 0 }},
		{"leverage low", func(c *Config) { c.MaxLeverage = 0 }},
		{"leverage high", func(c *Config) { c.MaxLeverage = 11 }},
		{"fee rate", func(c *Config) { c.InsuranceFeeRate = 1.5 }},
		{"policy", func(c *Config) { c.LiquidationPolicy = "explode" }},
		{"buffer", func(c *Config) { c.LogBufferSize = 0 }},
		{"history", func(c *Config) { c.TradeHistorySize = -1 }},
		{"cooldown", func(c *Config) { c.Alerts.CooldownSeconds = -1 }},
		{"duplicate instrument", func(c *Config) {
			c.Instruments = append(c.Instruments, c.InstrumentList()[0], c.InstrumentList()[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `{"max_leverage": 25}`))
	assert.Error(t, err)
}
