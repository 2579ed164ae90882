// Package config loads and validates the simulator configuration from
// YAML or JSON files and ships the presets used in practice.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papersim/trader/execution"
	"github.com/papersim/trader/orders"
	"github.com/papersim/trader/risk"
)

// Config represents the complete simulation configuration.
type Config struct {
	General  GeneralConfig            `json:"general" yaml:"general"`
	Spread   execution.SpreadConfig   `json:"spread" yaml:"spread"`
	Slippage execution.SlippageConfig `json:"slippage" yaml:"slippage"`
	Risk     RiskConfig               `json:"risk" yaml:"risk"`
	Deferred orders.Config            `json:"order_execution" yaml:"order_execution"`
	Metrics  MetricsConfig            `json:"metrics" yaml:"metrics"`
	Strategy StrategyConfig           `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig            `json:"journal" yaml:"journal"`
	Feed     FeedConfig               `json:"feed" yaml:"feed"`
}

// GeneralConfig contains account and execution-wide parameters.
type GeneralConfig struct {
	InitialBalance        float64 `json:"initial_balance" yaml:"initial_balance"`
	CommissionRate        float64 `json:"commission_rate" yaml:"commission_rate"`
	UseRealisticExecution bool    `json:"use_realistic_execution" yaml:"use_realistic_execution"`
	LogLevel              string  `json:"log_level" yaml:"log_level"`
	SnapshotPath          string  `json:"snapshot_path" yaml:"snapshot_path"`
}

// RiskConfig wraps the governor limits behind an enable switch.
type RiskConfig struct {
	Enabled     bool `json:"enabled" yaml:"enabled"`
	risk.Limits `yaml:",inline"`
}

// MetricsConfig controls performance analytics.
type MetricsConfig struct {
	Enabled          bool    `json:"enabled" yaml:"enabled"`
	RiskFreeRate     float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	CalculateOnClose bool    `json:"calculate_on_close" yaml:"calculate_on_close"`
	LogMetrics       bool    `json:"log_metrics" yaml:"log_metrics"`
}

// StrategyConfig contains signal-engine and sizing parameters.
type StrategyConfig struct {
	Tickers                 []string `json:"tickers" yaml:"tickers"`
	MaxLotsPerInstrument    int64    `json:"max_lots_per_instrument" yaml:"max_lots_per_instrument"`
	MinLots                 int64    `json:"min_lots" yaml:"min_lots"`
	ATRStopLossMultiplier   float64  `json:"atr_stop_loss_multiplier" yaml:"atr_stop_loss_multiplier"`
	ATRTakeProfitMultiplier float64  `json:"atr_take_profit_multiplier" yaml:"atr_take_profit_multiplier"`
	PositionSizingMethod    string   `json:"position_sizing_method" yaml:"position_sizing_method"`
	PollIntervalSeconds     int      `json:"poll_interval_seconds" yaml:"poll_interval_seconds"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	BalanceFile string `json:"balance_file,omitempty" yaml:"balance_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// FeedConfig points at the market data endpoint.
type FeedConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	Token          string `json:"token,omitempty" yaml:"token,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoadFromFile loads configuration from a file (YAML or JSON by content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.General.InitialBalance <= 0 {
		return fmt.Errorf("general.initial_balance must be positive")
	}
	if c.General.CommissionRate < 0 || c.General.CommissionRate > 1 {
		return fmt.Errorf("general.commission_rate must be between 0 and 1")
	}
	if c.Spread.Enabled && c.Spread.MinPercent > c.Spread.MaxPercent {
		return fmt.Errorf("spread.min_spread_percent exceeds max_spread_percent")
	}
	if c.Slippage.Enabled && c.Slippage.MaxPercent < 0 {
		return fmt.Errorf("slippage.max_slippage_percent must not be negative")
	}
	if c.Deferred.Enabled && c.Deferred.MinDelaySeconds > c.Deferred.MaxDelaySeconds {
		return fmt.Errorf("order_execution.min_delay_seconds exceeds max_delay_seconds")
	}
	if c.Risk.Enabled {
		if c.Risk.MaxDrawdownPercent <= 0 {
			return fmt.Errorf("risk.max_drawdown_percent must be positive")
		}
		if c.Risk.MaxOpenPositions <= 0 {
			return fmt.Errorf("risk.max_open_positions must be positive")
		}
	}
	if c.Strategy.MaxLotsPerInstrument <= 0 {
		return fmt.Errorf("strategy.max_lots_per_instrument must be positive")
	}
	if c.Strategy.PollIntervalSeconds <= 0 {
		return fmt.Errorf("strategy.poll_interval_seconds must be positive")
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.BalanceFile == "" {
			return fmt.Errorf("journal trades_file and balance_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns the realistic-execution configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			InitialBalance:        200000,
			CommissionRate:        0.0005,
			UseRealisticExecution: true,
			LogLevel:              "info",
			SnapshotPath:          "./portfolio.json",
		},
		Spread: execution.SpreadConfig{
			Enabled:              true,
			BasePercent:          0.03,
			VolatilityMultiplier: 1.5,
			MinPercent:           0.01,
			MaxPercent:           0.1,
		},
		Slippage: execution.SlippageConfig{
			Enabled:               true,
			BasePercent:           0.02,
			VolumeFactorPer10Lots: 0.01,
			VolatilityMultiplier:  2.0,
			MaxPercent:            0.5,
		},
		Risk: RiskConfig{
			Enabled: true,
			Limits: risk.Limits{
				MaxDrawdownPercent:     20.0,
				RiskPerTradePercent:    2.0,
				MaxOpenPositions:       5,
				DailyLossLimitPercent:  5.0,
				MaxPositionSizePercent: 25.0,
			},
		},
		Deferred: orders.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled:          true,
			RiskFreeRate:     0.0,
			CalculateOnClose: true,
			LogMetrics:       true,
		},
		Strategy: StrategyConfig{
			MaxLotsPerInstrument:    100,
			MinLots:                 1,
			ATRStopLossMultiplier:   2.0,
			ATRTakeProfitMultiplier: 3.0,
			PositionSizingMethod:    "risk_based",
			PollIntervalSeconds:     60,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./journal.db",
		},
		Feed: FeedConfig{
			BaseURL:        "https://invest-public-api.tinkoff.ru/rest",
			TimeoutSeconds: 10,
		},
	}
}

// Testing returns a preset with every realism layer disabled so tests see
// exact prices and no risk gating.
func Testing() *Config {
	cfg := Default()
	cfg.Spread = execution.SpreadConfig{}
	cfg.Slippage = execution.SlippageConfig{}
	cfg.Deferred = orders.Config{MaxPriceDeviationPercent: 100.0}
	cfg.Risk = RiskConfig{
		Limits: risk.Limits{
			MaxDrawdownPercent:     100.0,
			RiskPerTradePercent:    100.0,
			MaxOpenPositions:       100,
			DailyLossLimitPercent:  100.0,
			MaxPositionSizePercent: 100.0,
		},
	}
	cfg.Journal = JournalConfig{Type: "none"}
	return cfg
}
