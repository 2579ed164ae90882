package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 200000.0, cfg.General.InitialBalance)
	assert.Equal(t, 0.0005, cfg.General.CommissionRate)
	assert.True(t, cfg.General.UseRealisticExecution)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestTestingPresetDisablesRealism(t *testing.T) {
	t.Parallel()

	cfg := Testing()
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.Spread.Enabled)
	assert.False(t, cfg.Slippage.Enabled)
	assert.False(t, cfg.Deferred.Enabled)
	assert.False(t, cfg.Risk.Enabled)
	assert.Equal(t, "none", cfg.Journal.Type)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
	}{
		{"yaml", "config.yaml"},
		{"json", "config.json"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			cfg.General.InitialBalance = 500000
			cfg.Strategy.Tickers = []string{"SiH5", "RIH5"}
			cfg.Risk.MaxDrawdownPercent = 15.0

			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, 500000.0, loaded.General.InitialBalance)
			assert.Equal(t, []string{"SiH5", "RIH5"}, loaded.Strategy.Tickers)
			assert.Equal(t, 15.0, loaded.Risk.MaxDrawdownPercent)
			assert.Equal(t, cfg.Spread, loaded.Spread)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero balance", func(c *Config) { c.General.InitialBalance = 0 }},
		{"commission above one", func(c *Config) { c.General.CommissionRate = 1.5 }},
		{"spread min above max", func(c *Config) { c.Spread.MinPercent = 0.2 }},
		{"delay min above max", func(c *Config) { c.Deferred.MinDelaySeconds = 10 }},
		{"zero drawdown limit", func(c *Config) { c.Risk.MaxDrawdownPercent = 0 }},
		{"zero max positions", func(c *Config) { c.Risk.MaxOpenPositions = 0 }},
		{"zero max lots", func(c *Config) { c.Strategy.MaxLotsPerInstrument = 0 }},
		{"zero poll interval", func(c *Config) { c.Strategy.PollIntervalSeconds = 0 }},
		{"csv without files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }},
		{"sqlite without path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }},
		{"unknown journal type", func(c *Config) { c.Journal = JournalConfig{Type: "parquet"} }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
