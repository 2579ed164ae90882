package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/papersim/trader/calendar"
	"github.com/papersim/trader/config"
	"github.com/papersim/trader/execution"
	"github.com/papersim/trader/journal"
	"github.com/papersim/trader/ledger"
	"github.com/papersim/trader/observability"
	"github.com/papersim/trader/risk"
)

// buildLedger wires the calendar, cost model, governor and journal into a
// ledger per the config. The returned journal may be nil; the caller closes
// it when non-nil.
func buildLedger(cfg *config.Config, log zerolog.Logger) (*ledger.Ledger, journal.Journal, error) {
	cal := calendar.New()

	var costs *execution.Model
	if cfg.General.UseRealisticExecution {
		costs = execution.NewModel(cfg.Spread, cfg.Slippage, nil)
	} else {
		costs = execution.NewModel(execution.SpreadConfig{}, execution.SlippageConfig{}, nil)
	}

	var gov *risk.Governor
	if cfg.Risk.Enabled {
		gov = risk.NewGovernor(cfg.Risk.Limits)
	}

	led := ledger.New(ledger.Config{
		SnapshotPath:   cfg.General.SnapshotPath,
		InitialBalance: decimal.NewFromFloat(cfg.General.InitialBalance),
		CommissionRate: decimal.NewFromFloat(cfg.General.CommissionRate),
	}, cal, costs, gov, log)

	jnl, err := buildJournal(cfg.Journal)
	if err != nil {
		return nil, nil, err
	}
	if jnl != nil {
		led.SetSink(jnl)
	}
	return led, jnl, nil
}

func buildJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.TradesFile, cfg.BalanceFile)
		if err != nil {
			return nil, fmt.Errorf("create csv journal: %w", err)
		}
		return j, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("create sqlite journal: %w", err)
		}
		return j, nil
	}
	return nil, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.General.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return observability.NewLoggerWithLevel("papersim", level)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}
