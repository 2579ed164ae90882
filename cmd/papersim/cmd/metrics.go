package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/papersim/trader/dashboard"
	"github.com/papersim/trader/ledger"
	"github.com/papersim/trader/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute performance metrics from the saved portfolio",
	Long: `Recompute all performance metrics from the portfolio snapshot and
print them as a panel.

Example:
  papersim metrics --config papersim.yaml`,
	RunE: runMetrics,
}

var metricsConfigPath string

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVarP(&metricsConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(metricsConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	led, jnl, err := buildLedger(cfg, log)
	if err != nil {
		return err
	}
	if jnl != nil {
		defer jnl.Close()
	}

	calc := metrics.NewCalculator(cfg.Metrics.RiskFreeRate)
	report := calc.CalculateAll(
		balanceFloats(led.BalanceHistory()),
		tradesFromHistory(led.History()),
		floatOf(led.InitialBalance()),
	)

	fmt.Println(dashboard.RenderMetrics(report))
	return nil
}

// tradesFromHistory projects the ledger trade log onto the metrics view.
func tradesFromHistory(history []ledger.TradeRecord) []metrics.Trade {
	trades := make([]metrics.Trade, 0, len(history))
	for _, rec := range history {
		t := metrics.Trade{
			Action:   rec.Action,
			ClosedAt: rec.Timestamp,
		}
		if rec.NetProfit != nil {
			t.NetProfit = floatOf(*rec.NetProfit)
		}
		if rec.OpenedAt != nil {
			t.OpenedAt = *rec.OpenedAt
		}
		trades = append(trades, t)
	}
	return trades
}

func balanceFloats(history []decimal.Decimal) []float64 {
	out := make([]float64, len(history))
	for i, b := range history {
		out[i] = floatOf(b)
	}
	return out
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
