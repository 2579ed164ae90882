package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papersim",
	Short: "A paper-trading simulator for leveraged futures",
	Long: `Papersim is a paper-trading simulator for leveraged futures written in Go.

It provides tools for:
  - Simulating margin-based futures trading against live market data
  - Realistic execution with spread, slippage and order delay
  - Risk management with drawdown and daily-loss circuit breakers
  - Performance analytics (Sharpe, drawdown, profit factor, expectancy)
  - Trade journaling to SQLite or CSV`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
