package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/papersim/trader/dashboard"
	"github.com/papersim/trader/marketdata"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the portfolio, valued at live prices when available",
	Long: `Load the portfolio snapshot and print the portfolio and risk panels.

Open positions are valued at live prices when the feed is reachable;
otherwise at their entry prices.

Example:
  papersim status --config papersim.yaml`,
	RunE: runStatus,
}

var statusConfigPath string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(statusConfigPath)
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

	token := cfg.Feed.Token
	if token == "" {
		token = os.Getenv("PAPERSIM_TOKEN")
	}
	feed := marketdata.NewClient(cfg.Feed.BaseURL, token,
		time.Duration(cfg.Feed.TimeoutSeconds)*time.Second, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prices := make(map[string]decimal.Decimal)
	for _, ticker := range cfg.Strategy.Tickers {
		inst, err := feed.FutureByTicker(ctx, ticker)
		if err != nil {
			log.Debug().Err(err).Str("ticker", ticker).Msg("instrument lookup failed, using entry prices")
			continue
		}
		price, err := feed.LastPrice(ctx, inst.FIGI)
		if err != nil {
			continue
		}
		prices[ticker] = price
	}

	fmt.Println(dashboard.RenderSummary(led.Summary(prices)))
	if gov := led.Governor(); gov != nil {
		fmt.Println(dashboard.RenderRiskStatus(gov.RiskStatus(led.Balance(), led.OpenPositions())))
	}
	return nil
}
