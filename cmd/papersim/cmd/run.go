package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/papersim/trader/analysis"
	"github.com/papersim/trader/calendar"
	"github.com/papersim/trader/config"
	"github.com/papersim/trader/dashboard"
	"github.com/papersim/trader/ledger"
	"github.com/papersim/trader/market"
	"github.com/papersim/trader/marketdata"
	"github.com/papersim/trader/metrics"
	"github.com/papersim/trader/orders"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live paper-trading loop",
	Long: `Run the trading loop against live market data.

Each poll cycle fetches prices for the configured tickers, checks protective
stops, releases deferred orders whose delay has elapsed, and asks the signal
engine whether to open new positions. All fills are simulated against the
local ledger; no real orders are placed.

Example:
  papersim run --config papersim.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

// trader holds the wired components for one run.
type trader struct {
	cfg         *config.Config
	log         zerolog.Logger
	led         *ledger.Ledger
	cal         *calendar.Calendar
	feed        *marketdata.Client
	sim         *orders.Simulator
	engine      *analysis.Engine
	calc        *metrics.Calculator
	instruments []market.Instrument

	lastATR map[string]float64
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runConfigPath)
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

	engine := analysis.NewEngine(analysis.DefaultWeights())
	engine.SetATRMultipliers(cfg.Strategy.ATRStopLossMultiplier, cfg.Strategy.ATRTakeProfitMultiplier)

	t := &trader{
		cfg:     cfg,
		log:     log,
		led:     led,
		cal:     calendar.New(),
		feed:    feed,
		sim:     orders.NewSimulator(cfg.Deferred, nil),
		engine:  engine,
		calc:    metrics.NewCalculator(cfg.Metrics.RiskFreeRate),
		lastATR: make(map[string]float64),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, ticker := range cfg.Strategy.Tickers {
		inst, err := feed.FutureByTicker(ctx, ticker)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", ticker, err)
		}
		t.instruments = append(t.instruments, inst)
		log.Info().Str("ticker", inst.Ticker).Str("figi", inst.FIGI).Msg("instrument resolved")
	}
	if len(t.instruments) == 0 {
		return fmt.Errorf("no tickers configured")
	}

	log.Info().
		Str("balance", led.Balance().String()).
		Int("positions", led.OpenPositions()).
		Msg("trading loop starting")

	interval := time.Duration(cfg.Strategy.PollIntervalSeconds) * time.Second
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		t.cycle(ctx)
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			fmt.Println(dashboard.RenderSummary(led.Summary(nil)))
			return nil
		case <-tick.C:
		}
	}
}

// cycle runs one poll iteration: stops, deferred orders, then signals.
func (t *trader) cycle(ctx context.Context) {
	if ok, reason := t.cal.CanTrade(); !ok {
		t.log.Debug().Str("reason", reason).Msg("session closed, skipping cycle")
		return
	}

	prices := t.fetchPrices(ctx)
	t.checkStops(prices)
	t.releaseOrders(ctx, prices)
	t.evaluateSignals(ctx, prices)
	t.sim.CleanupOldOrders(24 * time.Hour)
}

func (t *trader) fetchPrices(ctx context.Context) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(t.instruments))
	for _, inst := range t.instruments {
		price, err := t.feed.LastPrice(ctx, inst.FIGI)
		if err != nil {
			t.log.Warn().Err(err).Str("ticker", inst.Ticker).Msg("price fetch failed")
			continue
		}
		prices[inst.Ticker] = price
	}
	return prices
}

// checkStops flattens positions whose stop-loss or take-profit level is
// breached by the current price.
func (t *trader) checkStops(prices map[string]decimal.Decimal) {
	for _, inst := range t.instruments {
		price, ok := prices[inst.Ticker]
		if !ok {
			continue
		}
		trigger := t.led.CheckStops(inst.Ticker, price)
		if trigger == ledger.TriggerNone {
			continue
		}

		t.log.Info().
			Str("ticker", inst.Ticker).
			Str("trigger", string(trigger)).
			Str("price", price.String()).
			Msg("protective level hit, closing position")
		t.submit(inst, 0, price, nil, nil)
	}
}

// releaseOrders executes deferred orders whose delay has elapsed.
func (t *trader) releaseOrders(ctx context.Context, prices map[string]decimal.Decimal) {
	for _, order := range t.sim.CheckReady(prices) {
		executed := t.sim.Execute(order.ID)
		if executed == nil {
			continue
		}
		inst, ok := t.instrument(executed.Ticker)
		if !ok {
			continue
		}
		t.apply(ctx, inst, executed.TargetLots, *executed.ActualPrice, executed.StopLoss, executed.TakeProfit)
	}
}

// evaluateSignals scores each instrument and opens positions on strong
// signals.
func (t *trader) evaluateSignals(ctx context.Context, prices map[string]decimal.Decimal) {
	now := time.Now()
	from := now.AddDate(0, 0, -40)

	for _, inst := range t.instruments {
		price, ok := prices[inst.Ticker]
		if !ok {
			continue
		}
		if _, open := t.led.Position(inst.Ticker); open {
			continue
		}

		candles, err := t.feed.Candles(ctx, inst.FIGI, from, now, market.Hour1)
		if err != nil {
			t.log.Warn().Err(err).Str("ticker", inst.Ticker).Msg("candle fetch failed")
			continue
		}

		sig, err := t.engine.GetSignal(candles)
		if err != nil {
			t.log.Warn().Err(err).Str("ticker", inst.Ticker).Msg("signal computation failed")
			continue
		}
		t.lastATR[inst.Ticker] = sig.ATR
		if sig.Direction == analysis.SignalNeutral {
			continue
		}

		lots := int64(1)
		if gov := t.led.Governor(); gov != nil {
			lots = gov.PositionSize(t.led.Balance(), price, sig.StopLoss, t.cfg.Strategy.MaxLotsPerInstrument)
		}
		target := lots
		if sig.Direction == analysis.SignalLong {
			target = -lots
		}

		t.log.Info().
			Str("ticker", inst.Ticker).
			Str("signal", sig.Direction).
			Int("strength", sig.Strength).
			Int64("lots", target).
			Msg("signal fired")
		t.submit(inst, target, price, sig.StopLoss, sig.TakeProfit)
	}
}

// submit routes an intent through the delay simulator when deferred
// execution is on, or applies it immediately.
func (t *trader) submit(inst market.Instrument, targetLots int64, price decimal.Decimal, stopLoss, takeProfit *decimal.Decimal) {
	if t.cfg.Deferred.Enabled {
		id := t.sim.Create(inst.Ticker, targetLots, price, stopLoss, takeProfit, inst.FIGI)
		t.log.Debug().Str("order_id", id).Str("ticker", inst.Ticker).Msg("order queued")
		return
	}
	t.apply(context.Background(), inst, targetLots, price, stopLoss, takeProfit)
}

// apply performs the ledger mutation and reports metrics on a full close.
func (t *trader) apply(ctx context.Context, inst market.Instrument, targetLots int64, price decimal.Decimal, stopLoss, takeProfit *decimal.Decimal) {
	var marginPerLot *decimal.Decimal
	if targetLots != 0 {
		margin, err := t.feed.MarginPerLot(ctx, inst.FIGI, targetLots < 0)
		if err == nil && margin.IsPositive() {
			marginPerLot = &margin
		}
	}

	res := t.led.UpdatePosition(ledger.UpdateRequest{
		Ticker:       inst.Ticker,
		TargetLots:   targetLots,
		Price:        price,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		MarginPerLot: marginPerLot,
		ATR:          t.lastATR[inst.Ticker],
		TickSize:     inst.TickSize,
	})
	if !res.Applied {
		t.log.Warn().Str("ticker", inst.Ticker).Str("reason", res.Reason).Msg("mutation rejected")
		return
	}

	if res.Record != nil && res.Record.Action == ledger.ActionClose {
		t.log.Info().
			Str("ticker", inst.Ticker).
			Str("net_profit", res.Record.NetProfit.String()).
			Msg("position closed")
		if t.cfg.Metrics.Enabled && t.cfg.Metrics.CalculateOnClose {
			t.reportMetrics()
		}
	}
}

func (t *trader) reportMetrics() {
	report := t.calc.CalculateAll(
		balanceFloats(t.led.BalanceHistory()),
		tradesFromHistory(t.led.History()),
		floatOf(t.led.InitialBalance()),
	)
	if t.cfg.Metrics.LogMetrics {
		t.log.Info().
			Float64("net_profit", report.NetProfit).
			Float64("total_return_percent", report.TotalReturnPercent).
			Float64("sharpe", report.SharpeRatio).
			Float64("win_rate", report.WinRate.WinRatePercent).
			Int("closed_trades", report.TotalTrades).
			Msg("performance update")
	}
}

func (t *trader) instrument(ticker string) (market.Instrument, bool) {
	for _, inst := range t.instruments {
		if inst.Ticker == ticker {
			return inst, true
		}
	}
	return market.Instrument{}, false
}
