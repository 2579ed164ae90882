// Package dashboard renders portfolio state, performance metrics and risk
// status as styled terminal panels.
package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/papersim/trader/ledger"
	"github.com/papersim/trader/metrics"
	"github.com/papersim/trader/risk"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(72)

	profitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)
)

// RenderSummary formats the portfolio panel.
func RenderSummary(s ledger.PortfolioSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Balance:        %s\n", money(s.Balance)))
	b.WriteString(fmt.Sprintf("Used margin:    %s\n", money(s.UsedMargin)))
	b.WriteString(fmt.Sprintf("Free balance:   %s\n", money(s.FreeBalance)))
	b.WriteString(fmt.Sprintf("Unrealized PnL: %s\n", signedMoney(s.UnrealizedPnL)))
	b.WriteString(fmt.Sprintf("Total value:    %s\n", money(s.TotalValue)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Costs: commission %s, slippage %s, spread %s",
		money(s.TotalCommission), money(s.TotalSlippageCost), money(s.TotalSpreadCost))))
	b.WriteString("\n")

	if len(s.Positions) == 0 {
		b.WriteString(mutedStyle.Render("\nNo open positions"))
	} else {
		b.WriteString("\nOpen positions:\n")
		for _, p := range s.Positions {
			b.WriteString(fmt.Sprintf("  %-8s %-5s %4d lots @ %s  now %s  pnl %s\n",
				p.Ticker, p.Side, abs64(p.Lots), p.EntryPrice.StringFixed(2),
				p.CurrentPrice.StringFixed(2), signedMoney(p.UnrealizedPnL)))
		}
	}

	return titleStyle.Render("Portfolio") + "\n" + panelStyle.Render(b.String())
}

// RenderMetrics formats the performance panel.
func RenderMetrics(r metrics.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Net profit:      %s\n", signedFloat(r.NetProfit)))
	b.WriteString(fmt.Sprintf("Total return:    %.2f%%\n", r.TotalReturnPercent))
	b.WriteString(fmt.Sprintf("Sharpe ratio:    %.2f\n", r.SharpeRatio))
	b.WriteString(fmt.Sprintf("Profit factor:   %s\n", ratio(r.ProfitFactor)))
	b.WriteString(fmt.Sprintf("Recovery factor: %s\n", ratio(r.RecoveryFactor)))
	b.WriteString(fmt.Sprintf("Expectancy:      %.2f\n", r.Expectancy))
	b.WriteString(fmt.Sprintf("Max drawdown:    %.2f%% (%.2f)\n",
		r.MaxDrawdown.MaxDrawdownPercent, r.MaxDrawdown.MaxDrawdownValue))
	b.WriteString(fmt.Sprintf("Win rate:        %.1f%% (%d/%d)\n",
		r.WinRate.WinRatePercent, r.WinRate.WinningTrades, r.WinRate.TotalTrades))
	if r.AvgTradeDuration.AvgMinutes > 0 {
		b.WriteString(fmt.Sprintf("Avg duration:    %.0f min\n", r.AvgTradeDuration.AvgMinutes))
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Closed trades: %d", r.TotalTrades)))

	return titleStyle.Render("Performance") + "\n" + panelStyle.Render(b.String())
}

// RenderRiskStatus formats the risk panel.
func RenderRiskStatus(s risk.Status) string {
	var b strings.Builder

	if s.TradingPaused {
		b.WriteString(warnStyle.Render(fmt.Sprintf("TRADING PAUSED: %s", s.PauseReason)))
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf("Drawdown:       %.2f%% of %.2f%% limit\n",
		s.DrawdownPercent, s.MaxDrawdownPercent))
	b.WriteString(fmt.Sprintf("Daily PnL:      %.2f%% (limit -%.2f%%)\n",
		s.DailyPnLPercent, s.DailyLossLimitPercent))
	b.WriteString(fmt.Sprintf("Open positions: %d of %d\n", s.OpenPositions, s.MaxPositions))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Peak balance: %.2f", s.PeakBalance)))

	return titleStyle.Render("Risk") + "\n" + panelStyle.Render(b.String())
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func signedMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsNegative() {
		return lossStyle.Render(s)
	}
	if d.IsPositive() {
		return profitStyle.Render("+" + s)
	}
	return s
}

func signedFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if v < 0 {
		return lossStyle.Render(s)
	}
	if v > 0 {
		return profitStyle.Render("+" + s)
	}
	return s
}

func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
