// Package risk gates ledger mutations behind capital-protection rules:
// a peak-drawdown circuit breaker, a daily loss limit, an open-position
// cap and a per-position size cap.
package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Limits holds the governor thresholds. Percent fields are plain percents
// (20 means 20%).
type Limits struct {
	MaxDrawdownPercent     float64 `json:"max_drawdown_percent" yaml:"max_drawdown_percent"`
	RiskPerTradePercent    float64 `json:"risk_per_trade_percent" yaml:"risk_per_trade_percent"`
	MaxOpenPositions       int     `json:"max_open_positions" yaml:"max_open_positions"`
	DailyLossLimitPercent  float64 `json:"daily_loss_limit_percent" yaml:"daily_loss_limit_percent"`
	MaxPositionSizePercent float64 `json:"max_position_size_percent" yaml:"max_position_size_percent"`
}

// Governor evaluates the four risk rules in fixed order with short-circuit
// on the first failure. Drawdown and daily-loss failures are sticky: they
// pause trading until ResumeTrading is called. Its state is volatile by
// design and resets on process restart.
type Governor struct {
	maxDrawdown     float64
	riskPerTrade    float64
	maxPositions    int
	dailyLossLimit  float64
	maxPositionSize float64

	// Now is the clock used for daily rollover; tests override it.
	Now func() time.Time

	peakBalance    decimal.Decimal
	dailyStart     decimal.Decimal
	dailyResetDate string // yyyy-mm-dd of the last daily baseline capture
	paused         bool
	pauseReason    string
}

func NewGovernor(limits Limits) *Governor {
	return &Governor{
		maxDrawdown:     limits.MaxDrawdownPercent / 100.0,
		riskPerTrade:    limits.RiskPerTradePercent / 100.0,
		maxPositions:    limits.MaxOpenPositions,
		dailyLossLimit:  limits.DailyLossLimitPercent / 100.0,
		maxPositionSize: limits.MaxPositionSizePercent / 100.0,
		Now:             time.Now,
	}
}

// UpdatePeakBalance raises the drawdown watermark; it never decreases.
func (g *Governor) UpdatePeakBalance(balance decimal.Decimal) {
	if balance.GreaterThan(g.peakBalance) {
		g.peakBalance = balance
	}
}

// Drawdown returns the current decline from the peak as a fraction.
func (g *Governor) Drawdown(balance decimal.Decimal) float64 {
	if g.peakBalance.IsZero() {
		return 0
	}
	dd, _ := g.peakBalance.Sub(balance).Div(g.peakBalance).Float64()
	return dd
}

// DailyPnL returns today's balance change as a fraction of the daily
// baseline.
func (g *Governor) DailyPnL(balance decimal.Decimal) float64 {
	if g.dailyStart.IsZero() {
		return 0
	}
	pnl, _ := balance.Sub(g.dailyStart).Div(g.dailyStart).Float64()
	return pnl
}

// resetDailyTracking captures a fresh baseline when the calendar date has
// rolled over since the last capture.
func (g *Governor) resetDailyTracking(balance decimal.Decimal) {
	today := g.Now().Format("2006-01-02")
	if g.dailyResetDate != today {
		g.dailyStart = balance
		g.dailyResetDate = today
	}
}

// CanOpenPosition runs all checks for a prospective position with the given
// notional value. A false result carries a human-readable reason.
func (g *Governor) CanOpenPosition(balance decimal.Decimal, openPositions int, notional decimal.Decimal) (bool, string) {
	if g.paused {
		return false, g.pauseReason
	}

	g.UpdatePeakBalance(balance)

	dd := g.Drawdown(balance)
	if dd >= g.maxDrawdown {
		g.paused = true
		g.pauseReason = fmt.Sprintf("max drawdown exceeded: %.2f%% (limit %.1f%%)", dd*100, g.maxDrawdown*100)
		return false, g.pauseReason
	}

	g.resetDailyTracking(balance)
	daily := g.DailyPnL(balance)
	if daily <= -g.dailyLossLimit {
		g.paused = true
		g.pauseReason = fmt.Sprintf("daily loss limit exceeded: %.2f%% (limit -%.1f%%)", daily*100, g.dailyLossLimit*100)
		return false, g.pauseReason
	}

	if openPositions >= g.maxPositions {
		return false, fmt.Sprintf("open position limit reached: %d (max %d)", openPositions, g.maxPositions)
	}

	maxAllowed := balance.Mul(decimal.NewFromFloat(g.maxPositionSize))
	if notional.GreaterThan(maxAllowed) {
		return false, fmt.Sprintf("position too large: %s (max %s)", notional.StringFixed(2), maxAllowed.StringFixed(2))
	}

	return true, ""
}

// Paused reports whether a sticky breaker has tripped, and why.
func (g *Governor) Paused() (bool, string) {
	return g.paused, g.pauseReason
}

// ResumeTrading clears a sticky pause. The next evaluation re-runs every
// rule, so a still-breached limit trips again immediately.
func (g *Governor) ResumeTrading() {
	g.paused = false
	g.pauseReason = ""
}

// Status is a point-in-time view of the governor for reporting.
type Status struct {
	TradingPaused         bool    `json:"trading_paused"`
	PauseReason           string  `json:"pause_reason,omitempty"`
	PeakBalance           float64 `json:"peak_balance"`
	CurrentBalance        float64 `json:"current_balance"`
	DrawdownPercent       float64 `json:"drawdown_percent"`
	MaxDrawdownPercent    float64 `json:"max_drawdown_percent"`
	DailyPnLPercent       float64 `json:"daily_pnl_percent"`
	DailyLossLimitPercent float64 `json:"daily_loss_limit_percent"`
	OpenPositions         int     `json:"open_positions"`
	MaxPositions          int     `json:"max_positions"`
	RiskPerTradePercent   float64 `json:"risk_per_trade_percent"`
}

// RiskStatus reports the governor's current state for dashboards. It also
// advances the watermark and the daily baseline.
func (g *Governor) RiskStatus(balance decimal.Decimal, openPositions int) Status {
	g.UpdatePeakBalance(balance)
	g.resetDailyTracking(balance)

	peak, _ := g.peakBalance.Float64()
	bal, _ := balance.Float64()

	return Status{
		TradingPaused:         g.paused,
		PauseReason:           g.pauseReason,
		PeakBalance:           peak,
		CurrentBalance:        bal,
		DrawdownPercent:       g.Drawdown(balance) * 100,
		MaxDrawdownPercent:    g.maxDrawdown * 100,
		DailyPnLPercent:       g.DailyPnL(balance) * 100,
		DailyLossLimitPercent: g.dailyLossLimit * 100,
		OpenPositions:         openPositions,
		MaxPositions:          g.maxPositions,
		RiskPerTradePercent:   g.riskPerTrade * 100,
	}
}
