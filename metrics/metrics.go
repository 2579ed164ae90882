// Package metrics derives performance statistics from a ledger's persisted
// balance history and trade log. Everything is recomputed from the inputs
// on every call; there is no hidden state.
package metrics

import (
	"math"
	"time"
)

// Trade is the minimal view of a trade-log entry the calculator needs.
type Trade struct {
	Action    string
	NetProfit float64
	OpenedAt  time.Time
	ClosedAt  time.Time
}

// DrawdownInfo describes the worst balance decline episode.
type DrawdownInfo struct {
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`
	MaxDrawdownValue   float64 `json:"max_drawdown_value"`
	PeakValue          float64 `json:"peak_value"`
	TroughValue        float64 `json:"trough_value"`
}

// WinRateInfo breaks down closed trades by outcome.
type WinRateInfo struct {
	WinRatePercent float64 `json:"win_rate_percent"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	TotalTrades    int     `json:"total_trades"`
}

// DurationInfo summarizes how long closed trades stayed open.
type DurationInfo struct {
	AvgMinutes float64 `json:"avg_duration_minutes"`
	AvgHours   float64 `json:"avg_duration_hours"`
	MinMinutes float64 `json:"min_duration_minutes"`
	MaxMinutes float64 `json:"max_duration_minutes"`
}

// Report holds every derived metric.
type Report struct {
	SharpeRatio        float64      `json:"sharpe_ratio"`
	MaxDrawdown        DrawdownInfo `json:"max_drawdown"`
	ProfitFactor       float64      `json:"profit_factor"`
	WinRate            WinRateInfo  `json:"win_rate"`
	AvgTradeDuration   DurationInfo `json:"avg_trade_duration"`
	Expectancy         float64      `json:"expectancy"`
	RecoveryFactor     float64      `json:"recovery_factor"`
	TotalReturnPercent float64      `json:"total_return_percent"`
	NetProfit          float64      `json:"net_profit"`
	InitialBalance     float64      `json:"initial_balance"`
	CurrentBalance     float64      `json:"current_balance"`
	TotalTrades        int          `json:"total_trades"`
}

// Calculator computes performance metrics. RiskFreeRate is annual.
type Calculator struct {
	RiskFreeRate   float64
	PeriodsPerYear int
}

// NewCalculator returns a calculator with 252 trading periods per year.
func NewCalculator(riskFreeRate float64) *Calculator {
	return &Calculator{RiskFreeRate: riskFreeRate, PeriodsPerYear: 252}
}

// SharpeRatio annualizes mean excess return over sample standard
// deviation. Fewer than 2 returns, or zero deviation, yields 0.
func (c *Calculator) SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)

	if std == 0 {
		return 0
	}

	periods := float64(c.PeriodsPerYear)
	sharpe := (mean - c.RiskFreeRate/periods) / std
	return sharpe * math.Sqrt(periods)
}

// MaxDrawdown scans the balance history with a running peak and reports
// the worst episode.
func MaxDrawdown(balanceHistory []float64) DrawdownInfo {
	if len(balanceHistory) < 2 {
		return DrawdownInfo{}
	}

	peak := balanceHistory[0]
	var info DrawdownInfo
	maxDD := 0.0

	for _, v := range balanceHistory {
		if v > peak {
			peak = v
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - v) / peak
		}
		if dd > maxDD {
			maxDD = dd
			info = DrawdownInfo{
				MaxDrawdownPercent: dd * 100,
				MaxDrawdownValue:   peak - v,
				PeakValue:          peak,
				TroughValue:        v,
			}
		}
	}

	return info
}

// ProfitFactor is gross profit over gross loss. No losses with some profit
// is +Inf; no trades or no profit is 0.
func ProfitFactor(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	grossProfit, grossLoss := 0.0, 0.0
	for _, t := range trades {
		if t.NetProfit > 0 {
			grossProfit += t.NetProfit
		} else if t.NetProfit < 0 {
			grossLoss -= t.NetProfit
		}
	}

	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// WinRate counts winners and losers among closed trades.
func WinRate(trades []Trade) WinRateInfo {
	info := WinRateInfo{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return info
	}

	for _, t := range trades {
		if t.NetProfit > 0 {
			info.WinningTrades++
		} else if t.NetProfit < 0 {
			info.LosingTrades++
		}
	}
	info.WinRatePercent = float64(info.WinningTrades) / float64(info.TotalTrades) * 100
	return info
}

// TradeDurations summarizes open-to-close spans, skipping records without
// both timestamps.
func TradeDurations(trades []Trade) DurationInfo {
	var durations []float64
	for _, t := range trades {
		if t.OpenedAt.IsZero() || t.ClosedAt.IsZero() {
			continue
		}
		durations = append(durations, t.ClosedAt.Sub(t.OpenedAt).Minutes())
	}
	if len(durations) == 0 {
		return DurationInfo{}
	}

	sum, minD, maxD := 0.0, durations[0], durations[0]
	for _, d := range durations {
		sum += d
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	avg := sum / float64(len(durations))

	return DurationInfo{
		AvgMinutes: avg,
		AvgHours:   avg / 60,
		MinMinutes: minD,
		MaxMinutes: maxD,
	}
}

// Expectancy is the probability-weighted average profit per trade.
func Expectancy(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	winRate := WinRate(trades).WinRatePercent / 100

	var winSum, lossSum float64
	var wins, losses int
	for _, t := range trades {
		if t.NetProfit > 0 {
			winSum += t.NetProfit
			wins++
		} else if t.NetProfit < 0 {
			lossSum += t.NetProfit
			losses++
		}
	}

	avgWin := 0.0
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = math.Abs(lossSum / float64(losses))
	}

	return winRate*avgWin - (1-winRate)*avgLoss
}

// RecoveryFactor is net profit over the worst drawdown value, with the
// same infinity/zero policy as ProfitFactor.
func RecoveryFactor(netProfit, maxDrawdownValue float64) float64 {
	if maxDrawdownValue == 0 {
		if netProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return netProfit / maxDrawdownValue
}

// CalculateAll recomputes every metric from the persisted state. Only
// trades with action "close" count toward trade statistics.
func (c *Calculator) CalculateAll(balanceHistory []float64, trades []Trade, initialBalance float64) Report {
	closed := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if t.Action == "close" {
			closed = append(closed, t)
		}
	}

	var returns []float64
	for i := 1; i < len(balanceHistory); i++ {
		prev := balanceHistory[i-1]
		if prev != 0 {
			returns = append(returns, (balanceHistory[i]-prev)/prev)
		}
	}

	maxDD := MaxDrawdown(balanceHistory)

	currentBalance := initialBalance
	if len(balanceHistory) > 0 {
		currentBalance = balanceHistory[len(balanceHistory)-1]
	}
	netProfit := currentBalance - initialBalance

	totalReturn := 0.0
	if initialBalance > 0 {
		totalReturn = netProfit / initialBalance * 100
	}

	return Report{
		SharpeRatio:        c.SharpeRatio(returns),
		MaxDrawdown:        maxDD,
		ProfitFactor:       ProfitFactor(closed),
		WinRate:            WinRate(closed),
		AvgTradeDuration:   TradeDurations(closed),
		Expectancy:         Expectancy(closed),
		RecoveryFactor:     RecoveryFactor(netProfit, maxDD.MaxDrawdownValue),
		TotalReturnPercent: totalReturn,
		NetProfit:          netProfit,
		InitialBalance:     initialBalance,
		CurrentBalance:     currentBalance,
		TotalTrades:        len(closed),
	}
}
