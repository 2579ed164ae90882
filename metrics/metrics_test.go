package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closed(net float64, minutes int) Trade {
	opened := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return Trade{
		Action:    "close",
		NetProfit: net,
		OpenedAt:  opened,
		ClosedAt:  opened.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestSharpeRatio(t *testing.T) {
	t.Parallel()

	c := NewCalculator(0)

	// too few returns
	assert.Zero(t, c.SharpeRatio(nil))
	assert.Zero(t, c.SharpeRatio([]float64{0.01}))

	// zero deviation
	assert.Zero(t, c.SharpeRatio([]float64{0.01, 0.01, 0.01}))

	// mean 0.01, sample stdev 0.01, annualized by sqrt(252)
	got := c.SharpeRatio([]float64{0.0, 0.02})
	want := (0.01 / math.Sqrt(0.0002)) * math.Sqrt(252)
	assert.InDelta(t, want, got, 1e-9)
}

func TestSharpeRatio_RiskFreeRate(t *testing.T) {
	t.Parallel()

	flat := NewCalculator(0)
	costly := NewCalculator(0.05)

	returns := []float64{0.01, 0.02, 0.015, 0.005}
	assert.Less(t, costly.SharpeRatio(returns), flat.SharpeRatio(returns))
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	// peak 120, trough 90
	info := MaxDrawdown([]float64{100, 120, 95, 90, 110})

	assert.InDelta(t, 25.0, info.MaxDrawdownPercent, 1e-9)
	assert.InDelta(t, 30.0, info.MaxDrawdownValue, 1e-9)
	assert.InDelta(t, 120.0, info.PeakValue, 1e-9)
	assert.InDelta(t, 90.0, info.TroughValue, 1e-9)
}

func TestMaxDrawdown_MonotonicRise(t *testing.T) {
	t.Parallel()

	info := MaxDrawdown([]float64{100, 110, 120})
	assert.Zero(t, info.MaxDrawdownPercent)
	assert.Zero(t, info.MaxDrawdownValue)
}

func TestMaxDrawdown_TooShort(t *testing.T) {
	t.Parallel()

	assert.Zero(t, MaxDrawdown([]float64{100}).MaxDrawdownPercent)
	assert.Zero(t, MaxDrawdown(nil).MaxDrawdownPercent)
}

func TestProfitFactor(t *testing.T) {
	t.Parallel()

	trades := []Trade{closed(100, 10), closed(-40, 10), closed(60, 10), closed(-10, 10)}
	assert.InDelta(t, 3.2, ProfitFactor(trades), 1e-9)

	// all winners
	assert.True(t, math.IsInf(ProfitFactor([]Trade{closed(10, 5)}), 1))

	// no trades, or only breakeven
	assert.Zero(t, ProfitFactor(nil))
	assert.Zero(t, ProfitFactor([]Trade{closed(0, 5)}))
}

func TestWinRate(t *testing.T) {
	t.Parallel()

	info := WinRate([]Trade{closed(10, 5), closed(-5, 5), closed(20, 5), closed(0, 5)})

	assert.Equal(t, 4, info.TotalTrades)
	assert.Equal(t, 2, info.WinningTrades)
	assert.Equal(t, 1, info.LosingTrades)
	assert.InDelta(t, 50.0, info.WinRatePercent, 1e-9)
}

func TestExpectancy(t *testing.T) {
	t.Parallel()

	// 50% win rate, avg win 100, avg loss 40 -> 0.5*100 - 0.5*40 = 30
	trades := []Trade{closed(100, 5), closed(-40, 5)}
	assert.InDelta(t, 30.0, Expectancy(trades), 1e-9)

	assert.Zero(t, Expectancy(nil))
}

func TestRecoveryFactor(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, RecoveryFactor(100, 50), 1e-9)
	assert.True(t, math.IsInf(RecoveryFactor(100, 0), 1))
	assert.Zero(t, RecoveryFactor(-100, 0))
}

func TestTradeDurations(t *testing.T) {
	t.Parallel()

	info := TradeDurations([]Trade{closed(1, 30), closed(1, 90), closed(1, 60)})

	assert.InDelta(t, 60.0, info.AvgMinutes, 1e-9)
	assert.InDelta(t, 1.0, info.AvgHours, 1e-9)
	assert.InDelta(t, 30.0, info.MinMinutes, 1e-9)
	assert.InDelta(t, 90.0, info.MaxMinutes, 1e-9)

	// records without timestamps are skipped
	info = TradeDurations([]Trade{{Action: "close", NetProfit: 5}})
	assert.Zero(t, info.AvgMinutes)
}

func TestCalculateAll(t *testing.T) {
	t.Parallel()

	c := NewCalculator(0)
	history := []float64{200000, 199000, 201000}
	trades := []Trade{
		{Action: "update", NetProfit: 0},
		closed(-1000, 30),
		closed(2000, 60),
	}

	report := c.CalculateAll(history, trades, 200000)

	// update records are excluded from trade statistics
	assert.Equal(t, 2, report.TotalTrades)
	assert.InDelta(t, 1000.0, report.NetProfit, 1e-9)
	assert.InDelta(t, 0.5, report.TotalReturnPercent, 1e-9)
	assert.InDelta(t, 201000.0, report.CurrentBalance, 1e-9)
	assert.InDelta(t, 50.0, report.WinRate.WinRatePercent, 1e-9)
	assert.InDelta(t, 2.0, report.ProfitFactor, 1e-9)
	assert.InDelta(t, 0.5, report.MaxDrawdown.MaxDrawdownPercent, 1e-9)
	require.NotZero(t, report.SharpeRatio)
}

func TestCalculateAll_EmptyState(t *testing.T) {
	t.Parallel()

	report := NewCalculator(0).CalculateAll(nil, nil, 200000)

	assert.Zero(t, report.SharpeRatio)
	assert.Zero(t, report.NetProfit)
	assert.InDelta(t, 200000.0, report.CurrentBalance, 1e-9)
	assert.Zero(t, report.TotalTrades)
	assert.Zero(t, report.ProfitFactor)
}
