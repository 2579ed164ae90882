package execution

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		Enabled:              true,
		BasePercent:          0.03,
		VolatilityMultiplier: 1.5,
		MinPercent:           0.01,
		MaxPercent:           0.1,
	}
}

func defaultSlippageConfig() SlippageConfig {
	return SlippageConfig{
		Enabled:               true,
		BasePercent:           0.02,
		VolumeFactorPer10Lots: 0.01,
		VolatilityMultiplier:  2.0,
		MaxPercent:            0.5,
	}
}

func TestSpread_BuyAboveSellBelowMid(t *testing.T) {
	t.Parallel()

	m := NewSpreadModel(defaultSpreadConfig())
	mid := decimal.NewFromInt(100)

	buy := m.Price(mid, Buy, 0, 0, decimal.Zero)
	sell := m.Price(mid, Sell, 0, 0, decimal.Zero)

	assert.True(t, buy.GreaterThan(mid), "buy fills above mid, got %s", buy)
	assert.True(t, sell.LessThan(mid), "sell fills below mid, got %s", sell)

	// bid and ask are symmetric around the mid
	assert.True(t, buy.Sub(mid).Equal(mid.Sub(sell)))
}

func TestSpread_WidensWithVolatility(t *testing.T) {
	t.Parallel()

	m := NewSpreadModel(defaultSpreadConfig())
	mid := decimal.NewFromInt(100000)

	calm := m.Spread(mid, 100, 100, decimal.Zero)
	volatile := m.Spread(mid, 200, 100, decimal.Zero)

	assert.True(t, volatile.GreaterThan(calm),
		"spread should widen when ATR doubles its average: calm=%s volatile=%s", calm, volatile)

	// ratio 2.0 adds (2-1) * base * 1.5 on top of base
	got, _ := volatile.Float64()
	assert.InDelta(t, 75.0, got, 1e-6)
}

func TestSpread_ClampedToMax(t *testing.T) {
	t.Parallel()

	m := NewSpreadModel(defaultSpreadConfig())
	mid := decimal.NewFromInt(100000)

	// ratio 100 would blow way past the 0.1% cap
	spread := m.Spread(mid, 10000, 100, decimal.Zero)
	got, _ := spread.Float64()
	assert.InDelta(t, 100.0, got, 1e-6)
}

func TestSpread_TickRounding(t *testing.T) {
	t.Parallel()

	m := NewSpreadModel(defaultSpreadConfig())
	tick := decimal.NewFromInt(10)

	// 0.03% of 100000 = 30, already a whole number of ticks
	spread := m.Spread(decimal.NewFromInt(100000), 0, 0, tick)
	assert.True(t, spread.Equal(decimal.NewFromInt(30)), "got %s", spread)

	// 0.03% of 100 = 0.03, rounds up to one full tick
	spread = m.Spread(decimal.NewFromInt(100), 0, 0, tick)
	assert.True(t, spread.Equal(tick), "got %s", spread)

	// 0.03% of 105000 = 31.5, rounds up to 40
	spread = m.Spread(decimal.NewFromInt(105000), 0, 0, tick)
	assert.True(t, spread.Equal(decimal.NewFromInt(40)), "got %s", spread)
}

func TestSlippage_AlwaysAdverse(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	m := NewSlippageModel(defaultSlippageConfig(), rng)
	expected := decimal.NewFromInt(100000)

	for i := 0; i < 100; i++ {
		buy := m.Price(expected, 5, Buy, 0, 0)
		sell := m.Price(expected, 5, Sell, 0, 0)
		assert.True(t, buy.GreaterThan(expected), "buy slips up, got %s", buy)
		assert.True(t, sell.LessThan(expected), "sell slips down, got %s", sell)
	}
}

func TestSlippage_JitterBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	m := NewSlippageModel(defaultSlippageConfig(), rng)
	expected := decimal.NewFromInt(100000)

	// base 0.02%, no volume or volatility add-on; jitter in [0.8, 1.2]
	lo := expected.Mul(decimal.NewFromFloat(1 + 0.0002*0.8))
	hi := expected.Mul(decimal.NewFromFloat(1 + 0.0002*1.2))

	for i := 0; i < 200; i++ {
		got := m.Price(expected, 1, Buy, 0, 0)
		assert.True(t, got.GreaterThanOrEqual(lo) && got.LessThanOrEqual(hi),
			"fill %s outside [%s, %s]", got, lo, hi)
	}
}

func TestSlippage_GrowsWithVolume(t *testing.T) {
	t.Parallel()

	cfg := defaultSlippageConfig()
	small := NewSlippageModel(cfg, rand.New(rand.NewSource(1)))
	large := NewSlippageModel(cfg, rand.New(rand.NewSource(1)))
	expected := decimal.NewFromInt(100000)

	// identical seeds mean identical jitter, so the volume term dominates
	smallFill := small.Price(expected, 5, Buy, 0, 0)
	largeFill := large.Price(expected, 50, Buy, 0, 0)

	assert.True(t, largeFill.GreaterThan(smallFill),
		"50 lots should slip more than 5: %s vs %s", largeFill, smallFill)
}

func TestSlippage_CappedAtMax(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	m := NewSlippageModel(defaultSlippageConfig(), rng)
	expected := decimal.NewFromInt(100000)

	// enormous order and volatility, capped at 0.5% before jitter
	maxAdverse := expected.Mul(decimal.NewFromFloat(1 + 0.005*1.2))
	for i := 0; i < 100; i++ {
		got := m.Price(expected, 100000, Buy, 500, 100)
		assert.True(t, got.LessThanOrEqual(maxAdverse), "fill %s beyond cap %s", got, maxAdverse)
	}
}

func TestModel_DisabledPassthrough(t *testing.T) {
	t.Parallel()

	m := NewModel(SpreadConfig{}, SlippageConfig{}, rand.New(rand.NewSource(1)))
	mid := decimal.NewFromFloat(1234.56)

	fill := m.Price(mid, 10, Buy, 50, 40, decimal.NewFromInt(1))

	assert.True(t, fill.Price.Equal(mid))
	assert.True(t, fill.SpreadCost.IsZero())
	assert.True(t, fill.SlippageCost.IsZero())
}

func TestModel_CostsScaleWithLots(t *testing.T) {
	t.Parallel()

	m := NewModel(defaultSpreadConfig(), SlippageConfig{}, rand.New(rand.NewSource(1)))
	mid := decimal.NewFromInt(100000)

	fill := m.Price(mid, -4, Buy, 0, 0, decimal.Zero)
	require.False(t, fill.SpreadCost.IsZero())

	// spread cost is the half-spread shift times |lots|
	shift := fill.Price.Sub(mid).Abs()
	assert.True(t, fill.SpreadCost.Equal(shift.Mul(decimal.NewFromInt(4))))
}
