package execution

import "github.com/shopspring/decimal"

// SpreadConfig holds the bid/ask spread model parameters. All percents are
// plain percents (0.03 means 0.03%).
type SpreadConfig struct {
	Enabled              bool    `json:"enabled" yaml:"enabled"`
	BasePercent          float64 `json:"base_spread_percent" yaml:"base_spread_percent"`
	VolatilityMultiplier float64 `json:"volatility_multiplier" yaml:"volatility_multiplier"`
	MinPercent           float64 `json:"min_spread_percent" yaml:"min_spread_percent"`
	MaxPercent           float64 `json:"max_spread_percent" yaml:"max_spread_percent"`
}

// SpreadModel derives a synthetic bid/ask spread around a mid price. The
// spread widens when the current ATR runs above its recent average.
type SpreadModel struct {
	base      float64
	volMult   float64
	minSpread float64
	maxSpread float64
}

func NewSpreadModel(cfg SpreadConfig) *SpreadModel {
	return &SpreadModel{
		base:      cfg.BasePercent / 100.0,
		volMult:   cfg.VolatilityMultiplier,
		minSpread: cfg.MinPercent / 100.0,
		maxSpread: cfg.MaxPercent / 100.0,
	}
}

// Spread returns the absolute spread for a mid price. When tickSize is
// positive the spread is rounded to a whole number of ticks, minimum one.
func (m *SpreadModel) Spread(mid decimal.Decimal, atr, avgATR float64, tickSize decimal.Decimal) decimal.Decimal {
	pct := m.base

	if atr > 0 && avgATR > 0 {
		ratio := atr / avgATR
		if ratio > 1.0 {
			pct += (ratio - 1.0) * m.base * m.volMult
		}
	}

	if pct < m.minSpread {
		pct = m.minSpread
	}
	if pct > m.maxSpread {
		pct = m.maxSpread
	}

	amount := mid.Mul(decimal.NewFromFloat(pct))

	if tickSize.IsPositive() {
		// round up to a whole number of ticks, minimum one
		amount = amount.Div(tickSize).Ceil().Mul(tickSize)
		if amount.LessThan(tickSize) {
			amount = tickSize
		}
	}

	return amount
}

// BidAsk returns the synthetic bid and ask around a mid price.
func (m *SpreadModel) BidAsk(mid decimal.Decimal, atr, avgATR float64, tickSize decimal.Decimal) (bid, ask decimal.Decimal) {
	half := m.Spread(mid, atr, avgATR, tickSize).Div(decimal.NewFromInt(2))
	return mid.Sub(half), mid.Add(half)
}

// Price returns the execution price for a direction: ask for buys, bid for
// sells.
func (m *SpreadModel) Price(mid decimal.Decimal, dir Direction, atr, avgATR float64, tickSize decimal.Decimal) decimal.Decimal {
	bid, ask := m.BidAsk(mid, atr, avgATR, tickSize)
	if dir == Buy {
		return ask
	}
	return bid
}
