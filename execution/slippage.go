package execution

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// SlippageConfig holds the slippage model parameters. Percents are plain
// percents (0.02 means 0.02%).
type SlippageConfig struct {
	Enabled               bool    `json:"enabled" yaml:"enabled"`
	BasePercent           float64 `json:"base_slippage_percent" yaml:"base_slippage_percent"`
	VolumeFactorPer10Lots float64 `json:"volume_factor_per_10_lots" yaml:"volume_factor_per_10_lots"`
	VolatilityMultiplier  float64 `json:"volatility_multiplier" yaml:"volatility_multiplier"`
	MaxPercent            float64 `json:"max_slippage_percent" yaml:"max_slippage_percent"`
}

// SlippageModel shifts an expected fill price adversely, scaled by order
// size and volatility, with a uniform jitter on the final magnitude. The
// random source is injected so tests can fix the seed.
type SlippageModel struct {
	base         float64
	volumeFactor float64
	volMult      float64
	maxSlippage  float64
	rng          *rand.Rand
}

func NewSlippageModel(cfg SlippageConfig, rng *rand.Rand) *SlippageModel {
	return &SlippageModel{
		base:         cfg.BasePercent / 100.0,
		volumeFactor: cfg.VolumeFactorPer10Lots / 100.0,
		volMult:      cfg.VolatilityMultiplier,
		maxSlippage:  cfg.MaxPercent / 100.0,
		rng:          rng,
	}
}

// Price returns the fill price after slippage. Slippage is always adverse:
// buys fill higher, sells fill lower.
func (m *SlippageModel) Price(expected decimal.Decimal, lots int64, dir Direction, atr, avgATR float64) decimal.Decimal {
	absLots := lots
	if absLots < 0 {
		absLots = -absLots
	}

	slip := m.base
	slip += float64(absLots/10) * m.volumeFactor

	if atr > 0 && avgATR > 0 {
		ratio := atr / avgATR
		if ratio > 1.0 {
			slip += (ratio - 1.0) * m.base * m.volMult
		}
	}

	if slip > m.maxSlippage {
		slip = m.maxSlippage
	}

	slip *= m.jitter()

	factor := decimal.NewFromFloat(slip)
	if dir == Buy {
		return expected.Mul(decimal.NewFromInt(1).Add(factor))
	}
	return expected.Mul(decimal.NewFromInt(1).Sub(factor))
}

// jitter draws a factor uniformly from [0.8, 1.2].
func (m *SlippageModel) jitter() float64 {
	return 0.8 + m.rng.Float64()*0.4
}
