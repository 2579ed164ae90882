package risk

import "github.com/shopspring/decimal"

// PositionSize recommends a lot count for an entry. With a stop it risks
// RiskPerTradePercent of balance against the stop distance; without one it
// caps the position at MaxPositionSizePercent of balance.
func (g *Governor) PositionSize(balance, entryPrice decimal.Decimal, stopLoss *decimal.Decimal, maxLots int64) int64 {
	var lots int64

	if stopLoss == nil || stopLoss.IsZero() {
		maxValue := balance.Mul(decimal.NewFromFloat(g.maxPositionSize))
		if entryPrice.IsPositive() {
			lots = maxValue.Div(entryPrice).IntPart()
		}
	} else {
		riskAmount := balance.Mul(decimal.NewFromFloat(g.riskPerTrade))
		priceRisk := entryPrice.Sub(*stopLoss).Abs()
		if priceRisk.IsPositive() {
			lots = riskAmount.Div(priceRisk).IntPart()
		} else {
			lots = 1
		}
	}

	if maxLots > 0 && lots > maxLots {
		lots = maxLots
	}
	if lots < 1 {
		lots = 1
	}
	return lots
}
