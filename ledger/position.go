package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side tags position direction explicitly. The persisted wire format keeps
// the source convention of signed lots where negative means long; that sign
// flip is confined to SideFromLots and SignedLots.
type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Long {
		return "long"
	}
	return "short"
}

// SideFromLots translates wire-convention signed lots (negative = long)
// into a Side plus an unsigned lot count.
func SideFromLots(lots int64) (Side, int64) {
	if lots < 0 {
		return Long, -lots
	}
	return Short, lots
}

// SignedLots is the inverse translation back to the wire convention.
func SignedLots(side Side, lots int64) int64 {
	if side == Long {
		return -lots
	}
	return lots
}

// Position is one open futures position. AvgPrice is the most recent fill
// price, replaced on every resize, not a weighted cost basis. Margin is the
// amount reserved at the last resize. TradeID and OpenedAt are assigned the
// first time the position opens from flat and survive resizes.
type Position struct {
	Side                  Side
	Lots                  int64 // unsigned lot count, always > 0
	AvgPrice              decimal.Decimal
	StopLoss              *decimal.Decimal
	TakeProfit            *decimal.Decimal
	Margin                decimal.Decimal
	TradeID               int64
	OpenedAt              time.Time
	AccumulatedCommission decimal.Decimal
}

// SignedLots returns the position's lots in the wire convention.
func (p *Position) SignedLots() int64 {
	return SignedLots(p.Side, p.Lots)
}

// UnrealizedPnL values the position against a mark price using the wire
// sign convention: (mark - entry) x signed lots.
func (p *Position) UnrealizedPnL(mark decimal.Decimal) decimal.Decimal {
	return mark.Sub(p.AvgPrice).Mul(decimal.NewFromInt(p.SignedLots()))
}

// ExitTrigger labels which protective level a price touched.
type ExitTrigger string

const (
	TriggerNone       ExitTrigger = ""
	TriggerStopLoss   ExitTrigger = "stop_loss"
	TriggerTakeProfit ExitTrigger = "take_profit"
)

// CheckStops reports whether the price has reached the stop-loss or
// take-profit level. Long positions stop out below and take profit above;
// shorts are mirrored.
func (p *Position) CheckStops(price decimal.Decimal) ExitTrigger {
	if p.Side == Long {
		if p.StopLoss != nil && price.LessThanOrEqual(*p.StopLoss) {
			return TriggerStopLoss
		}
		if p.TakeProfit != nil && price.GreaterThanOrEqual(*p.TakeProfit) {
			return TriggerTakeProfit
		}
		return TriggerNone
	}

	if p.StopLoss != nil && price.GreaterThanOrEqual(*p.StopLoss) {
		return TriggerStopLoss
	}
	if p.TakeProfit != nil && price.LessThanOrEqual(*p.TakeProfit) {
		return TriggerTakeProfit
	}
	return TriggerNone
}
