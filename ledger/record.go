package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action distinguishes the two kinds of trade records.
const (
	ActionUpdate = "update"
	ActionClose  = "close"
)

// TradeRecord is one immutable entry of the append-only trade log. Lots use
// the wire convention (negative = long). Close records carry profit fields
// and the released margin; update records carry the reserved margin and the
// protective levels.
type TradeRecord struct {
	TradeID        int64            `json:"trade_id"`
	Ticker         string           `json:"ticker"`
	Action         string           `json:"action"`
	Lots           int64            `json:"lots"`
	ExpectedPrice  decimal.Decimal  `json:"expected_price"`
	ExecutionPrice decimal.Decimal  `json:"execution_price"`
	StopLoss       *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit     *decimal.Decimal `json:"take_profit,omitempty"`
	MarginReserved *decimal.Decimal `json:"margin_reserved,omitempty"`
	MarginReleased *decimal.Decimal `json:"margin_released,omitempty"`
	Profit         *decimal.Decimal `json:"profit,omitempty"`
	Commission     decimal.Decimal  `json:"commission"`
	NetProfit      *decimal.Decimal `json:"net_profit,omitempty"`
	OpenedAt       *time.Time       `json:"opened_at,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Sink receives accepted mutations for out-of-band journaling (SQLite,
// CSV). The JSON snapshot remains the source of truth; sink errors are
// logged and never fail a mutation.
type Sink interface {
	RecordTrade(TradeRecord) error
	RecordBalance(t time.Time, balance decimal.Decimal) error
}
