package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Instrument describes a tradeable futures contract.
type Instrument struct {
	Ticker   string
	FIGI     string
	Name     string
	Lot      int
	TickSize decimal.Decimal
}

// Feed supplies candles and last prices, one instrument at a time.
// Implementations do their own I/O; the engine never blocks internally.
type Feed interface {
	Candles(ctx context.Context, figi string, from, to time.Time, interval Interval) ([]Candle, error)
	LastPrice(ctx context.Context, figi string) (decimal.Decimal, error)
}

// MarginProvider returns the margin required per lot for an instrument.
// A failed lookup should be reported as an error; callers fall back to a
// conservative estimate.
type MarginProvider interface {
	MarginPerLot(ctx context.Context, figi string, long bool) (decimal.Decimal, error)
}
