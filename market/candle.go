package market

import "time"

// Candle represents OHLC (Open, High, Low, Close) candlestick data
// for a single interval of an instrument.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Time   time.Time
}

// Interval is a candle granularity accepted by the data feed.
type Interval string

const (
	Min1  Interval = "1min"
	Min5  Interval = "5min"
	Min15 Interval = "15min"
	Hour1 Interval = "hour"
	Day   Interval = "day"
)
