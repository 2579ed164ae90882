// Package analysis scores a candle series with a weighted indicator vote
// and turns the score into a directional signal with protective levels.
package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/papersim/trader/indicators"
	"github.com/papersim/trader/market"
)

// Direction of a generated signal.
const (
	SignalLong    = "long"
	SignalShort   = "short"
	SignalNeutral = "neutral"
)

// minCandles is the warmup needed by the slowest indicator (EMA 200).
const minCandles = 200

// historyWindow is how many recent candles the history votes look at.
const historyWindow = 14

// Weights control how much each indicator vote contributes to the score.
type Weights struct {
	EMATrend   int
	EMAHistory int
	RSI        int
	MACDHist   int
	MACDSignal int
	Volume     int
}

// DefaultWeights reflect the tuned values this engine ships with.
func DefaultWeights() Weights {
	return Weights{
		EMATrend:   5,
		EMAHistory: 3,
		RSI:        3,
		MACDHist:   4,
		MACDSignal: 2,
		Volume:     3,
	}
}

func (w Weights) max() int {
	return w.EMATrend + w.EMAHistory + w.RSI + w.MACDHist + w.MACDSignal + w.Volume
}

// Votes records the per-indicator direction (-1, 0 or +1).
type Votes struct {
	EMATrend   int     `json:"ema_trend"`
	EMAHistory int     `json:"ema_history"`
	RSI        int     `json:"rsi"`
	RSIValue   float64 `json:"rsi_value"`
	MACDHist   int     `json:"macd_hist"`
	MACDSignal int     `json:"macd_signal"`
	Volume     int     `json:"volume_signal"`
}

// Signal is the engine's verdict for one instrument.
type Signal struct {
	Direction  string
	Strength   int
	MaxScore   int
	Votes      Votes
	ATR        float64
	StopLoss   *decimal.Decimal
	TakeProfit *decimal.Decimal
	Info       string
}

// Engine computes signals from candle history. The zero threshold values
// come from NewEngine; thresholds are symmetric around zero.
type Engine struct {
	weights    Weights
	longScore  int
	shortScore int
	slMultiple float64
	tpMultiple float64
}

// NewEngine builds an engine with the given weights and an entry threshold
// of +-10. Stop distance is 2 ATR, target distance 3 ATR.
func NewEngine(weights Weights) *Engine {
	return &Engine{
		weights:    weights,
		longScore:  10,
		shortScore: -10,
		slMultiple: 2.0,
		tpMultiple: 3.0,
	}
}

// SetATRMultipliers overrides the protective level distances.
func (e *Engine) SetATRMultipliers(stopLoss, takeProfit float64) {
	e.slMultiple = stopLoss
	e.tpMultiple = takeProfit
}

// GetSignal scores the series and returns the verdict. Fewer than 200
// candles yields a neutral signal flagged insufficient_data.
func (e *Engine) GetSignal(candles []market.Candle) (Signal, error) {
	if len(candles) < minCandles {
		return Signal{Direction: SignalNeutral, MaxScore: e.weights.max(), Info: "insufficient_data"}, nil
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	ema20, err := indicators.EMASeries(closes, 20)
	if err != nil {
		return Signal{}, err
	}
	ema200, err := indicators.EMASeries(closes, 200)
	if err != nil {
		return Signal{}, err
	}
	rsi, err := indicators.RSISeries(closes, 14)
	if err != nil {
		return Signal{}, err
	}
	macd, err := indicators.MACDSeries(closes, 12, 26, 9)
	if err != nil {
		return Signal{}, err
	}
	atr, err := indicators.ATRFunc(candles, 14)
	if err != nil {
		return Signal{}, err
	}

	last := len(candles) - 1
	window := candles[len(candles)-historyWindow:]
	windowStart := len(candles) - historyWindow

	score := 0
	var votes Votes

	// current EMA 20/200 trend
	votes.EMATrend = cmpVote(ema20[last], ema200[last])
	score += votes.EMATrend * e.weights.EMATrend

	// which EMA led over the recent window
	fastWins, slowWins := 0, 0
	for i := windowStart; i < len(candles); i++ {
		switch {
		case ema20[i] > ema200[i]:
			fastWins++
		case ema20[i] < ema200[i]:
			slowWins++
		}
	}
	votes.EMAHistory = cmpVote(float64(fastWins), float64(slowWins))
	score += votes.EMAHistory * e.weights.EMAHistory

	// RSI zones: bullish in (50, 70), bearish in (30, 50)
	votes.RSIValue = rsi[last]
	switch {
	case rsi[last] > 50 && rsi[last] < 70:
		votes.RSI = 1
	case rsi[last] > 30 && rsi[last] < 50:
		votes.RSI = -1
	}
	score += votes.RSI * e.weights.RSI

	votes.MACDHist = cmpVote(macd.Histogram[last], 0)
	score += votes.MACDHist * e.weights.MACDHist

	votes.MACDSignal = cmpVote(macd.Line[last], macd.Signal[last])
	score += votes.MACDSignal * e.weights.MACDSignal

	// volume skew versus the window average
	avgVol := 0.0
	for _, c := range window {
		avgVol += c.Volume
	}
	avgVol /= float64(len(window))
	volCount := 0
	for _, c := range window {
		switch {
		case c.Volume > avgVol:
			volCount++
		case c.Volume < avgVol:
			volCount--
		}
	}
	votes.Volume = cmpVote(float64(volCount), 0)
	score += votes.Volume * e.weights.Volume

	sig := Signal{
		Direction: SignalNeutral,
		Strength:  score,
		MaxScore:  e.weights.max(),
		Votes:     votes,
		ATR:       atr,
	}
	switch {
	case score >= e.longScore:
		sig.Direction = SignalLong
	case score <= e.shortScore:
		sig.Direction = SignalShort
	}

	if sig.Direction != SignalNeutral {
		price := decimal.NewFromFloat(candles[last].Close)
		slDist := decimal.NewFromFloat(atr * e.slMultiple)
		tpDist := decimal.NewFromFloat(atr * e.tpMultiple)

		var sl, tp decimal.Decimal
		if sig.Direction == SignalLong {
			sl = price.Sub(slDist)
			tp = price.Add(tpDist)
		} else {
			sl = price.Add(slDist)
			tp = price.Sub(tpDist)
		}
		sig.StopLoss = &sl
		sig.TakeProfit = &tp
	}

	return sig, nil
}

func cmpVote(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
