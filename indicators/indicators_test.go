package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersim/trader/market"
)

func flatCandles(n int, rangeSize float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = market.Candle{
			Open:  100,
			High:  100 + rangeSize/2,
			Low:   100 - rangeSize/2,
			Close: 100,
		}
	}
	return out
}

func TestATRFunc_ConstantRange(t *testing.T) {
	t.Parallel()

	// every candle has the same true range, so ATR equals it
	atr, err := ATRFunc(flatCandles(30, 4), 14)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, atr, 1e-9)
}

func TestATRFunc_NotEnoughCandles(t *testing.T) {
	t.Parallel()

	_, err := ATRFunc(flatCandles(14, 4), 14)
	assert.Error(t, err)
}

func TestATRFunc_GapTrueRange(t *testing.T) {
	t.Parallel()

	candles := flatCandles(16, 2)
	// a gap: previous close 100, this candle trades 110-111
	candles[15] = market.Candle{Open: 110, High: 111, Low: 110, Close: 110.5}

	atr, err := ATRFunc(candles, 14)
	require.NoError(t, err)

	// TR of the gap candle is max(1, 11, 10) = 11, pulled in by smoothing
	want := (2.0*13 + 11) / 14
	assert.InDelta(t, want, atr, 1e-9)
}

func TestStreamingATR_MatchesBatch(t *testing.T) {
	t.Parallel()

	candles := flatCandles(40, 3)
	for i := range candles {
		candles[i].Close += float64(i % 5)
		candles[i].High += float64(i % 5)
		candles[i].Low += float64(i % 5)
	}

	batch, err := ATRFunc(candles, 14)
	require.NoError(t, err)

	s := NewATR(14)
	for _, c := range candles {
		s.Update(c)
	}
	require.True(t, s.Ready())
	assert.InDelta(t, batch, s.Value(), 1e-9)
}

func TestEMASeries_ConvergesToConstant(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 50
	}

	out, err := EMASeries(closes, 20)
	require.NoError(t, err)
	require.Len(t, out, 100)
	assert.InDelta(t, 50.0, out[99], 1e-9)
}

func TestEMASeries_ReactsFasterWithShortPeriod(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 60)
	for i := range closes {
		if i < 30 {
			closes[i] = 100
		} else {
			closes[i] = 120
		}
	}

	fast, err := EMASeries(closes, 5)
	require.NoError(t, err)
	slow, err := EMASeries(closes, 50)
	require.NoError(t, err)

	assert.Greater(t, fast[59], slow[59])
}

func TestRSISeries_Extremes(t *testing.T) {
	t.Parallel()

	up := make([]float64, 30)
	for i := range up {
		up[i] = float64(100 + i)
	}
	out, err := RSISeries(up, 14)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, out[29], 1e-9)

	down := make([]float64, 30)
	for i := range down {
		down[i] = float64(100 - i)
	}
	out, err = RSISeries(down, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out[29], 1e-9)
}

func TestRSISeries_FlatIsNeutral(t *testing.T) {
	t.Parallel()

	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	out, err := RSISeries(flat, 14)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, out[29], 1e-9)
}

func TestMACDSeries(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 80)
	for i := range closes {
		if i < 40 {
			closes[i] = 100
		} else {
			closes[i] = 100 + float64(i-40)
		}
	}

	macd, err := MACDSeries(closes, 12, 26, 9)
	require.NoError(t, err)
	require.Len(t, macd.Line, 80)

	// in a steady uptrend the fast EMA leads, so line and histogram are positive
	assert.Greater(t, macd.Line[79], 0.0)
	assert.Greater(t, macd.Histogram[79], 0.0)

	// flat prefix keeps everything at zero
	assert.InDelta(t, 0.0, macd.Line[30], 1e-9)
	assert.InDelta(t, 0.0, macd.Histogram[30], 1e-9)
}

func TestMACDSeries_InvalidPeriods(t *testing.T) {
	t.Parallel()

	_, err := MACDSeries([]float64{1, 2, 3}, 26, 12, 9)
	assert.Error(t, err)
}
