package indicators

import "fmt"

// MACDResult holds the MACD line, signal line and histogram series.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACDSeries computes MACD(fast, slow, signal) over closes.
func MACDSeries(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{}, fmt.Errorf("periods must be positive, got %d/%d/%d", fast, slow, signal)
	}
	if fast >= slow {
		return MACDResult{}, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}

	fastEMA, err := EMASeries(closes, fast)
	if err != nil {
		return MACDResult{}, err
	}
	slowEMA, err := EMASeries(closes, slow)
	if err != nil {
		return MACDResult{}, err
	}

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig, err := EMASeries(line, signal)
	if err != nil {
		return MACDResult{}, err
	}

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}

	return MACDResult{Line: line, Signal: sig, Histogram: hist}, nil
}
