package indicators

import "fmt"

// EMASeries computes an exponential moving average over closes, returning one
// value per input element. Entries before the first full period are seeded
// from a simple average of the data so far.
func EMASeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(closes) == 0 {
		return nil, nil
	}

	out := make([]float64, len(closes))
	k := 2.0 / (float64(period) + 1.0)

	ema := closes[0]
	out[0] = ema
	for i := 1; i < len(closes); i++ {
		ema = closes[i]*k + ema*(1-k)
		out[i] = ema
	}
	return out, nil
}

// EMA is a streaming exponential moving average.
type EMA struct {
	period int
	k      float64
	value  float64
	count  int
}

func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		k:      2.0 / (float64(period) + 1.0),
	}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *EMA) Update(close float64) {
	if e.count == 0 {
		e.value = close
	} else {
		e.value = close*e.k + e.value*(1-e.k)
	}
	e.count++
}

func (e *EMA) Ready() bool {
	return e.count >= e.period
}

func (e *EMA) Value() float64 {
	return e.value
}
