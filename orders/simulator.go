// Package orders simulates the latency between a trading decision and its
// execution. Orders sit in a queue for a randomized delay and can be
// cancelled when the market moves away before they become ready.
package orders

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/papersim/trader/execution"
)

// Status is the lifecycle state of a pending order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReady     Status = "ready"
	StatusExecuted  Status = "executed"
	StatusCancelled Status = "cancelled"
)

// Direction of a deferred order. Close is a flatten request and is derived
// from a zero lot target.
const (
	DirectionClose = "close"
)

// Order is one deferred execution request. TargetLots keeps the wire
// convention (negative = long).
type Order struct {
	ID            string
	Ticker        string
	FIGI          string
	TargetLots    int64
	ExpectedPrice decimal.Decimal
	StopLoss      *decimal.Decimal
	TakeProfit    *decimal.Decimal
	Direction     string
	Status        Status
	CreatedAt     time.Time
	ExecuteAt     time.Time
	ExecutedAt    *time.Time
	ActualPrice   *decimal.Decimal
	CancelReason  string
}

// Config bounds the simulated delay and the tolerated price drift.
type Config struct {
	Enabled                  bool    `yaml:"enabled" json:"enabled"`
	MinDelaySeconds          float64 `yaml:"min_delay_seconds" json:"min_delay_seconds"`
	MaxDelaySeconds          float64 `yaml:"max_delay_seconds" json:"max_delay_seconds"`
	MaxPriceDeviationPercent float64 `yaml:"max_price_deviation_percent" json:"max_price_deviation_percent"`
}

// DefaultConfig mirrors the delay a retail broker round trip usually takes.
func DefaultConfig() Config {
	return Config{
		Enabled:                  true,
		MinDelaySeconds:          1.0,
		MaxDelaySeconds:          3.0,
		MaxPriceDeviationPercent: 1.0,
	}
}

// Simulator queues orders and releases them after their delay elapses.
// It is not safe for concurrent use; callers drive it from a single loop.
type Simulator struct {
	minDelay     time.Duration
	maxDelay     time.Duration
	maxDeviation decimal.Decimal

	orders map[string]*Order
	rng    *rand.Rand
	now    func() time.Time
}

// NewSimulator builds a simulator from cfg. A nil rng gets a time-seeded
// source; tests inject a fixed seed for reproducible delays and IDs.
func NewSimulator(cfg Config, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		minDelay:     time.Duration(cfg.MinDelaySeconds * float64(time.Second)),
		maxDelay:     time.Duration(cfg.MaxDelaySeconds * float64(time.Second)),
		maxDeviation: decimal.NewFromFloat(cfg.MaxPriceDeviationPercent / 100),
		orders:       make(map[string]*Order),
		rng:          rng,
		now:          time.Now,
	}
}

// SetClock overrides the time source for tests.
func (s *Simulator) SetClock(now func() time.Time) {
	s.now = now
}

// Create queues a new order and returns its ID. Direction follows the lot
// sign: zero closes, negative buys (long), positive sells (short).
func (s *Simulator) Create(ticker string, targetLots int64, expectedPrice decimal.Decimal, stopLoss, takeProfit *decimal.Decimal, figi string) string {
	direction := DirectionClose
	switch {
	case targetLots < 0:
		direction = string(execution.Buy)
	case targetLots > 0:
		direction = string(execution.Sell)
	}

	createdAt := s.now()
	delay := s.minDelay
	if s.maxDelay > s.minDelay {
		delay += time.Duration(s.rng.Int63n(int64(s.maxDelay - s.minDelay)))
	}

	id := ulid.MustNew(ulid.Timestamp(createdAt), s.rng).String()
	s.orders[id] = &Order{
		ID:            id,
		Ticker:        ticker,
		FIGI:          figi,
		TargetLots:    targetLots,
		ExpectedPrice: expectedPrice,
		StopLoss:      stopLoss,
		TakeProfit:    takeProfit,
		Direction:     direction,
		Status:        StatusPending,
		CreatedAt:     createdAt,
		ExecuteAt:     createdAt.Add(delay),
	}
	return id
}

// CheckReady sweeps the queue and returns orders whose delay has elapsed
// and whose market has not drifted beyond the deviation limit. Orders with
// no current price, or with excessive drift, are cancelled in place.
func (s *Simulator) CheckReady(currentPrices map[string]decimal.Decimal) []*Order {
	var ready []*Order
	now := s.now()

	for _, order := range s.orders {
		if order.Status != StatusPending || now.Before(order.ExecuteAt) {
			continue
		}

		price, ok := currentPrices[order.Ticker]
		if !ok {
			order.Status = StatusCancelled
			order.CancelReason = "no_current_price"
			continue
		}

		deviation := price.Sub(order.ExpectedPrice).Abs().Div(order.ExpectedPrice)
		if deviation.GreaterThan(s.maxDeviation) {
			pct, _ := deviation.Mul(decimal.NewFromInt(100)).Float64()
			order.Status = StatusCancelled
			order.CancelReason = fmt.Sprintf("price_deviation_%.2f%%", pct)
			continue
		}

		p := price
		order.ActualPrice = &p
		order.Status = StatusReady
		ready = append(ready, order)
	}

	sort.Slice(ready, func(i, j int) bool { return ready[i].ExecuteAt.Before(ready[j].ExecuteAt) })
	return ready
}

// Execute marks a ready order as executed and returns it. Any other state
// returns nil.
func (s *Simulator) Execute(orderID string) *Order {
	order, ok := s.orders[orderID]
	if !ok || order.Status != StatusReady {
		return nil
	}
	executedAt := s.now()
	order.Status = StatusExecuted
	order.ExecutedAt = &executedAt
	return order
}

// Cancel cancels a pending order. Ready, executed and already cancelled
// orders are left untouched.
func (s *Simulator) Cancel(orderID, reason string) bool {
	order, ok := s.orders[orderID]
	if !ok || order.Status != StatusPending {
		return false
	}
	order.Status = StatusCancelled
	order.CancelReason = reason
	return true
}

// Get returns the order with the given ID, or nil.
func (s *Simulator) Get(orderID string) *Order {
	return s.orders[orderID]
}

// PendingCount reports how many orders are still waiting for their delay.
func (s *Simulator) PendingCount() int {
	n := 0
	for _, order := range s.orders {
		if order.Status == StatusPending {
			n++
		}
	}
	return n
}

// CleanupOldOrders drops executed and cancelled orders created before
// now-maxAge so the queue does not grow without bound.
func (s *Simulator) CleanupOldOrders(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for id, order := range s.orders {
		if (order.Status == StatusExecuted || order.Status == StatusCancelled) && order.CreatedAt.Before(cutoff) {
			delete(s.orders, id)
			removed++
		}
	}
	return removed
}
