// Package ledger owns the synthetic trading account: cash balance, reserved
// margin, open positions and the append-only trade log. Every accepted
// mutation is gated through the trading calendar and the risk governor,
// priced through the execution cost model, and persisted write-through as a
// JSON snapshot.
package ledger

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/papersim/trader/execution"
	"github.com/papersim/trader/risk"
)

// Calendar is the trading-calendar collaborator consulted before any
// mutation.
type Calendar interface {
	CanTrade() (bool, string)
	ValidatePositionSize(lots int64) (bool, string)
}

// Config holds ledger construction parameters.
type Config struct {
	SnapshotPath   string
	InitialBalance decimal.Decimal
	CommissionRate decimal.Decimal
	// ATRHistoryCap bounds the per-ticker ATR ring; 0 means the default
	// of 100.
	ATRHistoryCap int
}

const defaultATRHistoryCap = 100

// Ledger is single-writer: the caller evaluates instruments one at a time
// and never overlaps mutations. The check-then-reserve on free balance is
// only safe under that discipline.
type Ledger struct {
	log   zerolog.Logger
	cfg   Config
	cal   Calendar
	costs *execution.Model
	gov   *risk.Governor // nil disables risk gating
	sink  Sink           // nil disables journaling
	now   func() time.Time

	balance         decimal.Decimal
	initial         decimal.Decimal
	positions       map[string]*Position
	history         []TradeRecord
	usedMargin      decimal.Decimal
	totalCommission decimal.Decimal
	totalSlippage   decimal.Decimal
	totalSpread     decimal.Decimal
	nextTradeID     int64
	balanceHistory  []decimal.Decimal
	atrHistory      map[string][]float64
}

// New creates a ledger, restoring state from the snapshot at
// cfg.SnapshotPath when one exists. An unreadable snapshot is logged and
// replaced by a fresh ledger at the configured initial balance.
func New(cfg Config, cal Calendar, costs *execution.Model, gov *risk.Governor, log zerolog.Logger) *Ledger {
	if cfg.ATRHistoryCap <= 0 {
		cfg.ATRHistoryCap = defaultATRHistoryCap
	}

	l := &Ledger{
		log:   log,
		cfg:   cfg,
		cal:   cal,
		costs: costs,
		gov:   gov,
		now:   time.Now,
	}
	l.reset()
	l.load()
	return l
}

// SetSink attaches an optional journal sink for accepted mutations.
func (l *Ledger) SetSink(s Sink) { l.sink = s }

// SetClock overrides the wall clock, for tests.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Governor exposes the attached risk governor (may be nil).
func (l *Ledger) Governor() *risk.Governor { return l.gov }

func (l *Ledger) reset() {
	l.balance = l.cfg.InitialBalance
	l.initial = l.cfg.InitialBalance
	l.positions = make(map[string]*Position)
	l.history = nil
	l.usedMargin = decimal.Zero
	l.totalCommission = decimal.Zero
	l.totalSlippage = decimal.Zero
	l.totalSpread = decimal.Zero
	l.nextTradeID = 1
	l.balanceHistory = nil
	l.atrHistory = make(map[string][]float64)
}

// UpdateRequest describes a desired target position. TargetLots uses the
// wire sign convention (negative = long); zero closes the position.
type UpdateRequest struct {
	Ticker       string
	TargetLots   int64
	Price        decimal.Decimal
	StopLoss     *decimal.Decimal
	TakeProfit   *decimal.Decimal
	MarginPerLot *decimal.Decimal // nil falls back to 10% of execution price
	ATR          float64          // 0 means unknown
	TickSize     decimal.Decimal  // zero means no tick rounding
}

// Result reports the outcome of a mutation. A policy rejection leaves the
// ledger unchanged and carries the reason; it is not an error.
type Result struct {
	Applied bool
	Reason  string
	Record  *TradeRecord
}

func rejected(reason string) Result {
	return Result{Reason: reason}
}

// UpdatePosition moves the position for a ticker to the target lot count,
// pricing the traded delta through the cost model and charging commission
// on it. Accepted mutations are persisted before returning.
func (l *Ledger) UpdatePosition(req UpdateRequest) Result {
	pos := l.positions[req.Ticker]

	var currentSigned int64
	if pos != nil {
		currentSigned = pos.SignedLots()
	}
	diff := req.TargetLots - currentSigned
	if diff == 0 {
		return Result{Applied: true, Reason: "no change"}
	}

	if ok, reason := l.cal.CanTrade(); !ok {
		l.log.Warn().Str("ticker", req.Ticker).Str("reason", reason).Msg("trading not allowed")
		return rejected(reason)
	}

	if ok, reason := l.cal.ValidatePositionSize(req.TargetLots); !ok {
		l.log.Warn().Str("ticker", req.Ticker).Str("reason", reason).Msg("invalid position size")
		return rejected(reason)
	}

	if req.ATR > 0 {
		l.recordATR(req.Ticker, req.ATR)
	}

	if req.TargetLots != 0 && l.gov != nil {
		notional := req.Price.Mul(decimal.NewFromInt(abs64(req.TargetLots))).Abs()
		if ok, reason := l.gov.CanOpenPosition(l.balance, len(l.positions), notional); !ok {
			l.log.Warn().Str("ticker", req.Ticker).Str("reason", reason).Msg("risk governor veto")
			return rejected(reason)
		}
	}

	var rec TradeRecord
	if req.TargetLots == 0 {
		if pos == nil {
			return Result{Applied: true, Reason: "no position to close"}
		}
		rec = l.closePosition(req.Ticker, pos, req)
	} else {
		var res Result
		rec, res = l.openOrResize(req.Ticker, pos, req, diff)
		if !res.Applied && res.Reason != "" {
			return res
		}
	}

	l.history = append(l.history, rec)
	l.persist()
	l.journalTrade(rec)

	return Result{Applied: true, Record: &rec}
}

// closePosition fully closes a position at a realistically priced fill.
// The profit formula (execution - avg) x signed lots keeps the wire sign
// convention end to end, so the recorded profit matches the persisted
// history of the original system.
func (l *Ledger) closePosition(ticker string, pos *Position, req UpdateRequest) TradeRecord {
	dir := execution.Buy
	if pos.Side == Long {
		dir = execution.Sell
	}

	signed := pos.SignedLots()
	fill := l.fill(ticker, req.Price, signed, dir, req.ATR, req.TickSize)

	signedDec := decimal.NewFromInt(signed)
	profit := fill.Price.Sub(pos.AvgPrice).Mul(signedDec)
	commission := fill.Price.Mul(signedDec).Abs().Mul(l.cfg.CommissionRate)
	netProfit := profit.Sub(commission)

	released := pos.Margin
	l.balance = l.balance.Add(released).Add(netProfit)
	l.usedMargin = l.usedMargin.Sub(released)
	l.totalCommission = l.totalCommission.Add(commission)

	l.balanceHistory = append(l.balanceHistory, l.balance)
	l.journalBalance()

	openedAt := pos.OpenedAt
	delete(l.positions, ticker)

	ts := l.now()
	l.log.Info().
		Str("ticker", ticker).
		Int64("lots", signed).
		Str("execution_price", fill.Price.String()).
		Str("net_profit", netProfit.String()).
		Msg("position closed")

	return TradeRecord{
		TradeID:        pos.TradeID,
		Ticker:         ticker,
		Action:         ActionClose,
		Lots:           signed,
		ExpectedPrice:  req.Price,
		ExecutionPrice: fill.Price,
		MarginReleased: &released,
		Profit:         &profit,
		Commission:     commission,
		NetProfit:      &netProfit,
		OpenedAt:       &openedAt,
		Timestamp:      ts,
	}
}

// openOrResize opens a position from flat or moves an open one to a new
// signed size. Margin is recomputed for the full target size; commission
// is charged only on the traded delta.
func (l *Ledger) openOrResize(ticker string, pos *Position, req UpdateRequest, diff int64) (TradeRecord, Result) {
	dir := execution.Sell
	if req.TargetLots < 0 {
		dir = execution.Buy
	}

	fill := l.fill(ticker, req.Price, req.TargetLots, dir, req.ATR, req.TickSize)

	marginPerLot := fill.Price.Mul(decimal.NewFromFloat(0.1))
	if req.MarginPerLot != nil && req.MarginPerLot.IsPositive() {
		marginPerLot = *req.MarginPerLot
	}
	requiredMargin := marginPerLot.Mul(decimal.NewFromInt(abs64(req.TargetLots)))

	available := l.balance.Sub(l.usedMargin)
	if requiredMargin.GreaterThan(available) {
		reason := "insufficient funds: required margin " + requiredMargin.StringFixed(2) +
			", available " + available.StringFixed(2)
		l.log.Warn().Str("ticker", ticker).Str("reason", reason).Msg("open rejected")
		return TradeRecord{}, rejected(reason)
	}

	commission := fill.Price.Mul(decimal.NewFromInt(abs64(diff))).Abs().Mul(l.cfg.CommissionRate)

	var oldMargin decimal.Decimal
	if pos != nil {
		oldMargin = pos.Margin
	}
	marginDiff := requiredMargin.Sub(oldMargin)

	l.balance = l.balance.Sub(marginDiff).Sub(commission)
	l.usedMargin = l.usedMargin.Add(marginDiff)
	l.totalCommission = l.totalCommission.Add(commission)

	tradeID := l.nextTradeID
	openedAt := l.now()
	accumulated := commission
	if pos != nil {
		tradeID = pos.TradeID
		openedAt = pos.OpenedAt
		accumulated = pos.AccumulatedCommission.Add(commission)
	} else {
		l.nextTradeID++
	}

	side, lots := SideFromLots(req.TargetLots)
	l.positions[ticker] = &Position{
		Side:                  side,
		Lots:                  lots,
		AvgPrice:              fill.Price,
		StopLoss:              req.StopLoss,
		TakeProfit:            req.TakeProfit,
		Margin:                requiredMargin,
		TradeID:               tradeID,
		OpenedAt:              openedAt,
		AccumulatedCommission: accumulated,
	}

	ts := l.now()
	l.log.Info().
		Str("ticker", ticker).
		Int64("target_lots", req.TargetLots).
		Str("execution_price", fill.Price.String()).
		Str("margin_reserved", requiredMargin.String()).
		Msg("position updated")

	return TradeRecord{
		TradeID:        tradeID,
		Ticker:         ticker,
		Action:         ActionUpdate,
		Lots:           req.TargetLots,
		ExpectedPrice:  req.Price,
		ExecutionPrice: fill.Price,
		StopLoss:       req.StopLoss,
		TakeProfit:     req.TakeProfit,
		MarginReserved: &requiredMargin,
		Commission:     commission,
		Timestamp:      ts,
	}, Result{Applied: true}
}

// fill prices a trade through the cost model and accumulates the lifetime
// spread and slippage counters.
func (l *Ledger) fill(ticker string, mid decimal.Decimal, lots int64, dir execution.Direction, atr float64, tickSize decimal.Decimal) execution.Fill {
	avgATR := l.averageATR(ticker)
	f := l.costs.Price(mid, lots, dir, atr, avgATR, tickSize)
	l.totalSpread = l.totalSpread.Add(f.SpreadCost)
	l.totalSlippage = l.totalSlippage.Add(f.SlippageCost)
	return f
}

func (l *Ledger) recordATR(ticker string, atr float64) {
	hist := append(l.atrHistory[ticker], atr)
	if len(hist) > l.cfg.ATRHistoryCap {
		hist = hist[len(hist)-l.cfg.ATRHistoryCap:]
	}
	l.atrHistory[ticker] = hist
}

func (l *Ledger) averageATR(ticker string) float64 {
	hist := l.atrHistory[ticker]
	if len(hist) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range hist {
		sum += v
	}
	return sum / float64(len(hist))
}

// CheckStops reports whether the current price triggers the stop-loss or
// take-profit of an open position.
func (l *Ledger) CheckStops(ticker string, price decimal.Decimal) ExitTrigger {
	pos := l.positions[ticker]
	if pos == nil {
		return TriggerNone
	}
	return pos.CheckStops(price)
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() decimal.Decimal { return l.balance }

// UsedMargin returns the aggregate reserved margin.
func (l *Ledger) UsedMargin() decimal.Decimal { return l.usedMargin }

// Position returns a copy of the open position for a ticker, if any.
func (l *Ledger) Position(ticker string) (Position, bool) {
	pos := l.positions[ticker]
	if pos == nil {
		return Position{}, false
	}
	return *pos, true
}

// OpenPositions returns the number of open positions.
func (l *Ledger) OpenPositions() int { return len(l.positions) }

// History returns the trade log. The slice is shared; callers must not
// modify it.
func (l *Ledger) History() []TradeRecord { return l.history }

// BalanceHistory returns one balance per full close, oldest first.
func (l *Ledger) BalanceHistory() []decimal.Decimal { return l.balanceHistory }

// InitialBalance returns the immutable baseline for return computation.
func (l *Ledger) InitialBalance() decimal.Decimal { return l.initial }

func (l *Ledger) journalTrade(rec TradeRecord) {
	if l.sink == nil {
		return
	}
	if err := l.sink.RecordTrade(rec); err != nil {
		l.log.Error().Err(err).Msg("journal trade failed")
	}
}

func (l *Ledger) journalBalance() {
	if l.sink == nil {
		return
	}
	if err := l.sink.RecordBalance(l.now(), l.balance); err != nil {
		l.log.Error().Err(err).Msg("journal balance failed")
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
