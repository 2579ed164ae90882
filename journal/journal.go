// Package journal persists accepted ledger mutations out of band. The JSON
// snapshot stays the source of truth; the journal exists for analysis and
// reporting, so its failures are logged upstream rather than surfaced.
package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/papersim/trader/ledger"
)

// Journal is a closable trade/balance sink.
type Journal interface {
	ledger.Sink
	Close() error
}

// Multi fans records out to several journals, returning the first error.
type Multi []Journal

func (m Multi) RecordTrade(rec ledger.TradeRecord) error {
	for _, j := range m {
		if err := j.RecordTrade(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordBalance(t time.Time, balance decimal.Decimal) error {
	for _, j := range m {
		if err := j.RecordBalance(t, balance); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, j := range m {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
