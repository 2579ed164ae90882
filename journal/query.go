package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/papersim/trader/ledger"
)

// GetTrade returns the close record for a trade ID, or the latest update
// record when the trade is still open.
func (j *SQLite) GetTrade(tradeID int64) (ledger.TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, ticker, action, lots, expected_price, execution_price,
		       stop_loss, take_profit, margin_reserved, margin_released,
		       profit, commission, net_profit, opened_at, timestamp
		FROM trades
		WHERE trade_id = ?
		ORDER BY timestamp DESC
		LIMIT 1`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return ledger.TradeRecord{}, fmt.Errorf("trade %d not found", tradeID)
	}
	return rec, err
}

// ListTradesBetween returns records with timestamp in [start, end),
// oldest first.
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]ledger.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, ticker, action, lots, expected_price, execution_price,
		       stop_loss, take_profit, margin_reserved, margin_released,
		       profit, commission, net_profit, opened_at, timestamp
		FROM trades
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBalanceBetween returns balance points with time in [start, end),
// oldest first.
func (j *SQLite) ListBalanceBetween(start, end time.Time) ([]decimal.Decimal, error) {
	rows, err := j.db.Query(`
		SELECT balance
		FROM balance
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []decimal.Decimal
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		b, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (ledger.TradeRecord, error) {
	var rec ledger.TradeRecord
	var expected, execution, commission string
	var stopLoss, takeProfit, marginReserved, marginReleased, profit, netProfit sql.NullString
	var openedAt sql.NullTime

	if err := row.Scan(
		&rec.TradeID,
		&rec.Ticker,
		&rec.Action,
		&rec.Lots,
		&expected,
		&execution,
		&stopLoss,
		&takeProfit,
		&marginReserved,
		&marginReleased,
		&profit,
		&commission,
		&netProfit,
		&openedAt,
		&rec.Timestamp,
	); err != nil {
		return ledger.TradeRecord{}, err
	}

	var err error
	if rec.ExpectedPrice, err = decimal.NewFromString(expected); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.ExecutionPrice, err = decimal.NewFromString(execution); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.Commission, err = decimal.NewFromString(commission); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.StopLoss, err = nullDec(stopLoss); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.TakeProfit, err = nullDec(takeProfit); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.MarginReserved, err = nullDec(marginReserved); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.MarginReleased, err = nullDec(marginReleased); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.Profit, err = nullDec(profit); err != nil {
		return ledger.TradeRecord{}, err
	}
	if rec.NetProfit, err = nullDec(netProfit); err != nil {
		return ledger.TradeRecord{}, err
	}
	if openedAt.Valid {
		t := openedAt.Time
		rec.OpenedAt = &t
	}
	return rec, nil
}

func nullDec(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
