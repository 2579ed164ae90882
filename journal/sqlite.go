package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/papersim/trader/ledger"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(rec ledger.TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, ticker, action, lots, expected_price, execution_price,
		 stop_loss, take_profit, margin_reserved, margin_released,
		 profit, commission, net_profit, opened_at, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TradeID, rec.Ticker, rec.Action, rec.Lots,
		rec.ExpectedPrice.String(), rec.ExecutionPrice.String(),
		decStr(rec.StopLoss), decStr(rec.TakeProfit),
		decStr(rec.MarginReserved), decStr(rec.MarginReleased),
		decStr(rec.Profit), rec.Commission.String(), decStr(rec.NetProfit),
		rec.OpenedAt, rec.Timestamp,
	)
	return err
}

func (j *SQLite) RecordBalance(t time.Time, balance decimal.Decimal) error {
	_, err := j.db.Exec(`INSERT INTO balance (time, balance) VALUES (?, ?)`,
		t, balance.String())
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func decStr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
