package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/papersim/trader/ledger"
)

type CSVJournal struct {
	trades  *csv.Writer
	balance *csv.Writer
	tf, bf  *os.File
}

func NewCSV(tradesPath, balancePath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	bf, err := os.Create(balancePath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	bw := csv.NewWriter(bf)

	if err := tw.Write([]string{"trade_id", "ticker", "action", "lots", "expected_price", "execution_price", "stop_loss", "take_profit", "profit", "commission", "net_profit", "opened_at", "timestamp"}); err != nil {
		return nil, err
	}
	if err := bw.Write([]string{"time", "balance"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	bw.Flush()
	if err := bw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, bw, tf, bf}, nil
}

func (j *CSVJournal) RecordTrade(rec ledger.TradeRecord) error {
	opened := ""
	if rec.OpenedAt != nil {
		opened = rec.OpenedAt.Format(time.RFC3339)
	}
	j.trades.Write([]string{
		strconv.FormatInt(rec.TradeID, 10),
		rec.Ticker,
		rec.Action,
		strconv.FormatInt(rec.Lots, 10),
		rec.ExpectedPrice.String(),
		rec.ExecutionPrice.String(),
		optDec(rec.StopLoss),
		optDec(rec.TakeProfit),
		optDec(rec.Profit),
		rec.Commission.String(),
		optDec(rec.NetProfit),
		opened,
		rec.Timestamp.Format(time.RFC3339),
	})
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordBalance(t time.Time, balance decimal.Decimal) error {
	if err := j.balance.Write([]string{t.Format(time.RFC3339), balance.String()}); err != nil {
		return err
	}
	j.balance.Flush()
	return j.balance.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.balance.Flush()
	if err := j.balance.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.bf.Close(); err != nil {
		return err
	}
	return nil
}

func optDec(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
