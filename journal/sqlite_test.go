package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersim/trader/ledger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func openRecord(tradeID int64, at time.Time) ledger.TradeRecord {
	return ledger.TradeRecord{
		TradeID:        tradeID,
		Ticker:         "SiH5",
		Action:         "open",
		Lots:           -2,
		ExpectedPrice:  dec("100"),
		ExecutionPrice: dec("100.15"),
		StopLoss:       decPtr("95"),
		TakeProfit:     decPtr("110"),
		MarginReserved: decPtr("20.1"),
		Commission:     dec("0.1"),
		OpenedAt:       &at,
		Timestamp:      at,
	}
}

func TestSQLite_TradeRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	opened := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(openRecord(1, opened)))

	got, err := j.GetTrade(1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.TradeID)
	assert.Equal(t, "SiH5", got.Ticker)
	assert.Equal(t, "open", got.Action)
	assert.Equal(t, int64(-2), got.Lots)
	assert.True(t, got.ExpectedPrice.Equal(dec("100")))
	assert.True(t, got.ExecutionPrice.Equal(dec("100.15")))
	require.NotNil(t, got.StopLoss)
	assert.True(t, got.StopLoss.Equal(dec("95")))
	require.NotNil(t, got.MarginReserved)
	assert.True(t, got.MarginReserved.Equal(dec("20.1")))
	assert.Nil(t, got.Profit)
	assert.Nil(t, got.NetProfit)
	require.NotNil(t, got.OpenedAt)
	assert.True(t, got.OpenedAt.Equal(opened))
}

func TestSQLite_GetTradeReturnsLatest(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	opened := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(openRecord(1, opened)))

	closeRec := ledger.TradeRecord{
		TradeID:        1,
		Ticker:         "SiH5",
		Action:         "close",
		Lots:           0,
		ExpectedPrice:  dec("110"),
		ExecutionPrice: dec("110"),
		MarginReleased: decPtr("20.1"),
		Profit:         decPtr("-20"),
		Commission:     dec("0.11"),
		NetProfit:      decPtr("-20.11"),
		OpenedAt:       &opened,
		Timestamp:      opened.Add(time.Hour),
	}
	require.NoError(t, j.RecordTrade(closeRec))

	got, err := j.GetTrade(1)
	require.NoError(t, err)
	assert.Equal(t, "close", got.Action)
	require.NotNil(t, got.NetProfit)
	assert.True(t, got.NetProfit.Equal(dec("-20.11")))
	assert.Nil(t, got.StopLoss)
}

func TestSQLite_GetTradeMissing(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	_, err := j.GetTrade(42)
	assert.Error(t, err)
}

func TestSQLite_ListTradesBetween(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, j.RecordTrade(openRecord(i, base.Add(time.Duration(i)*time.Hour))))
	}

	// half-open window picks up trades 1 and 2 only
	got, err := j.ListTradesBetween(base, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].TradeID)
	assert.Equal(t, int64(2), got[1].TradeID)
}

func TestSQLite_BalanceRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordBalance(base, dec("200000")))
	require.NoError(t, j.RecordBalance(base.Add(time.Hour), dec("199979.79")))
	require.NoError(t, j.RecordBalance(base.Add(48*time.Hour), dec("210000")))

	got, err := j.ListBalanceBetween(base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(dec("200000")))
	assert.True(t, got[1].Equal(dec("199979.79")))
}
