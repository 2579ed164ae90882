package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSV_WritesHeaderAndRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	balancePath := filepath.Join(dir, "balance.csv")

	j, err := NewCSV(tradesPath, balancePath)
	require.NoError(t, err)

	opened := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(openRecord(1, opened)))
	require.NoError(t, j.RecordBalance(opened, dec("199979.9")))
	require.NoError(t, j.Close())

	trades := readAll(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade_id", trades[0][0])
	assert.Equal(t, []string{
		"1", "SiH5", "open", "-2", "100", "100.15",
		"95", "110", "", "0.1", "",
		opened.Format(time.RFC3339), opened.Format(time.RFC3339),
	}, trades[1])

	balance := readAll(t, balancePath)
	require.Len(t, balance, 2)
	assert.Equal(t, []string{opened.Format(time.RFC3339), "199979.9"}, balance[1])
}
