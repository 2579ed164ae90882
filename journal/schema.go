// journal/schema.go
package journal

// Monetary columns are TEXT so decimal values survive the round trip
// without picking up binary floating point error.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	action TEXT NOT NULL,
	lots INTEGER NOT NULL,
	expected_price TEXT NOT NULL,
	execution_price TEXT NOT NULL,
	stop_loss TEXT,
	take_profit TEXT,
	margin_reserved TEXT,
	margin_released TEXT,
	profit TEXT,
	commission TEXT NOT NULL,
	net_profit TEXT,
	opened_at DATETIME,
	timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);

CREATE TABLE IF NOT EXISTS balance (
	time DATETIME NOT NULL,
	balance TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_balance_time ON balance(time);
`
