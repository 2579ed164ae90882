package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// snapshot is the persisted wire format. Every monetary field is a decimal
// string; binary floating point never touches the file. Position lots keep
// the source sign convention (negative = long).
type snapshot struct {
	Balance         string                      `json:"balance"`
	InitialBalance  string                      `json:"initial_balance"`
	Positions       map[string]snapshotPosition `json:"positions"`
	History         []TradeRecord               `json:"history"`
	UsedMargin      string                      `json:"used_margin"`
	TotalCommission string                      `json:"total_commission"`
	TotalSlippage   string                      `json:"total_slippage_cost"`
	TotalSpread     string                      `json:"total_spread_cost"`
	NextTradeID     int64                       `json:"next_trade_id"`
	BalanceHistory  []string                    `json:"balance_history"`
	ATRHistory      map[string][]float64        `json:"atr_history"`
}

type snapshotPosition struct {
	Lots                  int64     `json:"lots"`
	AvgPrice              string    `json:"avg_price"`
	StopLoss              *string   `json:"stop_loss"`
	TakeProfit            *string   `json:"take_profit"`
	Margin                string    `json:"margin"`
	TradeID               int64     `json:"trade_id"`
	OpenedAt              time.Time `json:"opened_at"`
	AccumulatedCommission string    `json:"accumulated_commission"`
}

// persist writes the full ledger state through to disk. The write is
// atomic (temp file + rename) so a crash never leaves a torn snapshot.
func (l *Ledger) persist() {
	snap := snapshot{
		Balance:         l.balance.String(),
		InitialBalance:  l.initial.String(),
		Positions:       make(map[string]snapshotPosition, len(l.positions)),
		History:         l.history,
		UsedMargin:      l.usedMargin.String(),
		TotalCommission: l.totalCommission.String(),
		TotalSlippage:   l.totalSlippage.String(),
		TotalSpread:     l.totalSpread.String(),
		NextTradeID:     l.nextTradeID,
		BalanceHistory:  make([]string, 0, len(l.balanceHistory)),
		ATRHistory:      l.atrHistory,
	}

	for ticker, pos := range l.positions {
		snap.Positions[ticker] = snapshotPosition{
			Lots:                  pos.SignedLots(),
			AvgPrice:              pos.AvgPrice.String(),
			StopLoss:              decimalPtrToString(pos.StopLoss),
			TakeProfit:            decimalPtrToString(pos.TakeProfit),
			Margin:                pos.Margin.String(),
			TradeID:               pos.TradeID,
			OpenedAt:              pos.OpenedAt,
			AccumulatedCommission: pos.AccumulatedCommission.String(),
		}
	}
	for _, b := range l.balanceHistory {
		snap.BalanceHistory = append(snap.BalanceHistory, b.String())
	}

	if err := writeSnapshotFile(l.cfg.SnapshotPath, snap); err != nil {
		l.log.Error().Err(err).Str("path", l.cfg.SnapshotPath).Msg("snapshot write failed")
	}
}

func writeSnapshotFile(path string, snap snapshot) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// load restores state from the snapshot file. A missing file initializes a
// fresh ledger and writes it; a corrupt one is logged and replaced,
// favoring availability over preserving unreadable state.
func (l *Ledger) load() {
	if l.cfg.SnapshotPath == "" {
		return
	}

	data, err := os.ReadFile(l.cfg.SnapshotPath)
	if os.IsNotExist(err) {
		l.log.Info().Str("path", l.cfg.SnapshotPath).Msg("no snapshot found, starting fresh ledger")
		l.persist()
		return
	}
	if err != nil {
		l.log.Error().Err(err).Msg("snapshot read failed, starting fresh ledger")
		l.persist()
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		l.log.Error().Err(err).Msg("snapshot corrupt, starting fresh ledger")
		l.reset()
		l.persist()
		return
	}

	if err := l.restore(snap); err != nil {
		l.log.Error().Err(err).Msg("snapshot invalid, starting fresh ledger")
		l.reset()
		l.persist()
		return
	}
}

func (l *Ledger) restore(snap snapshot) error {
	balance, err := decimal.NewFromString(snap.Balance)
	if err != nil {
		return fmt.Errorf("parse balance: %w", err)
	}
	initial, err := decimal.NewFromString(snap.InitialBalance)
	if err != nil {
		return fmt.Errorf("parse initial balance: %w", err)
	}
	usedMargin, err := decimal.NewFromString(snap.UsedMargin)
	if err != nil {
		return fmt.Errorf("parse used margin: %w", err)
	}
	totalCommission, err := decimal.NewFromString(snap.TotalCommission)
	if err != nil {
		return fmt.Errorf("parse total commission: %w", err)
	}
	totalSlippage, err := decimal.NewFromString(snap.TotalSlippage)
	if err != nil {
		return fmt.Errorf("parse total slippage cost: %w", err)
	}
	totalSpread, err := decimal.NewFromString(snap.TotalSpread)
	if err != nil {
		return fmt.Errorf("parse total spread cost: %w", err)
	}

	positions := make(map[string]*Position, len(snap.Positions))
	for ticker, sp := range snap.Positions {
		avgPrice, err := decimal.NewFromString(sp.AvgPrice)
		if err != nil {
			return fmt.Errorf("position %s: parse avg price: %w", ticker, err)
		}
		margin, err := decimal.NewFromString(sp.Margin)
		if err != nil {
			return fmt.Errorf("position %s: parse margin: %w", ticker, err)
		}
		accumulated, err := decimal.NewFromString(sp.AccumulatedCommission)
		if err != nil {
			return fmt.Errorf("position %s: parse accumulated commission: %w", ticker, err)
		}
		stopLoss, err := stringPtrToDecimal(sp.StopLoss)
		if err != nil {
			return fmt.Errorf("position %s: parse stop loss: %w", ticker, err)
		}
		takeProfit, err := stringPtrToDecimal(sp.TakeProfit)
		if err != nil {
			return fmt.Errorf("position %s: parse take profit: %w", ticker, err)
		}

		side, lots := SideFromLots(sp.Lots)
		if lots == 0 {
			// a flat entry should never have been persisted
			continue
		}
		positions[ticker] = &Position{
			Side:                  side,
			Lots:                  lots,
			AvgPrice:              avgPrice,
			StopLoss:              stopLoss,
			TakeProfit:            takeProfit,
			Margin:                margin,
			TradeID:               sp.TradeID,
			OpenedAt:              sp.OpenedAt,
			AccumulatedCommission: accumulated,
		}
	}

	balanceHistory := make([]decimal.Decimal, 0, len(snap.BalanceHistory))
	for i, s := range snap.BalanceHistory {
		b, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("parse balance history entry %d: %w", i, err)
		}
		balanceHistory = append(balanceHistory, b)
	}

	l.balance = balance
	l.initial = initial
	l.positions = positions
	l.history = snap.History
	l.usedMargin = usedMargin
	l.totalCommission = totalCommission
	l.totalSlippage = totalSlippage
	l.totalSpread = totalSpread
	l.nextTradeID = snap.NextTradeID
	if l.nextTradeID < 1 {
		l.nextTradeID = 1
	}
	l.balanceHistory = balanceHistory
	l.atrHistory = snap.ATRHistory
	if l.atrHistory == nil {
		l.atrHistory = make(map[string][]float64)
	}

	l.log.Info().
		Str("balance", l.balance.String()).
		Int("positions", len(l.positions)).
		Msg("ledger restored from snapshot")
	return nil
}

func decimalPtrToString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func stringPtrToDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
