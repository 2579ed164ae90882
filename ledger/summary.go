package ledger

import "github.com/shopspring/decimal"

// PositionDetail is one open position valued against a current price.
type PositionDetail struct {
	Ticker        string
	Lots          int64 // wire convention, negative = long
	Side          Side
	EntryPrice    decimal.Decimal
	CurrentPrice  decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Margin        decimal.Decimal
	TradeID       int64
}

// PortfolioSummary is the reporting view consumed by the dashboard.
type PortfolioSummary struct {
	Balance           decimal.Decimal
	InitialBalance    decimal.Decimal
	UsedMargin        decimal.Decimal
	FreeBalance       decimal.Decimal
	UnrealizedPnL     decimal.Decimal
	TotalValue        decimal.Decimal
	TotalCommission   decimal.Decimal
	TotalSlippageCost decimal.Decimal
	TotalSpreadCost   decimal.Decimal
	Positions         []PositionDetail
}

// Summary values the portfolio against current prices. A ticker missing
// from the map is valued at its entry price. It also advances the risk
// governor's peak-balance watermark.
func (l *Ledger) Summary(currentPrices map[string]decimal.Decimal) PortfolioSummary {
	unrealized := decimal.Zero
	details := make([]PositionDetail, 0, len(l.positions))

	for ticker, pos := range l.positions {
		price, ok := currentPrices[ticker]
		if !ok {
			price = pos.AvgPrice
		}

		pnl := pos.UnrealizedPnL(price)
		unrealized = unrealized.Add(pnl)

		details = append(details, PositionDetail{
			Ticker:        ticker,
			Lots:          pos.SignedLots(),
			Side:          pos.Side,
			EntryPrice:    pos.AvgPrice,
			CurrentPrice:  price,
			UnrealizedPnL: pnl,
			Margin:        pos.Margin,
			TradeID:       pos.TradeID,
		})
	}

	if l.gov != nil {
		l.gov.UpdatePeakBalance(l.balance)
	}

	return PortfolioSummary{
		Balance:           l.balance,
		InitialBalance:    l.initial,
		UsedMargin:        l.usedMargin,
		FreeBalance:       l.balance.Sub(l.usedMargin),
		UnrealizedPnL:     unrealized,
		TotalValue:        l.balance.Add(unrealized),
		TotalCommission:   l.totalCommission,
		TotalSlippageCost: l.totalSlippage,
		TotalSpreadCost:   l.totalSpread,
		Positions:         details,
	}
}
