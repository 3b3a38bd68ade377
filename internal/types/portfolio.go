package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// PortfolioState is the cash and single open position of one ticker's simulation.
// When Shares > 0, BuyPrice is the price paid on LastBuyDate.
type PortfolioState struct {
	Cash        decimal.Decimal
	Shares      int64
	BuyPrice    decimal.Decimal
	LastBuyDate optional.Option[time.Time]
}

// NewPortfolioState returns a flat portfolio holding only cash.
func NewPortfolioState(cash decimal.Decimal) PortfolioState {
	return PortfolioState{
		Cash:        cash,
		Shares:      0,
		BuyPrice:    decimal.Zero,
		LastBuyDate: optional.None[time.Time](),
	}
}

// IsFlat reports whether no position is open.
func (p PortfolioState) IsFlat() bool {
	return p.Shares == 0
}

// MarketValue is the cash plus the open position valued at price.
func (p PortfolioState) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Cash.Add(price.Mul(decimal.NewFromInt(p.Shares)))
}
