package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportDecimalPlaces is the rounding applied to monetary values when they are presented.
const ReportDecimalPlaces int32 = 3

// Action is what the decision policy chose to do on a day.
type Action string

const (
	ActionHold Action = "HOLD"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Label returns the capitalized form used in ledger files ("Buy", "Sell", "Hold").
func (a Action) Label() string {
	switch a {
	case ActionBuy:
		return "Buy"
	case ActionSell:
		return "Sell"
	default:
		return "Hold"
	}
}

// SellReason records which sell condition closed a position.
type SellReason string

const (
	SellReasonNone     SellReason = ""
	SellReasonMaximum  SellReason = "maximum"
	SellReasonStopLoss SellReason = "stop_loss"
	SellReasonLastDay  SellReason = "last_day"
)

// TradeEvent is one executed Buy or Sell.
//
// For buys Shares is the quantity acquired and ProfitOrLoss is zero.
// For sells Shares is the quantity sold and Reason is set.
type TradeEvent struct {
	Ticker       string          `yaml:"ticker" json:"ticker"`
	Date         time.Time       `yaml:"date" json:"date"`
	Action       Action          `yaml:"action" json:"action"`
	Price        decimal.Decimal `yaml:"price" json:"price"`
	Shares       int64           `yaml:"shares" json:"shares"`
	CashAfter    decimal.Decimal `yaml:"cash_after" json:"cash_after"`
	ProfitOrLoss decimal.Decimal `yaml:"profit_or_loss" json:"profit_or_loss"`
	Reason       SellReason      `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// NewBuyEvent creates a Buy event.
func NewBuyEvent(ticker string, date time.Time, price decimal.Decimal, sharesAcquired int64, cashAfter decimal.Decimal) TradeEvent {
	return TradeEvent{
		Ticker:       ticker,
		Date:         date,
		Action:       ActionBuy,
		Price:        price,
		Shares:       sharesAcquired,
		CashAfter:    cashAfter,
		ProfitOrLoss: decimal.Zero,
		Reason:       SellReasonNone,
	}
}

// NewSellEvent creates a Sell event.
func NewSellEvent(ticker string, date time.Time, price decimal.Decimal, sharesSold int64, cashAfter decimal.Decimal, profitOrLoss decimal.Decimal, reason SellReason) TradeEvent {
	return TradeEvent{
		Ticker:       ticker,
		Date:         date,
		Action:       ActionSell,
		Price:        price,
		Shares:       sharesSold,
		CashAfter:    cashAfter,
		ProfitOrLoss: profitOrLoss,
		Reason:       reason,
	}
}

func (e TradeEvent) IsBuy() bool {
	return e.Action == ActionBuy
}

func (e TradeEvent) IsSell() bool {
	return e.Action == ActionSell
}

// Rounded returns a copy with monetary fields rounded to ReportDecimalPlaces.
func (e TradeEvent) Rounded() TradeEvent {
	e.Price = e.Price.Round(ReportDecimalPlaces)
	e.CashAfter = e.CashAfter.Round(ReportDecimalPlaces)
	e.ProfitOrLoss = e.ProfitOrLoss.Round(ReportDecimalPlaces)

	return e
}
