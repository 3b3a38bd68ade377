// Package ledger records the trade events of one ticker's simulation.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// Summary is derived from the sells of a finalized ledger.
type Summary struct {
	TotalProfitOrLoss decimal.Decimal
	// Buys is the number of positions opened.
	Buys   int
	Wins   int
	Losses int
}

// Ledger is an append-only, order-preserving list of trade events for one ticker.
type Ledger struct {
	ticker    string
	events    []types.TradeEvent
	finalized bool
	summary   Summary
}

// New creates an empty ledger for ticker.
func New(ticker string) *Ledger {
	return &Ledger{
		ticker:    ticker,
		events:    []types.TradeEvent{},
		finalized: false,
		summary:   Summary{TotalProfitOrLoss: decimal.Zero},
	}
}

// Ticker returns the ticker the ledger belongs to.
func (l *Ledger) Ticker() string {
	return l.ticker
}

// Append adds an event at the end. Events of other tickers and appends after
// Finalize are rejected.
func (l *Ledger) Append(event types.TradeEvent) error {
	if l.finalized {
		return errors.Newf(errors.ErrCodeLedgerFinalized, "ledger for %s is finalized", l.ticker)
	}

	if event.Ticker != l.ticker {
		return errors.Newf(errors.ErrCodeLedgerTicker, "event for %s appended to ledger of %s", event.Ticker, l.ticker)
	}

	l.events = append(l.events, event)

	return nil
}

// Finalize computes the summary and freezes the ledger. Calling it again returns
// the same summary.
func (l *Ledger) Finalize() Summary {
	if l.finalized {
		return l.summary
	}

	summary := Summary{TotalProfitOrLoss: decimal.Zero}

	for _, event := range l.events {
		switch event.Action {
		case types.ActionBuy:
			summary.Buys++
		case types.ActionSell:
			summary.TotalProfitOrLoss = summary.TotalProfitOrLoss.Add(event.ProfitOrLoss)
			if event.ProfitOrLoss.IsPositive() {
				summary.Wins++
			} else {
				summary.Losses++
			}
		case types.ActionHold:
		}
	}

	l.summary = summary
	l.finalized = true

	return summary
}

// IsFinalized reports whether Finalize has been called.
func (l *Ledger) IsFinalized() bool {
	return l.finalized
}

// Events returns a copy of the events in append order.
func (l *Ledger) Events() []types.TradeEvent {
	return append([]types.TradeEvent{}, l.events...)
}

// Len returns the number of events.
func (l *Ledger) Len() int {
	return len(l.events)
}

// Buys returns the buy events in order.
func (l *Ledger) Buys() []types.TradeEvent {
	return l.filter(types.ActionBuy)
}

// Sells returns the sell events in order.
func (l *Ledger) Sells() []types.TradeEvent {
	return l.filter(types.ActionSell)
}

func (l *Ledger) filter(action types.Action) []types.TradeEvent {
	out := []types.TradeEvent{}

	for _, event := range l.events {
		if event.Action == action {
			out = append(out, event)
		}
	}

	return out
}
