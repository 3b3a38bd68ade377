// Package simulator walks a price series once, applying the decision policy to a
// single-position portfolio and recording every trade in a ledger.
package simulator

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-swing/internal/extrema"
	"github.com/rxtech-lab/argo-swing/internal/ledger"
	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/policy"
	"github.com/rxtech-lab/argo-swing/internal/types"
)

// Day is the trace of one processed day.
type Day struct {
	Index    int                 `json:"index"`
	Point    types.PricePoint    `json:"point"`
	Label    types.ExtremumLabel `json:"label"`
	Decision policy.Decision     `json:"decision"`
	// State is the portfolio after the decision was applied.
	State types.PortfolioState `json:"-"`
}

// OnDecisionCallback is invoked after every processed day.
type OnDecisionCallback func(day Day)

// Walk is the full trace of a simulation.
type Walk struct {
	Days   []Day
	Ledger *ledger.Ledger
	Final  types.PortfolioState
}

// Simulator runs the policy over one ticker's series.
type Simulator struct {
	policy     *policy.Policy
	log        *logger.Logger
	onDecision *OnDecisionCallback
}

// New creates a simulator. random must be owned by this simulator alone.
func New(config policy.Config, random policy.RandomSource, log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Simulator{
		policy:     policy.New(config, random),
		log:        log,
		onDecision: nil,
	}
}

// SetOnDecision registers a callback receiving every day's decision.
func (s *Simulator) SetOnDecision(callback OnDecisionCallback) {
	s.onDecision = &callback
}

// Run simulates series starting with startingCash and returns the finalized result.
// A series shorter than three points yields an empty ledger and unchanged cash.
func (s *Simulator) Run(series types.PriceSeries, startingCash decimal.Decimal) types.SimulationResult {
	walk := s.Walk(series, startingCash)
	summary := walk.Ledger.Finalize()

	result := types.SimulationResult{
		RunID:             uuid.New().String(),
		Ticker:            series.Ticker,
		StartingCash:      startingCash,
		EndingCash:        walk.Final.Cash,
		TotalProfitOrLoss: summary.TotalProfitOrLoss,
		TradeCount:        summary.Buys,
		Wins:              summary.Wins,
		Losses:            summary.Losses,
		Ledger:            walk.Ledger.Events(),
	}

	s.log.Info("Simulation finished",
		zap.String("ticker", result.Ticker),
		zap.Int("days", series.Len()),
		zap.Int("trades", result.TradeCount),
		zap.String("ending_cash", result.EndingCash.StringFixed(2)),
		zap.String("profit_or_loss", result.TotalProfitOrLoss.StringFixed(2)),
	)

	return result
}

// Walk processes every day of series in order and returns the trace.
// Series shorter than three points are walked with every day labelled None.
func (s *Simulator) Walk(series types.PriceSeries, startingCash decimal.Decimal) Walk {
	labels := extrema.DetectSeries(series)
	book := ledger.New(series.Ticker)
	state := types.NewPortfolioState(startingCash)
	days := make([]Day, 0, series.Len())

	for i, point := range series.Points {
		// too short to label: every day is None
		label := types.ExtremumNone
		if i < len(labels) {
			label = labels[i]
		}

		price := decimal.NewFromFloat(point.Close)

		decision := s.policy.Decide(policy.Input{
			Label:     label,
			State:     state,
			Price:     price,
			IsLastDay: i == series.Len()-1,
		})

		var event optional.Option[types.TradeEvent]
		state, event = Apply(series.Ticker, state, decision, point.Date, price)

		if event.IsSome() {
			trade := event.Unwrap()
			// the ledger is fresh and owned by this walk, so appends cannot fail
			_ = book.Append(trade)

			s.log.Debug("Trade executed",
				zap.String("ticker", series.Ticker),
				zap.String("date", point.Date.Format(types.DateLayout)),
				zap.String("action", string(trade.Action)),
				zap.Int64("shares", trade.Shares),
				zap.String("price", trade.Price.String()),
				zap.String("reason", string(trade.Reason)),
			)
		}

		day := Day{
			Index:    i,
			Point:    point,
			Label:    label,
			Decision: decision,
			State:    state,
		}
		days = append(days, day)

		if s.onDecision != nil {
			(*s.onDecision)(day)
		}
	}

	return Walk{
		Days:   days,
		Ledger: book,
		Final:  state,
	}
}

// Apply executes decision against state at price on date, returning the new state
// and the trade event if one happened. Holds leave the state untouched.
func Apply(ticker string, state types.PortfolioState, decision policy.Decision, date time.Time, price decimal.Decimal) (types.PortfolioState, optional.Option[types.TradeEvent]) {
	switch decision.Action {
	case types.ActionBuy:
		if !state.IsFlat() || decision.Quantity < 1 {
			return state, optional.None[types.TradeEvent]()
		}

		cost := price.Mul(decimal.NewFromInt(decision.Quantity))
		state.Cash = state.Cash.Sub(cost)
		state.Shares = decision.Quantity
		state.BuyPrice = price
		state.LastBuyDate = optional.Some(date)

		return state, optional.Some(types.NewBuyEvent(ticker, date, price, decision.Quantity, state.Cash))

	case types.ActionSell:
		if state.IsFlat() {
			return state, optional.None[types.TradeEvent]()
		}

		shares := decimal.NewFromInt(state.Shares)
		profit := shares.Mul(price.Sub(state.BuyPrice))
		sold := state.Shares

		state.Cash = state.Cash.Add(shares.Mul(price))
		state.Shares = 0
		state.BuyPrice = decimal.Zero
		state.LastBuyDate = optional.None[time.Time]()

		return state, optional.Some(types.NewSellEvent(ticker, date, price, sold, state.Cash, profit, decision.Reason))

	default:
		return state, optional.None[types.TradeEvent]()
	}
}
