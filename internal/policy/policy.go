// Package policy decides, for one day of a simulation, whether to buy, sell or hold.
package policy

import (
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

const (
	// DefaultStopLossRatio sells once the price falls below 90% of the purchase price.
	DefaultStopLossRatio = 0.90
	// DefaultAcceptanceProbability is the chance an eligible signal is acted on.
	DefaultAcceptanceProbability = 0.70
)

// Config holds the tunable parameters of the policy.
type Config struct {
	StopLossRatio         float64 `yaml:"stop_loss_ratio" json:"stop_loss_ratio" jsonschema:"title=Stop Loss Ratio,description=Sell when the price falls below this fraction of the purchase price,exclusiveMinimum=0,maximum=1,default=0.9" validate:"gt=0,lte=1"`
	AcceptanceProbability float64 `yaml:"acceptance_probability" json:"acceptance_probability" jsonschema:"title=Acceptance Probability,description=Probability that an eligible minimum or maximum signal is acted on,minimum=0,maximum=1,default=0.7" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the stop-loss ratio 0.90 and acceptance probability 0.70.
func DefaultConfig() Config {
	return Config{
		StopLossRatio:         DefaultStopLossRatio,
		AcceptanceProbability: DefaultAcceptanceProbability,
	}
}

// Validate checks that both ratios are within range.
func (c Config) Validate() error {
	if c.StopLossRatio <= 0 || c.StopLossRatio > 1 {
		return errors.Newf(errors.ErrCodeInvalidStopLoss, "stop-loss ratio must be in (0, 1], got %v", c.StopLossRatio)
	}

	if c.AcceptanceProbability < 0 || c.AcceptanceProbability > 1 {
		return errors.Newf(errors.ErrCodeInvalidProbability, "acceptance probability must be in [0, 1], got %v", c.AcceptanceProbability)
	}

	return nil
}

// Input is everything the policy looks at for one day.
type Input struct {
	Label     types.ExtremumLabel
	State     types.PortfolioState
	Price     decimal.Decimal
	IsLastDay bool
}

// Decision is the policy's verdict for one day.
type Decision struct {
	Action types.Action
	// Quantity is the number of shares to buy or sell. Zero for holds.
	Quantity int64
	// Reason is set for sells.
	Reason types.SellReason
}

// Hold is the no-op decision.
func Hold() Decision {
	return Decision{Action: types.ActionHold, Quantity: 0, Reason: types.SellReasonNone}
}

// Policy is the stochastic extrema entry/exit rule with stop-loss and forced liquidation.
type Policy struct {
	config   Config
	random   RandomSource
	stopLoss decimal.Decimal
}

// New creates a policy drawing its randomness from random.
func New(config Config, random RandomSource) *Policy {
	return &Policy{
		config:   config,
		random:   random,
		stopLoss: decimal.NewFromFloat(config.StopLossRatio),
	}
}

// Config returns the policy parameters.
func (p *Policy) Config() Config {
	return p.config
}

// Decide evaluates, in order: buy, sell, hold. Buying needs a flat portfolio and
// selling an open one, so at most one of them can fire.
//
// Draws are taken only when a random gate is actually reached: the buy draw once
// every other buy condition holds, the sell draw on a maximum day while holding
// with no stop-loss.
func (p *Policy) Decide(in Input) Decision {
	if in.State.IsFlat() {
		return p.decideEntry(in)
	}

	return p.decideExit(in)
}

func (p *Policy) decideEntry(in Input) Decision {
	if in.Label != types.ExtremumMinimum {
		return Hold()
	}

	// degenerate prices never open a position
	if !in.Price.IsPositive() || in.State.Cash.LessThan(in.Price) {
		return Hold()
	}

	quantity := in.State.Cash.Div(in.Price).Floor().IntPart()
	if quantity < 1 {
		return Hold()
	}

	if !p.accept() {
		return Hold()
	}

	return Decision{Action: types.ActionBuy, Quantity: quantity, Reason: types.SellReasonNone}
}

func (p *Policy) decideExit(in Input) Decision {
	sell := func(reason types.SellReason) Decision {
		return Decision{Action: types.ActionSell, Quantity: in.State.Shares, Reason: reason}
	}

	if p.StopLossTriggered(in.State, in.Price) {
		return sell(types.SellReasonStopLoss)
	}

	if in.Label == types.ExtremumMaximum && p.accept() {
		return sell(types.SellReasonMaximum)
	}

	if in.IsLastDay {
		return sell(types.SellReasonLastDay)
	}

	return Hold()
}

// StopLossTriggered reports whether price is strictly below buyPrice * stopLossRatio
// for an open position.
func (p *Policy) StopLossTriggered(state types.PortfolioState, price decimal.Decimal) bool {
	if state.IsFlat() {
		return false
	}

	return price.LessThan(state.BuyPrice.Mul(p.stopLoss))
}

func (p *Policy) accept() bool {
	return p.random.Float64() < p.config.AcceptanceProbability
}
