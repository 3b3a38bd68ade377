package simulator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/policy"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/mocks"
)

type SimulatorTestSuite struct {
	suite.Suite
	logger *logger.Logger
	start  time.Time
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (suite *SimulatorTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *SimulatorTestSuite) newSimulator(draws ...float64) *Simulator {
	return New(policy.DefaultConfig(), policy.NewSequenceSource(draws...), suite.logger)
}

func (suite *SimulatorTestSuite) TestWorkedExample() {
	series := mocks.Series("AAPL", suite.start, 10, 8, 12, 9)

	result := suite.newSimulator(0).Run(series, decimal.NewFromInt(100))

	suite.Require().Len(result.Ledger, 2)

	buy := result.Ledger[0]
	suite.Equal(types.ActionBuy, buy.Action)
	suite.Equal(int64(12), buy.Shares)
	suite.True(buy.Price.Equal(decimal.NewFromInt(8)))
	suite.True(buy.CashAfter.Equal(decimal.NewFromInt(4)))
	suite.Equal(suite.start.AddDate(0, 0, 1), buy.Date)

	sell := result.Ledger[1]
	suite.Equal(types.ActionSell, sell.Action)
	suite.Equal(int64(12), sell.Shares)
	suite.True(sell.ProfitOrLoss.Equal(decimal.NewFromInt(48)))
	suite.True(sell.CashAfter.Equal(decimal.NewFromInt(148)))
	suite.Equal(types.SellReasonMaximum, sell.Reason)

	suite.True(result.TotalProfitOrLoss.Equal(decimal.NewFromInt(48)))
	suite.True(result.EndingCash.Equal(decimal.NewFromInt(148)))
	suite.Equal(1, result.TradeCount)
	suite.Equal(1, result.Wins)
	suite.Equal(0, result.Losses)
	suite.NotEmpty(result.RunID)
}

func (suite *SimulatorTestSuite) TestStopLossBeforeMaximum() {
	// buy at 8, decline the sell at the maximum 9, then 6 breaches the 90% stop
	series := mocks.Series("AAPL", suite.start, 10, 8, 9, 6, 7)

	result := suite.newSimulator(0, 0.99).Run(series, decimal.NewFromInt(100))

	suite.Require().Len(result.Ledger, 2)
	sell := result.Ledger[1]
	suite.Equal(types.SellReasonStopLoss, sell.Reason)
	suite.True(sell.Price.Equal(decimal.NewFromInt(6)))
	suite.True(sell.ProfitOrLoss.Equal(decimal.NewFromInt(-24)))
	suite.True(result.EndingCash.Equal(decimal.NewFromInt(76)))
	suite.Equal(0, result.Wins)
	suite.Equal(1, result.Losses)
}

func (suite *SimulatorTestSuite) TestForcedLiquidationOnLastDay() {
	// buy at 8 and never accept a maximum: the last day must close the position
	series := mocks.Series("AAPL", suite.start, 10, 8, 9, 8.5, 8.8)

	result := suite.newSimulator(0, 0.99).Run(series, decimal.NewFromInt(100))

	suite.Require().Len(result.Ledger, 2)
	sell := result.Ledger[1]
	suite.Equal(types.SellReasonLastDay, sell.Reason)
	suite.Equal(suite.start.AddDate(0, 0, 4), sell.Date)
	suite.True(sell.ProfitOrLoss.Equal(decimal.RequireFromString("9.6")))
}

func (suite *SimulatorTestSuite) TestShortSeriesYieldsEmptyLedger() {
	for _, closes := range [][]float64{{}, {10}, {10, 8}} {
		series := mocks.Series("AAPL", suite.start, closes...)
		result := suite.newSimulator(0).Run(series, decimal.NewFromInt(100))

		suite.Empty(result.Ledger)
		suite.True(result.EndingCash.Equal(decimal.NewFromInt(100)))
		suite.True(result.TotalProfitOrLoss.IsZero())
	}
}

func (suite *SimulatorTestSuite) TestShortSeriesWalksEveryDay() {
	series := mocks.Series("AAPL", suite.start, 10, 8)

	walk := suite.newSimulator(0).Walk(series, decimal.NewFromInt(100))

	suite.Require().Len(walk.Days, 2)
	for i, day := range walk.Days {
		suite.Equal(i, day.Index)
		suite.Equal(series.Points[i], day.Point)
		suite.Equal(types.ExtremumNone, day.Label)
		suite.Equal(types.ActionHold, day.Decision.Action)
	}
	suite.Equal(0, walk.Ledger.Len())
	suite.True(walk.Final.Cash.Equal(decimal.NewFromInt(100)))
}

func (suite *SimulatorTestSuite) TestZeroTradeBaseline() {
	series := mocks.NewDataGenerator(11).Generate(mocks.DefaultConfig())

	result := suite.newSimulator(0.99).Run(series, decimal.NewFromInt(10000))

	suite.Empty(result.Ledger)
	suite.Equal(0, result.TradeCount)
	suite.True(result.EndingCash.Equal(decimal.NewFromInt(10000)))
}

func (suite *SimulatorTestSuite) TestCapitalBelowPriceNeverBuys() {
	series := mocks.Series("AAPL", suite.start, 10, 8, 12, 9)

	result := suite.newSimulator(0).Run(series, decimal.NewFromInt(5))

	suite.Empty(result.Ledger)
	suite.True(result.EndingCash.Equal(decimal.NewFromInt(5)))
}

func (suite *SimulatorTestSuite) TestConservationAndFlatTerminalState() {
	generator := mocks.NewDataGenerator(99)
	config := mocks.DefaultConfig()
	config.Volatility = 0.05

	for seed := uint64(1); seed <= 20; seed++ {
		series := generator.Generate(config)
		sim := New(policy.DefaultConfig(), policy.NewSeededSource(seed, 0), suite.logger)

		startingCash := decimal.NewFromInt(10000)
		walk := sim.Walk(series, startingCash)

		suite.True(walk.Final.IsFlat(), "seed %d ends holding shares", seed)
		suite.True(walk.Final.LastBuyDate.IsNone())

		cash := startingCash
		for _, event := range walk.Ledger.Events() {
			value := event.Price.Mul(decimal.NewFromInt(event.Shares))

			switch event.Action {
			case types.ActionBuy:
				suite.Equal(cash.Div(event.Price).Floor().IntPart(), event.Shares)
				suite.True(event.CashAfter.Equal(cash.Sub(value)))
			case types.ActionSell:
				suite.True(event.CashAfter.Equal(cash.Add(value)))
			case types.ActionHold:
				suite.Fail("hold recorded in ledger")
			}

			cash = event.CashAfter
		}

		suite.True(cash.Equal(walk.Final.Cash))
	}
}

func (suite *SimulatorTestSuite) TestAlternatesBuyAndSell() {
	series := mocks.NewDataGenerator(5).Generate(mocks.DefaultConfig())

	walk := New(policy.DefaultConfig(), policy.NewSeededSource(5, 5), suite.logger).
		Walk(series, decimal.NewFromInt(10000))

	expected := types.ActionBuy
	for _, event := range walk.Ledger.Events() {
		suite.Equal(expected, event.Action)

		if expected == types.ActionBuy {
			expected = types.ActionSell
		} else {
			expected = types.ActionBuy
		}
	}
}

func (suite *SimulatorTestSuite) TestDeterministicUnderFixedDraws() {
	series := mocks.NewDataGenerator(3).Generate(mocks.DefaultConfig())
	draws := []float64{0.1, 0.8, 0.3, 0.65, 0.95, 0.2}

	first := suite.newSimulator(draws...).Walk(series, decimal.NewFromInt(5000))
	second := suite.newSimulator(draws...).Walk(series, decimal.NewFromInt(5000))

	suite.Equal(first.Ledger.Events(), second.Ledger.Events())
	suite.NotEmpty(first.Ledger.Events())
}

func (suite *SimulatorTestSuite) TestNoLookAhead() {
	series := mocks.NewDataGenerator(21).Generate(mocks.DefaultConfig())
	draws := []float64{0.2, 0.5, 0.9, 0.1}
	baseline := suite.newSimulator(draws...).Walk(series, decimal.NewFromInt(5000))

	for _, i := range []int{10, 50, 120, 200} {
		changed := types.PriceSeries{Ticker: series.Ticker, Points: append([]types.PricePoint{}, series.Points...)}
		for j := i + 2; j < len(changed.Points); j++ {
			changed.Points[j].Close = changed.Points[j].Close * 1.5
		}

		walk := suite.newSimulator(draws...).Walk(changed, decimal.NewFromInt(5000))
		for k := 0; k <= i; k++ {
			suite.Equal(baseline.Days[k].Decision, walk.Days[k].Decision, "day %d after change at %d", k, i)
		}
	}
}

func (suite *SimulatorTestSuite) TestOnDecisionCallback() {
	series := mocks.Series("AAPL", suite.start, 10, 8, 12, 9)
	sim := suite.newSimulator(0)

	var seen []types.Action
	sim.SetOnDecision(func(day Day) {
		seen = append(seen, day.Decision.Action)
	})

	sim.Run(series, decimal.NewFromInt(100))
	suite.Equal([]types.Action{types.ActionHold, types.ActionBuy, types.ActionSell, types.ActionHold}, seen)
}

func (suite *SimulatorTestSuite) TestApplyRejectsInvalidTransitions() {
	state := types.NewPortfolioState(decimal.NewFromInt(100))

	next, event := Apply("X", state, policy.Decision{Action: types.ActionSell, Quantity: 1}, suite.start, decimal.NewFromInt(5))
	suite.Equal(state, next)
	suite.True(event.IsNone())

	next, event = Apply("X", state, policy.Decision{Action: types.ActionBuy, Quantity: 0}, suite.start, decimal.NewFromInt(5))
	suite.Equal(state, next)
	suite.True(event.IsNone())
}
