package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestBuyEvent() {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	event := NewBuyEvent("AAPL", date, decimal.NewFromInt(8), 12, decimal.NewFromInt(4))

	suite.True(event.IsBuy())
	suite.False(event.IsSell())
	suite.Equal(int64(12), event.Shares)
	suite.True(event.ProfitOrLoss.IsZero())
	suite.Equal(SellReasonNone, event.Reason)
}

func (suite *TradeTestSuite) TestSellEvent() {
	date := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	event := NewSellEvent("AAPL", date, decimal.NewFromInt(12), 12, decimal.NewFromInt(148), decimal.NewFromInt(48), SellReasonMaximum)

	suite.True(event.IsSell())
	suite.Equal(SellReasonMaximum, event.Reason)
	suite.True(event.ProfitOrLoss.Equal(decimal.NewFromInt(48)))
}

func (suite *TradeTestSuite) TestRoundedDoesNotMutateOriginal() {
	event := NewSellEvent("X", time.Time{},
		decimal.RequireFromString("10.12345"), 3,
		decimal.RequireFromString("30.37035"),
		decimal.RequireFromString("-1.00049"),
		SellReasonStopLoss)

	rounded := event.Rounded()
	suite.Equal("10.123", rounded.Price.String())
	suite.Equal("30.37", rounded.CashAfter.String())
	suite.Equal("-1", rounded.ProfitOrLoss.String())
	suite.Equal("10.12345", event.Price.String())
}

func (suite *TradeTestSuite) TestActionLabel() {
	suite.Equal("Buy", ActionBuy.Label())
	suite.Equal("Sell", ActionSell.Label())
	suite.Equal("Hold", ActionHold.Label())
}
