package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func (suite *MarketTestSuite) TestNewPriceSeriesSortsAndNormalizes() {
	series := NewPriceSeries("AAPL", []PricePoint{
		{Date: time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC), Close: 12},
		{Date: day(1), Close: 10},
		{Date: day(2), Close: 8},
	})

	suite.Equal(3, series.Len())
	suite.Equal([]float64{10, 8, 12}, series.Closes())
	suite.Equal(day(3), series.Points[2].Date)
}

func (suite *MarketTestSuite) TestFirstLast() {
	empty := PriceSeries{Ticker: "X"}
	_, ok := empty.First()
	suite.False(ok)
	_, ok = empty.Last()
	suite.False(ok)
	suite.True(empty.IsEmpty())

	series := NewPriceSeries("X", []PricePoint{{Date: day(1), Close: 1}, {Date: day(5), Close: 2}})
	first, ok := series.First()
	suite.True(ok)
	suite.Equal(day(1), first.Date)
	last, ok := series.Last()
	suite.True(ok)
	suite.Equal(day(5), last.Date)
}

func (suite *MarketTestSuite) TestBetweenIsInclusive() {
	series := NewPriceSeries("X", []PricePoint{
		{Date: day(1), Close: 1},
		{Date: day(2), Close: 2},
		{Date: day(3), Close: 3},
		{Date: day(4), Close: 4},
	})

	filtered := series.Between(day(2), day(3))
	suite.Equal([]float64{2, 3}, filtered.Closes())
	suite.Equal("X", filtered.Ticker)
}

func (suite *MarketTestSuite) TestValidate() {
	tests := []struct {
		name    string
		points  []PricePoint
		wantErr bool
	}{
		{
			name:    "valid",
			points:  []PricePoint{{Date: day(1), Close: 1}, {Date: day(2), Close: 2}},
			wantErr: false,
		},
		{
			name:    "empty is valid",
			points:  nil,
			wantErr: false,
		},
		{
			name:    "zero price",
			points:  []PricePoint{{Date: day(1), Close: 0}},
			wantErr: true,
		},
		{
			name:    "negative price",
			points:  []PricePoint{{Date: day(1), Close: -3}},
			wantErr: true,
		},
		{
			name:    "duplicate date",
			points:  []PricePoint{{Date: day(1), Close: 1}, {Date: day(1), Close: 2}},
			wantErr: true,
		},
		{
			name:    "descending dates",
			points:  []PricePoint{{Date: day(2), Close: 1}, {Date: day(1), Close: 2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			series := PriceSeries{Ticker: "X", Points: tt.points}
			err := series.Validate()
			if tt.wantErr {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidPriceSeries))
			} else {
				suite.NoError(err)
			}
		})
	}
}
