package policy

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RandomTestSuite struct {
	suite.Suite
}

func TestRandomSuite(t *testing.T) {
	suite.Run(t, new(RandomTestSuite))
}

func (suite *RandomTestSuite) TestSeededSourceIsReproducible() {
	a := NewSeededSource(42, 7)
	b := NewSeededSource(42, 7)

	for i := 0; i < 100; i++ {
		draw := a.Float64()
		suite.Equal(draw, b.Float64())
		suite.GreaterOrEqual(draw, 0.0)
		suite.Less(draw, 1.0)
	}
}

func (suite *RandomTestSuite) TestStreamForTickerIndependentPerTicker() {
	aapl := StreamForTicker(1, "AAPL")
	aaplAgain := StreamForTicker(1, "AAPL")
	msft := StreamForTicker(1, "MSFT")

	first := []float64{aapl.Float64(), aapl.Float64(), aapl.Float64()}
	again := []float64{aaplAgain.Float64(), aaplAgain.Float64(), aaplAgain.Float64()}
	other := []float64{msft.Float64(), msft.Float64(), msft.Float64()}

	suite.Equal(first, again)
	suite.NotEqual(first, other)
}

func (suite *RandomTestSuite) TestSequenceSourceCycles() {
	source := NewSequenceSource(0.1, 0.9)

	suite.Equal(0.1, source.Float64())
	suite.Equal(0.9, source.Float64())
	suite.Equal(0.1, source.Float64())
	suite.Equal(3, source.Consumed())
}

func (suite *RandomTestSuite) TestEmptySequenceDrawsZero() {
	source := NewSequenceSource()
	suite.Equal(0.0, source.Float64())
	suite.Equal(1, source.Consumed())
}
