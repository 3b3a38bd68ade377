package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DataGeneratorTestSuite struct {
	suite.Suite
}

func TestDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(DataGeneratorTestSuite))
}

func (suite *DataGeneratorTestSuite) TestGenerateIsReproducible() {
	config := DefaultConfig()
	config.Count = 50

	a := NewDataGenerator(7).Generate(config)
	b := NewDataGenerator(7).Generate(config)

	suite.Equal(a, b)
	suite.Equal(50, a.Len())
	suite.NoError(a.Validate())
}

func (suite *DataGeneratorTestSuite) TestGenerateSkipsWeekends() {
	config := DefaultConfig()
	config.Count = 20

	series := NewDataGenerator(1).Generate(config)
	for _, p := range series.Points {
		suite.NotEqual(time.Saturday, p.Date.Weekday())
		suite.NotEqual(time.Sunday, p.Date.Weekday())
	}
}

func (suite *DataGeneratorTestSuite) TestGenerateMultiTicker() {
	config := DefaultConfig()
	config.Count = 10

	all := NewDataGenerator(3).GenerateMultiTicker([]string{"AAPL", "MSFT"}, config)
	suite.Len(all, 2)
	suite.Equal("AAPL", all["AAPL"].Ticker)
	suite.Equal(10, all["MSFT"].Len())
}

func (suite *DataGeneratorTestSuite) TestSeries() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := Series("X", start, 10, 8, 12)

	suite.Equal([]float64{10, 8, 12}, series.Closes())
	suite.Equal(start.AddDate(0, 0, 2), series.Points[2].Date)
}
