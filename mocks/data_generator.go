package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-swing/internal/types"
)

// DataGenerator generates daily closing-price series for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how a series is generated.
type GeneratorConfig struct {
	// Ticker is the symbol of the series (e.g., "AAPL")
	Ticker string
	// StartDate is the first calendar date considered
	StartDate time.Time
	// Count is the number of trading days to generate
	Count int
	// InitialPrice is the starting close
	InitialPrice float64
	// Volatility controls price movement (0.02 = 2% typical daily move)
	Volatility float64
	// Trend is the total drift over the whole series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// SkipWeekends leaves out Saturdays and Sundays like an exchange calendar
	SkipWeekends bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Ticker:       "TEST",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:        250,
		InitialPrice: 100.0,
		Volatility:   0.02,
		Trend:        0.0,
		SkipWeekends: true,
	}
}

// Generate creates a series following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) types.PriceSeries {
	points := make([]types.PricePoint, 0, config.Count)
	price := config.InitialPrice
	date := types.NormalizeDate(config.StartDate)

	for len(points) < config.Count {
		if config.SkipWeekends && (date.Weekday() == time.Saturday || date.Weekday() == time.Sunday) {
			date = date.AddDate(0, 0, 1)

			continue
		}

		// Box-Muller transform for a standard normal draw
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		next := price * (1 + config.Volatility*z + drift)
		if next <= 0 {
			next = price * 0.99
		}

		points = append(points, types.PricePoint{
			Date:  date,
			Close: roundToDecimals(next, 4),
		})

		price = next
		date = date.AddDate(0, 0, 1)
	}

	return types.PriceSeries{
		Ticker: config.Ticker,
		Points: points,
	}
}

// GenerateMultiTicker generates one series per ticker with slightly varied prices.
func (g *DataGenerator) GenerateMultiTicker(tickers []string, baseConfig GeneratorConfig) map[string]types.PriceSeries {
	all := make(map[string]types.PriceSeries, len(tickers))

	for _, ticker := range tickers {
		config := baseConfig
		config.Ticker = ticker
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all[ticker] = g.Generate(config)
	}

	return all
}

// Series builds a series from closes on consecutive calendar days starting at start.
func Series(ticker string, start time.Time, closes ...float64) types.PriceSeries {
	points := make([]types.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = types.PricePoint{Date: types.NormalizeDate(start).AddDate(0, 0, i), Close: c}
	}

	return types.PriceSeries{Ticker: ticker, Points: points}
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
