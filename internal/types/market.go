package types

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// DateLayout is the calendar date layout used in files, flags and API payloads.
const DateLayout = "2006-01-02"

// PricePoint is one trading day's closing price.
type PricePoint struct {
	Date  time.Time `yaml:"date" json:"date" csv:"date"`
	Close float64   `yaml:"close" json:"close" csv:"close"`
}

// PriceSeries is the daily closing-price history of one ticker, ordered by date.
type PriceSeries struct {
	Ticker string       `yaml:"ticker" json:"ticker"`
	Points []PricePoint `yaml:"points" json:"points"`
}

// NewPriceSeries builds a series from points, sorting them by date and
// normalizing every date to midnight UTC.
func NewPriceSeries(ticker string, points []PricePoint) PriceSeries {
	normalized := make([]PricePoint, len(points))
	for i, p := range points {
		normalized[i] = PricePoint{Date: NormalizeDate(p.Date), Close: p.Close}
	}

	slices.SortStableFunc(normalized, func(a, b PricePoint) int {
		return a.Date.Compare(b.Date)
	})

	return PriceSeries{
		Ticker: ticker,
		Points: normalized,
	}
}

// NormalizeDate drops the clock part of t, keeping the calendar date as seen in t's location.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Len returns the number of points.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// IsEmpty reports whether the series has no points.
func (s PriceSeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// Closes returns the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}

	return closes
}

// First returns the earliest point. ok is false for an empty series.
func (s PriceSeries) First() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}

	return s.Points[0], true
}

// Last returns the latest point. ok is false for an empty series.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}

	return s.Points[len(s.Points)-1], true
}

// Between returns the points whose date falls in [start, end], both ends inclusive.
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	start = NormalizeDate(start)
	end = NormalizeDate(end)

	points := make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}

		points = append(points, p)
	}

	return PriceSeries{Ticker: s.Ticker, Points: points}
}

// Validate checks the series invariants: dates strictly increasing and every close > 0.
func (s PriceSeries) Validate() error {
	for i, p := range s.Points {
		if p.Close <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPriceSeries,
				"%s: non-positive close %v on %s", s.Ticker, p.Close, p.Date.Format(DateLayout))
		}

		if i > 0 && !p.Date.After(s.Points[i-1].Date) {
			return errors.Newf(errors.ErrCodeInvalidPriceSeries,
				"%s: dates not strictly increasing at %s", s.Ticker, p.Date.Format(DateLayout))
		}
	}

	return nil
}
