package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

type csvRow struct {
	Date  string  `csv:"Date"`
	Close float64 `csv:"Close"`
}

// CSVProvider reads {dir}/{TICKER}.csv files with at least Date and Close columns.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) (Provider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open csv directory %s", dir)
	}

	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable, "%s is not a directory", dir)
	}

	return &CSVProvider{dir: dir}, nil
}

func (p *CSVProvider) GetSeries(_ context.Context, ticker string, start time.Time, end time.Time) (types.PriceSeries, error) {
	path := filepath.Join(p.dir, strings.ToUpper(ticker)+".csv")

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for %s", ticker)
		}

		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", path)
	}

	points := make([]types.PricePoint, 0, len(rows))

	for _, row := range rows {
		date, err := parseCSVDate(row.Date)
		if err != nil {
			return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid date %q in %s", row.Date, path)
		}

		points = append(points, types.PricePoint{Date: date, Close: row.Close})
	}

	series := types.NewPriceSeries(ticker, points).Between(start, end)
	if series.IsEmpty() {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for %s", ticker)
	}

	return series, nil
}

func parseCSVDate(value string) (time.Time, error) {
	if date, err := time.Parse(types.DateLayout, value); err == nil {
		return date, nil
	}

	return time.Parse(time.RFC3339, value)
}
