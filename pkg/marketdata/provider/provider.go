package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	ProviderParquet ProviderType = "parquet"
	ProviderCSV     ProviderType = "csv"
)

type OnDownloadProgress = func(current float64, total float64, message string)

// Provider returns daily closing prices.
type Provider interface {
	// GetSeries returns the closes of ticker for every trading day in [start, end], both inclusive.
	// Only the calendar date of start and end is considered.
	GetSeries(ctx context.Context, ticker string, start time.Time, end time.Time) (types.PriceSeries, error)
}

// Downloader is a remote provider that can persist its series through a writer.
type Downloader interface {
	Provider
	// ConfigWriter configures the writer used by Download.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download fetches the series for ticker and writes every close, returning the output path.
	// The context can be used to cancel the download operation.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error)
}

// Config selects and configures a provider.
type Config struct {
	Type ProviderType `yaml:"type" json:"type" jsonschema:"title=Provider,description=Market data provider,enum=polygon,enum=binance,enum=parquet,enum=csv,default=parquet" validate:"required,oneof=polygon binance parquet csv"`
	// PolygonApiKey is required by the polygon provider.
	PolygonApiKey string `yaml:"polygon_api_key,omitempty" json:"polygon_api_key,omitempty" jsonschema:"title=Polygon API Key" validate:"required_if=Type polygon"`
	// DataPath is a parquet file or glob for the parquet provider, a directory for the csv provider.
	DataPath string `yaml:"data_path,omitempty" json:"data_path,omitempty" jsonschema:"title=Data Path,description=Parquet file or glob or CSV directory" validate:"required_if=Type parquet,required_if=Type csv"`
}

// NewProvider creates a market data provider based on config.Type.
func NewProvider(config Config) (Provider, error) {
	switch config.Type {
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey)
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderParquet:
		return NewParquetProvider(config.DataPath)
	case ProviderCSV:
		return NewCSVProvider(config.DataPath)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", config.Type)
	}
}

// NewDownloader creates a remote provider that supports downloading.
func NewDownloader(providerType ProviderType, apiKey string) (Downloader, error) {
	switch providerType {
	case ProviderPolygon:
		return NewPolygonClient(apiKey)
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderParquet, ProviderCSV:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "provider %s cannot download", providerType)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// CheckCoverage returns an ErrCodeDataOutOfRange error when series does not span [start, end].
func CheckCoverage(series types.PriceSeries, start time.Time, end time.Time) error {
	first, ok := series.First()
	if !ok {
		return errors.Newf(errors.ErrCodeNoDataFound, "no data found for %s", series.Ticker)
	}

	last, _ := series.Last()

	if types.NormalizeDate(start).Before(first.Date) || types.NormalizeDate(end).After(last.Date) {
		return errors.Newf(errors.ErrCodeDataOutOfRange, "data is only available from %s to %s",
			first.Date.Format(types.DateLayout), last.Date.Format(types.DateLayout))
	}

	return nil
}

// dayBounds returns midnight of start and the instant before the day after end.
func dayBounds(start time.Time, end time.Time) (time.Time, time.Time) {
	from := types.NormalizeDate(start)
	to := types.NormalizeDate(end).AddDate(0, 0, 1).Add(-time.Millisecond)

	return from, to
}

func writeSeries(w writer.MarketDataWriter, series types.PriceSeries) error {
	for _, point := range series.Points {
		if err := w.Write(series.Ticker, point); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
	}

	return nil
}
