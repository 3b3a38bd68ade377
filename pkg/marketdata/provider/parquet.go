package provider

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// ParquetProvider serves series from parquet files written by the DuckDB writer.
// The files must carry time, symbol and close columns.
type ParquetProvider struct {
	db   *sql.DB
	path string
	sq   squirrel.StatementBuilderType
}

// NewParquetProvider opens an in-memory DuckDB over path, which may be a glob such as "data/*.parquet".
func NewParquetProvider(path string) (Provider, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "data path is required")
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB", err)
	}

	// Create a view from the parquet files - using raw SQL as Squirrel doesn't support CREATE VIEW
	_, err = db.Exec(fmt.Sprintf(`CREATE VIEW market_data AS SELECT time, symbol, close FROM read_parquet('%s')`,
		strings.ReplaceAll(path, "'", "''")))
	if err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read parquet data from %s", path)
	}

	return &ParquetProvider{
		db:   db,
		path: path,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

func (p *ParquetProvider) GetSeries(ctx context.Context, ticker string, start time.Time, end time.Time) (types.PriceSeries, error) {
	from, to := dayBounds(start, end)

	query, args, err := p.sq.
		Select("time", "close").
		From("market_data").
		Where(squirrel.And{
			squirrel.Eq{"symbol": ticker},
			squirrel.GtOrEq{"time": from},
			squirrel.LtOrEq{"time": to},
		}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query %s", ticker)
	}
	defer rows.Close()

	var points []types.PricePoint

	for rows.Next() {
		var point types.PricePoint
		if err := rows.Scan(&point.Date, &point.Close); err != nil {
			return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate rows", err)
	}

	if len(points) == 0 {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for %s", ticker)
	}

	return types.NewPriceSeries(ticker, points), nil
}

// Close releases the DuckDB connection.
func (p *ParquetProvider) Close() error {
	return p.db.Close()
}
