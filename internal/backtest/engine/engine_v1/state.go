package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// TradesFileName is the parquet export of every trade event of a run.
const TradesFileName = "trades.parquet"

// BacktestState stores the trade events of a run in DuckDB.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// TickerStats are per-ticker statistics computed from the stored events.
type TickerStats struct {
	Ticker             string  `yaml:"ticker" json:"ticker"`
	Buys               int     `yaml:"buys" json:"buys"`
	Sells              int     `yaml:"sells" json:"sells"`
	Wins               int     `yaml:"wins" json:"wins"`
	Losses             int     `yaml:"losses" json:"losses"`
	StopLosses         int     `yaml:"stop_losses" json:"stop_losses"`
	TotalProfitOrLoss  float64 `yaml:"total_profit_or_loss" json:"total_profit_or_loss"`
	// AverageHoldingDays is the mean number of calendar days between a buy and its sell.
	AverageHoldingDays float64 `yaml:"average_holding_days" json:"average_holding_days"`
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trade_events table.
func (b *BacktestState) Initialize() error {
	if b.db == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trade_events (
			run_id TEXT,
			ticker TEXT,
			seq INTEGER,
			date DATE,
			action TEXT,
			price DOUBLE,
			shares BIGINT,
			cash_after DOUBLE,
			profit_or_loss DOUBLE,
			reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create trade_events table", err)
	}

	return nil
}

// Record inserts every ledger event of result in one transaction.
func (b *BacktestState) Record(result types.SimulationResult) error {
	if len(result.Ledger) == 0 {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	for seq, event := range result.Ledger {
		_, err := b.sq.
			Insert("trade_events").
			Columns("run_id", "ticker", "seq", "date", "action", "price", "shares", "cash_after", "profit_or_loss", "reason").
			Values(
				result.RunID, result.Ticker, seq, event.Date, string(event.Action),
				event.Price.InexactFloat64(), event.Shares, event.CashAfter.InexactFloat64(),
				event.ProfitOrLoss.InexactFloat64(), string(event.Reason),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert trade event of %s", result.Ticker)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit trade events", err)
	}

	b.logger.Debug("Recorded trade events",
		zap.String("ticker", result.Ticker),
		zap.Int("events", len(result.Ledger)),
	)

	return nil
}

// GetEvents returns the stored events of ticker in ledger order.
func (b *BacktestState) GetEvents(ticker string) ([]types.TradeEvent, error) {
	rows, err := b.sq.
		Select("ticker", "date", "action", "price", "shares", "cash_after", "profit_or_loss", "reason").
		From("trade_events").
		Where(squirrel.Eq{"ticker": ticker}).
		OrderBy("seq ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trade events", err)
	}
	defer rows.Close()

	events := []types.TradeEvent{}

	for rows.Next() {
		var (
			event        types.TradeEvent
			action       string
			reason       string
			price        float64
			cashAfter    float64
			profitOrLoss float64
		)

		if err := rows.Scan(&event.Ticker, &event.Date, &action, &price, &event.Shares, &cashAfter, &profitOrLoss, &reason); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade event", err)
		}

		event.Action = types.Action(action)
		event.Reason = types.SellReason(reason)
		event.Price = decimal.NewFromFloat(price)
		event.CashAfter = decimal.NewFromFloat(cashAfter)
		event.ProfitOrLoss = decimal.NewFromFloat(profitOrLoss)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trade events", err)
	}

	return events, nil
}

// GetStats returns the statistics of every ticker with at least one event, ordered by ticker.
func (b *BacktestState) GetStats() ([]TickerStats, error) {
	// Using raw SQL for the window function - Squirrel doesn't support it
	query := `
		WITH paired AS (
			SELECT
				ticker,
				action,
				reason,
				profit_or_loss,
				date - LAG(date) OVER (PARTITION BY ticker ORDER BY seq) AS holding_days
			FROM trade_events
		)
		SELECT
			ticker,
			COUNT(*) FILTER (WHERE action = ?) AS buys,
			COUNT(*) FILTER (WHERE action = ?) AS sells,
			COUNT(*) FILTER (WHERE action = ? AND profit_or_loss > 0) AS wins,
			COUNT(*) FILTER (WHERE action = ? AND profit_or_loss <= 0) AS losses,
			COUNT(*) FILTER (WHERE reason = ?) AS stop_losses,
			COALESCE(SUM(profit_or_loss), 0) AS total_profit_or_loss,
			COALESCE(AVG(holding_days) FILTER (WHERE action = ?), 0) AS average_holding_days
		FROM paired
		GROUP BY ticker
		ORDER BY ticker
	`

	rows, err := b.db.Query(query,
		string(types.ActionBuy), string(types.ActionSell), string(types.ActionSell),
		string(types.ActionSell), string(types.SellReasonStopLoss), string(types.ActionSell),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to calculate trade stats", err)
	}
	defer rows.Close()

	stats := []TickerStats{}

	for rows.Next() {
		var s TickerStats
		if err := rows.Scan(&s.Ticker, &s.Buys, &s.Sells, &s.Wins, &s.Losses, &s.StopLosses, &s.TotalProfitOrLoss, &s.AverageHoldingDays); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade stats", err)
		}

		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trade stats", err)
	}

	return stats, nil
}

// Cleanup resets the database state
func (b *BacktestState) Cleanup() error {
	// Use raw SQL for dropping tables - Squirrel doesn't have DROP syntax
	_, err := b.db.Exec(`DROP TABLE IF EXISTS trade_events`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to cleanup tables", err)
	}

	return b.Initialize()
}

// Write exports all trade events to trades.parquet in the given directory and returns the file path.
func (b *BacktestState) Write(path string) (string, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create directory", err)
	}

	// Using raw SQL as Squirrel doesn't support COPY
	tradesPath := filepath.Join(path, TradesFileName)

	_, err := b.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trade_events ORDER BY ticker, seq) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(tradesPath, "'", "''")))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export trades to Parquet", err)
	}

	b.logger.Info("Exported trade events to Parquet",
		zap.String("trades", tradesPath),
	)

	return tradesPath, nil
}

// Close releases the database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}
