// Package writer persists simulation results to the results folder.
package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// StatsFileName is the name of the YAML report written for every run.
const StatsFileName = "stats.yaml"

// ResultWriter defines the interface for writing backtest results.
type ResultWriter interface {
	// WriteResult writes one ticker's ledger and returns the file path.
	WriteResult(result types.SimulationResult) (string, error)
	// WriteReport writes the combined report and returns the file path.
	WriteReport(report types.AggregateReport) (string, error)
}

// LedgerRow is one CSV line. Columns not applicable to an action stay blank.
type LedgerRow struct {
	Ticker       string `csv:"Ticker"`
	Date         string `csv:"Date"`
	Action       string `csv:"Action"`
	Price        string `csv:"Price"`
	Shares       string `csv:"Shares"`
	Capital      string `csv:"Capital"`
	SharesSold   string `csv:"Shares Sold"`
	ProfitOrLoss string `csv:"Profit/Loss"`
}

// LedgerFileName returns trade_history_{TICKER}.csv.
func LedgerFileName(ticker string) string {
	return fmt.Sprintf("trade_history_%s.csv", ticker)
}

// LedgerRows converts a result into CSV rows, money at three decimals, followed by a
// row carrying only the total profit or loss.
func LedgerRows(result types.SimulationResult) []LedgerRow {
	rows := make([]LedgerRow, 0, len(result.Ledger)+1)

	for _, event := range result.Ledger {
		event = event.Rounded()
		row := LedgerRow{
			Ticker:  event.Ticker,
			Date:    event.Date.Format(types.DateLayout),
			Action:  event.Action.Label(),
			Price:   event.Price.StringFixed(types.ReportDecimalPlaces),
			Capital: event.CashAfter.StringFixed(types.ReportDecimalPlaces),
		}

		if event.IsBuy() {
			row.Shares = strconv.FormatInt(event.Shares, 10)
		} else {
			row.SharesSold = strconv.FormatInt(event.Shares, 10)
			row.ProfitOrLoss = event.ProfitOrLoss.StringFixed(types.ReportDecimalPlaces)
		}

		rows = append(rows, row)
	}

	rows = append(rows, LedgerRow{ProfitOrLoss: result.TotalProfitOrLoss.StringFixed(types.ReportDecimalPlaces)})

	return rows
}

// WriteLedgerCSV writes the ledger of result as CSV to w.
func WriteLedgerCSV(w io.Writer, result types.SimulationResult) error {
	rows := LedgerRows(result)

	return gocsv.Marshal(&rows, w)
}

// FileWriter writes results into a directory.
type FileWriter struct {
	dir string
}

// NewFileWriter creates dir if needed.
func NewFileWriter(dir string) (*FileWriter, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeBacktestNoResultsDir, "results folder is not set")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create results folder %s", dir)
	}

	return &FileWriter{dir: dir}, nil
}

// Dir returns the output directory.
func (w *FileWriter) Dir() string {
	return w.dir
}

func (w *FileWriter) WriteResult(result types.SimulationResult) (string, error) {
	path := filepath.Join(w.dir, LedgerFileName(result.Ticker))

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create %s", path)
	}

	err = closeAfter(path, file, func() error {
		return WriteLedgerCSV(file, result)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

// closeAfter runs write and then closes file, reporting the first failure of the two.
func closeAfter(path string, file io.WriteCloser, write func() error) error {
	if err := write(); err != nil {
		_ = file.Close()

		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write %s", path)
	}

	if err := file.Close(); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to close %s", path)
	}

	return nil
}

func (w *FileWriter) WriteReport(report types.AggregateReport) (string, error) {
	path := filepath.Join(w.dir, StatsFileName)

	if err := types.WriteAggregateReport(path, report); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write %s", path)
	}

	return path, nil
}
