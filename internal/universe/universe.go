// Package universe holds the listed ticker symbols used for suggestions.
package universe

import (
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// DefaultFiles are the exchange listings loaded when no file is configured.
var DefaultFiles = []string{"nasdaq-listed.csv", "nyse.csv"}

type listing struct {
	Symbol string `csv:"Symbol"`
}

// Universe is an ordered, duplicate-free list of symbols.
type Universe struct {
	symbols []string
	index   map[string]struct{}
}

// New builds a universe from symbols, upper-casing them and dropping blanks and duplicates.
func New(symbols []string) *Universe {
	u := &Universe{
		symbols: make([]string, 0, len(symbols)),
		index:   make(map[string]struct{}, len(symbols)),
	}
	u.add(symbols)

	return u
}

// Load reads the Symbol column of every file in order. Missing files are logged and skipped.
func Load(log *logger.Logger, paths ...string) (*Universe, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	u := New(nil)

	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Warn("Ticker listing not found", zap.String("path", path))

				continue
			}

			return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
		}

		symbols, err := ReadSymbols(file)
		file.Close()

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", path)
		}

		u.add(symbols)
		log.Debug("Loaded ticker listing", zap.String("path", path), zap.Int("symbols", len(symbols)))
	}

	return u, nil
}

// ReadSymbols returns the Symbol column of a CSV listing.
func ReadSymbols(r io.Reader) ([]string, error) {
	var rows []listing
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		symbols = append(symbols, row.Symbol)
	}

	return symbols, nil
}

func (u *Universe) add(symbols []string) {
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		if _, exists := u.index[symbol]; exists {
			continue
		}

		u.index[symbol] = struct{}{}
		u.symbols = append(u.symbols, symbol)
	}
}

// Len returns the number of symbols.
func (u *Universe) Len() int {
	return len(u.symbols)
}

// Contains reports whether ticker is listed, ignoring case and surrounding spaces.
func (u *Universe) Contains(ticker string) bool {
	_, ok := u.index[strings.ToUpper(strings.TrimSpace(ticker))]

	return ok
}

// Suggest returns the symbols containing query, case-insensitively, in listing order.
// An empty query matches every symbol. limit <= 0 means no limit.
func (u *Universe) Suggest(query string, limit int) []string {
	query = strings.ToUpper(strings.TrimSpace(query))
	matches := []string{}

	for _, symbol := range u.symbols {
		if !strings.Contains(symbol, query) {
			continue
		}

		matches = append(matches, symbol)
		if limit > 0 && len(matches) == limit {
			break
		}
	}

	return matches
}
