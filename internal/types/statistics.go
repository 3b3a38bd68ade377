package types

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// FailurePolicy decides what happens when one ticker's data cannot be used.
type FailurePolicy string

const (
	// FailurePolicyAbort stops the whole run on the first ticker failure.
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicySkip records the failure and continues with the remaining tickers.
	FailurePolicySkip FailurePolicy = "skip"
)

// Validate rejects unknown policies.
func (p FailurePolicy) Validate() error {
	switch p {
	case FailurePolicyAbort, FailurePolicySkip:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidFailurePolicy, "unknown failure policy %q", p)
	}
}

// DefaultFailurePolicy aborts a single-ticker run and skips failing tickers of a multi-ticker run.
func DefaultFailurePolicy(tickerCount int) FailurePolicy {
	if tickerCount > 1 {
		return FailurePolicySkip
	}

	return FailurePolicyAbort
}

// SimulationResult is the outcome of one ticker's simulation.
type SimulationResult struct {
	// RunID identifies this simulation run.
	RunID  string `yaml:"run_id" json:"run_id"`
	Ticker string `yaml:"ticker" json:"ticker"`
	// StartingCash is the nominal capital the run was seeded with.
	StartingCash decimal.Decimal `yaml:"starting_cash" json:"starting_cash"`
	// EndingCash is the cash after the final day. The portfolio is always flat by then.
	EndingCash decimal.Decimal `yaml:"ending_cash" json:"ending_cash"`
	// TotalProfitOrLoss is the sum of all sells' profit or loss.
	TotalProfitOrLoss decimal.Decimal `yaml:"total_profit_or_loss" json:"total_profit_or_loss"`
	// TradeCount is the number of positions opened.
	TradeCount int `yaml:"trade_count" json:"trade_count"`
	// Wins counts sells with positive profit.
	Wins int `yaml:"wins" json:"wins"`
	// Losses counts sells with zero or negative profit.
	Losses int          `yaml:"losses" json:"losses"`
	Ledger []TradeEvent `yaml:"ledger" json:"ledger"`
}

// EventCount returns the number of ledger events, buys and sells together.
func (r SimulationResult) EventCount() int {
	return len(r.Ledger)
}

// Summary renders the result the way the viewer displays it.
func (r SimulationResult) Summary() string {
	return fmt.Sprintf("Ending Capital: $%s\nProfit/Loss: $%s\nTrades Executed: %d\nWins: %d, Losses: %d",
		r.EndingCash.StringFixed(2),
		r.TotalProfitOrLoss.StringFixed(2),
		r.TradeCount,
		r.Wins,
		r.Losses,
	)
}

// TickerFailure records why a ticker was skipped.
type TickerFailure struct {
	Ticker string `yaml:"ticker" json:"ticker"`
	Reason string `yaml:"reason" json:"reason"`
	Code   int    `yaml:"code" json:"code"`
}

// AggregateReport combines the results of a multi-ticker run.
type AggregateReport struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run was executed.
	Timestamp     time.Time `yaml:"timestamp" json:"timestamp"`
	EngineVersion string    `yaml:"engine_version" json:"engine_version"`
	// Seed reproduces the random draws of every ticker.
	Seed            uint64          `yaml:"seed" json:"seed"`
	StartingCapital decimal.Decimal `yaml:"starting_capital" json:"starting_capital"`
	// Tickers lists the successful tickers in request order.
	Tickers           []string                    `yaml:"tickers" json:"tickers"`
	Results           map[string]SimulationResult `yaml:"results" json:"results"`
	Failures          []TickerFailure             `yaml:"failures" json:"failures"`
	TotalProfitOrLoss decimal.Decimal             `yaml:"total_profit_or_loss" json:"total_profit_or_loss"`
}

// NewAggregateReport creates an empty report.
func NewAggregateReport(id string, timestamp time.Time, startingCapital decimal.Decimal) AggregateReport {
	return AggregateReport{
		ID:                id,
		Timestamp:         timestamp,
		EngineVersion:     "",
		Seed:              0,
		StartingCapital:   startingCapital,
		Tickers:           []string{},
		Results:           map[string]SimulationResult{},
		Failures:          []TickerFailure{},
		TotalProfitOrLoss: decimal.Zero,
	}
}

// AddResult stores a successful ticker result and updates the combined total.
func (r *AggregateReport) AddResult(result SimulationResult) {
	if _, exists := r.Results[result.Ticker]; !exists {
		r.Tickers = append(r.Tickers, result.Ticker)
	}

	r.Results[result.Ticker] = result
	r.recomputeTotal()
}

// AddFailure records a skipped ticker.
func (r *AggregateReport) AddFailure(failure TickerFailure) {
	r.Failures = append(r.Failures, failure)
}

// OrderTickers reorders Tickers and Failures to follow the given request order.
func (r *AggregateReport) OrderTickers(order []string) {
	rank := make(map[string]int, len(order))
	for i, ticker := range order {
		rank[ticker] = i
	}

	byRank := func(a, b string) int {
		return rank[a] - rank[b]
	}

	slices.SortStableFunc(r.Tickers, byRank)
	slices.SortStableFunc(r.Failures, func(a, b TickerFailure) int {
		return byRank(a.Ticker, b.Ticker)
	})
}

func (r *AggregateReport) recomputeTotal() {
	total := decimal.Zero
	for _, result := range r.Results {
		total = total.Add(result.TotalProfitOrLoss)
	}

	r.TotalProfitOrLoss = total
}

// Breakdown returns one "{ticker}: {profitOrLoss}" line per successful ticker.
func (r AggregateReport) Breakdown() []string {
	lines := make([]string, 0, len(r.Tickers))
	for _, ticker := range r.Tickers {
		result := r.Results[ticker]
		lines = append(lines, fmt.Sprintf("%s: %s", ticker, result.TotalProfitOrLoss.StringFixed(2)))
	}

	return lines
}

// Summary renders every ticker's summary, the breakdown and skipped tickers.
func (r AggregateReport) Summary() string {
	var b strings.Builder

	for _, ticker := range r.Tickers {
		result := r.Results[ticker]
		fmt.Fprintf(&b, "[%s]\n%s\n\n", ticker, result.Summary())
	}

	if len(r.Tickers) > 1 {
		b.WriteString(strings.Join(r.Breakdown(), "\n"))
		fmt.Fprintf(&b, "\nTotal Profit/Loss: $%s\n", r.TotalProfitOrLoss.StringFixed(2))
	}

	for _, failure := range r.Failures {
		fmt.Fprintf(&b, "Skipped %s: %s\n", failure.Ticker, failure.Reason)
	}

	return strings.TrimRight(b.String(), "\n")
}

// WriteAggregateReport writes the report to path as YAML.
func WriteAggregateReport(path string, report AggregateReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to file: %w", err)
	}

	return nil
}
