// Package runner simulates several tickers with the same nominal capital and combines
// their results into one report.
package runner

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/policy"
	"github.com/rxtech-lab/argo-swing/internal/simulator"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/internal/version"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

// Request describes one multi-ticker run.
type Request struct {
	Tickers         []string
	Start           time.Time
	End             time.Time
	StartingCapital decimal.Decimal
	Policy          policy.Config
	// Seed derives the random stream of every ticker.
	Seed          uint64
	FailurePolicy types.FailurePolicy
	// StrictCoverage fails a ticker whose data does not span [Start, End].
	StrictCoverage bool
	// Parallel simulates tickers concurrently. Results are identical to a sequential run.
	Parallel bool
	// MaxConcurrency bounds parallel tickers. Zero means unbounded.
	MaxConcurrency int
}

// Validate checks the request parameters that do not depend on the clock.
func (r Request) Validate() error {
	if len(r.Tickers) == 0 {
		return errors.New(errors.ErrCodeEmptyTicker, "stock ticker cannot be empty")
	}

	for _, ticker := range r.Tickers {
		if strings.TrimSpace(ticker) == "" {
			return errors.New(errors.ErrCodeEmptyTicker, "stock ticker cannot be empty")
		}
	}

	if !types.NormalizeDate(r.Start).Before(types.NormalizeDate(r.End)) {
		return errors.New(errors.ErrCodeInvalidDateRange, "start date must be before the end date")
	}

	if !r.StartingCapital.IsPositive() {
		return errors.New(errors.ErrCodeInvalidCapital, "starting capital must be greater than 0")
	}

	if err := r.Policy.Validate(); err != nil {
		return err
	}

	if err := r.FailurePolicy.Validate(); err != nil {
		return err
	}

	if r.MaxConcurrency < 0 {
		return errors.Newf(errors.ErrCodeInvalidConcurrency, "max concurrency must not be negative, got %d", r.MaxConcurrency)
	}

	return nil
}

// ValidateAt runs Validate and rejects an end date after the calendar date of now.
func (r Request) ValidateAt(now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if types.NormalizeDate(r.End).After(types.NormalizeDate(now)) {
		return errors.New(errors.ErrCodeFutureEndDate, "end date cannot be in the future")
	}

	return nil
}

// NormalizeTickers trims and upper-cases tickers, dropping duplicates while keeping the first occurrence.
func NormalizeTickers(tickers []string) []string {
	normalized := make([]string, 0, len(tickers))

	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" || slices.Contains(normalized, ticker) {
			continue
		}

		normalized = append(normalized, ticker)
	}

	return normalized
}

// SimulatorFactory builds the simulator for one ticker.
type SimulatorFactory func(ticker string, request Request, log *logger.Logger) *simulator.Simulator

// SeededSimulatorFactory gives every ticker its own stream derived from the request seed.
func SeededSimulatorFactory(ticker string, request Request, log *logger.Logger) *simulator.Simulator {
	return simulator.New(request.Policy, policy.StreamForTicker(request.Seed, ticker), log)
}

// Runner fetches each ticker's series and simulates it.
type Runner struct {
	provider provider.Provider
	factory  SimulatorFactory
	log      *logger.Logger
	now      func() time.Time
}

// New creates a runner. A nil factory uses SeededSimulatorFactory.
func New(dataProvider provider.Provider, factory SimulatorFactory, log *logger.Logger) *Runner {
	if factory == nil {
		factory = SeededSimulatorFactory
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Runner{
		provider: dataProvider,
		factory:  factory,
		log:      log,
		now:      time.Now,
	}
}

// outcome is the result of one ticker, success or failure.
type outcome struct {
	result  types.SimulationResult
	failure error
}

// Run simulates every ticker of request and returns the combined report.
// With FailurePolicyAbort the first failing ticker, in request order, fails the run with
// ErrCodeBacktestTickerAborted. With FailurePolicySkip failing tickers are listed in the report.
func (r *Runner) Run(ctx context.Context, request Request, callbacks LifecycleCallbacks) (report types.AggregateReport, err error) {
	if err := request.ValidateAt(r.now()); err != nil {
		return types.AggregateReport{}, err
	}

	tickers := NormalizeTickers(request.Tickers)
	request.Tickers = tickers

	report = types.NewAggregateReport(uuid.New().String(), r.now(), request.StartingCapital)
	report.Seed = request.Seed
	report.EngineVersion = version.GetVersion()

	notify := newNotifier(callbacks)

	defer func() {
		notify.runEnd(report, err)
	}()

	if err := notify.runStart(report.ID, tickers); err != nil {
		return report, errors.Wrap(errors.ErrCodeBacktestInitFailed, "run start callback failed", err)
	}

	r.log.Info("Starting multi-ticker run",
		zap.String("run_id", report.ID),
		zap.Strings("tickers", tickers),
		zap.Uint64("seed", request.Seed),
		zap.Bool("parallel", request.Parallel),
	)

	var outcomes []outcome
	if request.Parallel {
		outcomes, err = r.runParallel(ctx, request, notify)
	} else {
		outcomes, err = r.runSequential(ctx, request, notify)
	}

	if err != nil {
		return report, err
	}

	for i, ticker := range tickers {
		o := outcomes[i]
		if o.failure == nil {
			report.AddResult(o.result)

			continue
		}

		if request.FailurePolicy == types.FailurePolicyAbort {
			return report, errors.Wrapf(errors.ErrCodeBacktestTickerAborted, o.failure, "ticker %s failed", ticker)
		}

		failure := types.TickerFailure{
			Ticker: ticker,
			Reason: o.failure.Error(),
			Code:   int(errors.GetCode(o.failure)),
		}
		report.AddFailure(failure)
		notify.tickerSkipped(i, failure)

		r.log.Warn("Skipped ticker",
			zap.String("ticker", ticker),
			zap.Error(o.failure),
		)
	}

	report.OrderTickers(tickers)

	r.log.Info("Multi-ticker run finished",
		zap.String("run_id", report.ID),
		zap.Int("succeeded", len(report.Tickers)),
		zap.Int("failed", len(report.Failures)),
		zap.String("total_profit_or_loss", report.TotalProfitOrLoss.StringFixed(2)),
	)

	return report, nil
}

func (r *Runner) runSequential(ctx context.Context, request Request, notify *notifier) ([]outcome, error) {
	outcomes := make([]outcome, len(request.Tickers))

	for i, ticker := range request.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcomes[i] = r.runTicker(ctx, i, ticker, request, notify)

		// later tickers cannot change an aborted run
		if outcomes[i].failure != nil && request.FailurePolicy == types.FailurePolicyAbort {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return outcomes, nil
}

// runParallel runs every ticker to completion, so an aborted run reports the same
// ticker as a sequential one.
func (r *Runner) runParallel(ctx context.Context, request Request, notify *notifier) ([]outcome, error) {
	outcomes := make([]outcome, len(request.Tickers))

	var group errgroup.Group
	if request.MaxConcurrency > 0 {
		group.SetLimit(request.MaxConcurrency)
	}

	for i, ticker := range request.Tickers {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			outcomes[i] = r.runTicker(ctx, i, ticker, request, notify)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return outcomes, nil
}

func (r *Runner) runTicker(ctx context.Context, index int, ticker string, request Request, notify *notifier) outcome {
	notify.tickerStart(index, ticker)

	series, err := r.FetchSeries(ctx, ticker, request)
	if err != nil {
		return outcome{failure: err}
	}

	result := r.factory(ticker, request, r.log).Run(series, request.StartingCapital)
	notify.tickerEnd(index, result)

	return outcome{result: result}
}

// FetchSeries retrieves and validates the series of one normalized ticker.
func (r *Runner) FetchSeries(ctx context.Context, ticker string, request Request) (types.PriceSeries, error) {
	series, err := r.provider.GetSeries(ctx, ticker, request.Start, request.End)
	if err != nil {
		return types.PriceSeries{}, err
	}

	if series.IsEmpty() {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataFound, "no data found for %s", ticker)
	}

	series.Ticker = ticker

	if err := series.Validate(); err != nil {
		return types.PriceSeries{}, err
	}

	if request.StrictCoverage {
		if err := provider.CheckCoverage(series, request.Start, request.End); err != nil {
			return types.PriceSeries{}, err
		}
	}

	if series.Len() < 3 {
		r.log.Warn("Series too short to detect extrema",
			zap.String("ticker", ticker),
			zap.Int("points", series.Len()),
		)
	}

	return series, nil
}

// Walk simulates one normalized ticker and returns the day by day trace.
func (r *Runner) Walk(ctx context.Context, ticker string, request Request) (simulator.Walk, error) {
	series, err := r.FetchSeries(ctx, ticker, request)
	if err != nil {
		return simulator.Walk{}, err
	}

	return r.factory(ticker, request, r.log).Walk(series, request.StartingCapital), nil
}

// notifier serializes callbacks so they may be invoked from parallel tickers.
type notifier struct {
	mu        sync.Mutex
	callbacks LifecycleCallbacks
}

func newNotifier(callbacks LifecycleCallbacks) *notifier {
	return &notifier{callbacks: callbacks}
}

func (n *notifier) runStart(runID string, tickers []string) error {
	if n.callbacks.OnRunStart == nil {
		return nil
	}

	return (*n.callbacks.OnRunStart)(runID, tickers)
}

func (n *notifier) tickerStart(index int, ticker string) {
	if n.callbacks.OnTickerStart == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	(*n.callbacks.OnTickerStart)(index, ticker)
}

func (n *notifier) tickerEnd(index int, result types.SimulationResult) {
	if n.callbacks.OnTickerEnd == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	(*n.callbacks.OnTickerEnd)(index, result)
}

func (n *notifier) tickerSkipped(index int, failure types.TickerFailure) {
	if n.callbacks.OnTickerSkipped == nil {
		return
	}

	(*n.callbacks.OnTickerSkipped)(index, failure)
}

func (n *notifier) runEnd(report types.AggregateReport, err error) {
	if n.callbacks.OnRunEnd == nil {
		return
	}

	(*n.callbacks.OnRunEnd)(report, err)
}
