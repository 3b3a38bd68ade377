package runner

import "github.com/rxtech-lab/argo-swing/internal/types"

// Lifecycle callback types for a multi-ticker run.

// OnRunStartCallback is called once the request is valid, before any ticker runs.
// Returning an error aborts the run.
type OnRunStartCallback func(runID string, tickers []string) error

// OnRunEndCallback is called when a started run completes (always called via defer).
type OnRunEndCallback func(report types.AggregateReport, err error)

// OnTickerStartCallback is called before a ticker's data is fetched.
type OnTickerStartCallback func(index int, ticker string)

// OnTickerEndCallback is called after a ticker was simulated.
type OnTickerEndCallback func(index int, result types.SimulationResult)

// OnTickerSkippedCallback is called for every failed ticker under the skip policy.
type OnTickerSkippedCallback func(index int, failure types.TickerFailure)

// LifecycleCallbacks holds all lifecycle callback functions of the runner.
// All fields are pointers - nil means no callback will be invoked.
// Ticker start and end callbacks may come from several goroutines in parallel mode,
// but are never invoked concurrently.
type LifecycleCallbacks struct {
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnTickerStart   *OnTickerStartCallback
	OnTickerEnd     *OnTickerEndCallback
	OnTickerSkipped *OnTickerSkippedCallback
}
