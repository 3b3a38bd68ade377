package engine

import (
	"context"

	"github.com/rxtech-lab/argo-swing/internal/runner"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

// Lifecycle callback types for backtest phases.
// Run-level and ticker-level callbacks come from the runner.

// OnResultWrittenCallback is called after each ledger, stats or parquet file was written.
type OnResultWrittenCallback func(path string)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	runner.LifecycleCallbacks

	OnResultWritten *OnResultWrittenCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetProvider sets the market data provider. When unset, the provider section of the
	// configuration is used.
	SetProvider(provider provider.Provider) error
	// SetResultsFolder sets the output directory for ledgers, stats.yaml and trades.parquet.
	// An empty folder disables file output.
	SetResultsFolder(folder string) error
	// Run validates the configuration against the current date, runs every ticker and
	// writes the results. The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (types.AggregateReport, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
