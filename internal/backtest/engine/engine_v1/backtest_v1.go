package engine

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-swing/internal/backtest/engine"
	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/runner"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/internal/writer"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	initialized   bool
	resultsFolder string
	log           *logger.Logger
	state         *BacktestState
	provider      provider.Provider
	factory       runner.SimulatorFactory
	now           func() time.Time
}

// NewBacktestEngineV1 creates an engine. A nil log is replaced by a production logger on Initialize.
func NewBacktestEngineV1(log *logger.Logger) engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		initialized:   false,
		resultsFolder: "",
		log:           log,
		state:         nil,
		provider:      nil,
		factory:       nil,
		now:           time.Now,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	b.config = parsed

	if b.log == nil {
		b.log, err = logger.NewLogger()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
		}
	}

	b.log.Debug("Backtest engine initialized",
		zap.Strings("tickers", b.config.Tickers),
		zap.Float64("starting_capital", b.config.StartingCapital),
	)

	if b.state == nil {
		b.state, err = NewBacktestState(b.log)
		if err != nil {
			return err
		}
	}

	if err := b.state.Initialize(); err != nil {
		return err
	}

	b.initialized = true

	return nil
}

// SetProvider implements engine.Engine.
func (b *BacktestEngineV1) SetProvider(dataProvider provider.Provider) error {
	if dataProvider == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "provider cannot be nil")
	}

	b.provider = dataProvider

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	if b.log != nil {
		b.log.Debug("Results folder set",
			zap.String("folder", folder),
		)
	}

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (types.AggregateReport, error) {
	if err := b.preRunCheck(); err != nil {
		return types.AggregateReport{}, err
	}

	request, err := b.config.Request(b.now())
	if err != nil {
		return types.AggregateReport{}, err
	}

	dataProvider, release, err := b.resolveProvider()
	if err != nil {
		return types.AggregateReport{}, err
	}
	defer release()

	if err := b.state.Cleanup(); err != nil {
		return types.AggregateReport{}, err
	}

	report, err := runner.New(dataProvider, b.factory, b.log).Run(ctx, request, callbacks.LifecycleCallbacks)
	if err != nil {
		return report, err
	}

	for _, ticker := range report.Tickers {
		if err := b.state.Record(report.Results[ticker]); err != nil {
			return report, err
		}
	}

	stats, err := b.state.GetStats()
	if err != nil {
		return report, err
	}

	for _, s := range stats {
		b.log.Info("Ticker statistics",
			zap.String("ticker", s.Ticker),
			zap.Int("buys", s.Buys),
			zap.Int("wins", s.Wins),
			zap.Int("losses", s.Losses),
			zap.Int("stop_losses", s.StopLosses),
			zap.Float64("total_profit_or_loss", s.TotalProfitOrLoss),
			zap.Float64("average_holding_days", s.AverageHoldingDays),
		)
	}

	if b.resultsFolder != "" {
		if err := b.writeResults(report, callbacks); err != nil {
			return report, err
		}
	}

	return report, nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

// State returns the event store of the last run.
func (b *BacktestEngineV1) State() *BacktestState {
	return b.state
}

// resolveProvider returns the injected provider, or builds one from the config.
// release closes a provider built here.
func (b *BacktestEngineV1) resolveProvider() (provider.Provider, func(), error) {
	if b.provider != nil {
		return b.provider, func() {}, nil
	}

	if err := validator.New().Struct(b.config.Provider); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid provider config", err)
	}

	dataProvider, err := provider.NewProvider(b.config.Provider)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeBacktestNoDatasource, "failed to create provider", err)
	}

	release := func() {
		if closer, ok := dataProvider.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				b.log.Warn("Failed to close provider", zap.Error(err))
			}
		}
	}

	return dataProvider, release, nil
}

func (b *BacktestEngineV1) writeResults(report types.AggregateReport, callbacks engine.LifecycleCallbacks) error {
	resultWriter, err := writer.NewFileWriter(b.resultsFolder)
	if err != nil {
		return err
	}

	written := func(path string) {
		b.log.Debug("Result written", zap.String("path", path))

		if callbacks.OnResultWritten != nil {
			(*callbacks.OnResultWritten)(path)
		}
	}

	for _, ticker := range report.Tickers {
		path, err := resultWriter.WriteResult(report.Results[ticker])
		if err != nil {
			return err
		}

		written(path)
	}

	path, err := resultWriter.WriteReport(report)
	if err != nil {
		return err
	}

	written(path)

	path, err = b.state.Write(b.resultsFolder)
	if err != nil {
		return err
	}

	written(path)

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestConfigError, "engine is not initialized")
	}

	if b.state == nil {
		b.log.Error("Backtest state is nil")

		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	return nil
}
