package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-swing/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-swing/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/runner"
	"github.com/rxtech-lab/argo-swing/internal/types"
)

// progressCallbacks advances bar once per finished or skipped ticker.
func progressCallbacks(bar **progressbar.ProgressBar, log *logger.Logger) engine.LifecycleCallbacks {
	onRunStart := runner.OnRunStartCallback(func(runID string, tickers []string) error {
		*bar = progressbar.NewOptions(len(tickers),
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %d tickers", len(tickers))),
			progressbar.OptionShowCount(),
		)

		log.Debug("Run started", zap.String("run_id", runID))

		return nil
	})

	onTickerEnd := runner.OnTickerEndCallback(func(_ int, result types.SimulationResult) {
		_ = (*bar).Add(1)
	})

	onTickerSkipped := runner.OnTickerSkippedCallback(func(_ int, failure types.TickerFailure) {
		_ = (*bar).Add(1)
	})

	onResultWritten := engine.OnResultWrittenCallback(func(path string) {
		log.Info("Wrote result", zap.String("path", path))
	})

	callbacks := engine.LifecycleCallbacks{OnResultWritten: &onResultWritten}
	callbacks.OnRunStart = &onRunStart
	callbacks.OnTickerEnd = &onTickerEnd
	callbacks.OnTickerSkipped = &onTickerSkipped

	return callbacks
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLoggerWithLevel(logger.ParseLevel(cmd.String("log-level")))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() {
		_ = log.Sync()
	}()

	report, err := runBacktest(ctx, cmd.String("config"), cmd.String("results"), log)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(report.Summary())

	return nil
}

// runBacktest runs the config file at configPath and writes the results into resultsFolder.
func runBacktest(ctx context.Context, configPath string, resultsFolder string, log *logger.Logger) (types.AggregateReport, error) {
	config, err := os.ReadFile(configPath)
	if err != nil {
		return types.AggregateReport{}, fmt.Errorf("failed to read config: %w", err)
	}

	backtester := enginev1.NewBacktestEngineV1(log)

	if err := backtester.Initialize(string(config)); err != nil {
		return types.AggregateReport{}, fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return types.AggregateReport{}, fmt.Errorf("failed to set results folder: %w", err)
	}

	var bar *progressbar.ProgressBar

	report, err := backtester.Run(ctx, progressCallbacks(&bar, log))
	if err != nil {
		return report, fmt.Errorf("backtest failed: %w", err)
	}

	return report, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run the extrema swing-trading backtest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest config `FILE`",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Directory for ledgers, stats.yaml and trades.parquet. Empty disables output",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
