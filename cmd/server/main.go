package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-swing/internal/api"
	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/universe"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

func serverAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLoggerWithLevel(logger.ParseLevel(cmd.String("log-level")))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() {
		_ = log.Sync()
	}()

	dataProvider, err := provider.NewProvider(provider.Config{
		Type:          provider.ProviderType(cmd.String("provider")),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
		DataPath:      cmd.String("data"),
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	symbols, err := universe.Load(log, cmd.StringSlice("listings")...)
	if err != nil {
		return fmt.Errorf("failed to load ticker listings: %w", err)
	}

	log.Info("Loaded ticker universe", zap.Int("symbols", symbols.Len()))

	server := api.NewServer(dataProvider, symbols, log)
	if err := server.Start(cmd.String("addr")); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Stop(shutdownCtx)
}

func main() {
	cmd := &cli.Command{
		Name:  "server",
		Usage: "Serve the backtest HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8080",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Market data provider (%s, %s, %s or %s)", provider.ProviderParquet, provider.ProviderCSV, provider.ProviderPolygon, provider.ProviderBinance),
				Value:   string(provider.ProviderParquet),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Parquet file or glob, or CSV directory",
				Value:   "data/*.parquet",
			},
			&cli.StringSliceFlag{
				Name:  "listings",
				Usage: "Exchange listing CSV files with a Symbol column",
				Value: universe.DefaultFiles,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Action: serverAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
