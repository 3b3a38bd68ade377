package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	engine "github.com/rxtech-lab/argo-swing/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-swing/internal/policy"
	"github.com/rxtech-lab/argo-swing/internal/version"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

const (
	schemaName       = "backtest-engine-v1-config.json"
	sampleConfigName = "backtest-engine-v1-config.yaml"
	configDir        = "./config"
)

// sampleConfig is the shape of the generated sample.
type sampleConfig struct {
	Version               string          `yaml:"version"`
	Tickers               []string        `yaml:"tickers"`
	StartingCapital       float64         `yaml:"starting_capital"`
	StartTime             time.Time       `yaml:"start_time"`
	EndTime               time.Time       `yaml:"end_time"`
	StopLossRatio         float64         `yaml:"stop_loss_ratio"`
	AcceptanceProbability float64         `yaml:"acceptance_probability"`
	FailurePolicy         string          `yaml:"failure_policy"`
	Provider              provider.Config `yaml:"provider"`
}

func newSampleConfig() sampleConfig {
	return sampleConfig{
		Version:               version.GetVersion(),
		Tickers:               []string{"AAPL", "MSFT"},
		StartingCapital:       10000,
		StartTime:             time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		EndTime:               time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		StopLossRatio:         policy.DefaultStopLossRatio,
		AcceptanceProbability: policy.DefaultAcceptanceProbability,
		FailurePolicy:         "skip",
		Provider: provider.Config{
			Type:          provider.ProviderParquet,
			PolygonApiKey: "",
			DataPath:      "./data/*.parquet",
		},
	}
}

func main() {
	schemaPath := filepath.Join(configDir, schemaName)
	sampleConfigPath := filepath.Join(configDir, sampleConfigName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatalf("Invalid paths: %v", err)
	}

	config := engine.EmptyConfig()

	if err := generateSchemaFile(config, schemaPath); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	if err := generateSampleConfig(newSampleConfig(), sampleConfigPath, schemaName); err != nil {
		log.Fatalf("Failed to generate sample config: %v", err)
	}
}

func generateSchemaFile(config engine.BacktestEngineV1Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes sample to samplePath unless the file already exists.
func generateSampleConfig(sample sampleConfig, samplePath string, schemaName string) error {
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(samplePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

func validatePaths(schemaPath string, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return validateSchemaName(filepath.Base(schemaPath))
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}
