package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-swing/internal/policy"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

type ConfigTestSuite struct {
	suite.Suite
	now time.Time
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(0.0, config.StartingCapital)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.True(config.Seed.IsNone())
	suite.Equal(policy.DefaultConfig(), config.Config)
	suite.Equal(provider.ProviderParquet, config.Provider.Type)
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	config := TestConfig([]string{"AAPL"}, startTime, endTime, 7)

	suite.Equal(10000.0, config.StartingCapital)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
	suite.Equal(uint64(7), config.Seed.Unwrap())
}

func (suite *ConfigTestSuite) TestParseConfig() {
	config, err := ParseConfig(`
version: "1.0.0"
tickers: [aapl, MSFT]
starting_capital: 1000
start_time: 2024-01-02
end_time: 2024-03-28
seed: 99
stop_loss_ratio: 0.8
failure_policy: abort
parallel: true
max_concurrency: 2
provider:
  type: csv
  data_path: ./data
`)
	suite.Require().NoError(err)

	suite.Equal([]string{"aapl", "MSFT"}, config.Tickers)
	suite.Equal(1000.0, config.StartingCapital)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.Equal(time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())
	suite.Equal(uint64(99), config.Seed.Unwrap())
	suite.Equal(0.8, config.StopLossRatio)
	// unset fields keep their defaults
	suite.Equal(policy.DefaultAcceptanceProbability, config.AcceptanceProbability)
	suite.Equal(types.FailurePolicyAbort, config.FailurePolicy)
	suite.True(config.Parallel)
	suite.Equal(2, config.MaxConcurrency)
	suite.Equal(provider.ProviderCSV, config.Provider.Type)
	suite.Equal("./data", config.Provider.DataPath)
}

func (suite *ConfigTestSuite) TestParseConfigErrors() {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{name: "malformed yaml", content: "tickers: [AAPL", code: errors.ErrCodeBacktestConfigError},
		{name: "wrong field type", content: "starting_capital: lots", code: errors.ErrCodeBacktestConfigError},
		{name: "newer major version", content: "version: 2.0.0", code: errors.ErrCodeInvalidVersion},
		{name: "newer minor version", content: "version: 1.9.0", code: errors.ErrCodeInvalidVersion},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := ParseConfig(tc.content)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestRequestResolvesDefaults() {
	config := EmptyConfig()
	config.Tickers = []string{"AAPL"}
	config.StartingCapital = 100

	request, err := config.Request(suite.now)
	suite.Require().NoError(err)

	suite.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), request.End)
	suite.Equal(time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), request.Start)
	suite.Equal(types.FailurePolicyAbort, request.FailurePolicy)
	suite.Equal(policy.DefaultConfig(), request.Policy)
	suite.Equal("100", request.StartingCapital.String())
}

func (suite *ConfigTestSuite) TestDefaultFailurePolicy() {
	config := TestConfig([]string{"AAPL", "aapl"}, suite.now.AddDate(0, -1, 0), suite.now, 1)
	request, err := config.Request(suite.now)
	suite.Require().NoError(err)
	// duplicates collapse to a single ticker
	suite.Equal(types.FailurePolicyAbort, request.FailurePolicy)

	config.Tickers = []string{"AAPL", "MSFT"}
	request, err = config.Request(suite.now)
	suite.Require().NoError(err)
	suite.Equal(types.FailurePolicySkip, request.FailurePolicy)
}

func (suite *ConfigTestSuite) TestRequestKeepsSeed() {
	config := TestConfig([]string{"AAPL"}, suite.now.AddDate(0, -1, 0), suite.now, 1234)

	request, err := config.Request(suite.now)
	suite.Require().NoError(err)
	suite.Equal(uint64(1234), request.Seed)
}

func (suite *ConfigTestSuite) TestRequestValidation() {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		modify  func(c *BacktestEngineV1Config)
		code    errors.ErrorCode
		message string
	}{
		{name: "empty ticker", modify: func(c *BacktestEngineV1Config) { c.Tickers = []string{""} }, code: errors.ErrCodeEmptyTicker, message: "stock ticker cannot be empty"},
		{name: "no tickers", modify: func(c *BacktestEngineV1Config) { c.Tickers = nil }, code: errors.ErrCodeEmptyTicker, message: "stock ticker cannot be empty"},
		{name: "reversed range", modify: func(c *BacktestEngineV1Config) { c.StartTime, c.EndTime = c.EndTime, c.StartTime }, code: errors.ErrCodeInvalidDateRange, message: "start date must be before the end date"},
		{name: "future end", modify: func(c *BacktestEngineV1Config) { c.EndTime = TestConfig(nil, start, suite.now.AddDate(0, 0, 1), 0).EndTime }, code: errors.ErrCodeFutureEndDate, message: "end date cannot be in the future"},
		{name: "zero capital", modify: func(c *BacktestEngineV1Config) { c.StartingCapital = 0 }, code: errors.ErrCodeInvalidCapital, message: "starting capital must be greater than 0"},
		{name: "stop loss", modify: func(c *BacktestEngineV1Config) { c.StopLossRatio = 0 }, code: errors.ErrCodeInvalidStopLoss, message: "stop-loss ratio"},
		{name: "probability", modify: func(c *BacktestEngineV1Config) { c.AcceptanceProbability = 1.2 }, code: errors.ErrCodeInvalidProbability, message: "acceptance probability"},
		{name: "failure policy", modify: func(c *BacktestEngineV1Config) { c.FailurePolicy = "retry" }, code: errors.ErrCodeInvalidFailurePolicy, message: "unknown failure policy"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := TestConfig([]string{"AAPL"}, start, end, 1)
			tc.modify(&config)

			_, err := config.Request(suite.now)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
			suite.Contains(err.Error(), tc.message)
		})
	}
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &parsed))

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)

	for _, key := range []string{"tickers", "starting_capital", "start_time", "end_time", "seed", "stop_loss_ratio", "acceptance_probability", "failure_policy", "provider"} {
		suite.Contains(properties, key)
	}

	startTime, ok := properties["start_time"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("string", startTime["type"])
	suite.Equal("date-time", startTime["format"])

	seed, ok := properties["seed"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("integer", seed["type"])
}
