package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-swing/internal/policy"
	"github.com/rxtech-lab/argo-swing/internal/runner"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/internal/version"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

type BacktestEngineV1Config struct {
	// Version is the minimum engine version the config was written for.
	Version         string                     `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Minimum engine version required by this config"`
	Tickers         []string                   `yaml:"tickers" json:"tickers" jsonschema:"title=Tickers,description=Stock tickers to simulate,minItems=1" validate:"required,min=1"`
	StartingCapital float64                    `yaml:"starting_capital" json:"starting_capital" jsonschema:"title=Starting Capital,description=Capital given to every ticker in USD,exclusiveMinimum=0" validate:"gt=0"`
	StartTime       optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=First day of the backtest. Defaults to one year before the end time"`
	EndTime         optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Last day of the backtest. Defaults to today"`
	// Seed reproduces a run. A random seed is drawn when it is not set.
	Seed            optional.Option[uint64]    `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Seed of the random acceptance draws"`

	policy.Config `yaml:",inline"`

	// FailurePolicy defaults to abort for a single ticker and skip for several.
	FailurePolicy  types.FailurePolicy `yaml:"failure_policy,omitempty" json:"failure_policy,omitempty" jsonschema:"title=Failure Policy,description=What to do when a ticker has no usable data" validate:"omitempty,oneof=abort skip"`
	StrictCoverage bool                `yaml:"strict_coverage,omitempty" json:"strict_coverage,omitempty" jsonschema:"title=Strict Coverage,description=Fail a ticker whose data does not span the whole period"`
	Parallel       bool                `yaml:"parallel,omitempty" json:"parallel,omitempty" jsonschema:"title=Parallel,description=Simulate tickers concurrently"`
	MaxConcurrency int                 `yaml:"max_concurrency,omitempty" json:"max_concurrency,omitempty" jsonschema:"title=Max Concurrency,description=Upper bound of concurrently simulated tickers. 0 means unbounded,minimum=0" validate:"gte=0"`
	Provider       provider.Config     `yaml:"provider" json:"provider" jsonschema:"title=Provider,description=Market data provider" validate:"-"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		Version               string              `yaml:"version"`
		Tickers               []string            `yaml:"tickers"`
		StartingCapital       float64             `yaml:"starting_capital"`
		StartTime             *time.Time          `yaml:"start_time"`
		EndTime               *time.Time          `yaml:"end_time"`
		Seed                  *uint64             `yaml:"seed"`
		StopLossRatio         *float64            `yaml:"stop_loss_ratio"`
		AcceptanceProbability *float64            `yaml:"acceptance_probability"`
		FailurePolicy         types.FailurePolicy `yaml:"failure_policy"`
		StrictCoverage        bool                `yaml:"strict_coverage"`
		Parallel              bool                `yaml:"parallel"`
		MaxConcurrency        int                 `yaml:"max_concurrency"`
		Provider              provider.Config     `yaml:"provider"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	*c = EmptyConfig()
	c.Version = config.Version
	c.Tickers = config.Tickers
	c.StartingCapital = config.StartingCapital
	c.FailurePolicy = config.FailurePolicy
	c.StrictCoverage = config.StrictCoverage
	c.Parallel = config.Parallel
	c.MaxConcurrency = config.MaxConcurrency
	c.Provider = config.Provider

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if config.Seed != nil {
		c.Seed = optional.Some(*config.Seed)
	}

	if config.StopLossRatio != nil {
		c.StopLossRatio = *config.StopLossRatio
	}

	if config.AcceptanceProbability != nil {
		c.AcceptanceProbability = *config.AcceptanceProbability
	}

	return nil
}

// ParseConfig decodes a YAML config and checks that the engine can run it.
func ParseConfig(content string) (BacktestEngineV1Config, error) {
	config := EmptyConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return BacktestEngineV1Config{}, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse config", err)
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), config.Version); err != nil {
		return BacktestEngineV1Config{}, err
	}

	return config, nil
}

// Request resolves the defaults of the config against now and validates the result.
func (c BacktestEngineV1Config) Request(now time.Time) (runner.Request, error) {
	end := c.EndTime.TakeOr(types.NormalizeDate(now))
	start := c.StartTime.TakeOr(end.AddDate(-1, 0, 0))

	failurePolicy := c.FailurePolicy
	if failurePolicy == "" {
		failurePolicy = types.DefaultFailurePolicy(len(runner.NormalizeTickers(c.Tickers)))
	}

	request := runner.Request{
		Tickers:         c.Tickers,
		Start:           start,
		End:             end,
		StartingCapital: decimal.NewFromFloat(c.StartingCapital),
		Policy:          c.Config,
		Seed:            c.Seed.TakeOrElse(policy.NewSeed),
		FailurePolicy:   failurePolicy,
		StrictCoverage:  c.StrictCoverage,
		Parallel:        c.Parallel,
		MaxConcurrency:  c.MaxConcurrency,
	}

	if err := request.ValidateAt(now); err != nil {
		return runner.Request{}, err
	}

	if err := validator.New().Struct(c); err != nil {
		return runner.Request{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return request, nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(optional.Option[time.Time]{}):
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			case reflect.TypeOf(optional.Option[uint64]{}):
				return &jsonschema.Schema{
					Type: "integer",
				}
			case reflect.TypeOf(types.FailurePolicy("")):
				return &jsonschema.Schema{
					Type: "string",
					Enum: []any{types.FailurePolicyAbort, types.FailurePolicySkip},
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(tickers []string, startTime time.Time, endTime time.Time, seed uint64) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Tickers = tickers
	config.StartingCapital = 10000
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)
	config.Seed = optional.Some(seed)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Version:         "",
		Tickers:         nil,
		StartingCapital: 0,
		StartTime:       optional.None[time.Time](),
		EndTime:         optional.None[time.Time](),
		Seed:            optional.None[uint64](),
		Config:          policy.DefaultConfig(),
		FailurePolicy:   "",
		StrictCoverage:  false,
		Parallel:        false,
		MaxConcurrency:  0,
		Provider: provider.Config{
			Type:          provider.ProviderParquet,
			PolygonApiKey: "",
			DataPath:      "",
		},
	}
}
