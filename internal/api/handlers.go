package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	enginev1 "github.com/rxtech-lab/argo-swing/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-swing/internal/policy"
	"github.com/rxtech-lab/argo-swing/internal/runner"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/internal/version"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// BacktestRequest is the body of POST /api/v1/backtests.
type BacktestRequest struct {
	Tickers   []string `json:"tickers"`
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Capital   float64  `json:"capital"`
	// Optional policy parameters fall back to the defaults.
	StopLossRatio         optional.Option[float64] `json:"stop_loss_ratio,omitempty"`
	AcceptanceProbability optional.Option[float64] `json:"acceptance_probability,omitempty"`
	Seed                  optional.Option[uint64]  `json:"seed,omitempty"`
	FailurePolicy         types.FailurePolicy      `json:"failure_policy,omitempty"`
	StrictCoverage        bool                     `json:"strict_coverage,omitempty"`
	Parallel              bool                     `json:"parallel,omitempty"`
}

// ToRunnerRequest converts the body into a validated runner request.
func (b BacktestRequest) ToRunnerRequest(now time.Time) (runner.Request, error) {
	if err := validator.New().Struct(b); err != nil {
		return runner.Request{}, errors.Wrap(errors.ErrCodeInvalidParameter, "dates must be given as YYYY-MM-DD", err)
	}

	start, err := time.Parse(types.DateLayout, b.StartDate)
	if err != nil {
		return runner.Request{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid start_date", err)
	}

	end, err := time.Parse(types.DateLayout, b.EndDate)
	if err != nil {
		return runner.Request{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid end_date", err)
	}

	config := policy.Config{
		StopLossRatio:         b.StopLossRatio.TakeOr(policy.DefaultStopLossRatio),
		AcceptanceProbability: b.AcceptanceProbability.TakeOr(policy.DefaultAcceptanceProbability),
	}

	failurePolicy := b.FailurePolicy
	if failurePolicy == "" {
		failurePolicy = types.DefaultFailurePolicy(len(runner.NormalizeTickers(b.Tickers)))
	}

	request := runner.Request{
		Tickers:         b.Tickers,
		Start:           start,
		End:             end,
		StartingCapital: decimal.NewFromFloat(b.Capital),
		Policy:          config,
		Seed:            b.Seed.TakeOrElse(policy.NewSeed),
		FailurePolicy:   failurePolicy,
		StrictCoverage:  b.StrictCoverage,
		Parallel:        b.Parallel,
		MaxConcurrency:  0,
	}

	if err := request.ValidateAt(now); err != nil {
		return runner.Request{}, err
	}

	return request, nil
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tickersResponse struct {
	Tickers []string `json:"tickers"`
}

type versionResponse struct {
	Version string `json:"version"`
}

func (s *Server) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var body BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	request, err := body.ToRunnerRequest(s.now())
	if err != nil {
		s.writeError(w, err)

		return
	}

	report, err := runner.New(s.provider, s.factory, s.log).Run(r.Context(), request, runner.LifecycleCallbacks{})
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSuggestTickers(w http.ResponseWriter, r *http.Request) {
	limit := DefaultSuggestionLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, errors.Newf(errors.ErrCodeInvalidParameter, "invalid limit %q", raw))

			return
		}

		limit = parsed
	}

	suggestions := s.universe.Suggest(r.URL.Query().Get("q"), limit)
	if suggestions == nil {
		suggestions = []string{}
	}

	s.writeJSON(w, http.StatusOK, tickersResponse{Tickers: suggestions})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	config := enginev1.EmptyConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(schema)); err != nil {
		s.log.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, versionResponse{Version: version.GetVersion()})
}

// statusCode maps validation errors to 400 and aborted runs to 422.
func statusCode(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.HasCode(err, errors.ErrCodeBacktestTickerAborted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", zap.Error(err))
	}

	s.writeJSON(w, status, errorResponse{
		Code:    int(errors.GetCode(err)),
		Message: err.Error(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Failed to write response", zap.Error(err))
	}
}
