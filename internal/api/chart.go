package api

import (
	"encoding/json"
	"net/http"

	"github.com/rxtech-lab/argo-swing/internal/runner"
	"github.com/rxtech-lab/argo-swing/internal/simulator"
	"github.com/rxtech-lab/argo-swing/internal/types"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
)

// chartPoint is one day of the price chart with its extremum marker and the action taken.
type chartPoint struct {
	Date   string              `json:"date"`
	Close  float64             `json:"close"`
	Label  types.ExtremumLabel `json:"label"`
	Action types.Action        `json:"action"`
	Shares int64               `json:"shares,omitempty"`
	Reason types.SellReason    `json:"reason,omitempty"`
}

type chartSeries struct {
	Ticker string       `json:"ticker"`
	Points []chartPoint `json:"points"`
}

type chartResponse struct {
	Seed   uint64        `json:"seed"`
	Charts []chartSeries `json:"charts"`
}

func newChartSeries(ticker string, walk simulator.Walk) chartSeries {
	points := make([]chartPoint, 0, len(walk.Days))

	for _, day := range walk.Days {
		points = append(points, chartPoint{
			Date:   day.Point.Date.Format(types.DateLayout),
			Close:  day.Point.Close,
			Label:  day.Label,
			Action: day.Decision.Action,
			Shares: day.Decision.Quantity,
			Reason: day.Decision.Reason,
		})
	}

	return chartSeries{Ticker: ticker, Points: points}
}

// handleChart returns the labelled price chart of every requested ticker.
// Unlike a backtest, any ticker failure fails the request.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
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

	run := runner.New(s.provider, s.factory, s.log)
	response := chartResponse{Seed: request.Seed, Charts: []chartSeries{}}

	for _, ticker := range runner.NormalizeTickers(request.Tickers) {
		walk, err := run.Walk(r.Context(), ticker, request)
		if err != nil {
			s.writeError(w, errors.Wrapf(errors.ErrCodeBacktestTickerAborted, err, "ticker %s failed", ticker))

			return
		}

		response.Charts = append(response.Charts, newChartSeries(ticker, walk))
	}

	s.writeJSON(w, http.StatusOK, response)
}
