// Package api exposes the backtester over HTTP.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-swing/internal/logger"
	"github.com/rxtech-lab/argo-swing/internal/runner"
	"github.com/rxtech-lab/argo-swing/internal/universe"
	"github.com/rxtech-lab/argo-swing/pkg/errors"
	"github.com/rxtech-lab/argo-swing/pkg/marketdata/provider"
)

const (
	// APIPrefix is the path prefix of every route.
	APIPrefix = "/api/v1"
	// DefaultSuggestionLimit caps ticker suggestions when no limit is given.
	DefaultSuggestionLimit = 10
)

// Server serves the backtest API.
type Server struct {
	provider provider.Provider
	universe *universe.Universe
	factory  runner.SimulatorFactory
	log      *logger.Logger
	now      func() time.Time

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server running backtests against dataProvider.
// A nil symbols universe disables suggestions.
func NewServer(dataProvider provider.Provider, symbols *universe.Universe, log *logger.Logger) *Server {
	if symbols == nil {
		symbols = universe.New(nil)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Server{
		provider:   dataProvider,
		universe:   symbols,
		factory:    nil,
		log:        log,
		now:        time.Now,
		httpServer: nil,
		listener:   nil,
	}
}

// Router returns the HTTP routes of the API.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	// routes live on the root router so method mismatches surface as 405
	router.HandleFunc(APIPrefix+"/backtests", s.handleRunBacktest).Methods(http.MethodPost)
	router.HandleFunc(APIPrefix+"/charts", s.handleChart).Methods(http.MethodPost)
	router.HandleFunc(APIPrefix+"/tickers", s.handleSuggestTickers).Methods(http.MethodGet)
	router.HandleFunc(APIPrefix+"/schema", s.handleSchema).Methods(http.MethodGet)
	router.HandleFunc(APIPrefix+"/version", s.handleVersion).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Code:    int(errors.ErrCodeInvalidParameter),
			Message: fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path),
		})
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    int(errors.ErrCodeInvalidParameter),
			Message: fmt.Sprintf("no route for %s", r.URL.Path),
		})
	})

	return router
}

// Start listens on address and serves in the background.
// If address is empty or ":0", a random available port is used.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.log.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.log.Info("API server started", zap.String("address", s.Address()))

	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		next.ServeHTTP(w, r)

		s.log.Debug("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(started)),
		)
	})
}
