// Package api provides the HTTP REST API for the hub.
//
// It exposes the shared reading cache (sensors and relays) and accepts
// relay commands. The server follows the same lifecycle pattern as the
// other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/pihub/internal/cache"
	"github.com/nerrad567/pihub/internal/infrastructure/config"
	"github.com/nerrad567/pihub/internal/infrastructure/logging"
	"github.com/nerrad567/pihub/internal/relay"
	"github.com/nerrad567/pihub/internal/sensor"
)

// gracefulShutdownTimeout bounds the wait for in-flight requests during
// shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	Logger *logging.Logger
	Cache  *cache.Cache
	Relays *relay.Registry

	// Aggregators by family name, for metadata updates.
	Aggregators map[string]*sensor.Aggregator

	Version string
}

// Server is the hub's HTTP API server.
type Server struct {
	cfg         config.APIConfig
	logger      *logging.Logger
	cache       *cache.Cache
	relays      *relay.Registry
	aggregators map[string]*sensor.Aggregator
	version     string

	server *http.Server
}

// New creates an API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if deps.Relays == nil {
		return nil, fmt.Errorf("relay registry is required")
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		cache:       deps.Cache,
		relays:      deps.Relays,
		aggregators: deps.Aggregators,
		version:     deps.Version,
	}, nil
}

// Start builds the router and launches the HTTP listener in a
// background goroutine. Stop with Close.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting for in-flight
// requests up to the shutdown timeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
