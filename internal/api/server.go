// Package api provides the HTTP server for Gray Assist: the assistant
// fulfillment endpoint, the account-linking redirect endpoint, and a health
// check.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-assist/internal/audit"
	"github.com/nerrad567/gray-assist/internal/auth"
	"github.com/nerrad567/gray-assist/internal/infrastructure/config"
	"github.com/nerrad567/gray-assist/internal/infrastructure/logging"
	"github.com/nerrad567/gray-assist/internal/smarthome"
)

// gracefulShutdownTimeout bounds the wait for in-flight requests during
// shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Gate    *auth.Gate
	Bridge  *smarthome.Bridge
	Audit   audit.Recorder // optional; nil disables the activity trail
	Version string
}

// Server is the HTTP server for Gray Assist.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	gate    *auth.Gate
	bridge  *smarthome.Bridge
	audit   audit.Recorder
	version string
	server  *http.Server
	cancel  context.CancelFunc
}

// New creates an API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("auth gate is required")
	}
	if deps.Bridge == nil {
		return nil, fmt.Errorf("smarthome bridge is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		gate:    deps.Gate,
		bridge:  deps.Bridge,
		audit:   deps.Audit,
		version: deps.Version,
	}, nil
}

// Start builds the router, launches the grant purge loop, and begins
// listening in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close can stop background goroutines
	// independently of the parent.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.gate.PurgeLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting up to ten seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
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
