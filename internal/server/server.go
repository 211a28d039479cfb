// Package server assembles the HTTP surface and owns its lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/calendsync/authbridge/internal/auth"
	"github.com/calendsync/authbridge/internal/config"
	"github.com/calendsync/authbridge/internal/logger"
	"github.com/calendsync/authbridge/internal/utils"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server serves the login flow routes over HTTP.
type Server struct {
	config *config.Config
	auth   *auth.Service
}

// NewServer creates a new server instance wired to the auth service.
func NewServer(cfg *config.Config, authService *auth.Service) *Server {
	return &Server{
		config: cfg,
		auth:   authService,
	}
}

// Handler builds the route table: the two login-flow routes plus a health
// endpoint, wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.auth.RegisterRoutes(mux)
	mux.HandleFunc("/healthz", handleHealthz)
	return RequestLogger(mux)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "ok"})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server",
			zap.String("address", addr),
			zap.String("provider", s.auth.GetProvider().Name()),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// Module provides the HTTP server dependencies
var Module = fx.Module("server",
	fx.Provide(
		NewServer,
	),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, srv *Server, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				err := srv.Start(ctx)
				if err != nil {
					logger.Error("Server exited", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
				done <- err
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			// Wait for Start's graceful shutdown to finish before fx
			// proceeds with teardown.
			select {
			case err := <-done:
				return err
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
