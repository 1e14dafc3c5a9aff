package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Server wraps the HTTP server with timeouts tuned for completion calls,
// which can take a while.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// NewServer creates a Server listening on addr and serving handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second, // LLM calls can take time
			IdleTimeout:  120 * time.Second,
		},
		logger: slog.Default().With("component", "server"),
	}
}

// Start begins serving and blocks until the server stops.
// Returns nil after a clean Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains active connections and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}
