// Package api exposes the mailing admin over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/config"
)

// Server represents the API server
type Server struct {
	server *http.Server
	log    *zap.Logger
}

// NewServer creates a server for handler on the configured address.
func NewServer(cfg config.ServerConfig, handler http.Handler, log *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.GetHost(), cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      5 * time.Minute, // dispatch runs inside the request
			IdleTimeout:       120 * time.Second,
		},
		log: log.Named("server"),
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
