// Package http serves the fitted pipeline's outputs over a read-only API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aircast/logging"
)

// Server wraps the HTTP server and its websocket hub.
type Server struct {
	server *http.Server
	hub    *Hub
	config ServerConfig
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns the default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer builds the server with all handlers and middleware registered.
func NewServer(config ServerConfig) *Server {
	hub := NewHub()
	SetHub(hub)

	mux := http.NewServeMux()
	RegisterHandlers(mux)
	mux.HandleFunc("GET /api/ws", hub.HandleWebSocket)

	chain := Chain(
		RecoveryMiddleware,
		LoggerMiddleware,
		CORSMiddleware(config.AllowedOrigins),
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		hub:    hub,
		config: config,
	}
}

// Start runs the hub and serves until Stop.
func (s *Server) Start() error {
	go s.hub.Start()
	logging.S().Infow("http server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.Stop()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
