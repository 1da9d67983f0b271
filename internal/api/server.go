package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"handsim/internal/config"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the per-match WebSocket hubs.
type Server struct {
	registry    *Registry
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: No network listeners are opened until Start() is called.
// This enables testing by allowing the server to be constructed without
// side effects.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(registry *Registry, cfg config.AppConfig) *Server {
	s := &Server{registry: registry}

	// Create rate limiter (we track it for cleanup on Stop)
	s.rateLimiter = NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: float64(cfg.Server.RequestsPerSec),
		Burst:             cfg.Server.RequestBurst,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})

	// Build router using the factory
	s.router = NewRouter(RouterConfig{
		Registry:    registry,
		Sim:         cfg.Sim,
		Frame:       FrameConfig{Width: cfg.Server.FrameWidth, Height: cfg.Server.FrameHeight},
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.Server.AllowedOrigins,
	})

	// WebSocket routes need the registry to find the per-match hub,
	// so they can't be part of the generic NewRouter factory.
	s.router.Get("/ws/matches/{matchID}", s.handleMatchWS)

	return s
}

// Start begins the HTTP server. Blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🤾 Create matches: POST http://localhost%s/api/matches", addr)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(registry, cfg)
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/matches")
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
// Call this before process exit to ensure clean cleanup.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	for _, e := range s.registry.List() {
		if e.Hub != nil {
			e.Hub.Stop()
		}
	}
}

// handleMatchWS upgrades the connection and hands it to the hub that
// belongs to the requested match.
func (s *Server) handleMatchWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "matchID")
	entry, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	entry.Hub.HandleWebSocket(w, r)
}
