// Package server exposes the derived views and the publish operations as a
// small JSON API for the browser front-end.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patrickReiis/rap-battle-nostr/internal/config"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
)

// Server is the HTTP front of the app
type Server struct {
	httpServer *http.Server
	log        *ops.Logger
}

// New creates the API server around a handler
func New(cfg *config.Server, handler *Handler, log *ops.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
			Handler:           Router(cfg, handler),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.WithComponent("server"),
	}
}

// Router builds the API routes. Split from New so tests can drive the
// routes without a listening socket.
func Router(cfg *config.Server, handler *Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/rooms", handler.getRooms)
		r.Post("/rooms", handler.postRoom)
		r.Get("/rooms/{roomID}", handler.getRoomState)
		r.Post("/rooms/{roomID}/join", handler.postJoin)
		r.Get("/rooms/{roomID}/verses", handler.getRoomVerses)
		r.Post("/rooms/{roomID}/verses", handler.postVerse)
		r.Get("/leaderboard", handler.getLeaderboard)
		r.Post("/votes", handler.postVote)
		r.Post("/practice", handler.postPractice)
	})
	router.Get("/healthz", handler.healthz)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
