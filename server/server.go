// Package server exposes the HTTP surface: the WebSocket endpoint plus
// health and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/longregen/zap/auth"
	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/config"
	"github.com/longregen/zap/connection"
	"github.com/longregen/zap/hash"
)

const ReadTimeout = 30 * time.Second

type Server struct {
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
}

func NewServer(cfg *config.Config, s connection.Store, b bus.Bus) *Server {
	router := chi.NewRouter()
	router.Use(Recovery)
	router.Use(Logger)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	wsHandler := NewWSHandler(
		auth.NewVerifier(cfg.Secrets.AccessToken),
		s,
		b,
		hash.New(cfg.Secrets.ConversationID),
	)
	router.Get("/ws", wsHandler.ServeHTTP)

	return &Server{cfg: cfg, router: router}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: ReadTimeout,
		// WebSocket connections outlive any sane write timeout.
		WriteTimeout: 0,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
