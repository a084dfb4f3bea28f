package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/longregen/zap/auth"
	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/connection"
	"github.com/longregen/zap/hash"
	"github.com/longregen/zap/metrics"
)

type WSHandler struct {
	verifier *auth.Verifier
	store    connection.Store
	bus      bus.Bus
	hasher   *hash.Hasher
	upgrader websocket.Upgrader
}

func NewWSHandler(verifier *auth.Verifier, s connection.Store, b bus.Bus, h *hash.Hasher) *WSHandler {
	return &WSHandler{
		verifier: verifier,
		store:    s,
		bus:      b,
		hasher:   h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are native apps, not browsers; the Origin header
			// carries no signal here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Authenticate on the plain HTTP request, before any upgrade.
	session, err := h.verifier.VerifyRequest(r)
	if err != nil {
		slog.Info("ws: rejected upgrade", "error", err)
		http.Error(w, "Valid access token required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws: upgrade error", "error", err)
		return
	}
	defer conn.Close()

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()
	slog.Info("ws: connected", "username", session.Username)

	c := &connection.Connection{
		Conn:    conn,
		Store:   h.store,
		Bus:     h.bus,
		Hasher:  h.hasher,
		Session: session,
	}
	if err := c.Handle(); err != nil {
		metrics.ConnectionFailuresTotal.WithLabelValues(connection.FatalReason(err)).Inc()
		slog.Error("ws: connection failed", "username", session.Username, "error", err)
		return
	}
	slog.Info("ws: disconnected", "username", session.Username)
}
