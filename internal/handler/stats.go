package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"proxydesk/internal/stats"
	"proxydesk/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now (CORS)
	},
}

// StatsHandler serves the dashboard read side.
type StatsHandler struct {
	service *stats.Service
	logger  logger.Logger
}

func NewStatsHandler(service *stats.Service, log logger.Logger) *StatsHandler {
	return &StatsHandler{service: service, logger: log}
}

// Snapshot returns one dashboard refresh.
func (h *StatsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("Dashboard snapshot failed", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// Stream pushes dashboard snapshots over a websocket.
func (h *StatsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	h.logger.Info("Dashboard stream connected", nil)

	// Send initial snapshot
	if err := h.sendSnapshot(r.Context(), conn); err != nil {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.sendSnapshot(r.Context(), conn); err != nil {
				h.logger.Error("Failed to push snapshot", map[string]interface{}{"error": err.Error()})
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (h *StatsHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn) error {
	snapshot, err := h.service.Snapshot(ctx)
	if err != nil {
		return err
	}

	return conn.WriteJSON(map[string]interface{}{
		"type":     "stats_update",
		"snapshot": snapshot,
	})
}
