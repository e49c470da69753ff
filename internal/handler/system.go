package handler

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"proxydesk/pkg/logger"
)

// SystemHandler serves liveness and readiness probes.
type SystemHandler struct {
	db          *sqlx.DB
	redisClient *redis.Client
	logger      logger.Logger
	startTime   time.Time
}

func NewSystemHandler(db *sqlx.DB, redisClient *redis.Client, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		db:          db,
		redisClient: redisClient,
		logger:      log,
		startTime:   time.Now(),
	}
}

// Health reports the process is up.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

// Ready reports whether the backing stores answer. Redis is advisory; only
// the database gates readiness.
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	status := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("Database ping failed", map[string]interface{}{"error": err.Error()})
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(r.Context()).Err(); err != nil {
			h.logger.Warn("Redis ping failed", map[string]interface{}{"error": err.Error()})
			checks["redis"] = "down"
		}
	} else {
		checks["redis"] = "disabled"
	}

	respondJSON(w, status, map[string]interface{}{"checks": checks})
}
