package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
)

const (
	readinessTimeout = 2 * time.Second

	dependencyOK   = "ok"
	dependencyDown = "down"
)

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db      *sql.DB
	redis   *redis.Client
	version string
	logger  *logger.Logger
}

// DependencyStatus is one entry of the readiness report
type DependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

// ReadinessResponse lists every dependency the API needs. A Redis outage
// marks the instance degraded, not unavailable.
type ReadinessResponse struct {
	Status       string                      `json:"status"`
	Version      string                      `json:"version"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, version string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
		logger:  log,
	}
}

// WithRedis adds the shared Redis client to the readiness report
func (h *HealthHandler) WithRedis(client *redis.Client) *HealthHandler {
	h.redis = client
	return h
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "growen-api",
		"version": h.version,
	})
}

// Readyz handles readiness probe
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := ReadinessResponse{
		Status:       "ready",
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, 2),
	}

	database := h.probe("database", func() error { return h.db.PingContext(ctx) })
	resp.Dependencies["database"] = database
	if database.Status != dependencyOK {
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Base de dados indisponível")
		return
	}

	if h.redis != nil {
		cache := h.probe("redis", func() error { return h.redis.Ping(ctx).Err() })
		resp.Dependencies["redis"] = cache
		if cache.Status != dependencyOK {
			resp.Status = "degraded"
		}
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// probe times check and logs its failure without exposing it to the caller
func (h *HealthHandler) probe(name string, check func() error) DependencyStatus {
	start := time.Now()
	err := check()
	status := DependencyStatus{Status: dependencyOK, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		status.Status = dependencyDown
		h.logger.WithFields(map[string]interface{}{
			"dependency": name,
			"error":      err.Error(),
		}).Error("Readiness check failed")
	}
	return status
}
