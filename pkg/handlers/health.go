package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/datalinkhq/connector-engine/pkg/config"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

// PingResponse reports service identity and which connector types this
// instance can dispatch to.
type PingResponse struct {
	Status        string   `json:"status"`
	Service       string   `json:"service"`
	Version       string   `json:"version"`
	Environment   string   `json:"environment"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Connectors    []string `json:"connectors"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg      *config.Config
	registry *connectors.Registry
	logger   *zap.Logger
	started  time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg *config.Config, registry *connectors.Registry, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, registry: registry, logger: logger, started: time.Now()}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
// Returns a bare "ok" for load balancer health checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	types := make([]string, 0)
	for _, info := range h.registry.List() {
		types = append(types, info.Type)
	}

	response := PingResponse{
		Status:        "ok",
		Service:       "connector-engine",
		Version:       h.cfg.Version,
		Environment:   h.cfg.Env,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Connectors:    types,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
