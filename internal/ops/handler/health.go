package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	httputil "carrent/pkg/http"
	"carrent/pkg/logger"
)

const readyProbeTimeout = 2 * time.Second

// PipelineStatus is the read-only view of a running pipeline.
type PipelineStatus interface {
	Running() bool
	QueueDepths() map[string]int
	InFlightAggregations() int64
}

// Pinger is any backing service readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status   string `json:"status"`
	Pipeline string `json:"pipeline,omitempty"`
	Stats    string `json:"stats,omitempty"`
}

type HealthHandler struct {
	pipeline PipelineStatus
	stats    Pinger
	log      *logger.Logger
}

// NewHealthHandler reports readiness from the pipeline pools and, when
// statsStore is not nil, from a ping of the shared stats store.
func NewHealthHandler(pipeline PipelineStatus, statsStore Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		pipeline: pipeline,
		stats:    statsStore,
		log:      log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := HealthResponse{Status: "ready", Pipeline: "running"}
	status := http.StatusOK

	if !h.pipeline.Running() {
		resp.Status, resp.Pipeline = "unavailable", "stopped"
		status = http.StatusServiceUnavailable
	}

	if h.stats != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		resp.Stats = "ok"
		if err := h.stats.Ping(ctx); err != nil {
			h.log.Error("Stats store health check failed",
				"error", err,
				"path", r.URL.Path,
			)
			resp.Status, resp.Stats = "unavailable", "error"
			status = http.StatusServiceUnavailable
		}
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
