package handler

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apperrors "carrent/pkg/errors"
	httputil "carrent/pkg/http"
	"carrent/pkg/logger"
	"carrent/pkg/stats"
)

type metricsSnapshot interface {
	Snapshot() map[string]any
}

type totalsReader interface {
	Totals(ctx context.Context) (map[string]string, error)
}

type StatsResponse struct {
	Events               map[string]int64  `json:"events"`
	FailedSources        map[string]int64  `json:"failed_sources"`
	QueueDepths          map[string]int    `json:"queue_depths"`
	InFlightAggregations int64             `json:"in_flight_aggregations"`
	SharedTotals         map[string]string `json:"shared_totals,omitempty"`
	Kafka                map[string]any    `json:"kafka,omitempty"`
}

type StatsHandler struct {
	pipeline PipelineStatus
	memory   *stats.MemoryRecorder
	shared   totalsReader
	kafka    metricsSnapshot
	log      *logger.Logger
}

type StatsOption func(*StatsHandler)

// WithSharedTotals adds the cross-process totals, e.g. from a RedisRecorder.
func WithSharedTotals(r totalsReader) StatsOption {
	return func(h *StatsHandler) { h.shared = r }
}

func WithKafkaMetrics(m metricsSnapshot) StatsOption {
	return func(h *StatsHandler) { h.kafka = m }
}

func NewStatsHandler(pipeline PipelineStatus, memory *stats.MemoryRecorder, log *logger.Logger, opts ...StatsOption) *StatsHandler {
	h := &StatsHandler{
		pipeline: pipeline,
		memory:   memory,
		log:      log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := StatsResponse{
		Events:               h.memory.Snapshot(),
		FailedSources:        h.memory.FailedSources(),
		QueueDepths:          h.pipeline.QueueDepths(),
		InFlightAggregations: h.pipeline.InFlightAggregations(),
	}
	if h.kafka != nil {
		resp.Kafka = h.kafka.Snapshot()
	}

	if h.shared != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		totals, err := h.shared.Totals(ctx)
		if err != nil {
			h.log.Error("Failed to read shared stats", "error", err)
			if writeErr := httputil.WriteError(w, apperrors.Unavailable("Stats store")); writeErr != nil {
				h.log.Error("failed to write JSON response", "handler", "Stats", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		resp.SharedTotals = totals
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/stats", h.Stats)
}
