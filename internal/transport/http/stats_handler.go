package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"avocadoanalytics/internal/websocket"
	"avocadoanalytics/pkg/contracts/domain"
)

// DatasetSummarizer describes the loaded dataset
type DatasetSummarizer interface {
	Summary(ctx context.Context) domain.DatasetSummary
}

// HubStatsProvider exposes the WebSocket hub counters
type HubStatsProvider interface {
	Stats() websocket.Stats
}

// StatsResponse is the data object returned by GET /api/stats
type StatsResponse struct {
	Dataset   domain.DatasetSummary `json:"dataset"`
	WebSocket *websocket.Stats      `json:"websocket,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// StatsHandler reports runtime statistics of the dashboard
type StatsHandler struct {
	dataset DatasetSummarizer
	hub     HubStatsProvider
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats handler. hub may be nil when WebSocket is disabled.
func NewStatsHandler(dataset DatasetSummarizer, hub HubStatsProvider, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		dataset: dataset,
		hub:     hub,
		logger:  logger.With(slog.String("handler", "stats")),
	}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Dataset:   h.dataset.Summary(r.Context()),
		Timestamp: time.Now().UTC(),
	}
	if h.hub != nil {
		stats := h.hub.Stats()
		resp.WebSocket = &stats
	}
	respond(w, r, resp)
}
