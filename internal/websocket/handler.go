package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"avocadoanalytics/internal/config"
	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/infrastructure"
)

// Handler upgrades HTTP requests on /ws and attaches the resulting clients to a hub
type Handler struct {
	hub      *Hub
	queries  QueryHandler
	opts     ClientOptions
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler builds the upgrade handler. Requests without an Origin header and
// requests whose origin is listed in allowedOrigins are accepted.
func NewHandler(hub *Hub, queries QueryHandler, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.handler"))

	h := &Handler{
		hub:     hub,
		queries: queries,
		opts:    ClientOptionsFrom(cfg),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}
			if slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
				return true
			}
			logger.WarnContext(r.Context(), "websocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", allowedOrigins))
			return false
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.hub.Running() {
		apierrors.WriteError(w, apierrors.New(http.StatusServiceUnavailable,
			apierrors.CodeServiceUnavailable, "live updates are not available"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.logger.ErrorContext(ctx, "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	client := NewClient(h.hub, NewConnectionWrapper(conn), h.queries,
		infrastructure.GetTraceID(ctx), h.opts, h.logger)
	h.hub.Serve(client)
}
