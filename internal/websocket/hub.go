package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/infrastructure"
	"avocadoanalytics/pkg/contracts"
	"avocadoanalytics/pkg/contracts/events"
)

// ErrHubStopped is returned when a message is offered to a stopped hub
var ErrHubStopped = errors.New("websocket hub stopped")

// Hub maintains the set of active clients.
// The client set is owned by the Run loop; other goroutines talk to it
// through the register, unregister and broadcast channels.
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	running   atomic.Bool

	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
	droppedMessages  atomic.Int64
}

// Stats is a snapshot of hub counters
type Stats struct {
	Running          bool  `json:"running"`
	Clients          int   `json:"clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesReceived int64 `json:"messages_received"`
	DroppedMessages  int64 `json:"dropped_messages"`
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.DashboardMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Start launches the hub loop. Calling it again has no effect.
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		h.running.Store(true)
		go h.run()
	})
}

// Stop closes every client's send queue and waits for the hub loop to exit
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		if h.running.Load() {
			<-h.done
		}
	})
}

// Running reports whether the hub loop is accepting clients
func (h *Hub) Running() bool {
	select {
	case <-h.quit:
		return false
	default:
		return h.running.Load()
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.totalConnections.Add(1)

			ctx := client.context()
			h.metrics.RecordWebSocketClients(ctx, 1)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			client.sendJSON(events.ConnectionMessage{
				BaseMessage: events.NewBase(events.MessageTypeConnection, "", client.traceID),
				Data: events.ConnectionData{
					ClientID:   client.id,
					Status:     "connected",
					APIVersion: contracts.APIVersion,
				},
			})

		case client := <-h.unregister:
			h.remove(client, "closed")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				if !client.enqueue(message) {
					h.droppedMessages.Add(1)
					h.remove(client, "send buffer full")
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.closeSend()
	ctx := client.context()
	h.metrics.RecordWebSocketClients(ctx, -1)
	h.logger.InfoContext(ctx, "client unregistered",
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// Register adds a client. It returns false when the hub has been stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client and closes its send queue
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast sends v, encoded as JSON, to every connected client
func (h *Hub) Broadcast(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

// Serve registers client and starts its pumps
func (h *Hub) Serve(client *Client) {
	if !h.Register(client) {
		client.conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of the hub counters
func (h *Hub) Stats() Stats {
	return Stats{
		Running:          h.Running(),
		Clients:          h.ClientCount(),
		TotalConnections: h.totalConnections.Load(),
		MessagesSent:     h.messagesSent.Load(),
		MessagesReceived: h.messagesReceived.Load(),
		DroppedMessages:  h.droppedMessages.Load(),
	}
}

// ShutdownNotice is broadcast to clients right before the server stops
func ShutdownNotice() events.ErrorMessage {
	return events.ErrorMessage{
		BaseMessage: events.NewBase(events.MessageTypeError, "", ""),
		Data: events.ErrorData{
			Code:    apierrors.CodeServiceUnavailable,
			Message: "server is shutting down",
			Fatal:   true,
		},
	}
}

