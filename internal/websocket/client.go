package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"avocadoanalytics/internal/config"
	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/infrastructure"
	"avocadoanalytics/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Outbound messages queued per client before it is considered stuck
	sendBufferSize = 256

	// Upper bound for answering a single filter message
	filterTimeout = 10 * time.Second
)

// ClientOptions tunes the read and write pumps
type ClientOptions struct {
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	FilterTimeout  time.Duration
}

// DefaultClientOptions returns the pump settings used when no config is given
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		PingPeriod:     config.WebSocketPingPeriod,
		PongWait:       config.WebSocketPongWait,
		WriteWait:      writeWait,
		MaxMessageSize: config.WebSocketMaxMessageSize,
		FilterTimeout:  filterTimeout,
	}
}

// ClientOptionsFrom maps the websocket config section onto pump settings.
// Zero values fall back to the defaults.
func ClientOptionsFrom(cfg config.WebSocketConfig) ClientOptions {
	opts := DefaultClientOptions()
	if cfg.PingPeriod > 0 {
		opts.PingPeriod = cfg.PingPeriod
	}
	if cfg.PongWait > 0 {
		opts.PongWait = cfg.PongWait
	}
	if cfg.MaxMessageSize > 0 {
		opts.MaxMessageSize = cfg.MaxMessageSize
	}
	if opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = (opts.PongWait * 9) / 10
	}
	return opts
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub     *Hub
	conn    Connection
	queries QueryHandler
	opts    ClientOptions

	// Buffered channel of outbound messages, closed by the hub
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient creates a client for conn. Filter messages are answered by queries.
func NewClient(hub *Hub, conn Connection, queries QueryHandler, traceID string, opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}
	id := uuid.New().String()

	return &Client{
		hub:         hub,
		conn:        conn,
		queries:     queries,
		opts:        opts,
		send:        make(chan []byte, sendBufferSize),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id)),
	}
}

// ID returns the client identifier announced in the connection message
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// enqueue offers msg to the send queue without blocking.
// It returns false when the queue is full or already closed.
func (c *Client) enqueue(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendJSON(v interface{}) {
	ctx := c.context()
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode message", slog.String("error", err.Error()))
		return
	}
	if !c.enqueue(data) {
		c.hub.droppedMessages.Add(1)
		c.logger.WarnContext(ctx, "message dropped, client queue full or closed")
	}
}

func (c *Client) sendError(requestID, code, message string, details interface{}) {
	c.hub.metrics.RecordWebSocketMessage(c.context(), "outbound", string(events.MessageTypeError))
	c.sendJSON(events.ErrorMessage{
		BaseMessage: events.NewBase(events.MessageTypeError, requestID, c.traceID),
		Data: events.ErrorData{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// ReadPump pumps messages from the websocket connection to the query handler.
// Each filter message is answered on this client only.
func (c *Client) ReadPump() {
	received := 0
	defer func() {
		c.logger.InfoContext(c.context(), "websocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int("messages_received", received))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "unexpected websocket close",
					slog.String("error", err.Error()))
			}
			return
		}
		received++
		c.hub.messagesReceived.Add(1)
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		c.handleMessage(bytes.TrimSpace(message))
	}
}

func (c *Client) handleMessage(message []byte) {
	ctx := c.context()

	var in events.InboundMessage
	if err := json.Unmarshal(message, &in); err != nil {
		c.logger.WarnContext(ctx, "malformed websocket message", slog.String("error", err.Error()))
		c.sendError("", apierrors.CodeInvalidRequest, "message is not valid JSON", err.Error())
		return
	}
	c.hub.metrics.RecordWebSocketMessage(ctx, "inbound", inboundLabel(in.Type))

	switch in.Type {
	case events.MessageTypeHeartbeat:
		c.logger.DebugContext(ctx, "heartbeat received")
	case events.MessageTypeFilter:
		c.handleFilter(ctx, in)
	default:
		c.sendError(in.RequestID, apierrors.CodeInvalidRequest,
			fmt.Sprintf("unsupported message type %q", in.Type), nil)
	}
}

// inboundLabel is the metric label of an inbound message type.
// Types the server does not handle share one label.
func inboundLabel(t events.MessageType) string {
	switch t {
	case events.MessageTypeFilter, events.MessageTypeHeartbeat:
		return string(t)
	default:
		return "unknown"
	}
}

func (c *Client) handleFilter(ctx context.Context, in events.InboundMessage) {
	var data events.FilterData
	if len(in.Data) > 0 {
		if err := json.Unmarshal(in.Data, &data); err != nil {
			c.sendError(in.RequestID, apierrors.CodeValidationFailed, "filter data is malformed", err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.FilterTimeout)
	defer cancel()

	charts, err := c.queries.HandleFilter(ctx, c.id, in.RequestID, data)
	if err != nil {
		code, message := errorCode(err)
		c.logger.WarnContext(ctx, "filter request failed",
			slog.String("request_id", in.RequestID),
			slog.String("error", err.Error()))
		c.sendError(in.RequestID, code, message, err.Error())
		return
	}

	c.hub.metrics.RecordWebSocketMessage(ctx, "outbound", string(events.MessageTypeCharts))
	c.sendJSON(events.ChartsMessage{
		BaseMessage: events.NewBase(events.MessageTypeCharts, in.RequestID, c.traceID),
		Data:        charts,
	})
}

func errorCode(err error) (string, string) {
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apierrors.ErrTypeValidation, apierrors.ErrTypeParsing:
			return apierrors.CodeValidationFailed, appErr.Message
		case apierrors.ErrTypeDataset:
			return apierrors.CodeDatasetUnavailable, appErr.Message
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apierrors.CodeServiceUnavailable, "filter request timed out"
	}
	return apierrors.CodeInternal, "failed to render charts"
}

// WritePump pumps messages from the send queue to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	sent := 0
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(c.context(), "websocket write pump stopped", slog.Int("messages_sent", sent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "error writing message to websocket",
					slog.String("error", err.Error()))
				return
			}
			sent++
			c.hub.messagesSent.Add(1)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "failed to send ping",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
