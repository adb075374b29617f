package websocket

import (
	"context"
	"time"

	"avocadoanalytics/pkg/contracts/events"
)

// Connection defines the interface for WebSocket connections
// This allows for proper mocking in tests
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	// Returns the message type and payload
	ReadMessage() (messageType int, p []byte, err error)

	// Close closes the connection
	Close() error

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error

	// SetReadLimit sets the maximum size for a message read from the connection
	SetReadLimit(limit int64)

	// SetPongHandler sets the handler for pong messages
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the remote network address
	RemoteAddr() string
}

// QueryHandler answers the filter messages sent by a browser.
// The returned charts are delivered to the sending client only.
type QueryHandler interface {
	HandleFilter(ctx context.Context, clientID, requestID string, data events.FilterData) (events.ChartsData, error)
}

// QueryHandlerFunc adapts a plain function to QueryHandler
type QueryHandlerFunc func(ctx context.Context, clientID, requestID string, data events.FilterData) (events.ChartsData, error)

// HandleFilter calls f
func (f QueryHandlerFunc) HandleFilter(ctx context.Context, clientID, requestID string, data events.FilterData) (events.ChartsData, error) {
	return f(ctx, clientID, requestID, data)
}
