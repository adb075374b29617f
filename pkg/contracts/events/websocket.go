// Package events contains the message contracts exchanged over the dashboard WebSocket.
package events

import (
	"encoding/json"
	"time"

	"avocadoanalytics/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client -> server
	MessageTypeFilter    MessageType = "filter"
	MessageTypeHeartbeat MessageType = "heartbeat"

	// Server -> client
	MessageTypeCharts     MessageType = "charts"
	MessageTypeConnection MessageType = "connection"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"` // echoes the client's request id
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// InboundMessage is a message received from a browser.
// Data is decoded lazily according to Type.
type InboundMessage struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// FilterData is the payload of a filter message
type FilterData struct {
	Region    string `json:"region,omitempty"`
	Type      string `json:"type,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Query converts the payload into a domain query, failing only on unparsable dates
func (f FilterData) Query() (domain.FilterQuery, error) {
	return domain.NewFilterQuery(f.Region, f.Type, f.StartDate, f.EndDate)
}

// ChartsData is the payload of a charts message
type ChartsData struct {
	Query       domain.FilterQuery `json:"query"`
	PriceChart  domain.Figure      `json:"price_chart"`
	VolumeChart domain.Figure      `json:"volume_chart"`
	Count       int                `json:"count"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// ChartsMessage answers a filter message
type ChartsMessage struct {
	BaseMessage
	Data ChartsData `json:"data"`
}

// ErrorData is the payload of an error message
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Fatal   bool        `json:"fatal"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	BaseMessage
	Data ErrorData `json:"data"`
}

// ConnectionData is sent once when a client registers
type ConnectionData struct {
	ClientID   string `json:"client_id"`
	Status     string `json:"status"`
	APIVersion string `json:"api_version"`
}

// ConnectionMessage greets a newly registered client
type ConnectionMessage struct {
	BaseMessage
	Data ConnectionData `json:"data"`
}

// NewBase builds a BaseMessage stamped with the current time
func NewBase(t MessageType, requestID, traceID string) BaseMessage {
	return BaseMessage{
		Type:      t,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
	}
}
