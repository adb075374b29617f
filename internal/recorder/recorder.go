// Package recorder keeps a log of the dashboard queries that were rendered.
package recorder

import (
	"context"
	"time"

	"avocadoanalytics/pkg/contracts/domain"
)

// Query sources
const (
	SourceHTTP      = "http"
	SourceWebSocket = "websocket"
	SourceExport    = "export"
	SourceCLI       = "cli"
)

// QueryEvent describes one rendered query
type QueryEvent struct {
	ID       int64
	At       time.Time
	Source   string
	Query    domain.FilterQuery
	Points   int
	Duration time.Duration
}

// Recorder persists query events
type Recorder interface {
	RecordQuery(ctx context.Context, evt QueryEvent) error
	// Recent returns up to limit events, newest first
	Recent(ctx context.Context, limit int) ([]QueryEvent, error)
	// Prune deletes events recorded before the cutoff and returns how many were removed
	Prune(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
