package recorder

import (
	"context"
	"time"
)

// NoopRecorder is used when the query log is disabled
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuery(_ context.Context, _ QueryEvent) error { return nil }
func (n *NoopRecorder) Recent(_ context.Context, _ int) ([]QueryEvent, error) {
	return []QueryEvent{}, nil
}
func (n *NoopRecorder) Prune(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (n *NoopRecorder) Ping(_ context.Context) error                        { return nil }
func (n *NoopRecorder) Close() error                                        { return nil }
