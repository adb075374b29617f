package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics holds the application-specific instruments
type DashboardMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Render metrics
	RendersTotal   metric.Int64Counter
	RenderDuration metric.Float64Histogram
	RenderPoints   metric.Int64Histogram

	// Export and query log metrics
	ExportsTotal        metric.Int64Counter
	QueryLogErrorsTotal metric.Int64Counter

	// WebSocket metrics
	WebSocketClients  metric.Int64UpDownCounter
	WebSocketMessages metric.Int64Counter
}

// CreateDashboardMetrics creates the instruments on meter
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	m := &DashboardMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.RendersTotal, err = meter.Int64Counter(
		"dashboard_renders_total",
		metric.WithDescription("Total number of chart renders by source"),
	); err != nil {
		return nil, err
	}

	if m.RenderDuration, err = meter.Float64Histogram(
		"dashboard_render_duration_seconds",
		metric.WithDescription("Filter-and-render duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.RenderPoints, err = meter.Int64Histogram(
		"dashboard_render_points",
		metric.WithDescription("Number of points per rendered series"),
	); err != nil {
		return nil, err
	}

	if m.ExportsTotal, err = meter.Int64Counter(
		"dashboard_exports_total",
		metric.WithDescription("Total number of data exports by format"),
	); err != nil {
		return nil, err
	}

	if m.QueryLogErrorsTotal, err = meter.Int64Counter(
		"query_log_errors_total",
		metric.WithDescription("Total number of failed query log writes"),
	); err != nil {
		return nil, err
	}

	if m.WebSocketClients, err = meter.Int64UpDownCounter(
		"websocket_clients",
		metric.WithDescription("Number of connected WebSocket clients"),
	); err != nil {
		return nil, err
	}

	if m.WebSocketMessages, err = meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Total number of WebSocket messages by direction and type"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRender records one render; a nil receiver is a no-op
func (m *DashboardMetrics) RecordRender(ctx context.Context, source string, points int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.RendersTotal.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, duration.Seconds(), attrs)
	m.RenderPoints.Record(ctx, int64(points), attrs)
}

// RecordExport records one export
func (m *DashboardMetrics) RecordExport(ctx context.Context, format string, rows int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("status", status),
	))
}

// RecordQueryLogError counts a failed query log write
func (m *DashboardMetrics) RecordQueryLogError(ctx context.Context) {
	if m == nil {
		return
	}
	m.QueryLogErrorsTotal.Add(ctx, 1)
}

// RecordWebSocketClients adjusts the connected client gauge by delta
func (m *DashboardMetrics) RecordWebSocketClients(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketClients.Add(ctx, delta)
}

// RecordWebSocketMessage counts one message
func (m *DashboardMetrics) RecordWebSocketMessage(ctx context.Context, direction, msgType string) {
	if m == nil {
		return
	}
	m.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", msgType),
	))
}
