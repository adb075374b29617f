package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"avocadoanalytics/internal/config"
	"avocadoanalytics/internal/dashboard"
	"avocadoanalytics/internal/dataset"
	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/exporter"
	"avocadoanalytics/internal/infrastructure"
	"avocadoanalytics/internal/recorder"
	api "avocadoanalytics/pkg/contracts/api/v1"
	"avocadoanalytics/pkg/contracts/domain"
	"avocadoanalytics/pkg/contracts/events"
)

// ChartsResult is the outcome of one render
type ChartsResult struct {
	Query    domain.FilterQuery
	Charts   domain.ChartPair
	Count    int
	Warnings []string
	Duration time.Duration
}

// Response converts the result into the HTTP payload
func (r *ChartsResult) Response() api.ChartsResponse {
	return api.ChartsResponse{
		Query:       r.Query,
		PriceChart:  r.Charts.Price.Figure(),
		VolumeChart: r.Charts.Volume.Figure(),
		Count:       r.Count,
		Warnings:    r.Warnings,
	}
}

// Message converts the result into the WebSocket payload
func (r *ChartsResult) Message() events.ChartsData {
	return events.ChartsData{
		Query:       r.Query,
		PriceChart:  r.Charts.Price.Figure(),
		VolumeChart: r.Charts.Volume.Figure(),
		Count:       r.Count,
		Warnings:    r.Warnings,
	}
}

// DashboardService renders charts for filter queries against one loaded dataset
type DashboardService struct {
	dataset  *dataset.Dataset
	recorder recorder.Recorder
	metrics  *infrastructure.DashboardMetrics
	logger   *slog.Logger

	defaults        domain.FilterQuery
	defaultWarnings []string
	recentLimit     int
}

// NewDashboardService creates the service. rec and metrics may be nil.
func NewDashboardService(ds *dataset.Dataset, rec recorder.Recorder, metrics *infrastructure.DashboardMetrics,
	cfg config.DashboardConfig, recentLimit int, logger *slog.Logger) (*DashboardService, error) {
	if ds == nil {
		return nil, apierrors.NewDatasetError("dashboard service requires a dataset", ErrNoDataset)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if recentLimit <= 0 {
		recentLimit = config.DefaultRecentQueries
	}
	logger = infrastructure.WithComponent(logger, "dashboard_service")

	defaults, warnings := dashboard.ResolveDefaults(ds, cfg.DefaultRegion, cfg.DefaultType)
	for _, w := range warnings {
		logger.Warn("default selection adjusted", slog.String("warning", w))
	}

	logger.Info("dashboard service initialized",
		slog.String("source", ds.Source()),
		slog.Int("rows", ds.Len()),
		slog.String("default_query", defaults.String()))

	return &DashboardService{
		dataset:         ds,
		recorder:        rec,
		metrics:         metrics,
		logger:          logger,
		defaults:        defaults,
		defaultWarnings: warnings,
		recentLimit:     recentLimit,
	}, nil
}

// DefaultQuery returns the initial selection shown when the page loads
func (s *DashboardService) DefaultQuery() domain.FilterQuery {
	return s.defaults
}

// Options returns the dropdown entries, date bounds, defaults and page texts
func (s *DashboardService) Options(ctx context.Context) api.OptionsResponse {
	return api.OptionsResponse{
		DashboardOptions: dashboard.Options(s.dataset, s.defaults),
		Warnings:         s.defaultWarnings,
		Page: api.PageMeta{
			Title:       config.PageTitle,
			Emoji:       config.PageEmoji,
			Heading:     config.PageHeading,
			Description: config.PageDescription,
		},
	}
}

// Summary describes the loaded dataset
func (s *DashboardService) Summary(ctx context.Context) domain.DatasetSummary {
	return s.dataset.Summary()
}

// DatasetRows returns the number of loaded records
func (s *DashboardService) DatasetRows() int {
	return s.dataset.Len()
}

// Charts renders both charts for q and records the query.
// Render never fails: queries that cannot match produce empty series plus warnings.
func (s *DashboardService) Charts(ctx context.Context, q domain.FilterQuery, source string) (*ChartsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(infrastructure.MeterName).Start(ctx, "dashboard.render")
	defer span.End()

	start := time.Now()
	charts := dashboard.RenderPair(s.dataset, q)
	result := &ChartsResult{
		Query:    q,
		Charts:   charts,
		Count:    charts.Price.Len(),
		Warnings: dashboard.Check(s.dataset, q),
		Duration: time.Since(start),
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"dashboard.source":   source,
		"dashboard.query":    q.String(),
		"dashboard.points":   result.Count,
		"dashboard.warnings": len(result.Warnings),
	})
	s.metrics.RecordRender(ctx, source, result.Count, result.Duration)
	s.record(ctx, source, q, result.Count, result.Duration)

	s.logger.DebugContext(ctx, "charts rendered",
		slog.String("source", source),
		slog.String("query", q.String()),
		slog.Int("points", result.Count),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// Records returns the rows matching q together with any query warnings
func (s *DashboardService) Records(ctx context.Context, q domain.FilterQuery) ([]domain.PriceRecord, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return dashboard.Filter(s.dataset, q), dashboard.Check(s.dataset, q), nil
}

// Export writes the rows matching q to w in the given format and returns the row count
func (s *DashboardService) Export(ctx context.Context, q domain.FilterQuery, format exporter.Format, w io.Writer) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ctx, span := otel.Tracer(infrastructure.MeterName).Start(ctx, "dashboard.export")
	defer span.End()

	start := time.Now()
	records := dashboard.Filter(s.dataset, q)
	err := exporter.Write(w, format, records)
	s.metrics.RecordExport(ctx, string(format), len(records), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		if errors.Is(err, exporter.ErrUnsupportedFormat) {
			return 0, apierrors.NewUnsupportedError(fmt.Sprintf("unsupported export format %q", format), err)
		}
		s.logger.ErrorContext(ctx, "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("export %s: %w", format, err)
	}

	s.record(ctx, recorder.SourceExport, q, len(records), time.Since(start))
	s.logger.InfoContext(ctx, "export written",
		slog.String("format", string(format)),
		slog.String("query", q.String()),
		slog.Int("rows", len(records)))

	return len(records), nil
}

// RecentQueries returns up to limit logged queries, newest first.
// A non-positive limit selects the configured default.
func (s *DashboardService) RecentQueries(ctx context.Context, limit int) ([]api.QueryLogEntry, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	if limit > config.MaxRecentQueries {
		limit = config.MaxRecentQueries
	}

	evts, err := s.recorder.Recent(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read query log", slog.String("error", err.Error()))
		return nil, apierrors.NewStorageError("failed to read query log", fmt.Errorf("%w: %w", ErrQueryLogOffline, err))
	}

	entries := make([]api.QueryLogEntry, 0, len(evts))
	for _, e := range evts {
		entries = append(entries, api.QueryLogEntry{
			ID:         e.ID,
			At:         e.At,
			Source:     e.Source,
			Query:      e.Query,
			Points:     e.Points,
			DurationMS: float64(e.Duration.Microseconds()) / 1000,
		})
	}
	return entries, nil
}

// HandleFilter answers a WebSocket filter message.
// Only unparsable dates are rejected; everything else renders best effort.
func (s *DashboardService) HandleFilter(ctx context.Context, clientID, requestID string, data events.FilterData) (events.ChartsData, error) {
	q, err := data.Query()
	if err != nil {
		return events.ChartsData{}, apierrors.NewAppValidationError(err.Error(), fmt.Errorf("%w: %w", ErrInvalidQuery, err))
	}

	result, err := s.Charts(ctx, q, recorder.SourceWebSocket)
	if err != nil {
		return events.ChartsData{}, err
	}

	s.logger.DebugContext(ctx, "filter answered",
		slog.String("client_id", clientID),
		slog.String("request_id", requestID),
		slog.Int("points", result.Count))

	return result.Message(), nil
}

// record writes a query event; a failing query log never fails the request
func (s *DashboardService) record(ctx context.Context, source string, q domain.FilterQuery, points int, d time.Duration) {
	evt := recorder.QueryEvent{
		At:       time.Now().UTC(),
		Source:   source,
		Query:    q,
		Points:   points,
		Duration: d,
	}
	if err := s.recorder.RecordQuery(ctx, evt); err != nil {
		s.metrics.RecordQueryLogError(ctx)
		s.logger.WarnContext(ctx, "failed to record query",
			slog.String("source", source),
			slog.String("error", err.Error()))
	}
}
