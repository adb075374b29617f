package http

import (
	"context"
	"io"

	"avocadoanalytics/internal/exporter"
	"avocadoanalytics/internal/services"
	api "avocadoanalytics/pkg/contracts/api/v1"
	"avocadoanalytics/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the HTTP layer needs
type DashboardServiceInterface interface {
	Options(ctx context.Context) api.OptionsResponse
	DefaultQuery() domain.FilterQuery
	Charts(ctx context.Context, q domain.FilterQuery, source string) (*services.ChartsResult, error)
	Records(ctx context.Context, q domain.FilterQuery) ([]domain.PriceRecord, []string, error)
	Export(ctx context.Context, q domain.FilterQuery, format exporter.Format, w io.Writer) (int, error)
	RecentQueries(ctx context.Context, limit int) ([]api.QueryLogEntry, error)
	Summary(ctx context.Context) domain.DatasetSummary
}

// Ensure DashboardService implements the interface
var _ DashboardServiceInterface = (*services.DashboardService)(nil)
