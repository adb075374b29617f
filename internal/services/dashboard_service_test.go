package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"avocadoanalytics/internal/config"
	"avocadoanalytics/internal/dataset"
	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/exporter"
	"avocadoanalytics/internal/infrastructure"
	"avocadoanalytics/internal/recorder"
	"avocadoanalytics/internal/shared/testutil"
	"avocadoanalytics/pkg/contracts/domain"
	"avocadoanalytics/pkg/contracts/events"
)

// MockRecorder is a testify mock of recorder.Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordQuery(ctx context.Context, evt recorder.QueryEvent) error {
	return m.Called(ctx, evt).Error(0)
}

func (m *MockRecorder) Recent(ctx context.Context, limit int) ([]recorder.QueryEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recorder.QueryEvent), args.Error(1)
}

func (m *MockRecorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecorder) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRecorder) Close() error {
	return m.Called().Error(0)
}

func loadFixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.LoadCSV(context.Background(), strings.NewReader(testutil.AvocadoCSV), "fixture.csv")
	require.NoError(t, err)
	return ds
}

func query(t *testing.T, region, avocadoType, start, end string) domain.FilterQuery {
	t.Helper()
	q, err := domain.NewFilterQuery(region, avocadoType, start, end)
	require.NoError(t, err)
	return q
}

func newService(t *testing.T, rec recorder.Recorder, metrics *infrastructure.DashboardMetrics) (*DashboardService, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.DashboardConfig{DefaultRegion: "Albany", DefaultType: "organic"}
	svc, err := NewDashboardService(loadFixture(t), rec, metrics, cfg, 0, logger)
	require.NoError(t, err)
	return svc, handler
}

func TestNewDashboardService_RequiresDataset(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc, err := NewDashboardService(nil, nil, nil, config.DashboardConfig{}, 0, logger)

	assert.Nil(t, svc)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeDataset, appErr.Type)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDashboardService_Defaults(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	q := svc.DefaultQuery()
	assert.Equal(t, "Albany", q.Region)
	assert.Equal(t, domain.AvocadoTypeOrganic, q.Type)
	assert.Equal(t, "2015-01-04", domain.FormatDate(q.StartDate))
	assert.Equal(t, "2015-01-25", domain.FormatDate(q.EndDate))
	assert.Empty(t, svc.Options(context.Background()).Warnings)
}

func TestDashboardService_DefaultsFallBack(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.DashboardConfig{DefaultRegion: "Atlantis", DefaultType: "organic"}
	svc, err := NewDashboardService(loadFixture(t), nil, nil, cfg, 0, logger)
	require.NoError(t, err)

	assert.Equal(t, "Albany", svc.DefaultQuery().Region)
	opts := svc.Options(context.Background())
	require.Len(t, opts.Warnings, 1)
	assert.Contains(t, opts.Warnings[0], `"Atlantis"`)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "default selection adjusted")
}

func TestDashboardService_Options(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	opts := svc.Options(context.Background())
	assert.Equal(t, []domain.Option{{Label: "Albany", Value: "Albany"}, {Label: "Boston", Value: "Boston"}}, opts.Regions)
	assert.Equal(t, []domain.Option{
		{Label: "Conventional", Value: "conventional"},
		{Label: "Organic", Value: "organic"},
	}, opts.Types)
	assert.Equal(t, "2015-01-04", domain.FormatDate(opts.Bounds.Min))
	assert.Equal(t, "2015-01-25", domain.FormatDate(opts.Bounds.Max))
	assert.Equal(t, svc.DefaultQuery(), opts.Defaults)
	assert.Equal(t, config.PageTitle, opts.Page.Title)
	assert.Equal(t, config.PageHeading, opts.Page.Heading)
}

func TestDashboardService_Charts(t *testing.T) {
	rec := &MockRecorder{}
	rec.On("RecordQuery", mock.Anything, mock.MatchedBy(func(e recorder.QueryEvent) bool {
		return e.Source == recorder.SourceHTTP && e.Points == 3 && e.Query.Region == "Albany"
	})).Return(nil).Once()
	svc, _ := newService(t, rec, nil)

	res, err := svc.Charts(context.Background(), query(t, "Albany", "organic", "", ""), recorder.SourceHTTP)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Count)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []float64{1.22, 1.24, 1.39}, res.Charts.Price.Series.Values())
	assert.Equal(t, []float64{800, 900, 1000.5}, res.Charts.Volume.Series.Values())
	assert.Equal(t, []string{"2015-01-04", "2015-01-11", "2015-01-18"}, res.Charts.Price.Series.Dates())

	resp := res.Response()
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, res.Charts.Price.Series.Dates(), resp.PriceChart.Data[0].X)
	assert.Equal(t, config.VolumeChartTitle, resp.VolumeChart.Layout.Title.Text)

	rec.AssertExpectations(t)
}

func TestDashboardService_ChartsBestEffort(t *testing.T) {
	tests := []struct {
		name        string
		q           domain.FilterQuery
		wantWarning string
	}{
		{"unknown region", domain.FilterQuery{Region: "Atlantis"}, `unknown region "Atlantis"`},
		{"unknown type", domain.FilterQuery{Type: "hass"}, `unknown type "hass"`},
		{"inverted range", query(t, "Albany", "organic", "2015-01-18", "2015-01-04"), "is after end_date"},
		{"outside span", query(t, "Albany", "organic", "2019-01-01", ""), "outside the data span"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, nil, nil)

			res, err := svc.Charts(context.Background(), tt.q, recorder.SourceHTTP)
			require.NoError(t, err)
			assert.Zero(t, res.Count)
			assert.NotNil(t, res.Charts.Price.Series)
			require.NotEmpty(t, res.Warnings)
			assert.Contains(t, strings.Join(res.Warnings, "; "), tt.wantWarning)
		})
	}
}

func TestDashboardService_ChartsSurvivesQueryLogFailure(t *testing.T) {
	rec := &MockRecorder{}
	rec.On("RecordQuery", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc, handler := newService(t, rec, nil)

	res, err := svc.Charts(context.Background(), query(t, "Boston", "", "", ""), recorder.SourceHTTP)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "failed to record query")
}

func TestDashboardService_ChartsCancelled(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Charts(ctx, domain.FilterQuery{}, recorder.SourceHTTP)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDashboardService_ChartsRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateDashboardMetrics(provider.Meter("test"))
	require.NoError(t, err)
	svc, _ := newService(t, nil, metrics)

	_, err = svc.Charts(context.Background(), domain.FilterQuery{}, recorder.SourceCLI)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var renders int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "dashboard_renders_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				renders += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), renders)
}

func TestDashboardService_Records(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	records, warnings, err := svc.Records(context.Background(), query(t, "Boston", "", "", ""))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, "Boston", r.Region)
	}

	records, warnings, err = svc.Records(context.Background(), domain.FilterQuery{Region: "Atlantis"})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
	assert.Len(t, warnings, 1)
}

func TestDashboardService_Export(t *testing.T) {
	rec := &MockRecorder{}
	rec.On("RecordQuery", mock.Anything, mock.MatchedBy(func(e recorder.QueryEvent) bool {
		return e.Source == recorder.SourceExport && e.Points == 2
	})).Return(nil).Once()
	svc, _ := newService(t, rec, nil)

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), query(t, "Albany", "conventional", "", ""), exporter.FormatCSV, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ds, err := dataset.LoadCSV(context.Background(), &buf, "export.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"Albany"}, ds.Regions())
	rec.AssertExpectations(t)
}

func TestDashboardService_ExportUnsupported(t *testing.T) {
	svc, _ := newService(t, nil, nil)

	_, err := svc.Export(context.Background(), domain.FilterQuery{}, exporter.Format("pdf"), &bytes.Buffer{})
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeUnsupported, appErr.Type)
	assert.ErrorIs(t, err, exporter.ErrUnsupportedFormat)
}

func TestDashboardService_RecentQueries(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	logged := []recorder.QueryEvent{{
		ID:       7,
		At:       at,
		Source:   recorder.SourceWebSocket,
		Query:    domain.FilterQuery{Region: "Albany"},
		Points:   3,
		Duration: 1500 * time.Microsecond,
	}}

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, config.DefaultRecentQueries},
		{"explicit limit", 5, 5},
		{"clamped", 10000, config.MaxRecentQueries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &MockRecorder{}
			rec.On("Recent", mock.Anything, tt.wantLimit).Return(logged, nil).Once()
			svc, _ := newService(t, rec, nil)

			entries, err := svc.RecentQueries(context.Background(), tt.limit)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, int64(7), entries[0].ID)
			assert.Equal(t, at, entries[0].At)
			assert.Equal(t, "websocket", entries[0].Source)
			assert.InDelta(t, 1.5, entries[0].DurationMS, 1e-9)
			rec.AssertExpectations(t)
		})
	}
}

func TestDashboardService_RecentQueriesStorageError(t *testing.T) {
	rec := &MockRecorder{}
	rec.On("Recent", mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))
	svc, handler := newService(t, rec, nil)

	_, err := svc.RecentQueries(context.Background(), 3)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeStorage, appErr.Type)
	assert.ErrorIs(t, err, ErrQueryLogOffline)
	testutil.AssertLogContains(t, handler, slog.LevelError, "failed to read query log")
}

func TestDashboardService_HandleFilter(t *testing.T) {
	rec := &MockRecorder{}
	rec.On("RecordQuery", mock.Anything, mock.MatchedBy(func(e recorder.QueryEvent) bool {
		return e.Source == recorder.SourceWebSocket
	})).Return(nil)
	svc, _ := newService(t, rec, nil)

	data, err := svc.HandleFilter(context.Background(), "client-1", "r1", events.FilterData{
		Region: "Albany", Type: "organic", StartDate: "2015-01-04", EndDate: "2015-01-04",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, data.Count)
	assert.Equal(t, []string{"2015-01-04"}, data.PriceChart.Data[0].X)
	assert.Equal(t, []float64{1.22}, data.PriceChart.Data[0].Y)

	_, err = svc.HandleFilter(context.Background(), "client-1", "r2", events.FilterData{StartDate: "04/01/2015"})
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeValidation, appErr.Type)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
