package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/exporter"
	"avocadoanalytics/internal/recorder"
	"avocadoanalytics/internal/services"
	"avocadoanalytics/internal/shared/testutil"
	api "avocadoanalytics/pkg/contracts/api/v1"
	"avocadoanalytics/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Options(ctx context.Context) api.OptionsResponse {
	return m.Called(ctx).Get(0).(api.OptionsResponse)
}

func (m *MockDashboardService) DefaultQuery() domain.FilterQuery {
	return m.Called().Get(0).(domain.FilterQuery)
}

func (m *MockDashboardService) Charts(ctx context.Context, q domain.FilterQuery, source string) (*services.ChartsResult, error) {
	args := m.Called(ctx, q, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ChartsResult), args.Error(1)
}

func (m *MockDashboardService) Records(ctx context.Context, q domain.FilterQuery) ([]domain.PriceRecord, []string, error) {
	args := m.Called(ctx, q)
	var records []domain.PriceRecord
	if args.Get(0) != nil {
		records = args.Get(0).([]domain.PriceRecord)
	}
	var warnings []string
	if args.Get(1) != nil {
		warnings = args.Get(1).([]string)
	}
	return records, warnings, args.Error(2)
}

func (m *MockDashboardService) Export(ctx context.Context, q domain.FilterQuery, format exporter.Format, w io.Writer) (int, error) {
	args := m.Called(ctx, q, format, w)
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardService) RecentQueries(ctx context.Context, limit int) ([]api.QueryLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.QueryLogEntry), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context) domain.DatasetSummary {
	return m.Called(ctx).Get(0).(domain.DatasetSummary)
}

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newDashboardRouter(t *testing.T, svc DashboardServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	r := chi.NewRouter()
	r.Mount("/api/dashboard", NewDashboardHandler(svc, 20, logger).Routes())
	return r
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

// decodeData unwraps the success envelope
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.Equal(t, "success", env.Status)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem), w.Body.String())
	return problem
}

func sampleCharts(q domain.FilterQuery) *services.ChartsResult {
	series := domain.ChartSeries{
		{Date: date("2015-01-04"), Value: 1.22},
		{Date: date("2015-01-11"), Value: 1.24},
	}
	return &services.ChartsResult{
		Query: q,
		Charts: domain.ChartPair{
			Price:  domain.Chart{ID: "price-chart", Title: "Average Price of Avocados", Series: series},
			Volume: domain.Chart{ID: "volume-chart", Title: "Avocados Sold", Series: series},
		},
		Count: 2,
	}
}

func TestDashboardHandler_GetOptions(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Options", mock.Anything).Return(api.OptionsResponse{
		DashboardOptions: domain.DashboardOptions{
			Regions:  []domain.Option{{Label: "Albany", Value: "Albany"}},
			Types:    []domain.Option{{Label: "Organic", Value: "organic"}},
			Bounds:   domain.DateBounds{Min: date("2015-01-04"), Max: date("2018-03-25")},
			Defaults: domain.FilterQuery{Region: "Albany", Type: domain.AvocadoTypeOrganic},
		},
		Page: api.PageMeta{Heading: "Avocado Analytics"},
	})

	w := do(t, newDashboardRouter(t, svc), "/api/dashboard/options")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var got map[string]interface{}
	decodeData(t, w, &got)
	assert.Equal(t, map[string]interface{}{"min": "2015-01-04", "max": "2018-03-25"}, got["date_bounds"])
	assert.Equal(t, "Avocado Analytics", got["page"].(map[string]interface{})["heading"])
	assert.Len(t, got["regions"], 1)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetCharts(t *testing.T) {
	want := domain.FilterQuery{
		Region:    "Albany",
		Type:      domain.AvocadoTypeOrganic,
		StartDate: date("2015-01-01"),
		EndDate:   date("2015-01-31"),
	}

	svc := &MockDashboardService{}
	svc.On("Charts", mock.Anything, want, recorder.SourceHTTP).Return(sampleCharts(want), nil)

	w := do(t, newDashboardRouter(t, svc),
		"/api/dashboard/charts?region=Albany&type=organic&start_date=2015-01-01&end_date=2015-01-31")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got api.ChartsResponse
	decodeData(t, w, &got)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.PriceChart.Data, 1)
	assert.Equal(t, []string{"2015-01-04", "2015-01-11"}, got.PriceChart.Data[0].X)
	assert.Equal(t, []float64{1.22, 1.24}, got.VolumeChart.Data[0].Y)
	assert.Equal(t, "Albany", got.Query.Region)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetChartsWarnings(t *testing.T) {
	q := domain.FilterQuery{Region: "Atlantis"}
	result := &services.ChartsResult{Query: q, Warnings: []string{`unknown region "Atlantis"`}}

	svc := &MockDashboardService{}
	svc.On("Charts", mock.Anything, q, recorder.SourceHTTP).Return(result, nil)

	w := do(t, newDashboardRouter(t, svc), "/api/dashboard/charts?region=Atlantis")
	require.Equal(t, http.StatusOK, w.Code)

	var got api.ChartsResponse
	decodeData(t, w, &got)
	assert.Zero(t, got.Count)
	assert.Equal(t, []string{`unknown region "Atlantis"`}, got.Warnings)
}

func TestDashboardHandler_GetChartsErrors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed start date",
			target:     "/api/dashboard/charts?start_date=01/04/2015",
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeValidationFailed,
		},
		{
			name:       "impossible calendar date",
			target:     "/api/dashboard/charts?end_date=2015-02-30",
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeValidationFailed,
		},
		{
			name:       "dataset unavailable",
			target:     "/api/dashboard/charts",
			serviceErr: apierrors.NewDatasetError("no dataset", services.ErrNoDataset),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apierrors.CodeDatasetUnavailable,
		},
		{
			name:       "request cancelled",
			target:     "/api/dashboard/charts",
			serviceErr: context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			if tt.serviceErr != nil {
				svc.On("Charts", mock.Anything, mock.Anything, recorder.SourceHTTP).Return(nil, tt.serviceErr)
			}

			w := do(t, newDashboardRouter(t, svc), tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)

			problem := decodeProblem(t, w)
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, problem["error_code"])
			}
			if tt.serviceErr == nil {
				svc.AssertNotCalled(t, "Charts", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDashboardHandler_GetRecords(t *testing.T) {
	q := domain.FilterQuery{Region: "Boston"}
	records := []domain.PriceRecord{
		{Date: date("2015-01-04"), Region: "Boston", Type: domain.AvocadoTypeConventional, AveragePrice: 1.02, TotalVolume: 491738},
	}

	svc := &MockDashboardService{}
	svc.On("Records", mock.Anything, q).Return(records, nil, nil)

	w := do(t, newDashboardRouter(t, svc), "/api/dashboard/records?region=Boston")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Count   int                      `json:"count"`
		Records []map[string]interface{} `json:"records"`
	}
	decodeData(t, w, &got)
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "2015-01-04", got.Records[0]["date"])
	assert.Equal(t, 1.02, got.Records[0]["average_price"])
}

func TestDashboardHandler_GetQueries(t *testing.T) {
	entries := []api.QueryLogEntry{
		{ID: 2, Source: recorder.SourceWebSocket, Points: 10},
		{ID: 1, Source: recorder.SourceHTTP, Points: 4},
	}

	t.Run("default limit", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("RecentQueries", mock.Anything, 20).Return(entries, nil)

		w := do(t, newDashboardRouter(t, svc), "/api/dashboard/queries")
		require.Equal(t, http.StatusOK, w.Code)

		var got api.QueriesResponse
		decodeData(t, w, &got)
		assert.Equal(t, 2, got.Count)
		assert.Equal(t, int64(2), got.Queries[0].ID)
		svc.AssertExpectations(t)
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("RecentQueries", mock.Anything, 5).Return(entries[:1], nil)

		w := do(t, newDashboardRouter(t, svc), "/api/dashboard/queries?limit=5")
		require.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	for _, target := range []string{"/api/dashboard/queries?limit=abc", "/api/dashboard/queries?limit=0", "/api/dashboard/queries?limit=501"} {
		t.Run("rejects "+target, func(t *testing.T) {
			svc := &MockDashboardService{}
			w := do(t, newDashboardRouter(t, svc), target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apierrors.CodeValidationFailed, decodeProblem(t, w)["error_code"])
		})
	}

	t.Run("query log offline", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("RecentQueries", mock.Anything, 20).Return(nil,
			apierrors.NewStorageError("failed to read query log", services.ErrQueryLogOffline))

		w := do(t, newDashboardRouter(t, svc), "/api/dashboard/queries")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apierrors.CodeStorage, decodeProblem(t, w)["error_code"])
	})
}

func TestDashboardHandler_Export(t *testing.T) {
	q := domain.FilterQuery{Region: "Albany", Type: domain.AvocadoTypeOrganic}

	svc := &MockDashboardService{}
	svc.On("Export", mock.Anything, q, exporter.FormatCSV, mock.Anything).
		Run(func(args mock.Arguments) {
			w := args.Get(3).(io.Writer)
			io.WriteString(w, "Date,AveragePrice,Total Volume,type,region\n")
			io.WriteString(w, "2015-01-04,1.22,40873.28,organic,Albany\n")
		}).
		Return(1, nil)

	w := do(t, newDashboardRouter(t, svc), "/api/dashboard/export?format=CSV&region=Albany&type=organic")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="avocado_Albany_organic.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", w.Header().Get("X-Export-Rows"))
	assert.Contains(t, w.Body.String(), "2015-01-04,1.22,40873.28,organic,Albany")
	svc.AssertExpectations(t)
}

func TestDashboardHandler_ExportErrors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		svc := &MockDashboardService{}
		w := do(t, newDashboardRouter(t, svc), "/api/dashboard/export?format=pdf")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.CodeValidationFailed, decodeProblem(t, w)["error_code"])
	})

	t.Run("missing format", func(t *testing.T) {
		svc := &MockDashboardService{}
		w := do(t, newDashboardRouter(t, svc), "/api/dashboard/export")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("writer failure", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("Export", mock.Anything, mock.Anything, exporter.FormatXLSX, mock.Anything).
			Return(0, errors.New("disk full"))

		w := do(t, newDashboardRouter(t, svc), "/api/dashboard/export?format=xlsx")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})
}
