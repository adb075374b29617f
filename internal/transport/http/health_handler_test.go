package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avocadoanalytics/internal/services"
	"avocadoanalytics/internal/shared/testutil"
	"avocadoanalytics/pkg/contracts"
	"avocadoanalytics/pkg/contracts/domain"
)

type staticDataset struct {
	summary domain.DatasetSummary
}

func (s staticDataset) Summary(context.Context) domain.DatasetSummary { return s.summary }

func loadedDataset() staticDataset {
	return staticDataset{summary: domain.DatasetSummary{
		Source: "avocado.csv",
		Rows:   18249,
		Bounds: domain.DateBounds{Min: date("2015-01-04"), Max: date("2018-03-25")},
	}}
}

func TestHealthHandler_Endpoints(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService(loadedDataset(), nil, nil, logger), logger)

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus string
	}{
		{name: "health", handler: h.HealthCheck, wantStatus: services.StatusOK},
		{name: "ready", handler: h.ReadinessCheck, wantStatus: services.StatusReady},
		{name: "live", handler: h.LivenessCheck, wantStatus: services.StatusAlive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var got services.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, contracts.Version, got.Version)
		})
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService(staticDataset{}, nil, nil, logger), logger)

	w := httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var got services.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, services.StatusNotReady, got.Status)
	assert.Equal(t, services.StatusNotReady, got.Services["dataset"].Status)
}

func TestHealthHandler_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService(nil, nil, nil, logger), logger)

	w := httptest.NewRecorder()
	h.Version(w, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, contracts.Version, got["version"])
	assert.Equal(t, contracts.APIVersion, got["api_version"])
}
