package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avocadoanalytics/internal/infrastructure"
)

func newProviders(t *testing.T) *infrastructure.OTelProviders {
	t.Helper()
	providers, err := infrastructure.InitializeOTel(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		providers.Shutdown(ctx)
	})
	return providers
}

func TestOTelMiddlewareRecordsHTTPMetrics(t *testing.T) {
	providers := newProviders(t)
	m, err := NewOTelMiddleware(providers, nil)
	require.NoError(t, err)
	require.NotNil(t, m.Metrics())

	r := chi.NewRouter()
	r.Use(RequestID, m.Handler)
	r.Get("/api/dashboard/charts", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, infrastructure.GetTraceID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/charts?region=Albany", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	metricsRec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := metricsRec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/dashboard/charts"`)
}

func TestOTelMiddlewareBoundsLabels(t *testing.T) {
	providers := newProviders(t)
	m, err := NewOTelMiddleware(providers, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 30; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/nope-%d", i), nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("BREW", "/api/health", nil))

	metricsRec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := metricsRec.Body.String()

	assert.Contains(t, body, `route="unmatched"`)
	assert.Contains(t, body, `method="OTHER"`)
	assert.NotContains(t, body, "/nope-")
	assert.NotContains(t, body, "BREW")

	series := 0
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "http_requests_total{") {
			series++
		}
	}
	assert.LessOrEqual(t, series, 2)
}

func TestOTelMiddlewareRequiresProviders(t *testing.T) {
	_, err := NewOTelMiddleware(nil, nil)
	assert.Error(t, err)
}

func TestWebSocketTraceMiddleware(t *testing.T) {
	var traceID string
	h := WebSocketTraceMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID = infrastructure.GetTraceID(r.Context())
			_, isRecorder := w.(*httptest.ResponseRecorder)
			assert.True(t, isRecorder, "response writer must not be wrapped")
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.NotEmpty(t, traceID)
}
