package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/exporter"
	"avocadoanalytics/internal/middleware"
	"avocadoanalytics/internal/recorder"
	api "avocadoanalytics/pkg/contracts/api/v1"
)

// envelope wraps every successful JSON payload
type envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

func respond(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, envelope{Status: "success", Data: data})
}

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.QueryValidator
	recentLimit  int
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler.
// recentLimit is the number of query log entries returned when no limit is given.
func NewDashboardHandler(service DashboardServiceInterface, recentLimit int, logger *slog.Logger) *DashboardHandler {
	logger = logger.With(slog.String("handler", "dashboard"))
	return &DashboardHandler{
		service:      service,
		validator:    middleware.NewQueryValidator(logger),
		recentLimit:  recentLimit,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/options", h.GetOptions)
		r.Get("/charts", h.GetCharts)
		r.Get("/records", h.GetRecords)
		r.Get("/queries", h.GetQueries)
	})

	// binary download, content type set per format
	r.Get("/export", h.Export)

	return r
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.service.Options(r.Context()))
}

// GetCharts handles GET /api/dashboard/charts
func (h *DashboardHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	q, err := h.validator.FilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Charts(r.Context(), q, recorder.SourceHTTP)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	respond(w, r, result.Response())
}

// GetRecords handles GET /api/dashboard/records
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	q, err := h.validator.FilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, warnings, err := h.service.Records(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	respond(w, r, api.RecordsResponse{
		Query:    q,
		Records:  records,
		Count:    len(records),
		Warnings: warnings,
	})
}

// GetQueries handles GET /api/dashboard/queries
func (h *DashboardHandler) GetQueries(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.QueriesRequest(r, h.recentLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	entries, err := h.service.RecentQueries(r.Context(), req.Limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	respond(w, r, api.QueriesResponse{Queries: entries, Count: len(entries)})
}

// Export handles GET /api/dashboard/export.
// The file is built in memory first so a failure can still be reported as a problem.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, q, err := h.validator.ExportRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewUnsupportedError(err.Error(), err))
		return
	}

	var buf bytes.Buffer
	rows, err := h.service.Export(r.Context(), q, format, &buf)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(q, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Export-Rows", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("error", err.Error()))
	}
}
