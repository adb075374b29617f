package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"avocadoanalytics/internal/config"
	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/pkg/contracts"
	api "avocadoanalytics/pkg/contracts/api/v1"
	"avocadoanalytics/pkg/contracts/domain"
)

// Locations inside the frontend filesystem
const (
	IndexTemplate = "templates/index.html"
	StaticDir     = "static"
)

// OptionsProvider supplies the data the page is rendered with
type OptionsProvider interface {
	Options(ctx context.Context) api.OptionsResponse
}

// PageHandler serves the dashboard page and its static assets
type PageHandler struct {
	tmpl         *template.Template
	static       http.Handler
	options      OptionsProvider
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// pageData is the template context of index.html
type pageData struct {
	api.OptionsResponse
	DefaultRegion   string
	DefaultType     string
	StartDate       string
	EndDate         string
	MinDate         string
	MaxDate         string
	FontStylesheet  string
	PlotlyScriptURL string
	PriceChartID    string
	VolumeChartID   string
	Version         string
}

// NewPageHandler parses the index template and prepares the static file server
func NewPageHandler(frontend fs.FS, options OptionsProvider, logger *slog.Logger) (*PageHandler, error) {
	logger = logger.With(slog.String("handler", "page"))

	tmpl, err := template.ParseFS(frontend, IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	staticFS, err := fs.Sub(frontend, StaticDir)
	if err != nil {
		return nil, fmt.Errorf("open static assets: %w", err)
	}

	return &PageHandler{
		tmpl:         tmpl,
		static:       http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))),
		options:      options,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}, nil
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	opts := h.options.Options(r.Context())
	data := pageData{
		OptionsResponse: opts,
		DefaultRegion:   opts.Defaults.Region,
		DefaultType:     string(opts.Defaults.Type),
		StartDate:       domain.FormatDate(opts.Defaults.StartDate),
		EndDate:         domain.FormatDate(opts.Defaults.EndDate),
		MinDate:         domain.FormatDate(opts.Bounds.Min),
		MaxDate:         domain.FormatDate(opts.Bounds.Max),
		FontStylesheet:  config.FontStylesheet,
		PlotlyScriptURL: config.PlotlyScriptURL,
		PriceChartID:    config.PriceChartID,
		VolumeChartID:   config.VolumeChartID,
		Version:         contracts.Version,
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Static serves /static/* from the embedded assets
func (h *PageHandler) Static() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		h.static.ServeHTTP(w, r)
	})
}
