package api

import (
	"time"

	"avocadoanalytics/pkg/contracts/domain"
)

// ChartsResponse is the data object returned by GET /api/dashboard/charts
type ChartsResponse struct {
	Query       domain.FilterQuery `json:"query"`
	PriceChart  domain.Figure      `json:"price_chart"`
	VolumeChart domain.Figure      `json:"volume_chart"`
	Count       int                `json:"count"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// PageMeta carries the static texts of the dashboard page
type PageMeta struct {
	Title       string `json:"title"`
	Emoji       string `json:"emoji"`
	Heading     string `json:"heading"`
	Description string `json:"description"`
}

// OptionsResponse is the data object returned by GET /api/dashboard/options
type OptionsResponse struct {
	domain.DashboardOptions
	Page     PageMeta `json:"page"`
	Warnings []string `json:"warnings,omitempty"`
}

// QueryLogEntry is one row of GET /api/dashboard/queries
type QueryLogEntry struct {
	ID         int64              `json:"id"`
	At         time.Time          `json:"at"`
	Source     string             `json:"source"`
	Query      domain.FilterQuery `json:"query"`
	Points     int                `json:"points"`
	DurationMS float64            `json:"duration_ms"`
}

// RecordsResponse is the data object returned by GET /api/dashboard/records
type RecordsResponse struct {
	Query    domain.FilterQuery   `json:"query"`
	Records  []domain.PriceRecord `json:"records"`
	Count    int                  `json:"count"`
	Warnings []string             `json:"warnings,omitempty"`
}

// QueriesResponse is the data object returned by GET /api/dashboard/queries
type QueriesResponse struct {
	Queries []QueryLogEntry `json:"queries"`
	Count   int             `json:"count"`
}
