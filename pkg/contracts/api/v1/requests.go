// Package api contains the HTTP API contracts of the dashboard.
// Version v1 represents the current stable API version.
package api

// ChartsRequest carries the raw filter parameters of a chart or records request.
// All fields are optional; dates must be YYYY-MM-DD when present.
type ChartsRequest struct {
	Region    string `json:"region" query:"region"`
	Type      string `json:"type" query:"type"`
	StartDate string `json:"start_date" query:"start_date" validate:"omitempty,iso8601"`
	EndDate   string `json:"end_date" query:"end_date" validate:"omitempty,iso8601"`
}

// ExportRequest is a ChartsRequest plus the download format
type ExportRequest struct {
	ChartsRequest
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
}

// QueriesRequest asks for the most recent entries of the query log
type QueriesRequest struct {
	Limit int `json:"limit" query:"limit" validate:"min=1,max=500"`
}
