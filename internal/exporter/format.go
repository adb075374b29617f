package exporter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"avocadoanalytics/internal/dataset"
	"avocadoanalytics/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for any format other than csv or xlsx
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is a download format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a raw value into a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds a download name such as avocado_Albany_organic_2015-01-04_2018-03-25.csv
func FileName(q domain.FilterQuery, f Format) string {
	parts := []string{"avocado"}
	if q.HasRegion() {
		parts = append(parts, sanitize(q.Region))
	}
	if q.HasType() {
		parts = append(parts, sanitize(string(q.Type)))
	}
	if q.HasStart() {
		parts = append(parts, domain.FormatDate(q.StartDate))
	}
	if q.HasEnd() {
		parts = append(parts, domain.FormatDate(q.EndDate))
	}
	return strings.Join(parts, "_") + "." + string(f)
}

// Write encodes records in the given format
func Write(w io.Writer, f Format, records []domain.PriceRecord) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

// Header is the column order of every export
var Header = []string{
	dataset.ColumnDate,
	dataset.ColumnAveragePrice,
	dataset.ColumnTotalVolume,
	dataset.ColumnType,
	dataset.ColumnRegion,
}

// formatNumber keeps every significant digit, so a written file loads back unchanged
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
