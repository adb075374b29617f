package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by the dataset and the API
const DateLayout = "2006-01-02"

// AvocadoType is the produce category of a record
type AvocadoType string

const (
	AvocadoTypeConventional AvocadoType = "conventional"
	AvocadoTypeOrganic      AvocadoType = "organic"
)

// IsValid reports whether t is one of the known avocado types
func (t AvocadoType) IsValid() bool {
	switch t {
	case AvocadoTypeConventional, AvocadoTypeOrganic:
		return true
	default:
		return false
	}
}

// Label returns the title-cased display label ("organic" -> "Organic")
func (t AvocadoType) Label() string {
	return TitleCase(string(t))
}

// ParseAvocadoType converts a raw value into an AvocadoType
func ParseAvocadoType(s string) (AvocadoType, error) {
	t := AvocadoType(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown avocado type %q", s)
	}
	return t, nil
}

// PriceRecord is one row of avocado sales data for a region, type and date
type PriceRecord struct {
	Date         time.Time   `json:"date"`
	Region       string      `json:"region"`
	Type         AvocadoType `json:"type"`
	AveragePrice float64     `json:"average_price"`
	TotalVolume  float64     `json:"total_volume"`
}

// MarshalJSON encodes the date as YYYY-MM-DD
func (r PriceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date         string      `json:"date"`
		Region       string      `json:"region"`
		Type         AvocadoType `json:"type"`
		AveragePrice float64     `json:"average_price"`
		TotalVolume  float64     `json:"total_volume"`
	}{
		Date:         FormatDate(r.Date),
		Region:       r.Region,
		Type:         r.Type,
		AveragePrice: r.AveragePrice,
		TotalVolume:  r.TotalVolume,
	})
}

// DateBounds is the inclusive span of dates covered by a dataset
type DateBounds struct {
	Min time.Time
	Max time.Time
}

// MarshalJSON encodes both bounds as YYYY-MM-DD
func (b DateBounds) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"min": FormatDate(b.Min),
		"max": FormatDate(b.Max),
	})
}

// UnmarshalJSON decodes bounds written by MarshalJSON
func (b *DateBounds) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out DateBounds
	var err error
	if v := raw["min"]; v != "" {
		if out.Min, err = ParseDate(v); err != nil {
			return fmt.Errorf("date_bounds.min: %w", err)
		}
	}
	if v := raw["max"]; v != "" {
		if out.Max, err = ParseDate(v); err != nil {
			return fmt.Errorf("date_bounds.max: %w", err)
		}
	}
	*b = out
	return nil
}

// Contains reports whether d falls inside the bounds (inclusive)
func (b DateBounds) Contains(d time.Time) bool {
	d = TruncateDate(d)
	return !d.Before(b.Min) && !d.After(b.Max)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatDate renders t as YYYY-MM-DD, or "" for the zero time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// TruncateDate drops the clock part of t, keeping the calendar date in UTC
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TitleCase upper-cases the first letter of every space separated word
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
