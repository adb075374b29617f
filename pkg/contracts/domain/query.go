package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FilterQuery is the set of user-selected filter criteria.
// An empty Region or Type, or a zero StartDate or EndDate, places no constraint
// on that field.
type FilterQuery struct {
	Region    string
	Type      AvocadoType
	StartDate time.Time
	EndDate   time.Time
}

// HasRegion reports whether a region constraint is set
func (q FilterQuery) HasRegion() bool { return q.Region != "" }

// HasType reports whether a type constraint is set
func (q FilterQuery) HasType() bool { return q.Type != "" }

// HasStart reports whether a lower date bound is set
func (q FilterQuery) HasStart() bool { return !q.StartDate.IsZero() }

// HasEnd reports whether an upper date bound is set
func (q FilterQuery) HasEnd() bool { return !q.EndDate.IsZero() }

// Matches applies the four predicates to a single record.
// Date comparison is by calendar day and both bounds are inclusive.
func (q FilterQuery) Matches(r PriceRecord) bool {
	if q.HasRegion() && r.Region != q.Region {
		return false
	}
	if q.HasType() && r.Type != q.Type {
		return false
	}
	d := TruncateDate(r.Date)
	if q.HasStart() && d.Before(TruncateDate(q.StartDate)) {
		return false
	}
	if q.HasEnd() && d.After(TruncateDate(q.EndDate)) {
		return false
	}
	return true
}

// IsInverted reports whether both bounds are set and the start is after the end
func (q FilterQuery) IsInverted() bool {
	return q.HasStart() && q.HasEnd() && TruncateDate(q.StartDate).After(TruncateDate(q.EndDate))
}

// String renders the query for logs
func (q FilterQuery) String() string {
	return fmt.Sprintf("region=%q type=%q start=%s end=%s",
		q.Region, q.Type, FormatDate(q.StartDate), FormatDate(q.EndDate))
}

type filterQueryJSON struct {
	Region    string      `json:"region,omitempty"`
	Type      AvocadoType `json:"type,omitempty"`
	StartDate string      `json:"start_date,omitempty"`
	EndDate   string      `json:"end_date,omitempty"`
}

// MarshalJSON encodes the query with YYYY-MM-DD dates
func (q FilterQuery) MarshalJSON() ([]byte, error) {
	return json.Marshal(filterQueryJSON{
		Region:    q.Region,
		Type:      q.Type,
		StartDate: FormatDate(q.StartDate),
		EndDate:   FormatDate(q.EndDate),
	})
}

// UnmarshalJSON decodes a query with YYYY-MM-DD dates
func (q *FilterQuery) UnmarshalJSON(data []byte) error {
	var raw filterQueryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewFilterQuery(raw.Region, string(raw.Type), raw.StartDate, raw.EndDate)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// NewFilterQuery builds a query from raw string values.
// Only syntax is checked here: dates must be YYYY-MM-DD when present.
// Unknown regions or types are kept as given and simply match nothing.
func NewFilterQuery(region, avocadoType, startDate, endDate string) (FilterQuery, error) {
	q := FilterQuery{
		Region: region,
		Type:   AvocadoType(avocadoType),
	}
	if startDate != "" {
		d, err := ParseDate(startDate)
		if err != nil {
			return FilterQuery{}, fmt.Errorf("invalid start_date %q: %w", startDate, err)
		}
		q.StartDate = d
	}
	if endDate != "" {
		d, err := ParseDate(endDate)
		if err != nil {
			return FilterQuery{}, fmt.Errorf("invalid end_date %q: %w", endDate, err)
		}
		q.EndDate = d
	}
	return q, nil
}
