package dataset

import (
	"slices"
	"time"

	"avocadoanalytics/pkg/contracts/domain"
)

// Dataset is the full, immutable, date-sorted collection of price records
type Dataset struct {
	records  []domain.PriceRecord
	regions  []string
	types    []domain.AvocadoType
	bounds   domain.DateBounds
	source   string
	loadedAt time.Time
}

// New builds a Dataset from records. The slice is copied and stably sorted by
// date, so rows sharing a date keep their input order.
func New(records []domain.PriceRecord, source string) (*Dataset, error) {
	if len(records) == 0 {
		return nil, &ParseError{Source: source, Err: errNoRows}
	}

	sorted := make([]domain.PriceRecord, len(records))
	copy(sorted, records)
	slices.SortStableFunc(sorted, func(a, b domain.PriceRecord) int {
		return a.Date.Compare(b.Date)
	})

	regionSet := make(map[string]struct{})
	typeSet := make(map[domain.AvocadoType]struct{})
	for _, r := range sorted {
		regionSet[r.Region] = struct{}{}
		typeSet[r.Type] = struct{}{}
	}

	regions := make([]string, 0, len(regionSet))
	for r := range regionSet {
		regions = append(regions, r)
	}
	slices.Sort(regions)

	types := make([]domain.AvocadoType, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	slices.Sort(types)

	return &Dataset{
		records: sorted,
		regions: regions,
		types:   types,
		bounds: domain.DateBounds{
			Min: domain.TruncateDate(sorted[0].Date),
			Max: domain.TruncateDate(sorted[len(sorted)-1].Date),
		},
		source:   source,
		loadedAt: time.Now().UTC(),
	}, nil
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Range calls fn for each record in ascending date order until fn returns false
func (d *Dataset) Range(fn func(domain.PriceRecord) bool) {
	for _, r := range d.records {
		if !fn(r) {
			return
		}
	}
}

// Records returns a copy of all records in ascending date order
func (d *Dataset) Records() []domain.PriceRecord {
	return slices.Clone(d.records)
}

// Regions returns the sorted unique region names
func (d *Dataset) Regions() []string {
	return slices.Clone(d.regions)
}

// Types returns the sorted unique avocado types
func (d *Dataset) Types() []domain.AvocadoType {
	return slices.Clone(d.types)
}

// HasRegion reports whether any record belongs to region
func (d *Dataset) HasRegion(region string) bool {
	_, found := slices.BinarySearch(d.regions, region)
	return found
}

// HasType reports whether any record has type t
func (d *Dataset) HasType(t domain.AvocadoType) bool {
	_, found := slices.BinarySearch(d.types, t)
	return found
}

// Bounds returns the earliest and latest record dates
func (d *Dataset) Bounds() domain.DateBounds {
	return d.bounds
}

// Source returns the path or name the dataset was loaded from
func (d *Dataset) Source() string {
	return d.source
}

// LoadedAt returns when the dataset was built
func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

// Summary describes the dataset for health and CLI output
func (d *Dataset) Summary() domain.DatasetSummary {
	return domain.DatasetSummary{
		Source:   d.source,
		Rows:     len(d.records),
		Regions:  len(d.regions),
		Types:    len(d.types),
		Bounds:   d.bounds,
		LoadedAt: d.loadedAt,
	}
}
