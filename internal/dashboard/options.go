package dashboard

import (
	"fmt"

	"avocadoanalytics/internal/dataset"
	"avocadoanalytics/pkg/contracts/domain"
)

// Options builds the dropdown entries and date bounds offered by the page
func Options(ds *dataset.Dataset, defaults domain.FilterQuery) domain.DashboardOptions {
	regions := ds.Regions()
	regionOpts := make([]domain.Option, 0, len(regions))
	for _, r := range regions {
		regionOpts = append(regionOpts, domain.Option{Label: r, Value: r})
	}

	types := ds.Types()
	typeOpts := make([]domain.Option, 0, len(types))
	for _, t := range types {
		typeOpts = append(typeOpts, domain.Option{Label: t.Label(), Value: string(t)})
	}

	return domain.DashboardOptions{
		Regions:  regionOpts,
		Types:    typeOpts,
		Bounds:   ds.Bounds(),
		Defaults: defaults,
	}
}

// ResolveDefaults builds the initial query: the given region and type over the
// full data span. A region or type absent from the data is replaced by the first
// sorted value, and the substitution is reported as a warning.
func ResolveDefaults(ds *dataset.Dataset, region, avocadoType string) (domain.FilterQuery, []string) {
	var warnings []string

	if !ds.HasRegion(region) {
		fallback := ds.Regions()[0]
		warnings = append(warnings, fmt.Sprintf("default region %q not in data, using %q", region, fallback))
		region = fallback
	}

	t := domain.AvocadoType(avocadoType)
	if !ds.HasType(t) {
		fallback := ds.Types()[0]
		warnings = append(warnings, fmt.Sprintf("default type %q not in data, using %q", avocadoType, fallback))
		t = fallback
	}

	bounds := ds.Bounds()
	return domain.FilterQuery{
		Region:    region,
		Type:      t,
		StartDate: bounds.Min,
		EndDate:   bounds.Max,
	}, warnings
}
