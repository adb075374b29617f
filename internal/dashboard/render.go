package dashboard

import (
	"avocadoanalytics/internal/config"
	"avocadoanalytics/internal/dataset"
	"avocadoanalytics/pkg/contracts/domain"
)

const (
	traceTypeLines = "lines"
	titleX         = 0.05
	titleAnchor    = "left"
)

// PricePresentation styles the average price chart
var PricePresentation = domain.Presentation{
	TraceType:     traceTypeLines,
	HoverTemplate: "$%{y:.2f}<extra></extra>",
	YTickPrefix:   "$",
	Color:         config.PriceChartColor,
	TitleX:        titleX,
	TitleAnchor:   titleAnchor,
	FixedRange:    true,
}

// VolumePresentation styles the total volume chart
var VolumePresentation = domain.Presentation{
	TraceType:   traceTypeLines,
	Color:       config.VolumeChartColor,
	TitleX:      titleX,
	TitleAnchor: titleAnchor,
	FixedRange:  true,
}

// Render selects the records matching q and returns the price and volume charts.
// Points keep the dataset's ascending date order. Series are never nil.
func Render(ds *dataset.Dataset, q domain.FilterQuery) (price, volume domain.Chart) {
	prices := make(domain.ChartSeries, 0)
	volumes := make(domain.ChartSeries, 0)

	if ds != nil && !q.IsInverted() {
		ds.Range(func(r domain.PriceRecord) bool {
			if q.Matches(r) {
				prices = append(prices, domain.ChartPoint{Date: r.Date, Value: r.AveragePrice})
				volumes = append(volumes, domain.ChartPoint{Date: r.Date, Value: r.TotalVolume})
			}
			return true
		})
	}

	price = domain.Chart{
		ID:           config.PriceChartID,
		Title:        config.PriceChartTitle,
		Series:       prices,
		Presentation: PricePresentation,
	}
	volume = domain.Chart{
		ID:           config.VolumeChartID,
		Title:        config.VolumeChartTitle,
		Series:       volumes,
		Presentation: VolumePresentation,
	}
	return price, volume
}

// RenderPair is Render returning both charts as one value
func RenderPair(ds *dataset.Dataset, q domain.FilterQuery) domain.ChartPair {
	price, volume := Render(ds, q)
	return domain.ChartPair{Price: price, Volume: volume}
}

// Filter returns the matching records in ascending date order
func Filter(ds *dataset.Dataset, q domain.FilterQuery) []domain.PriceRecord {
	out := make([]domain.PriceRecord, 0)
	if ds == nil || q.IsInverted() {
		return out
	}
	ds.Range(func(r domain.PriceRecord) bool {
		if q.Matches(r) {
			out = append(out, r)
		}
		return true
	})
	return out
}
