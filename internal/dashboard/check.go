package dashboard

import (
	"fmt"

	"avocadoanalytics/internal/dataset"
	"avocadoanalytics/pkg/contracts/domain"
)

// Check lists the reasons q cannot match anything useful in ds.
// It returns nil for a query that is consistent with the data.
func Check(ds *dataset.Dataset, q domain.FilterQuery) []string {
	if ds == nil {
		return []string{"no dataset loaded"}
	}

	var warnings []string

	if q.HasRegion() && !ds.HasRegion(q.Region) {
		warnings = append(warnings, fmt.Sprintf("unknown region %q", q.Region))
	}

	if q.HasType() {
		switch {
		case !q.Type.IsValid():
			warnings = append(warnings, fmt.Sprintf("unknown type %q", q.Type))
		case !ds.HasType(q.Type):
			warnings = append(warnings, fmt.Sprintf("type %q has no records", q.Type))
		}
	}

	if q.IsInverted() {
		warnings = append(warnings, fmt.Sprintf("start_date %s is after end_date %s",
			domain.FormatDate(q.StartDate), domain.FormatDate(q.EndDate)))
	}

	bounds := ds.Bounds()
	if q.HasStart() && !bounds.Contains(q.StartDate) {
		warnings = append(warnings, fmt.Sprintf("start_date %s is outside the data span %s..%s",
			domain.FormatDate(q.StartDate), domain.FormatDate(bounds.Min), domain.FormatDate(bounds.Max)))
	}
	if q.HasEnd() && !bounds.Contains(q.EndDate) {
		warnings = append(warnings, fmt.Sprintf("end_date %s is outside the data span %s..%s",
			domain.FormatDate(q.EndDate), domain.FormatDate(bounds.Min), domain.FormatDate(bounds.Max)))
	}

	return warnings
}
