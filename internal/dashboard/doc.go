// Package dashboard holds the filter-and-render mapping of the avocado dashboard.
//
// Render is a pure function of a dataset and a query. It never fails: a query
// that matches nothing, including one whose start date is after its end date,
// yields two charts with empty series. Check reports such problems separately
// as human-readable warnings so callers can surface them without rejecting the
// request.
package dashboard
