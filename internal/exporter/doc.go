// Package exporter writes filtered avocado records as CSV or XLSX downloads.
//
// Both formats use the dataset header contract (Date, AveragePrice,
// Total Volume, type, region) so an exported file can be loaded back with
// package dataset.
//
// Example usage:
//
//	format, err := exporter.ParseFormat("xlsx")
//	if err != nil {
//	    return err
//	}
//	w.Header().Set("Content-Type", format.ContentType())
//	err = exporter.Write(w, format, records)
package exporter
