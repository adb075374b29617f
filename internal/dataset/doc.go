// Package dataset loads the avocado sales file into an immutable, date-sorted
// Dataset.
//
// The loader accepts CSV and XLSX input with the same header contract: the
// columns Date, region, type, AveragePrice and Total Volume, matched by exact
// name. Column order is free and other columns are ignored. Any missing column,
// unparsable value, negative number or unknown type fails the whole load with a
// *ParseError that names the line and column.
//
// Usage:
//
//	ds, err := dataset.Load(ctx, "data/avocado.csv")
//	if err != nil {
//	    return fmt.Errorf("load dataset: %w", err)
//	}
//	fmt.Println(ds.Len(), ds.Bounds())
//
// A Dataset is safe for concurrent reads and is never mutated after Load.
package dataset
