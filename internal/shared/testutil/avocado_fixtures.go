package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// AvocadoCSV is a small dataset in the layout of the public avocado price file:
// an unnamed index column, extra per-bag columns, and rows not in date order.
//
// Albany/organic has three weeks (2015-01-04, -11, -18); Boston/organic has
// 2015-01-04 and 2015-01-25; the span is 2015-01-04..2015-01-25.
const AvocadoCSV = `,Date,AveragePrice,Total Volume,Total Bags,type,year,region
0,2015-01-18,1.39,1000.5,120,organic,2015,Albany
1,2015-01-11,1.24,900,110,organic,2015,Albany
2,2015-01-04,1.22,800,100,organic,2015,Albany
3,2015-01-04,1.00,5000,600,conventional,2015,Albany
4,2015-01-11,0.99,5100,610,conventional,2015,Albany
5,2015-01-25,1.45,310,40,organic,2015,Boston
6,2015-01-04,1.50,300,30,organic,2015,Boston
7,2015-01-18,1.10,4000,500,conventional,2015,Boston
`

// AvocadoRows is the number of data rows in AvocadoCSV
const AvocadoRows = 8

// WriteFile writes content to name inside a fresh temp dir and returns the path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteAvocadoCSV writes AvocadoCSV to a temp file and returns its path
func WriteAvocadoCSV(t *testing.T) string {
	t.Helper()
	return WriteFile(t, "avocado.csv", AvocadoCSV)
}
