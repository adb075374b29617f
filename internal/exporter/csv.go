package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"avocadoanalytics/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes records with a header row, prefixed by a UTF-8 BOM
func WriteCSV(w io.Writer, records []domain.PriceRecord) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	row := make([]string, len(Header))
	for i, r := range records {
		row[0] = domain.FormatDate(r.Date)
		row[1] = formatNumber(r.AveragePrice)
		row[2] = formatNumber(r.TotalVolume)
		row[3] = string(r.Type)
		row[4] = r.Region
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
