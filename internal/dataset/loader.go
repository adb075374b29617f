package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"avocadoanalytics/pkg/contracts/domain"
)

// Header names of the input contract, matched exactly
const (
	ColumnDate         = "Date"
	ColumnRegion       = "region"
	ColumnType         = "type"
	ColumnAveragePrice = "AveragePrice"
	ColumnTotalVolume  = "Total Volume"
)

// Columns lists the required columns in canonical order
var Columns = []string{ColumnDate, ColumnAveragePrice, ColumnTotalVolume, ColumnType, ColumnRegion}

const ctxCheckInterval = 4096

var errNoRows = errors.New("no data rows")

// Load reads the file at path, dispatching on its extension
func Load(ctx context.Context, path string) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	if ext == ".xlsx" {
		return LoadXLSX(ctx, f, path)
	}
	return LoadCSV(ctx, f, path)
}

// LoadCSV parses CSV input. source names the input in errors and the summary.
func LoadCSV(ctx context.Context, r io.Reader, source string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Source: source, Err: errors.New("empty file")}
		}
		return nil, csvError(source, err)
	}
	cols, err := indexHeader(header, source)
	if err != nil {
		return nil, err
	}

	var records []domain.PriceRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		if len(records)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line, _ := reader.FieldPos(0)
		rec, err := cols.parseRow(row, line, source, domain.ParseDate)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return New(records, source)
}

// LoadXLSX parses the first sheet of an XLSX workbook
func LoadXLSX(ctx context.Context, r io.Reader, source string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Source: source, Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Source: source, Err: errors.New("empty sheet")}
	}

	cols, err := indexHeader(rows[0], source)
	if err != nil {
		return nil, err
	}

	records := make([]domain.PriceRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cols.parseRow(row, i+2, source, parseCellDate)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return New(records, source)
}

// columnIndex maps a required column name to its position in a row
type columnIndex map[string]int

func indexHeader(header []string, source string) (columnIndex, error) {
	cols := make(columnIndex, len(Columns))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	for _, required := range Columns {
		if _, ok := cols[required]; !ok {
			return nil, &ParseError{Source: source, Line: 1, Column: required, Err: errors.New("missing required column")}
		}
	}
	return cols, nil
}

func (c columnIndex) cell(row []string, name string) string {
	idx := c[name]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (c columnIndex) parseRow(row []string, line int, source string, parseDate func(string) (time.Time, error)) (domain.PriceRecord, error) {
	fail := func(column, value string, err error) (domain.PriceRecord, error) {
		return domain.PriceRecord{}, &ParseError{Source: source, Line: line, Column: column, Value: value, Err: err}
	}

	raw := c.cell(row, ColumnDate)
	date, err := parseDate(raw)
	if err != nil {
		return fail(ColumnDate, raw, errors.New("date must be YYYY-MM-DD"))
	}

	region := c.cell(row, ColumnRegion)
	if region == "" {
		return fail(ColumnRegion, region, errors.New("region is empty"))
	}

	raw = c.cell(row, ColumnType)
	avocadoType, err := domain.ParseAvocadoType(raw)
	if err != nil {
		return fail(ColumnType, raw, err)
	}

	raw = c.cell(row, ColumnAveragePrice)
	price, err := parseNonNegative(raw)
	if err != nil {
		return fail(ColumnAveragePrice, raw, err)
	}

	raw = c.cell(row, ColumnTotalVolume)
	volume, err := parseNonNegative(raw)
	if err != nil {
		return fail(ColumnTotalVolume, raw, err)
	}

	return domain.PriceRecord{
		Date:         date,
		Region:       region,
		Type:         avocadoType,
		AveragePrice: price,
		TotalVolume:  volume,
	}, nil
}

func parseNonNegative(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	if v < 0 {
		return 0, errors.New("must not be negative")
	}
	return v, nil
}

// parseCellDate accepts YYYY-MM-DD text or an Excel date serial
func parseCellDate(s string) (time.Time, error) {
	if d, err := domain.ParseDate(s); err == nil {
		return d, nil
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return domain.TruncateDate(t), nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func csvError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Source: source, Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Source: source, Err: err}
}
