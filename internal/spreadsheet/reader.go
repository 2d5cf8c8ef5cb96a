// Package spreadsheet parses uploaded CSV and XLSX files into string rows.
// Every cell is kept as a string so numeric and date values are never
// silently coerced; the first row is always the header.
package spreadsheet

import (
	"encoding/csv"
	"io"
	"strings"

	"crmbulk_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

// Row is one input record: column name to raw cell value. Blank cells are
// present as empty strings so the engine can distinguish an empty cell from
// an unmapped column.
type Row map[string]string

// Table is a parsed upload: ordered header plus rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// Get returns the trimmed value of a column and whether the column exists in
// the row.
func (r Row) Get(column string) (string, bool) {
	value, ok := r[column]
	return strings.TrimSpace(value), ok
}

// ReadCSV parses CSV content. Short records are padded with empty cells;
// extra cells beyond the header are dropped.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "Could not parse CSV file", err)
	}
	if len(records) == 0 {
		return nil, apperr.BadRequest("Upload file is empty")
	}

	return fromRecords(records), nil
}

// ReadXLSX parses the first sheet of an XLSX upload.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "Could not parse XLSX file", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.BadRequest("Upload file has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "Could not read XLSX sheet", err)
	}
	if len(records) == 0 {
		return nil, apperr.BadRequest("Upload file is empty")
	}

	return fromRecords(records), nil
}

func fromRecords(records [][]string) *Table {
	header := make([]string, 0, len(records[0]))
	for _, name := range records[0] {
		header = append(header, strings.TrimSpace(name))
	}

	table := &Table{Columns: header, Rows: make([]Row, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, column := range header {
			if column == "" {
				continue
			}
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
