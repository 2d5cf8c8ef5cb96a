package bulk

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"crmbulk_backend/platform/apperr"
)

// FailuresCSV renders the failed rows of a run as a CSV document for
// download, so the operator can fix and re-upload just the failures. The
// given columns define the cell order; columns absent from a failure's data
// stay empty. When columns is nil, the union of all failure columns is used
// in sorted order.
func FailuresCSV(failed []RowFailure, columns []string) ([]byte, error) {
	if len(columns) == 0 {
		seen := make(map[string]struct{})
		for _, f := range failed {
			for column := range f.Data {
				seen[column] = struct{}{}
			}
		}
		for column := range seen {
			columns = append(columns, column)
		}
		sort.Strings(columns)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{"row", "error"}, columns...)
	if err := w.Write(header); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not write CSV", err)
	}

	for _, f := range failed {
		record := make([]string, 0, len(header))
		record = append(record, strconv.Itoa(f.Row), f.Error)
		for _, column := range columns {
			record = append(record, f.Data[column])
		}
		if err := w.Write(record); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not write CSV", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not write CSV", err)
	}
	return buf.Bytes(), nil
}
