package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// RejectFunc is called for each row that fails to parse. Returning a non-nil
// error stops decoding with that error.
type RejectFunc func(*domain.RowError) error

// Decode parses one turbine table. The first record is the header; every
// following row is tagged with the file's source and turbine ID.
func Decode(r io.Reader, file domain.TurbineFile, reject RejectFunc) (domain.TurbineTable, error) {
	table := domain.TurbineTable{File: file}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table, fmt.Errorf("%s: missing header", file.File)
	}
	if err != nil {
		return table, fmt.Errorf("%s: read header: %w", file.File, err)
	}
	cols, err := domain.NewColumnMap(header)
	if err != nil {
		return table, fmt.Errorf("%s: %w", file.File, err)
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table, fmt.Errorf("%s: %w", file.File, err)
		}
		if isBlank(row) {
			continue
		}

		reading, err := cols.Parse(row, file)
		if err != nil {
			line, _ := cr.FieldPos(0)
			rowErr := &domain.RowError{File: file.File, Line: line, Err: err}
			if errors.Is(err, domain.ErrUnknownSource) {
				return table, rowErr
			}
			table.Rejected++
			if reject != nil {
				if stop := reject(rowErr); stop != nil {
					return table, stop
				}
			}
			continue
		}
		table.Readings = append(table.Readings, reading)
	}
	return table, nil
}

func isBlank(row []string) bool {
	return len(row) == 1 && row[0] == ""
}
