package utils

import (
	"encoding/csv"
	"io"
)

// ParseCSV reads a whole CSV document into rows, header row included.
// Used by the seeder to import site master data.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}
