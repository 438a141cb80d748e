package reader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// readCSV treats the first row as headers. Rows shorter than the header get
// empty strings for the missing trailing fields; extra fields are kept under
// "column_N" keys. Repeated header names are suffixed ("name_2") so no cell
// is lost.
func readCSV(data []byte) (any, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows := []any{}
	var headers []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(DelimitedTable, err)
		}

		if headers == nil {
			headers = uniqueHeaders(record)
			continue
		}

		row := make(map[string]any, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		for i := len(headers); i < len(record); i++ {
			row[fmt.Sprintf("column_%d", i+1)] = record[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func uniqueHeaders(record []string) []string {
	headers := make([]string, len(record))
	taken := make(map[string]bool, len(record))
	for i, h := range record {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		taken[headers[i]] = true
	}

	seen := make(map[string]int, len(record))
	for i, h := range headers {
		seen[h]++
		if seen[h] == 1 {
			continue
		}
		n := seen[h]
		name := fmt.Sprintf("%s_%d", h, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s_%d", h, n)
		}
		seen[h] = n
		taken[name] = true
		headers[i] = name
	}
	return headers
}
