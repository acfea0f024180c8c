// Package source reads batch input files into rows.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kursadbilgin/wabatch/internal/domain"
)

// ReadCSV loads up to max rows from a header-mapped CSV file. max <= 0 means
// no cap. A UTF-8 BOM on the first header cell is stripped.
func ReadCSV(path string, max int) ([]domain.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return readCSV(f, max)
}

func readCSV(r io.Reader, max int) ([]domain.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = strings.TrimSpace(name)
	}

	var rows []domain.Row
	for {
		if max > 0 && len(rows) >= max {
			break
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(rows)+2, err)
		}

		fields := make(map[string]string, len(columns))
		for i, column := range columns {
			if column == "" || i >= len(record) {
				continue
			}
			fields[column] = record[i]
		}
		rows = append(rows, domain.RowFromMap(fields))
	}

	return rows, nil
}
